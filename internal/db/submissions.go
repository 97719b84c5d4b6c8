package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type CreateSubmissionParams struct {
	ID            uuid.UUID
	TeacherID     int64
	ClassID       int64
	SubjectID     int64
	PhotoPath     *string
	Latitude      *float64
	Longitude     *float64
	LocationValid *bool
	CreatedAt     time.Time
	Periods       []int
}

// CreateSubmission writes the batch and its period claims. Run it inside
// Store.WithTx so that a batch is never stored without its claims.
func (q *Queries) CreateSubmission(ctx context.Context, arg CreateSubmissionParams) error {
	if _, err := q.db.Exec(ctx, `
		INSERT INTO submission_batches (id, teacher_id, class_id, subject_id, photo_path, latitude, longitude, location_valid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, pgUUID(arg.ID), arg.TeacherID, arg.ClassID, arg.SubjectID, arg.PhotoPath, arg.Latitude, arg.Longitude, arg.LocationValid, arg.CreatedAt); err != nil {
		return errors.Wrap(err, "insert submission batch")
	}
	for _, p := range arg.Periods {
		if _, err := q.db.Exec(ctx, `
			INSERT INTO submission_periods (batch_id, period) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, pgUUID(arg.ID), p); err != nil {
			return errors.Wrap(err, "insert submission period")
		}
	}
	return nil
}

// SubmissionFilter selects batches created in [From, To). Zero IDs disable
// the corresponding filter and a zero Limit returns everything.
type SubmissionFilter struct {
	From      time.Time
	To        time.Time
	TeacherID int64
	ClassID   int64
	SubjectID int64
	Limit     int
}

const listSubmissions = `
	SELECT b.id, b.teacher_id, b.class_id, b.subject_id, b.photo_path,
	       b.latitude, b.longitude, b.location_valid, b.created_at,
	       COALESCE(array_agg(p.period ORDER BY p.period) FILTER (WHERE p.period IS NOT NULL), '{}')::int[]
	FROM submission_batches b
	LEFT JOIN submission_periods p ON p.batch_id = b.id
	WHERE b.created_at >= $1 AND b.created_at < $2
	  AND ($3::bigint = 0 OR b.teacher_id = $3)
	  AND ($4::bigint = 0 OR b.class_id = $4)
	  AND ($5::bigint = 0 OR b.subject_id = $5)
	GROUP BY b.id
	ORDER BY b.created_at DESC, b.id
	LIMIT NULLIF($6::int, 0)
`

// ListSubmissions returns batches newest first.
func (q *Queries) ListSubmissions(ctx context.Context, arg SubmissionFilter) ([]SubmissionBatch, error) {
	rows, err := q.db.Query(ctx, listSubmissions, arg.From, arg.To, arg.TeacherID, arg.ClassID, arg.SubjectID, arg.Limit)
	if err != nil {
		return nil, errors.Wrap(err, "list submissions")
	}
	defer rows.Close()
	var items []SubmissionBatch
	for rows.Next() {
		var b SubmissionBatch
		var periods []int32
		if err := rows.Scan(&b.ID, &b.TeacherID, &b.ClassID, &b.SubjectID, &b.PhotoPath,
			&b.Latitude, &b.Longitude, &b.LocationValid, &b.CreatedAt, &periods); err != nil {
			return nil, errors.Wrap(err, "scan submission")
		}
		b.Periods = make([]int, 0, len(periods))
		for _, p := range periods {
			b.Periods = append(b.Periods, int(p))
		}
		items = append(items, b)
	}
	return items, errors.Wrap(rows.Err(), "list submissions")
}

func (q *Queries) CountSubmissions(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM submission_batches`).Scan(&n)
	return n, errors.Wrap(err, "count submissions")
}

// ClearPhotos detaches the photo of the given batches and returns the
// paths that were cleared. Rows are kept.
func (q *Queries) ClearPhotos(ctx context.Context, ids []uuid.UUID) ([]string, error) {
	return q.clearPhotos(ctx, `
		WITH old AS (
			SELECT id, photo_path FROM submission_batches
			WHERE id = ANY($1) AND photo_path IS NOT NULL
			FOR UPDATE
		)
		UPDATE submission_batches b SET photo_path = NULL
		FROM old WHERE b.id = old.id
		RETURNING old.photo_path
	`, pgUUIDs(ids))
}

// ClearPhotosBefore detaches every photo of batches created before cutoff.
func (q *Queries) ClearPhotosBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	return q.clearPhotos(ctx, `
		WITH old AS (
			SELECT id, photo_path FROM submission_batches
			WHERE created_at < $1 AND photo_path IS NOT NULL
			FOR UPDATE
		)
		UPDATE submission_batches b SET photo_path = NULL
		FROM old WHERE b.id = old.id
		RETURNING old.photo_path
	`, cutoff)
}

func (q *Queries) clearPhotos(ctx context.Context, sql string, arg interface{}) ([]string, error) {
	rows, err := q.db.Query(ctx, sql, arg)
	if err != nil {
		return nil, errors.Wrap(err, "clear photos")
	}
	defer rows.Close()
	var paths []string
	for rows.Next() {
		var path *string
		if err := rows.Scan(&path); err != nil {
			return nil, errors.Wrap(err, "scan photo path")
		}
		if path != nil && *path != "" {
			paths = append(paths, *path)
		}
	}
	return paths, errors.Wrap(rows.Err(), "clear photos")
}
