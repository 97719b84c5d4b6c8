package db

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

const teacherColumns = `id, name, nip, upload_token, active, created_at, updated_at`

func scanTeacher(row interface{ Scan(...interface{}) error }) (Teacher, error) {
	var t Teacher
	err := row.Scan(&t.ID, &t.Name, &t.NIP, &t.UploadToken, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (q *Queries) ListTeachers(ctx context.Context) ([]Teacher, error) {
	rows, err := q.db.Query(ctx, `SELECT `+teacherColumns+` FROM teachers ORDER BY name, id`)
	if err != nil {
		return nil, errors.Wrap(err, "list teachers")
	}
	defer rows.Close()
	var items []Teacher
	for rows.Next() {
		t, err := scanTeacher(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan teacher")
		}
		items = append(items, t)
	}
	return items, errors.Wrap(rows.Err(), "list teachers")
}

func (q *Queries) GetTeacher(ctx context.Context, id int64) (Teacher, error) {
	t, err := scanTeacher(q.db.QueryRow(ctx, `SELECT `+teacherColumns+` FROM teachers WHERE id = $1`, id))
	return t, errors.Wrap(err, "get teacher")
}

// GetTeacherByToken only resolves active teachers.
func (q *Queries) GetTeacherByToken(ctx context.Context, token string) (Teacher, error) {
	t, err := scanTeacher(q.db.QueryRow(ctx, `
		SELECT `+teacherColumns+`
		FROM teachers
		WHERE upload_token = $1 AND active
	`, token))
	return t, errors.Wrap(err, "get teacher by token")
}

type CreateTeacherParams struct {
	Name        string
	NIP         string
	UploadToken string
	Active      bool
}

func (q *Queries) CreateTeacher(ctx context.Context, arg CreateTeacherParams) (Teacher, error) {
	t, err := scanTeacher(q.db.QueryRow(ctx, `
		INSERT INTO teachers (name, nip, upload_token, active)
		VALUES ($1, $2, $3, $4)
		RETURNING `+teacherColumns,
		arg.Name, arg.NIP, arg.UploadToken, arg.Active))
	return t, errors.Wrap(err, "create teacher")
}

type UpdateTeacherParams struct {
	ID     int64
	Name   string
	NIP    string
	Active bool
}

func (q *Queries) UpdateTeacher(ctx context.Context, arg UpdateTeacherParams) (Teacher, error) {
	t, err := scanTeacher(q.db.QueryRow(ctx, `
		UPDATE teachers
		SET name = $2, nip = $3, active = $4, updated_at = $5
		WHERE id = $1
		RETURNING `+teacherColumns,
		arg.ID, arg.Name, arg.NIP, arg.Active, time.Now().UTC()))
	return t, errors.Wrap(err, "update teacher")
}

func (q *Queries) RotateTeacherToken(ctx context.Context, id int64, token string) (Teacher, error) {
	t, err := scanTeacher(q.db.QueryRow(ctx, `
		UPDATE teachers
		SET upload_token = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+teacherColumns,
		id, token, time.Now().UTC()))
	return t, errors.Wrap(err, "rotate teacher token")
}

// DeleteTeacher reports whether a row was removed.
func (q *Queries) DeleteTeacher(ctx context.Context, id int64) (bool, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM teachers WHERE id = $1`, id)
	if err != nil {
		return false, errors.Wrap(err, "delete teacher")
	}
	return tag.RowsAffected() > 0, nil
}
