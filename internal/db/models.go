package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/simdigmanuda/pdp.sim/internal/matcher"
	"github.com/simdigmanuda/pdp.sim/internal/period"
	"github.com/simdigmanuda/pdp.sim/internal/schedule"
)

type AdminUser struct {
	ID           int64
	Username     string
	Name         string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Teacher struct {
	ID          int64
	Name        string
	NIP         string
	UploadToken string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Class struct {
	ID        int64
	Name      string
	Grade     string
	CreatedAt time.Time
}

type Subject struct {
	ID        int64
	Name      string
	Code      string
	CreatedAt time.Time
}

type AllocationSlot struct {
	ID          int64
	Day         int
	Period      *int
	StartMinute int
	EndMinute   int
	Note        string
}

func (a AllocationSlot) Schedule() schedule.AllocationSlot {
	return schedule.AllocationSlot{
		ID:          a.ID,
		Day:         a.Day,
		Period:      a.Period,
		StartMinute: a.StartMinute,
		EndMinute:   a.EndMinute,
		Note:        a.Note,
	}
}

type TimetableEntry struct {
	ID          int64
	TeacherID   int64
	SubjectID   int64
	ClassID     int64
	Day         int
	StartMinute int
	EndMinute   int
}

func (t TimetableEntry) Schedule() schedule.TimetableEntry {
	return schedule.TimetableEntry{
		ID:          t.ID,
		TeacherID:   t.TeacherID,
		SubjectID:   t.SubjectID,
		ClassID:     t.ClassID,
		Day:         t.Day,
		StartMinute: t.StartMinute,
		EndMinute:   t.EndMinute,
	}
}

// SubmissionBatch is one upload together with every period it claims.
type SubmissionBatch struct {
	ID            pgtype.UUID
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

func (b SubmissionBatch) IDString() string {
	if !b.ID.Valid {
		return ""
	}
	return uuid.UUID(b.ID.Bytes).String()
}

// Submissions expands the batch into one matcher submission per claimed
// period. A batch without claims yields a single submission with no period.
func (b SubmissionBatch) Submissions() []matcher.Submission {
	base := matcher.Submission{
		ID:            b.IDString(),
		TeacherID:     b.TeacherID,
		ClassID:       b.ClassID,
		SubjectID:     b.SubjectID,
		Periods:       period.Of(b.Periods...),
		Latitude:      b.Latitude,
		Longitude:     b.Longitude,
		LocationValid: b.LocationValid,
		CreatedAt:     b.CreatedAt,
	}
	if b.PhotoPath != nil {
		base.PhotoPath = *b.PhotoPath
	}
	if len(base.Periods) == 0 {
		return []matcher.Submission{base}
	}
	out := make([]matcher.Submission, 0, len(base.Periods))
	for _, p := range base.Periods {
		sub := base
		claimed := p
		sub.Period = &claimed
		out = append(out, sub)
	}
	return out
}

// Submissions flattens batches for the matcher.
func Submissions(batches []SubmissionBatch) []matcher.Submission {
	var out []matcher.Submission
	for _, b := range batches {
		out = append(out, b.Submissions()...)
	}
	return out
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func pgUUIDs(ids []uuid.UUID) []pgtype.UUID {
	out := make([]pgtype.UUID, 0, len(ids))
	for _, id := range ids {
		out = append(out, pgUUID(id))
	}
	return out
}
