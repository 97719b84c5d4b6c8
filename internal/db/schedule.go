package db

import (
	"context"

	"github.com/pkg/errors"
)

const slotColumns = `id, day, period, start_minute, end_minute, note`

func (q *Queries) querySlots(ctx context.Context, sql string, args ...interface{}) ([]AllocationSlot, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list allocation slots")
	}
	defer rows.Close()
	var items []AllocationSlot
	for rows.Next() {
		var s AllocationSlot
		if err := rows.Scan(&s.ID, &s.Day, &s.Period, &s.StartMinute, &s.EndMinute, &s.Note); err != nil {
			return nil, errors.Wrap(err, "scan allocation slot")
		}
		items = append(items, s)
	}
	return items, errors.Wrap(rows.Err(), "list allocation slots")
}

// ListAllocationSlots returns slots in id order so that later duplicates of
// a (day, period) pair win on lookup.
func (q *Queries) ListAllocationSlots(ctx context.Context) ([]AllocationSlot, error) {
	return q.querySlots(ctx, `SELECT `+slotColumns+` FROM allocation_slots ORDER BY id`)
}

func (q *Queries) ListAllocationSlotsByDay(ctx context.Context, day int) ([]AllocationSlot, error) {
	return q.querySlots(ctx, `SELECT `+slotColumns+` FROM allocation_slots WHERE day = $1 ORDER BY id`, day)
}

func (q *Queries) AllocationSlotExists(ctx context.Context, day, period int) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM allocation_slots WHERE day = $1 AND period = $2)
	`, day, period).Scan(&exists)
	return exists, errors.Wrap(err, "check allocation slot")
}

type AllocationSlotParams struct {
	Day         int
	Period      *int
	StartMinute int
	EndMinute   int
	Note        string
}

func (q *Queries) CreateAllocationSlot(ctx context.Context, arg AllocationSlotParams) (AllocationSlot, error) {
	var s AllocationSlot
	err := q.db.QueryRow(ctx, `
		INSERT INTO allocation_slots (day, period, start_minute, end_minute, note)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+slotColumns,
		arg.Day, arg.Period, arg.StartMinute, arg.EndMinute, arg.Note,
	).Scan(&s.ID, &s.Day, &s.Period, &s.StartMinute, &s.EndMinute, &s.Note)
	return s, errors.Wrap(err, "create allocation slot")
}

func (q *Queries) UpdateAllocationSlot(ctx context.Context, id int64, arg AllocationSlotParams) (AllocationSlot, error) {
	var s AllocationSlot
	err := q.db.QueryRow(ctx, `
		UPDATE allocation_slots
		SET day = $2, period = $3, start_minute = $4, end_minute = $5, note = $6
		WHERE id = $1
		RETURNING `+slotColumns,
		id, arg.Day, arg.Period, arg.StartMinute, arg.EndMinute, arg.Note,
	).Scan(&s.ID, &s.Day, &s.Period, &s.StartMinute, &s.EndMinute, &s.Note)
	return s, errors.Wrap(err, "update allocation slot")
}

func (q *Queries) DeleteAllocationSlot(ctx context.Context, id int64) (bool, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM allocation_slots WHERE id = $1`, id)
	if err != nil {
		return false, errors.Wrap(err, "delete allocation slot")
	}
	return tag.RowsAffected() > 0, nil
}

const entryColumns = `id, teacher_id, subject_id, class_id, day, start_minute, end_minute`

func (q *Queries) queryEntries(ctx context.Context, sql string, args ...interface{}) ([]TimetableEntry, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list timetable entries")
	}
	defer rows.Close()
	var items []TimetableEntry
	for rows.Next() {
		var e TimetableEntry
		if err := rows.Scan(&e.ID, &e.TeacherID, &e.SubjectID, &e.ClassID, &e.Day, &e.StartMinute, &e.EndMinute); err != nil {
			return nil, errors.Wrap(err, "scan timetable entry")
		}
		items = append(items, e)
	}
	return items, errors.Wrap(rows.Err(), "list timetable entries")
}

func (q *Queries) ListTimetableEntries(ctx context.Context) ([]TimetableEntry, error) {
	return q.queryEntries(ctx, `SELECT `+entryColumns+` FROM timetable_entries ORDER BY day, start_minute, id`)
}

func (q *Queries) ListTimetableEntriesByDay(ctx context.Context, day int) ([]TimetableEntry, error) {
	return q.queryEntries(ctx, `SELECT `+entryColumns+` FROM timetable_entries WHERE day = $1 ORDER BY start_minute, id`, day)
}

type TimetableEntryParams struct {
	TeacherID   int64
	SubjectID   int64
	ClassID     int64
	Day         int
	StartMinute int
	EndMinute   int
}

// CreateTimetableEntry returns false without an error when an identical
// entry already exists.
func (q *Queries) CreateTimetableEntry(ctx context.Context, arg TimetableEntryParams) (TimetableEntry, bool, error) {
	var e TimetableEntry
	err := q.db.QueryRow(ctx, `
		INSERT INTO timetable_entries (teacher_id, subject_id, class_id, day, start_minute, end_minute)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT DO NOTHING
		RETURNING `+entryColumns,
		arg.TeacherID, arg.SubjectID, arg.ClassID, arg.Day, arg.StartMinute, arg.EndMinute,
	).Scan(&e.ID, &e.TeacherID, &e.SubjectID, &e.ClassID, &e.Day, &e.StartMinute, &e.EndMinute)
	if IsNotFound(err) {
		return TimetableEntry{}, false, nil
	}
	if err != nil {
		return TimetableEntry{}, false, errors.Wrap(err, "create timetable entry")
	}
	return e, true, nil
}

func (q *Queries) UpdateTimetableEntry(ctx context.Context, id int64, arg TimetableEntryParams) (TimetableEntry, error) {
	var e TimetableEntry
	err := q.db.QueryRow(ctx, `
		UPDATE timetable_entries
		SET teacher_id = $2, subject_id = $3, class_id = $4, day = $5, start_minute = $6, end_minute = $7
		WHERE id = $1
		RETURNING `+entryColumns,
		id, arg.TeacherID, arg.SubjectID, arg.ClassID, arg.Day, arg.StartMinute, arg.EndMinute,
	).Scan(&e.ID, &e.TeacherID, &e.SubjectID, &e.ClassID, &e.Day, &e.StartMinute, &e.EndMinute)
	return e, errors.Wrap(err, "update timetable entry")
}

func (q *Queries) DeleteTimetableEntry(ctx context.Context, id int64) (bool, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM timetable_entries WHERE id = $1`, id)
	if err != nil {
		return false, errors.Wrap(err, "delete timetable entry")
	}
	return tag.RowsAffected() > 0, nil
}
