package db

import (
	"context"

	"github.com/pkg/errors"
)

func (q *Queries) deleteIDs(ctx context.Context, table string, ids []int64) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM `+table+` WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "delete "+table)
	}
	return tag.RowsAffected(), nil
}

// DeleteTeachers removes teachers with their timetable and submissions.
func (q *Queries) DeleteTeachers(ctx context.Context, ids []int64) (int64, error) {
	return q.deleteIDs(ctx, "teachers", ids)
}

func (q *Queries) DeleteClasses(ctx context.Context, ids []int64) (int64, error) {
	return q.deleteIDs(ctx, "classes", ids)
}

func (q *Queries) DeleteSubjects(ctx context.Context, ids []int64) (int64, error) {
	return q.deleteIDs(ctx, "subjects", ids)
}

func (q *Queries) DeleteAllocationSlots(ctx context.Context, ids []int64) (int64, error) {
	return q.deleteIDs(ctx, "allocation_slots", ids)
}

func (q *Queries) DeleteTimetableEntries(ctx context.Context, ids []int64) (int64, error) {
	return q.deleteIDs(ctx, "timetable_entries", ids)
}
