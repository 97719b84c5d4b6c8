package operations

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/simdigmanuda/pdp.sim/internal/db"
	"github.com/simdigmanuda/pdp.sim/internal/report"
	"github.com/simdigmanuda/pdp.sim/internal/schedule"
)

// ScheduleReader reads the tables every classification depends on.
type ScheduleReader interface {
	ListAllocationSlots(ctx context.Context) ([]db.AllocationSlot, error)
	ListTimetableEntries(ctx context.Context) ([]db.TimetableEntry, error)
	ListSubmissions(ctx context.Context, arg db.SubmissionFilter) ([]db.SubmissionBatch, error)
}

type LabelReader interface {
	ListTeachers(ctx context.Context) ([]db.Teacher, error)
	ListClasses(ctx context.Context) ([]db.Class, error)
	ListSubjects(ctx context.Context) ([]db.Subject, error)
}

// LoadLabels reads the three reference tables concurrently. Subjects are
// labelled by code, or by name when they have none.
func LoadLabels(ctx context.Context, r LabelReader) (report.Labels, error) {
	labels := report.NewLabels()
	var (
		teachers []db.Teacher
		classes  []db.Class
		subjects []db.Subject
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		teachers, err = r.ListTeachers(gctx)
		return err
	})
	g.Go(func() (err error) {
		classes, err = r.ListClasses(gctx)
		return err
	})
	g.Go(func() (err error) {
		subjects, err = r.ListSubjects(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return labels, err
	}
	for _, t := range teachers {
		labels.Teachers[t.ID] = t.Name
	}
	for _, c := range classes {
		labels.Classes[c.ID] = c.Name
	}
	for _, s := range subjects {
		labels.SubjectNames[s.ID] = s.Name
		labels.Subjects[s.ID] = s.Name
		if code := strings.TrimSpace(s.Code); code != "" {
			labels.Subjects[s.ID] = code
		}
	}
	return labels, nil
}

// Scope narrows the submissions read for a date range. Zero values select
// everything.
type Scope struct {
	TeacherID int64
	ClassID   int64
	SubjectID int64
}

// LoadDays resolves the groups of every calendar day from start to end
// (inclusive, in loc) against the allocation and timetable as they are now,
// and attaches the submissions created on that day.
func LoadDays(ctx context.Context, r ScheduleReader, start, end time.Time, loc *time.Location, scope Scope) ([]report.DayInput, error) {
	if loc == nil {
		loc = time.UTC
	}
	dates := report.DateRange(start, end, loc)
	if len(dates) == 0 {
		return nil, nil
	}
	var (
		slots   []db.AllocationSlot
		entries []db.TimetableEntry
		batches []db.SubmissionBatch
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		slots, err = r.ListAllocationSlots(gctx)
		return err
	})
	g.Go(func() (err error) {
		entries, err = r.ListTimetableEntries(gctx)
		return err
	})
	g.Go(func() (err error) {
		batches, err = r.ListSubmissions(gctx, db.SubmissionFilter{
			From:      dates[0],
			To:        dates[len(dates)-1].AddDate(0, 0, 1),
			TeacherID: scope.TeacherID,
			ClassID:   scope.ClassID,
			SubjectID: scope.SubjectID,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return BuildDays(dates, slots, entries, batches, loc), nil
}

// BuildDays is the pure part of LoadDays.
func BuildDays(dates []time.Time, slots []db.AllocationSlot, entries []db.TimetableEntry, batches []db.SubmissionBatch, loc *time.Location) []report.DayInput {
	alloc := allocationOf(slots)
	byDay := make(map[int][]schedule.TimetableEntry)
	for _, e := range entries {
		byDay[e.Day] = append(byDay[e.Day], e.Schedule())
	}
	byDate := make(map[string][]db.SubmissionBatch)
	for _, b := range batches {
		key := b.CreatedAt.In(loc).Format("2006-01-02")
		byDate[key] = append(byDate[key], b)
	}

	days := make([]report.DayInput, 0, len(dates))
	for _, date := range dates {
		weekday := int(date.Weekday())
		days = append(days, report.DayInput{
			Date:        date,
			Slots:       alloc.PeriodsForDay(weekday),
			Groups:      schedule.BuildDayFromAllocation(weekday, alloc, byDay[weekday]),
			Submissions: db.Submissions(byDate[date.Format("2006-01-02")]),
		})
	}
	return days
}

func allocationOf(slots []db.AllocationSlot) *schedule.Allocation {
	converted := make([]schedule.AllocationSlot, 0, len(slots))
	for _, s := range slots {
		converted = append(converted, s.Schedule())
	}
	return schedule.NewAllocation(converted)
}
