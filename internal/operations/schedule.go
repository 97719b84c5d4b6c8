package operations

import (
	"context"
	"sort"

	"github.com/simdigmanuda/pdp.sim/internal/db"
	"github.com/simdigmanuda/pdp.sim/internal/period"
)

// MaxPeriod is the highest period number the allocation table accepts.
const MaxPeriod = 12

type AllocationWriter interface {
	AllocationSlotExists(ctx context.Context, day, period int) (bool, error)
	CreateAllocationSlot(ctx context.Context, arg db.AllocationSlotParams) (db.AllocationSlot, error)
}

type AllocationInput struct {
	Days        []int
	Period      *int
	StartMinute int
	EndMinute   int
	Note        string
}

type AllocationResult struct {
	Created []db.AllocationSlot `json:"created"`
	Skipped []int               `json:"skippedDays"`
}

// ValidateSlot checks one slot definition. A nil period is a break.
func ValidateSlot(day int, p *int, start, end int) error {
	if day < 0 || day > 6 {
		return &Error{Code: ErrInvalidDay}
	}
	if p != nil && (*p < 1 || *p > MaxPeriod) {
		return &Error{Code: ErrInvalidPeriod}
	}
	if start < 0 || end > 24*60 || end <= start {
		return &Error{Code: ErrInvalidTimeRange}
	}
	return nil
}

// CreateAllocation creates the same slot on several days. Days that already
// define the period are skipped.
func CreateAllocation(ctx context.Context, w AllocationWriter, in AllocationInput) (AllocationResult, error) {
	seen := make(map[int]struct{}, len(in.Days))
	days := make([]int, 0, len(in.Days))
	for _, d := range in.Days {
		if err := ValidateSlot(d, in.Period, in.StartMinute, in.EndMinute); err != nil {
			return AllocationResult{}, err
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	if len(days) == 0 {
		return AllocationResult{}, &Error{Code: ErrInvalidDay}
	}
	sort.Ints(days)

	result := AllocationResult{Created: []db.AllocationSlot{}, Skipped: []int{}}
	for _, day := range days {
		if in.Period != nil {
			exists, err := w.AllocationSlotExists(ctx, day, *in.Period)
			if err != nil {
				return result, err
			}
			if exists {
				result.Skipped = append(result.Skipped, day)
				continue
			}
		}
		slot, err := w.CreateAllocationSlot(ctx, db.AllocationSlotParams{
			Day:         day,
			Period:      in.Period,
			StartMinute: in.StartMinute,
			EndMinute:   in.EndMinute,
			Note:        in.Note,
		})
		if err != nil {
			return result, err
		}
		result.Created = append(result.Created, slot)
	}
	return result, nil
}

type TimetableWriter interface {
	ListAllocationSlotsByDay(ctx context.Context, day int) ([]db.AllocationSlot, error)
	CreateTimetableEntry(ctx context.Context, arg db.TimetableEntryParams) (db.TimetableEntry, bool, error)
}

type TimetableInput struct {
	TeacherID int64
	SubjectID int64
	ClassID   int64
	Day       int
	Periods   period.Set
}

type TimetableResult struct {
	Created []db.TimetableEntry `json:"created"`
	Skipped int                 `json:"skipped"`
	Missing []int               `json:"missingPeriods"`
}

// CreateTimetable turns selected periods of one day into timetable entries
// using the allocation times of that day. Periods without a slot are
// reported as missing; entries that already exist are skipped.
func CreateTimetable(ctx context.Context, w TimetableWriter, in TimetableInput) (TimetableResult, error) {
	if in.Day < 0 || in.Day > 6 {
		return TimetableResult{}, &Error{Code: ErrInvalidDay}
	}
	if in.TeacherID <= 0 || in.SubjectID <= 0 || in.ClassID <= 0 {
		return TimetableResult{}, &Error{Code: ErrMissingSelection}
	}
	if in.Periods.Empty() {
		return TimetableResult{}, &Error{Code: ErrMissingPeriod}
	}
	slots, err := w.ListAllocationSlotsByDay(ctx, in.Day)
	if err != nil {
		return TimetableResult{}, err
	}
	alloc := allocationOf(slots)

	result := TimetableResult{Created: []db.TimetableEntry{}, Missing: []int{}}
	for _, p := range in.Periods {
		slot, ok := alloc.SlotFor(in.Day, p)
		if !ok {
			result.Missing = append(result.Missing, p)
			continue
		}
		entry, created, err := w.CreateTimetableEntry(ctx, db.TimetableEntryParams{
			TeacherID:   in.TeacherID,
			SubjectID:   in.SubjectID,
			ClassID:     in.ClassID,
			Day:         in.Day,
			StartMinute: slot.StartMinute,
			EndMinute:   slot.EndMinute,
		})
		if err != nil {
			return result, err
		}
		if !created {
			result.Skipped++
			continue
		}
		result.Created = append(result.Created, entry)
	}
	return result, nil
}
