package schedule

import (
	"sort"

	"github.com/simdigmanuda/pdp.sim/internal/period"
)

// TimetableEntry is one recurring weekly teaching block.
type TimetableEntry struct {
	ID          int64
	TeacherID   int64
	SubjectID   int64
	ClassID     int64
	Day         int
	StartMinute int
	EndMinute   int
}

type GroupKey struct {
	TeacherID int64
	ClassID   int64
	SubjectID int64
}

// Group is the set of valid periods for one (teacher, class, subject) on a
// given day.
type Group struct {
	GroupKey
	Periods period.Set
}

// DayGroups is the derived valid-period map for one weekday.
type DayGroups struct {
	Day       int
	groups    map[GroupKey]period.Set
	byTeacher map[int64][]GroupKey
}

// BuildDay derives the valid-period groups of day from the day's resolved
// periods and the timetable. Entries of other days are ignored; an entry
// that overlaps no period still registers its group with an empty set.
func BuildDay(day int, periods []PeriodSlot, entries []TimetableEntry) *DayGroups {
	dg := &DayGroups{
		Day:       day,
		groups:    make(map[GroupKey]period.Set),
		byTeacher: make(map[int64][]GroupKey),
	}
	for _, entry := range entries {
		if entry.Day != day {
			continue
		}
		key := GroupKey{TeacherID: entry.TeacherID, ClassID: entry.ClassID, SubjectID: entry.SubjectID}
		current, exists := dg.groups[key]
		if !exists {
			dg.byTeacher[entry.TeacherID] = append(dg.byTeacher[entry.TeacherID], key)
		}
		var hits []int
		for _, slot := range periods {
			if Overlaps(slot.StartMinute, slot.EndMinute, entry.StartMinute, entry.EndMinute) {
				hits = append(hits, slot.Period)
			}
		}
		dg.groups[key] = current.Union(period.Of(hits...))
	}
	return dg
}

// BuildDayFromAllocation is BuildDay with the periods resolved from alloc.
func BuildDayFromAllocation(day int, alloc *Allocation, entries []TimetableEntry) *DayGroups {
	return BuildDay(day, alloc.PeriodsForDay(day), entries)
}

// Periods looks up the exact group key. ok is true when the group was
// scheduled that day, even with an empty period set.
func (d *DayGroups) Periods(key GroupKey) (period.Set, bool) {
	set, ok := d.groups[key]
	return set, ok
}

// TeacherGroups lists every group of a teacher on that day.
func (d *DayGroups) TeacherGroups(teacherID int64) []Group {
	keys := d.byTeacher[teacherID]
	out := make([]Group, 0, len(keys))
	for _, key := range keys {
		out = append(out, Group{GroupKey: key, Periods: d.groups[key]})
	}
	return out
}

// Groups lists every group ordered by teacher, first period, class and
// subject.
func (d *DayGroups) Groups() []Group {
	out := make([]Group, 0, len(d.groups))
	for key, set := range d.groups {
		out = append(out, Group{GroupKey: key, Periods: set})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.TeacherID != b.TeacherID {
			return a.TeacherID < b.TeacherID
		}
		am, aok := a.Periods.Min()
		bm, bok := b.Periods.Min()
		if aok != bok {
			return aok
		}
		if am != bm {
			return am < bm
		}
		if a.ClassID != b.ClassID {
			return a.ClassID < b.ClassID
		}
		return a.SubjectID < b.SubjectID
	})
	return out
}

// Len is the number of scheduled groups.
func (d *DayGroups) Len() int {
	return len(d.groups)
}
