package schedule

import "sort"

// AllocationSlot maps a period of one weekday to a minute-of-day range. A nil
// Period marks a break.
type AllocationSlot struct {
	ID          int64
	Day         int
	Period      *int
	StartMinute int
	EndMinute   int
	Note        string
}

// PeriodSlot is a resolved teaching period of one day.
type PeriodSlot struct {
	Period      int
	StartMinute int
	EndMinute   int
}

type slotKey struct {
	day   int
	start int
	end   int
}

type dayPeriod struct {
	day    int
	period int
}

// Allocation indexes the allocation table. Breaks are never indexed.
type Allocation struct {
	byDay    map[int][]PeriodSlot
	byRange  map[slotKey]int
	byPeriod map[dayPeriod]PeriodSlot
}

func NewAllocation(slots []AllocationSlot) *Allocation {
	a := &Allocation{
		byDay:    make(map[int][]PeriodSlot),
		byRange:  make(map[slotKey]int),
		byPeriod: make(map[dayPeriod]PeriodSlot),
	}
	for _, slot := range slots {
		if slot.Period == nil || *slot.Period <= 0 {
			continue
		}
		ps := PeriodSlot{Period: *slot.Period, StartMinute: slot.StartMinute, EndMinute: slot.EndMinute}
		a.byDay[slot.Day] = append(a.byDay[slot.Day], ps)
		a.byRange[slotKey{slot.Day, slot.StartMinute, slot.EndMinute}] = ps.Period
		a.byPeriod[dayPeriod{slot.Day, ps.Period}] = ps
	}
	for day := range a.byDay {
		list := a.byDay[day]
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].StartMinute != list[j].StartMinute {
				return list[i].StartMinute < list[j].StartMinute
			}
			return list[i].Period < list[j].Period
		})
	}
	return a
}

// PeriodsForDay returns the teaching periods of a weekday sorted by start.
func (a *Allocation) PeriodsForDay(day int) []PeriodSlot {
	list := a.byDay[day]
	out := make([]PeriodSlot, len(list))
	copy(out, list)
	return out
}

// PeriodAt resolves the period whose slot is exactly [start, end) on day.
func (a *Allocation) PeriodAt(day, start, end int) (int, bool) {
	p, ok := a.byRange[slotKey{day, start, end}]
	return p, ok
}

// EntryPeriods derives the period each timetable entry represents, in input
// order. An entry whose range is exactly an allocated slot takes that
// period; the others are numbered 1, 2, ... per teacher and day.
func (a *Allocation) EntryPeriods(entries []TimetableEntry) []int {
	type teacherDay struct {
		teacher int64
		day     int
	}
	counter := make(map[teacherDay]int)
	out := make([]int, len(entries))
	for i, e := range entries {
		if p, ok := a.PeriodAt(e.Day, e.StartMinute, e.EndMinute); ok {
			out[i] = p
			continue
		}
		key := teacherDay{e.TeacherID, e.Day}
		counter[key]++
		out[i] = counter[key]
	}
	return out
}

// SlotFor returns the minute range of a period on day. Duplicated period
// numbers resolve to the last slot loaded.
func (a *Allocation) SlotFor(day, period int) (PeriodSlot, bool) {
	ps, ok := a.byPeriod[dayPeriod{day, period}]
	return ps, ok
}

// Overlaps is the half-open interval rule shared by the builder and the
// timetable forms.
func Overlaps(slotStart, slotEnd, entryStart, entryEnd int) bool {
	return slotStart < entryEnd && slotEnd > entryStart
}
