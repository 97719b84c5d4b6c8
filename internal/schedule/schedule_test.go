package schedule

import (
	"reflect"
	"testing"
)

func intp(v int) *int { return &v }

func mondaySlots() []AllocationSlot {
	return []AllocationSlot{
		{Day: 1, Period: intp(2), StartMinute: 460, EndMinute: 500},
		{Day: 1, Period: intp(1), StartMinute: 420, EndMinute: 460},
		{Day: 1, Period: nil, StartMinute: 500, EndMinute: 515, Note: "Istirahat 1"},
		{Day: 1, Period: intp(3), StartMinute: 515, EndMinute: 555},
		{Day: 1, Period: intp(4), StartMinute: 555, EndMinute: 595},
		{Day: 5, Period: intp(1), StartMinute: 420, EndMinute: 460},
	}
}

func TestPeriodsForDaySortedWithoutBreaks(t *testing.T) {
	alloc := NewAllocation(mondaySlots())
	got := alloc.PeriodsForDay(1)
	want := []PeriodSlot{
		{Period: 1, StartMinute: 420, EndMinute: 460},
		{Period: 2, StartMinute: 460, EndMinute: 500},
		{Period: 3, StartMinute: 515, EndMinute: 555},
		{Period: 4, StartMinute: 555, EndMinute: 595},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected periods %+v", got)
	}
	if len(alloc.PeriodsForDay(0)) != 0 {
		t.Fatalf("expected no periods on sunday")
	}
}

func TestPeriodAtIgnoresBreaks(t *testing.T) {
	alloc := NewAllocation(mondaySlots())
	if p, ok := alloc.PeriodAt(1, 515, 555); !ok || p != 3 {
		t.Fatalf("expected period 3, got %d ok=%v", p, ok)
	}
	if _, ok := alloc.PeriodAt(1, 500, 515); ok {
		t.Fatalf("break slot must not resolve to a period")
	}
	if _, ok := alloc.PeriodAt(2, 515, 555); ok {
		t.Fatalf("unexpected period on another day")
	}
}

func TestEntryPeriodsFallsBackToNumbering(t *testing.T) {
	alloc := NewAllocation(mondaySlots())
	entries := []TimetableEntry{
		{TeacherID: 1, Day: 1, StartMinute: 515, EndMinute: 555},
		{TeacherID: 1, Day: 1, StartMinute: 700, EndMinute: 740},
		{TeacherID: 1, Day: 1, StartMinute: 740, EndMinute: 780},
		{TeacherID: 2, Day: 1, StartMinute: 700, EndMinute: 740},
		{TeacherID: 1, Day: 2, StartMinute: 515, EndMinute: 555},
		{TeacherID: 1, Day: 1, StartMinute: 555, EndMinute: 595},
	}
	got := alloc.EntryPeriods(entries)
	want := []int{3, 1, 2, 1, 1, 4}
	if len(got) != len(want) {
		t.Fatalf("expected %d periods, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d: expected period %d, got %d (%v)", i, want[i], got[i], got)
		}
	}
}

func TestSlotForLastWins(t *testing.T) {
	slots := append(mondaySlots(), AllocationSlot{Day: 1, Period: intp(3), StartMinute: 600, EndMinute: 640})
	alloc := NewAllocation(slots)
	slot, ok := alloc.SlotFor(1, 3)
	if !ok || slot.StartMinute != 600 {
		t.Fatalf("expected last duplicate to win, got %+v", slot)
	}
}

func TestOverlapTouchingEndpointsExclusive(t *testing.T) {
	if Overlaps(480, 540, 540, 600) {
		t.Fatalf("touching ranges must not overlap")
	}
	if Overlaps(540, 600, 480, 540) {
		t.Fatalf("touching ranges must not overlap")
	}
	if !Overlaps(480, 540, 539, 600) {
		t.Fatalf("expected overlap")
	}
}

func TestBuildDayGroups(t *testing.T) {
	alloc := NewAllocation(mondaySlots())
	entries := []TimetableEntry{
		{TeacherID: 7, ClassID: 1, SubjectID: 10, Day: 1, StartMinute: 515, EndMinute: 555},
		{TeacherID: 7, ClassID: 1, SubjectID: 10, Day: 1, StartMinute: 555, EndMinute: 595},
		{TeacherID: 7, ClassID: 2, SubjectID: 11, Day: 1, StartMinute: 420, EndMinute: 500},
		{TeacherID: 7, ClassID: 3, SubjectID: 12, Day: 1, StartMinute: 700, EndMinute: 740},
		{TeacherID: 8, ClassID: 1, SubjectID: 10, Day: 2, StartMinute: 420, EndMinute: 460},
	}
	dg := BuildDayFromAllocation(1, alloc, entries)

	set, ok := dg.Periods(GroupKey{TeacherID: 7, ClassID: 1, SubjectID: 10})
	if !ok || set.String() != "3,4" {
		t.Fatalf("expected periods 3,4 got %v ok=%v", set, ok)
	}
	set, ok = dg.Periods(GroupKey{TeacherID: 7, ClassID: 2, SubjectID: 11})
	if !ok || set.String() != "1,2" {
		t.Fatalf("expected periods 1,2 got %v", set)
	}
	set, ok = dg.Periods(GroupKey{TeacherID: 7, ClassID: 3, SubjectID: 12})
	if !ok || !set.Empty() {
		t.Fatalf("misconfigured entry must register an empty group, got %v ok=%v", set, ok)
	}
	if _, ok := dg.Periods(GroupKey{TeacherID: 8, ClassID: 1, SubjectID: 10}); ok {
		t.Fatalf("entry of another day must be ignored")
	}
	if got := len(dg.TeacherGroups(7)); got != 3 {
		t.Fatalf("expected 3 groups for teacher 7, got %d", got)
	}
	if got := len(dg.TeacherGroups(8)); got != 0 {
		t.Fatalf("expected no groups for teacher 8, got %d", got)
	}
	groups := dg.Groups()
	if groups[0].ClassID != 2 || groups[1].ClassID != 1 || groups[2].ClassID != 3 {
		t.Fatalf("unexpected group order %+v", groups)
	}
}

func TestBuildDayIsPure(t *testing.T) {
	alloc := NewAllocation(mondaySlots())
	entries := []TimetableEntry{
		{TeacherID: 7, ClassID: 1, SubjectID: 10, Day: 1, StartMinute: 420, EndMinute: 595},
		{TeacherID: 9, ClassID: 4, SubjectID: 10, Day: 1, StartMinute: 460, EndMinute: 520},
	}
	first := BuildDayFromAllocation(1, alloc, entries)
	second := BuildDayFromAllocation(1, alloc, entries)
	if !reflect.DeepEqual(first.Groups(), second.Groups()) {
		t.Fatalf("expected identical output for identical input")
	}
	set, _ := first.Periods(GroupKey{TeacherID: 9, ClassID: 4, SubjectID: 10})
	if set.String() != "2,3" {
		t.Fatalf("expected 2,3 got %s", set.String())
	}
}
