package period

import "testing"

func TestParseSkipsMalformed(t *testing.T) {
	got := Parse(" 4, x,3,,4, -1, 10 ")
	if got.String() != "3,4,10" {
		t.Fatalf("expected 3,4,10 got %s", got.String())
	}
	if !Parse("").Empty() {
		t.Fatalf("expected empty set for blank input")
	}
}

func TestParseValues(t *testing.T) {
	got := ParseValues([]string{"5", "3,4", "abc", "5"})
	if got.String() != "3,4,5" {
		t.Fatalf("expected 3,4,5 got %s", got.String())
	}
}

func TestIntersectsAndUnion(t *testing.T) {
	a := Of(3, 4)
	b := Of(5, 6)
	if a.Intersects(b) {
		t.Fatalf("expected no intersection")
	}
	if !a.Intersects(Of(1, 4)) {
		t.Fatalf("expected intersection on 4")
	}
	if got := a.Union(b).Display(); got != "3, 4, 5, 6" {
		t.Fatalf("unexpected union %s", got)
	}
	if got := Set(nil).Display(); got != "—" {
		t.Fatalf("expected dash for empty set, got %s", got)
	}
}

func TestContainsAndMin(t *testing.T) {
	s := Of(7, 2, 9)
	if !s.Contains(9) || s.Contains(3) {
		t.Fatalf("unexpected contains result for %v", s)
	}
	if min, ok := s.Min(); !ok || min != 2 {
		t.Fatalf("expected min 2, got %d", min)
	}
	if _, ok := Set(nil).Min(); ok {
		t.Fatalf("expected no min for empty set")
	}
}
