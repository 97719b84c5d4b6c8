// Package period holds the ordered set of teaching period numbers and its
// single text encoding ("3,4,5").
package period

import (
	"sort"
	"strconv"
	"strings"
)

// Set is a sorted, duplicate-free list of positive period numbers.
type Set []int

// Of builds a Set from arbitrary values, dropping non-positive numbers and
// duplicates.
func Of(values ...int) Set {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[int]struct{}, len(values))
	out := make(Set, 0, len(values))
	for _, v := range values {
		if v <= 0 {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// Parse reads a comma separated list. Tokens that are not integers are
// skipped.
func Parse(raw string) Set {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		values = append(values, n)
	}
	return Of(values...)
}

// ParseValues reads repeated form values such as jamKe=3&jamKe=4; each value
// may itself be a comma separated list.
func ParseValues(values []string) Set {
	var all []int
	for _, v := range values {
		all = append(all, Parse(v)...)
	}
	return Of(all...)
}

func (s Set) Empty() bool {
	return len(s) == 0
}

func (s Set) Contains(n int) bool {
	i := sort.SearchInts(s, n)
	return i < len(s) && s[i] == n
}

// Intersects reports whether the two sets share at least one period.
func (s Set) Intersects(other Set) bool {
	i, j := 0, 0
	for i < len(s) && j < len(other) {
		switch {
		case s[i] == other[j]:
			return true
		case s[i] < other[j]:
			i++
		default:
			j++
		}
	}
	return false
}

func (s Set) Union(other Set) Set {
	merged := make([]int, 0, len(s)+len(other))
	merged = append(merged, s...)
	merged = append(merged, other...)
	return Of(merged...)
}

// Min returns the smallest period, or ok=false for an empty set.
func (s Set) Min() (int, bool) {
	if len(s) == 0 {
		return 0, false
	}
	return s[0], true
}

// Ints returns a copy usable in JSON payloads; never nil.
func (s Set) Ints() []int {
	out := make([]int, len(s))
	copy(out, s)
	return out
}

// String renders "3,4,5" for storage.
func (s Set) String() string {
	return s.join(",")
}

// Display renders "3, 4, 5" for reports, or "—" when empty.
func (s Set) Display() string {
	if len(s) == 0 {
		return "—"
	}
	return s.join(", ")
}

func (s Set) join(sep string) string {
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, sep)
}
