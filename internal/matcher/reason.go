package matcher

import "strings"

// Reason is one mismatch category of a submission.
type Reason string

const (
	ReasonNoSchedule   Reason = "no schedule for teacher this day"
	ReasonWrongClass   Reason = "wrong class"
	ReasonWrongSubject Reason = "wrong subject"
	ReasonEmptyPeriod  Reason = "empty period"
	ReasonWrongPeriod  Reason = "wrong teaching period"
	ReasonNotMatching  Reason = "not matching"
)

var reasonOrder = []Reason{
	ReasonNoSchedule,
	ReasonWrongClass,
	ReasonWrongSubject,
	ReasonEmptyPeriod,
	ReasonWrongPeriod,
	ReasonNotMatching,
}

func rank(r Reason) int {
	for i, known := range reasonOrder {
		if known == r {
			return i
		}
	}
	return len(reasonOrder)
}

// ReasonSet is an ordered, duplicate-free collection of reasons.
type ReasonSet []Reason

// Add inserts r keeping the canonical order.
func (s ReasonSet) Add(r Reason) ReasonSet {
	if r == "" || s.Has(r) {
		return s
	}
	out := make(ReasonSet, 0, len(s)+1)
	inserted := false
	for _, existing := range s {
		if !inserted && rank(r) < rank(existing) {
			out = append(out, r)
			inserted = true
		}
		out = append(out, existing)
	}
	if !inserted {
		out = append(out, r)
	}
	return out
}

func (s ReasonSet) Has(r Reason) bool {
	for _, existing := range s {
		if existing == r {
			return true
		}
	}
	return false
}

// Union merges other into s.
func (s ReasonSet) Union(other ReasonSet) ReasonSet {
	out := s
	for _, r := range other {
		out = out.Add(r)
	}
	return out
}

// Strings returns the reasons as plain text values.
func (s ReasonSet) Strings() []string {
	out := make([]string, len(s))
	for i, r := range s {
		out[i] = string(r)
	}
	return out
}

// String joins the reasons with ", ". An empty set renders "not matching".
func (s ReasonSet) String() string {
	if len(s) == 0 {
		return string(ReasonNotMatching)
	}
	return strings.Join(s.Strings(), ", ")
}
