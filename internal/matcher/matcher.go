// Package matcher classifies teaching-documentation submissions against the
// valid-period groups of their day.
package matcher

import (
	"time"

	"github.com/simdigmanuda/pdp.sim/internal/period"
	"github.com/simdigmanuda/pdp.sim/internal/schedule"
)

// Submission is one upload as seen by the matcher. Period is the single
// claimed period column, Periods the full claimed list of the batch.
type Submission struct {
	ID            string
	TeacherID     int64
	ClassID       int64
	SubjectID     int64
	Period        *int
	Periods       period.Set
	PhotoPath     string
	Latitude      *float64
	Longitude     *float64
	LocationValid *bool
	CreatedAt     time.Time
}

// Provided is the deduplicated union of the single period and the list.
func (s Submission) Provided() period.Set {
	if s.Period == nil {
		return period.Of(s.Periods...)
	}
	return s.Periods.Union(period.Of(*s.Period))
}

func (s Submission) Key() schedule.GroupKey {
	return schedule.GroupKey{TeacherID: s.TeacherID, ClassID: s.ClassID, SubjectID: s.SubjectID}
}

type Result struct {
	Submission Submission
	Matched    bool
	Provided   period.Set
	Reasons    ReasonSet
}

// Classify decides whether sub matches a scheduled group of its day. The
// exact (teacher, class, subject) group is tried first; when it does not
// exist the teacher's other groups are used to explain the mismatch.
func Classify(sub Submission, groups *schedule.DayGroups) Result {
	res := Result{Submission: sub, Provided: sub.Provided()}
	if groups == nil {
		res.Reasons = res.Reasons.Add(ReasonNoSchedule)
		return res
	}

	if valid, ok := groups.Periods(sub.Key()); ok {
		switch {
		case res.Provided.Empty():
			res.Reasons = res.Reasons.Add(ReasonEmptyPeriod)
		case res.Provided.Intersects(valid):
			res.Matched = true
		default:
			res.Reasons = res.Reasons.Add(ReasonWrongPeriod)
		}
		return res
	}

	teacherGroups := groups.TeacherGroups(sub.TeacherID)
	if len(teacherGroups) == 0 {
		res.Reasons = res.Reasons.Add(ReasonNoSchedule)
		return res
	}

	var classHit, subjectHit bool
	var union period.Set
	for _, g := range teacherGroups {
		if g.ClassID == sub.ClassID {
			classHit = true
		}
		if g.SubjectID == sub.SubjectID {
			subjectHit = true
		}
		union = union.Union(g.Periods)
	}
	if !classHit {
		res.Reasons = res.Reasons.Add(ReasonWrongClass)
	}
	if !subjectHit {
		res.Reasons = res.Reasons.Add(ReasonWrongSubject)
	}

	switch {
	case res.Provided.Empty():
		res.Reasons = res.Reasons.Add(ReasonEmptyPeriod)
	case !res.Provided.Intersects(union):
		res.Reasons = res.Reasons.Add(ReasonWrongPeriod)
	}
	return res
}

// ClassifyDay classifies every submission of one day. Submissions without a
// teacher are reported as unscheduled instead of aborting the batch.
func ClassifyDay(subs []Submission, groups *schedule.DayGroups) []Result {
	out := make([]Result, 0, len(subs))
	for _, sub := range subs {
		if sub.TeacherID <= 0 {
			out = append(out, Result{
				Submission: sub,
				Provided:   sub.Provided(),
				Reasons:    ReasonSet{ReasonNoSchedule},
			})
			continue
		}
		out = append(out, Classify(sub, groups))
	}
	return out
}

// Outcome is the metric label of a result.
func (r Result) Outcome() string {
	if r.Matched {
		return "matched"
	}
	return "unmatched"
}

// ReasonText is the joined reason text, empty for a match.
func (r Result) ReasonText() string {
	if r.Matched {
		return ""
	}
	return r.Reasons.String()
}
