package report

import (
	"time"

	"github.com/simdigmanuda/pdp.sim/internal/matcher"
	"github.com/simdigmanuda/pdp.sim/internal/schedule"
)

// RealtimeRow is the status of one scheduled group for a single day.
type RealtimeRow struct {
	No            int        `json:"no"`
	BatchID       string     `json:"batchId,omitempty"`
	TeacherID     int64      `json:"teacherId"`
	ClassID       int64      `json:"classId"`
	SubjectID     int64      `json:"subjectId"`
	Teacher       string     `json:"teacher"`
	Class         string     `json:"class"`
	Subject       string     `json:"subject"`
	Periods       string     `json:"periods"`
	PeriodList    []int      `json:"periodList"`
	Status        string     `json:"status"`
	Time          *time.Time `json:"time"`
	LocationValid *bool      `json:"locationValid"`
	Latitude      *float64   `json:"latitude"`
	Longitude     *float64   `json:"longitude"`
	MapsURL       string     `json:"mapsUrl,omitempty"`
	PhotoURL      string     `json:"photoUrl,omitempty"`
}

type groupPeriod struct {
	schedule.GroupKey
	period int
}

// Realtime builds one row per scheduled group of the day. A group is matched
// by the newest submission claiming one of its periods in the single period
// column, or failing that by the newest submission of the group whose
// period list overlaps the group's periods. subs must belong to that day.
func Realtime(groups *schedule.DayGroups, subs []matcher.Submission, labels Labels) []RealtimeRow {
	if groups == nil {
		return nil
	}
	latestByPeriod := make(map[groupPeriod]matcher.Submission)
	latestByGroup := make(map[schedule.GroupKey]matcher.Submission)
	for _, sub := range subs {
		key := sub.Key()
		if cur, ok := latestByGroup[key]; !ok || sub.CreatedAt.After(cur.CreatedAt) {
			latestByGroup[key] = sub
		}
		if sub.Period != nil {
			k := groupPeriod{GroupKey: key, period: *sub.Period}
			if cur, ok := latestByPeriod[k]; !ok || sub.CreatedAt.After(cur.CreatedAt) {
				latestByPeriod[k] = sub
			}
		}
	}

	all := groups.Groups()
	rows := make([]RealtimeRow, 0, len(all))
	for _, g := range all {
		row := RealtimeRow{
			TeacherID:  g.TeacherID,
			ClassID:    g.ClassID,
			SubjectID:  g.SubjectID,
			Teacher:    labels.Teacher(g.TeacherID),
			Class:      labels.Class(g.ClassID),
			Subject:    labels.Subject(g.SubjectID),
			Periods:    g.Periods.Display(),
			PeriodList: g.Periods.Ints(),
			Status:     StatusPending,
		}

		var match *matcher.Submission
		for _, p := range g.Periods {
			doc, ok := latestByPeriod[groupPeriod{GroupKey: g.GroupKey, period: p}]
			if ok && (match == nil || doc.CreatedAt.After(match.CreatedAt)) {
				d := doc
				match = &d
			}
		}
		if match == nil {
			if doc, ok := latestByGroup[g.GroupKey]; ok && doc.Periods.Intersects(g.Periods) {
				match = &doc
			}
		}
		if match != nil {
			at := match.CreatedAt
			row.Status = StatusMatched
			row.BatchID = match.ID
			row.Time = &at
			row.LocationValid = match.LocationValid
			row.Latitude = match.Latitude
			row.Longitude = match.Longitude
			row.MapsURL = MapsURL(match.Latitude, match.Longitude)
			row.PhotoURL = photoURL(match.PhotoPath)
		}
		rows = append(rows, row)
	}
	return rows
}

// RealtimeInvalid aggregates the day's non-matching submissions, newest
// first.
func RealtimeInvalid(groups *schedule.DayGroups, subs []matcher.Submission, labels Labels, loc *time.Location) []Row {
	var results []matcher.Result
	for _, res := range matcher.ClassifyDay(subs, groups) {
		if !res.Matched {
			results = append(results, res)
		}
	}
	return AggregateResults(results, labels, loc)
}
