package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/simdigmanuda/pdp.sim/internal/matcher"
	"github.com/simdigmanuda/pdp.sim/internal/schedule"
)

const (
	RecapSubmitted = "SUDAH"
	RecapMissing   = "BELUM"
)

// RecapRow says whether a scheduled group received any submission on a
// given date.
type RecapRow struct {
	Date          string     `json:"date"`
	Day           int        `json:"day"`
	DayLabel      string     `json:"dayLabel"`
	BatchID       string     `json:"batchId,omitempty"`
	TeacherID     int64      `json:"teacherId"`
	ClassID       int64      `json:"classId"`
	SubjectID     int64      `json:"subjectId"`
	Teacher       string     `json:"teacher"`
	Class         string     `json:"class"`
	Subject       string     `json:"subject"`
	Periods       string     `json:"periods"`
	PeriodList    []int      `json:"periodList"`
	PeriodCount   int        `json:"periodCount"`
	PeriodTimes   string     `json:"periodTimes"`
	Status        string     `json:"status"`
	Time          *time.Time `json:"time"`
	PhotoStatus   string     `json:"photoStatus"`
	LocationValid string     `json:"locationValid"`
	MapsURL       string     `json:"mapsUrl,omitempty"`
}

// RecapFilter narrows the recap to one teacher, class, weekday or period.
// Zero values and a negative Day disable the corresponding filter.
type RecapFilter struct {
	TeacherID int64
	ClassID   int64
	Day       int
	Period    int
}

// Recap lists every scheduled group of every day in days, in date order.
func Recap(days []DayInput, labels Labels, filter RecapFilter) []RecapRow {
	var rows []RecapRow
	for _, day := range days {
		weekday := day.Weekday()
		if filter.Day >= 0 && filter.Day <= 6 && weekday != filter.Day {
			continue
		}
		if day.Groups == nil {
			continue
		}
		times := make(map[int]string, len(day.Slots))
		for _, slot := range day.Slots {
			times[slot.Period] = ClockLabel(slot.StartMinute) + "–" + ClockLabel(slot.EndMinute)
		}
		latest := make(map[schedule.GroupKey]matcher.Submission)
		for _, sub := range day.Submissions {
			if cur, ok := latest[sub.Key()]; !ok || sub.CreatedAt.After(cur.CreatedAt) {
				latest[sub.Key()] = sub
			}
		}

		date := day.Date.Format("2006-01-02")
		for _, g := range day.Groups.Groups() {
			if filter.TeacherID > 0 && g.TeacherID != filter.TeacherID {
				continue
			}
			if filter.ClassID > 0 && g.ClassID != filter.ClassID {
				continue
			}
			if filter.Period > 0 && !g.Periods.Contains(filter.Period) {
				continue
			}
			timeParts := make([]string, 0, len(g.Periods))
			for _, p := range g.Periods {
				if label, ok := times[p]; ok {
					timeParts = append(timeParts, fmt.Sprintf("%d (%s)", p, label))
				} else {
					timeParts = append(timeParts, fmt.Sprint(p))
				}
			}
			row := RecapRow{
				Date:          date,
				Day:           weekday,
				DayLabel:      DayLabel(weekday),
				TeacherID:     g.TeacherID,
				ClassID:       g.ClassID,
				SubjectID:     g.SubjectID,
				Teacher:       labels.Teacher(g.TeacherID),
				Class:         labels.Class(g.ClassID),
				Subject:       labels.Subject(g.SubjectID),
				Periods:       g.Periods.Display(),
				PeriodList:    g.Periods.Ints(),
				PeriodCount:   len(g.Periods),
				PeriodTimes:   strings.Join(timeParts, ", "),
				Status:        RecapMissing,
				PhotoStatus:   RecapMissing,
				LocationValid: LocationLabel(nil),
			}
			if sub, ok := latest[g.GroupKey]; ok {
				at := sub.CreatedAt
				row.Status = RecapSubmitted
				row.BatchID = sub.ID
				row.Time = &at
				if sub.PhotoPath != "" {
					row.PhotoStatus = RecapSubmitted
				}
				row.LocationValid = LocationLabel(sub.LocationValid)
				row.MapsURL = MapsURL(sub.Latitude, sub.Longitude)
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// DateRange lists the calendar days from start to end inclusive, in loc.
func DateRange(start, end time.Time, loc *time.Location) []time.Time {
	if loc == nil {
		loc = time.Local
	}
	cur := DateOf(start.In(loc))
	last := DateOf(end.In(loc))
	var out []time.Time
	for !cur.After(last) {
		out = append(out, cur)
		cur = cur.AddDate(0, 0, 1)
	}
	return out
}
