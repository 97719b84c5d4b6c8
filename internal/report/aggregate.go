package report

import (
	"sort"
	"time"

	"github.com/simdigmanuda/pdp.sim/internal/matcher"
	"github.com/simdigmanuda/pdp.sim/internal/period"
	"github.com/simdigmanuda/pdp.sim/internal/schedule"
)

type Mode string

const (
	ModeRecap   Mode = "recap"
	ModeValid   Mode = "valid"
	ModeInvalid Mode = "invalid"
)

// ParseMode falls back to recap for unknown values.
func ParseMode(raw string) Mode {
	switch Mode(raw) {
	case ModeValid, ModeInvalid:
		return Mode(raw)
	default:
		return ModeRecap
	}
}

const (
	StatusMatched   = "matched"
	StatusUnmatched = "unmatched"
	StatusPending   = "pending"
)

// DayInput is everything one calendar day needs to be classified. Groups
// and Slots are resolved from the allocation and timetable as they are at
// query time.
type DayInput struct {
	Date        time.Time
	Slots       []schedule.PeriodSlot
	Groups      *schedule.DayGroups
	Submissions []matcher.Submission
}

// Weekday of the input, 0 being Sunday.
func (d DayInput) Weekday() int {
	if d.Groups != nil {
		return d.Groups.Day
	}
	return int(d.Date.Weekday())
}

// Row is one aggregated submission line.
type Row struct {
	BatchIDs      []string  `json:"batchIds"`
	Day           int       `json:"day"`
	DayLabel      string    `json:"dayLabel"`
	TeacherID     int64     `json:"teacherId"`
	ClassID       int64     `json:"classId"`
	SubjectID     int64     `json:"subjectId"`
	Teacher       string    `json:"teacher"`
	Class         string    `json:"class"`
	Subject       string    `json:"subject"`
	Periods       string    `json:"periods"`
	PeriodList    []int     `json:"periodList"`
	Status        string    `json:"status"`
	Reasons       string    `json:"reasons,omitempty"`
	Time          time.Time `json:"time"`
	LocationValid *bool     `json:"locationValid"`
	Latitude      *float64  `json:"latitude"`
	Longitude     *float64  `json:"longitude"`
	PhotoURL      string    `json:"photoUrl,omitempty"`
	MapsURL       string    `json:"mapsUrl,omitempty"`
}

type idKey struct {
	day int
	schedule.GroupKey
}

type labelKey struct {
	day     int
	teacher string
	class   string
	subject string
}

// entry is the merge state shared by both passes.
type entry struct {
	day           int
	key           schedule.GroupKey
	teacher       string
	class         string
	subject       string
	matched       bool
	batchIDs      []string
	periods       period.Set
	reasons       matcher.ReasonSet
	latest        time.Time
	locationValid *bool
	latitude      *float64
	longitude     *float64
	photoPath     string
}

// absorb merges other into e. The newest record is the representative: its
// time, location and photo are kept as they are, even when empty.
func (e *entry) absorb(other entry) {
	e.periods = e.periods.Union(other.periods)
	e.reasons = e.reasons.Union(other.reasons)
	for _, id := range other.batchIDs {
		e.addBatch(id)
	}
	if other.latest.After(e.latest) {
		e.latest = other.latest
		e.locationValid = other.locationValid
		e.latitude, e.longitude = other.latitude, other.longitude
		e.photoPath = other.photoPath
	}
}

func (e *entry) addBatch(id string) {
	if id == "" {
		return
	}
	for _, existing := range e.batchIDs {
		if existing == id {
			return
		}
	}
	e.batchIDs = append(e.batchIDs, id)
}

func (e entry) row() Row {
	status := StatusUnmatched
	reasons := e.reasons.String()
	if e.matched {
		status = StatusMatched
		reasons = ""
	}
	return Row{
		BatchIDs:      e.batchIDs,
		Day:           e.day,
		DayLabel:      DayLabel(e.day),
		TeacherID:     e.key.TeacherID,
		ClassID:       e.key.ClassID,
		SubjectID:     e.key.SubjectID,
		Teacher:       e.teacher,
		Class:         e.class,
		Subject:       e.subject,
		Periods:       e.periods.Display(),
		PeriodList:    e.periods.Ints(),
		Status:        status,
		Reasons:       reasons,
		Time:          e.latest,
		LocationValid: e.locationValid,
		Latitude:      e.latitude,
		Longitude:     e.longitude,
		PhotoURL:      photoURL(e.photoPath),
		MapsURL:       MapsURL(e.latitude, e.longitude),
	}
}

func keep(mode Mode, res matcher.Result) bool {
	switch mode {
	case ModeValid:
		return res.Matched && res.Submission.PhotoPath != ""
	case ModeInvalid:
		return !res.Matched
	default:
		return true
	}
}

// Classify runs the matcher over every day of the range, each day against
// its own groups.
func Classify(days []DayInput) []matcher.Result {
	var out []matcher.Result
	for _, day := range days {
		out = append(out, matcher.ClassifyDay(day.Submissions, day.Groups)...)
	}
	return out
}

// Aggregate classifies each day against its own groups and merges the
// results kept by mode twice: first by weekday and numeric references, then
// by weekday and display labels. Rows come back newest first.
func Aggregate(days []DayInput, labels Labels, mode Mode) []Row {
	loc := time.Local
	if len(days) > 0 {
		loc = days[0].Date.Location()
	}
	var results []matcher.Result
	for _, res := range Classify(days) {
		if keep(mode, res) {
			results = append(results, res)
		}
	}
	return AggregateResults(results, labels, loc)
}

// AggregateResults runs both merge passes over already classified results.
// The weekday of each result is taken in loc.
func AggregateResults(results []matcher.Result, labels Labels, loc *time.Location) []Row {
	if loc == nil {
		loc = time.Local
	}
	sorted := make([]matcher.Result, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Submission.CreatedAt.After(sorted[j].Submission.CreatedAt)
	})

	var byIDOrder []idKey
	byID := make(map[idKey]*entry)
	for _, res := range sorted {
		sub := res.Submission
		e := entry{
			day:           int(sub.CreatedAt.In(loc).Weekday()),
			key:           sub.Key(),
			teacher:       labels.Teacher(sub.TeacherID),
			class:         labels.Class(sub.ClassID),
			subject:       labels.Subject(sub.SubjectID),
			matched:       res.Matched,
			periods:       res.Provided,
			reasons:       res.Reasons,
			latest:        sub.CreatedAt,
			locationValid: sub.LocationValid,
			latitude:      sub.Latitude,
			longitude:     sub.Longitude,
			photoPath:     sub.PhotoPath,
		}
		e.addBatch(sub.ID)
		k := idKey{day: e.day, GroupKey: e.key}
		if existing, ok := byID[k]; ok {
			existing.matched = existing.matched && e.matched
			existing.absorb(e)
			continue
		}
		byID[k] = &e
		byIDOrder = append(byIDOrder, k)
	}

	var byLabelOrder []labelKey
	byLabel := make(map[labelKey]*entry)
	for _, k := range byIDOrder {
		e := byID[k]
		lk := labelKey{day: e.day, teacher: e.teacher, class: e.class, subject: e.subject}
		if existing, ok := byLabel[lk]; ok {
			existing.matched = existing.matched && e.matched
			existing.absorb(*e)
			continue
		}
		copied := *e
		byLabel[lk] = &copied
		byLabelOrder = append(byLabelOrder, lk)
	}

	rows := make([]Row, 0, len(byLabelOrder))
	for _, lk := range byLabelOrder {
		rows = append(rows, byLabel[lk].row())
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Time.After(rows[j].Time)
	})
	return rows
}
