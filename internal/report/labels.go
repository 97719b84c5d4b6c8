// Package report turns classified submissions into the rows shown on the
// realtime view, the reports and the exports.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/simdigmanuda/pdp.sim/internal/storage"
)

// Labels resolves display names for numeric references. Subjects holds the
// label rows are grouped and shown by; SubjectNames the full names offered
// when a subject is picked.
type Labels struct {
	Teachers     map[int64]string
	Classes      map[int64]string
	Subjects     map[int64]string
	SubjectNames map[int64]string
}

func NewLabels() Labels {
	return Labels{
		Teachers:     make(map[int64]string),
		Classes:      make(map[int64]string),
		Subjects:     make(map[int64]string),
		SubjectNames: make(map[int64]string),
	}
}

func (l Labels) Teacher(id int64) string { return lookup(l.Teachers, id) }
func (l Labels) Class(id int64) string   { return lookup(l.Classes, id) }
func (l Labels) Subject(id int64) string { return lookup(l.Subjects, id) }

func lookup(m map[int64]string, id int64) string {
	if name := strings.TrimSpace(m[id]); name != "" {
		return name
	}
	if id > 0 {
		return strconv.FormatInt(id, 10)
	}
	return "—"
}

var dayLabels = [7]string{"Ahad", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu"}

// DayLabel is the Indonesian weekday name, 0 being Sunday.
func DayLabel(day int) string {
	if day < 0 || day > 6 {
		return ""
	}
	return dayLabels[day]
}

// LocationLabel renders a tri-state location validity.
func LocationLabel(valid *bool) string {
	switch {
	case valid == nil:
		return "—"
	case *valid:
		return "Valid"
	default:
		return "Tidak Valid"
	}
}

// MapsURL links coordinates to a map, empty when either is missing.
func MapsURL(lat, lng *float64) string {
	if lat == nil || lng == nil {
		return ""
	}
	return fmt.Sprintf("https://www.google.com/maps?q=%s,%s",
		strconv.FormatFloat(*lat, 'f', -1, 64), strconv.FormatFloat(*lng, 'f', -1, 64))
}

func photoURL(path string) string {
	if path == "" {
		return ""
	}
	return storage.URL(path)
}

// ClockLabel renders minutes since midnight as HH:MM.
func ClockLabel(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// DateOf truncates t to midnight in its own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
