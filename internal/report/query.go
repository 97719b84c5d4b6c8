package report

import (
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Page describes one slice of a paginated listing.
type Page struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalRows  int `json:"totalRows"`
	TotalPages int `json:"totalPages"`
}

// Paginate clamps page and limit to at least 1 and returns the matching
// slice of items. Out of range pages yield an empty slice.
func Paginate[T any](items []T, page, limit int) ([]T, Page) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	total := len(items)
	info := Page{
		Page:       page,
		Limit:      limit,
		TotalRows:  total,
		TotalPages: int(math.Max(1, math.Ceil(float64(total)/float64(limit)))),
	}
	start := (page - 1) * limit
	if start >= total {
		return []T{}, info
	}
	end := start + limit
	if end > total {
		end = total
	}
	return items[start:end], info
}

func newCollator() *collate.Collator {
	return collate.New(language.Indonesian, collate.IgnoreCase)
}

func descending(order string) bool {
	return strings.EqualFold(strings.TrimSpace(order), "desc")
}

func minPeriod(list []int) int {
	if len(list) == 0 {
		return math.MaxInt
	}
	return list[0]
}

func unixOf(t *time.Time) int {
	if t == nil {
		return 0
	}
	return int(t.UnixMilli())
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func containsFold(q string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// FilterRows keeps rows whose teacher, class or subject contains q.
func FilterRows(rows []Row, q string) []Row {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return rows
	}
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if containsFold(q, r.Teacher, r.Class, r.Subject) {
			out = append(out, r)
		}
	}
	return out
}

// SortRows orders report rows by teacher, subject, class, period, time or
// reason. Unknown keys keep the incoming order.
func SortRows(rows []Row, key, order string) {
	c := newCollator()
	var less func(a, b Row) int
	switch key {
	case "name", "teacher":
		less = func(a, b Row) int { return c.CompareString(a.Teacher, b.Teacher) }
	case "subject":
		less = func(a, b Row) int { return c.CompareString(a.Subject, b.Subject) }
	case "class":
		less = func(a, b Row) int { return c.CompareString(a.Class, b.Class) }
	case "period":
		less = func(a, b Row) int { return compareInt(minPeriod(a.PeriodList), minPeriod(b.PeriodList)) }
	case "time", "latest":
		less = func(a, b Row) int { return a.Time.Compare(b.Time) }
	case "reason":
		less = func(a, b Row) int { return c.CompareString(a.Reasons, b.Reasons) }
	default:
		return
	}
	sortBy(rows, less, descending(order))
}

// FilterRealtime keeps rows whose teacher, subject or class contains q.
func FilterRealtime(rows []RealtimeRow, q string) []RealtimeRow {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return rows
	}
	out := make([]RealtimeRow, 0, len(rows))
	for _, r := range rows {
		if containsFold(q, r.Teacher, r.Subject, r.Class) {
			out = append(out, r)
		}
	}
	return out
}

// SortRealtime orders the realtime rows, by teacher name when key is
// unknown.
func SortRealtime(rows []RealtimeRow, key, order string) {
	c := newCollator()
	var less func(a, b RealtimeRow) int
	switch key {
	case "subject":
		less = func(a, b RealtimeRow) int { return c.CompareString(a.Subject, b.Subject) }
	case "class":
		less = func(a, b RealtimeRow) int { return c.CompareString(a.Class, b.Class) }
	case "period":
		less = func(a, b RealtimeRow) int { return compareInt(minPeriod(a.PeriodList), minPeriod(b.PeriodList)) }
	case "status":
		less = func(a, b RealtimeRow) int { return strings.Compare(a.Status, b.Status) }
	case "latest":
		less = func(a, b RealtimeRow) int { return compareInt(unixOf(a.Time), unixOf(b.Time)) }
	default:
		less = func(a, b RealtimeRow) int { return c.CompareString(a.Teacher, b.Teacher) }
	}
	sortBy(rows, less, descending(order))
}

// Number assigns running numbers starting after offset.
func Number(rows []RealtimeRow, offset int) {
	for i := range rows {
		rows[i].No = offset + i + 1
	}
}

// FilterRecap keeps rows whose teacher or status contains q.
func FilterRecap(rows []RecapRow, q string) []RecapRow {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return rows
	}
	out := make([]RecapRow, 0, len(rows))
	for _, r := range rows {
		if containsFold(q, r.Teacher, r.Status) {
			out = append(out, r)
		}
	}
	return out
}

// SortRecap orders recap rows, by teacher name when key is unknown.
func SortRecap(rows []RecapRow, key, order string) {
	c := newCollator()
	var less func(a, b RecapRow) int
	switch key {
	case "status":
		less = func(a, b RecapRow) int { return strings.Compare(a.Status, b.Status) }
	case "subject":
		less = func(a, b RecapRow) int { return c.CompareString(a.Subject, b.Subject) }
	case "class":
		less = func(a, b RecapRow) int { return c.CompareString(a.Class, b.Class) }
	case "period":
		less = func(a, b RecapRow) int { return compareInt(minPeriod(a.PeriodList), minPeriod(b.PeriodList)) }
	default:
		less = func(a, b RecapRow) int { return c.CompareString(a.Teacher, b.Teacher) }
	}
	sortBy(rows, less, descending(order))
}

func sortBy[T any](rows []T, cmp func(a, b T) int, desc bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		if desc {
			return cmp(rows[j], rows[i]) < 0
		}
		return cmp(rows[i], rows[j]) < 0
	})
}
