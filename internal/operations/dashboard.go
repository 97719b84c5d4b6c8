package operations

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/simdigmanuda/pdp.sim/internal/db"
	"github.com/simdigmanuda/pdp.sim/internal/period"
	"github.com/simdigmanuda/pdp.sim/internal/report"
	"github.com/simdigmanuda/pdp.sim/internal/storage"
)

var shortDayLabels = [7]string{"Ahad", "Sen", "Sel", "Rab", "Kam", "Jum", "Sab"}

const (
	dashboardLatest       = 8
	dashboardPhotos       = 37
	dashboardInvalidToday = 5
	dashboardCandidates   = 100
)

type DashboardReader interface {
	LabelReader
	ListSubmissions(ctx context.Context, arg db.SubmissionFilter) ([]db.SubmissionBatch, error)
	ListAllocationSlotsByDay(ctx context.Context, day int) ([]db.AllocationSlot, error)
}

type DashboardItem struct {
	BatchID       string    `json:"batchId"`
	Teacher       string    `json:"teacher"`
	Class         string    `json:"class"`
	Subject       string    `json:"subject"`
	Periods       string    `json:"periods"`
	Time          time.Time `json:"time"`
	PhotoURL      string    `json:"photoUrl,omitempty"`
	LocationValid *bool     `json:"locationValid"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

type Dashboard struct {
	TotalTeachers      int             `json:"totalTeachers"`
	TotalClasses       int             `json:"totalClasses"`
	TotalSubjects      int             `json:"totalSubjects"`
	WeekCount          int             `json:"weekCount"`
	TodayCount         int             `json:"todayCount"`
	TodayActiveTeacher int             `json:"todayActiveTeachers"`
	Daily              []DailyCount    `json:"daily"`
	Latest             []DashboardItem `json:"latest"`
	LatestPhotos       []DashboardItem `json:"latestPhotos"`
	InvalidToday       []DashboardItem `json:"invalidToday"`
	PeriodsToday       int             `json:"periodsToday"`
	SubmittedThisMin   int             `json:"submittedThisMinute"`
	MissingThisMin     int             `json:"missingThisMinute"`
}

// LoadDashboard collects the admin overview for the day containing now.
// Weeks start on Monday.
func LoadDashboard(ctx context.Context, r DashboardReader, now time.Time, loc *time.Location) (Dashboard, error) {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)
	today := report.DateOf(now)
	trendStart := today.AddDate(0, 0, -6)
	from := weekStart(today)
	if trendStart.Before(from) {
		from = trendStart
	}

	var (
		labels report.Labels
		recent []db.SubmissionBatch
		latest []db.SubmissionBatch
		slots  []db.AllocationSlot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		labels, err = LoadLabels(gctx, r)
		return err
	})
	g.Go(func() (err error) {
		recent, err = r.ListSubmissions(gctx, db.SubmissionFilter{From: from, To: today.AddDate(0, 0, 7)})
		return err
	})
	g.Go(func() (err error) {
		latest, err = r.ListSubmissions(gctx, db.SubmissionFilter{
			From:  time.Unix(0, 0),
			To:    now.Add(24 * time.Hour),
			Limit: dashboardCandidates,
		})
		return err
	})
	g.Go(func() (err error) {
		slots, err = r.ListAllocationSlotsByDay(gctx, int(today.Weekday()))
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return BuildDashboard(now, labels, recent, latest, slots), nil
}

// BuildDashboard is the pure part of LoadDashboard. recent must cover the
// current week and the last seven days; latest is newest first.
func BuildDashboard(now time.Time, labels report.Labels, recent, latest []db.SubmissionBatch, slots []db.AllocationSlot) Dashboard {
	loc := now.Location()
	today := report.DateOf(now)
	tomorrow := today.AddDate(0, 0, 1)
	monday := weekStart(today)
	nextMonday := monday.AddDate(0, 0, 7)
	minute := now.Truncate(time.Minute)

	out := Dashboard{
		TotalTeachers: len(labels.Teachers),
		TotalClasses:  len(labels.Classes),
		TotalSubjects: len(labels.Subjects),
		Latest:        []DashboardItem{},
		LatestPhotos:  []DashboardItem{},
		InvalidToday:  []DashboardItem{},
	}

	daily := make(map[string]int, 7)
	activeToday := make(map[int64]struct{})
	photoThisMinute := make(map[int64]struct{})
	for _, b := range recent {
		at := b.CreatedAt.In(loc)
		if !at.Before(monday) && at.Before(nextMonday) {
			out.WeekCount++
		}
		daily[at.Format("2006-01-02")]++
		if !at.Before(today) && at.Before(tomorrow) {
			out.TodayCount++
			activeToday[b.TeacherID] = struct{}{}
			if b.LocationValid != nil && !*b.LocationValid && len(out.InvalidToday) < dashboardInvalidToday {
				out.InvalidToday = append(out.InvalidToday, dashboardItem(b, labels))
			}
		}
		if at.Truncate(time.Minute).Equal(minute) && b.PhotoPath != nil && *b.PhotoPath != "" {
			photoThisMinute[b.TeacherID] = struct{}{}
		}
	}
	out.TodayActiveTeacher = len(activeToday)
	out.SubmittedThisMin = len(photoThisMinute)
	if missing := out.TotalTeachers - out.SubmittedThisMin; missing > 0 {
		out.MissingThisMin = missing
	}

	for i := 6; i >= 0; i-- {
		d := today.AddDate(0, 0, -i)
		key := d.Format("2006-01-02")
		out.Daily = append(out.Daily, DailyCount{Date: key, Label: shortDayLabels[d.Weekday()], Count: daily[key]})
	}

	for _, b := range latest {
		if len(out.Latest) < dashboardLatest {
			out.Latest = append(out.Latest, dashboardItem(b, labels))
		}
		if b.PhotoPath != nil && *b.PhotoPath != "" && len(out.LatestPhotos) < dashboardPhotos {
			out.LatestPhotos = append(out.LatestPhotos, dashboardItem(b, labels))
		}
	}

	var periods []int
	for _, s := range slots {
		if s.Period != nil {
			periods = append(periods, *s.Period)
		}
	}
	out.PeriodsToday = len(period.Of(periods...))
	return out
}

func weekStart(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func dashboardItem(b db.SubmissionBatch, labels report.Labels) DashboardItem {
	item := DashboardItem{
		BatchID:       b.IDString(),
		Teacher:       labels.Teacher(b.TeacherID),
		Class:         labels.Class(b.ClassID),
		Subject:       labels.Subject(b.SubjectID),
		Periods:       period.Of(b.Periods...).Display(),
		Time:          b.CreatedAt,
		LocationValid: b.LocationValid,
	}
	if b.PhotoPath != nil {
		item.PhotoURL = storage.URL(*b.PhotoPath)
	}
	return item
}
