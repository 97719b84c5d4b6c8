package operations

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simdigmanuda/pdp.sim/internal/db"
	"github.com/simdigmanuda/pdp.sim/internal/geofence"
	"github.com/simdigmanuda/pdp.sim/internal/matcher"
	"github.com/simdigmanuda/pdp.sim/internal/period"
	"github.com/simdigmanuda/pdp.sim/internal/report"
)

func intp(v int) *int { return &v }

func mustUUID(t *testing.T, raw string) db.SubmissionBatch {
	t.Helper()
	id, err := uuid.Parse(raw)
	require.NoError(t, err)
	var b db.SubmissionBatch
	b.ID.Bytes = id
	b.ID.Valid = true
	return b
}

type fakeDB struct {
	slots    []db.AllocationSlot
	entries  []db.TimetableEntry
	batches  []db.SubmissionBatch
	teachers []db.Teacher
	classes  []db.Class
	subjects []db.Subject

	saved     []db.CreateSubmissionParams
	saveErr   error
	filters   []db.SubmissionFilter
	cleared   []uuid.UUID
	clearPath []string
}

func (f *fakeDB) ListAllocationSlots(context.Context) ([]db.AllocationSlot, error) {
	return f.slots, nil
}

func (f *fakeDB) ListAllocationSlotsByDay(_ context.Context, day int) ([]db.AllocationSlot, error) {
	var out []db.AllocationSlot
	for _, s := range f.slots {
		if s.Day == day {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeDB) ListTimetableEntries(context.Context) ([]db.TimetableEntry, error) {
	return f.entries, nil
}

func (f *fakeDB) ListTimetableEntriesByDay(_ context.Context, day int) ([]db.TimetableEntry, error) {
	var out []db.TimetableEntry
	for _, e := range f.entries {
		if e.Day == day {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeDB) ListSubmissions(_ context.Context, arg db.SubmissionFilter) ([]db.SubmissionBatch, error) {
	f.filters = append(f.filters, arg)
	return f.batches, nil
}

func (f *fakeDB) ListTeachers(context.Context) ([]db.Teacher, error) { return f.teachers, nil }
func (f *fakeDB) ListClasses(context.Context) ([]db.Class, error) { return f.classes, nil }
func (f *fakeDB) ListSubjects(context.Context) ([]db.Subject, error) { return f.subjects, nil }

func (f *fakeDB) GetSubject(_ context.Context, id int64) (db.Subject, error) {
	for _, s := range f.subjects {
		if s.ID == id {
			return s, nil
		}
	}
	return db.Subject{}, pgx.ErrNoRows
}

func (f *fakeDB) GetClass(_ context.Context, id int64) (db.Class, error) {
	for _, c := range f.classes {
		if c.ID == id {
			return c, nil
		}
	}
	return db.Class{}, pgx.ErrNoRows
}

func (f *fakeDB) SaveSubmission(_ context.Context, arg db.CreateSubmissionParams) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, arg)
	return nil
}

func (f *fakeDB) ClearPhotos(_ context.Context, ids []uuid.UUID) ([]string, error) {
	f.cleared = append(f.cleared, ids...)
	return f.clearPath, nil
}

func (f *fakeDB) ClearPhotosBefore(context.Context, time.Time) ([]string, error) {
	return f.clearPath, nil
}

type fakePhotos struct {
	saved   []string
	removed []string
}

func (p *fakePhotos) Save(now time.Time, ext string, r io.Reader) (string, int64, error) {
	n, err := io.Copy(io.Discard, r)
	rel := "uploads/" + now.Format("2006-01-02") + "/photo" + ext
	p.saved = append(p.saved, rel)
	return rel, n, err
}

func (p *fakePhotos) Thumbnail(rel string) (string, error) { return "", errors.New("not an image") }

func (p *fakePhotos) Remove(rel string) error {
	p.removed = append(p.removed, rel)
	return nil
}

func TestLoadDaysBuildsGroupsPerWeekday(t *testing.T) {
	loc := time.UTC
	monday := time.Date(2024, time.May, 6, 0, 0, 0, 0, loc)
	b := mustUUID(t, "7a1d0c1e-2b62-4a55-9f0e-0c6d8b1f2a10")
	b.TeacherID, b.ClassID, b.SubjectID = 1, 2, 3
	b.CreatedAt = monday.Add(8 * time.Hour)
	b.Periods = []int{1}

	f := &fakeDB{
		slots: []db.AllocationSlot{
			{ID: 1, Day: 1, Period: intp(1), StartMinute: 420, EndMinute: 460},
			{ID: 2, Day: 2, Period: intp(1), StartMinute: 420, EndMinute: 460},
		},
		entries: []db.TimetableEntry{
			{ID: 1, TeacherID: 1, ClassID: 2, SubjectID: 3, Day: 1, StartMinute: 420, EndMinute: 460},
		},
		batches: []db.SubmissionBatch{b},
	}

	days, err := LoadDays(context.Background(), f, monday, monday.AddDate(0, 0, 1), loc, Scope{TeacherID: 1})
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, 1, days[0].Groups.Len())
	assert.Len(t, days[0].Submissions, 1)
	assert.Equal(t, 0, days[1].Groups.Len())
	assert.Empty(t, days[1].Submissions)

	require.Len(t, f.filters, 1)
	assert.Equal(t, monday, f.filters[0].From)
	assert.Equal(t, monday.AddDate(0, 0, 2), f.filters[0].To)
	assert.Equal(t, int64(1), f.filters[0].TeacherID)

	results := report.Classify(days)
	require.Len(t, results, 1)
	assert.True(t, results[0].Matched)
}

func TestLoadLabels(t *testing.T) {
	f := &fakeDB{
		teachers: []db.Teacher{{ID: 1, Name: "Bu Sari"}},
		classes:  []db.Class{{ID: 2, Name: "7A"}},
		subjects: []db.Subject{
			{ID: 3, Name: "IPA"},
			{ID: 20, Name: "Matematika", Code: "MTK"},
			{ID: 21, Name: "Matematika Lama", Code: " MTK "},
		},
	}
	labels, err := LoadLabels(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, "Bu Sari", labels.Teacher(1))
	assert.Equal(t, "7A", labels.Class(2))
	assert.Equal(t, "IPA", labels.Subject(3))
	assert.Equal(t, "MTK", labels.Subject(20))
	assert.Equal(t, "MTK", labels.Subject(21))
	assert.Equal(t, "Matematika Lama", labels.SubjectNames[21])

	at := time.Date(2024, time.May, 6, 9, 0, 0, 0, time.UTC)
	rows := report.AggregateResults([]matcher.Result{
		{Submission: matcher.Submission{ID: "a", TeacherID: 1, ClassID: 2, SubjectID: 20, CreatedAt: at}, Provided: period.Of(1)},
		{Submission: matcher.Submission{ID: "b", TeacherID: 1, ClassID: 2, SubjectID: 21, CreatedAt: at.Add(time.Minute)}, Provided: period.Of(2)},
	}, labels, time.UTC)
	require.Len(t, rows, 1)
	assert.Equal(t, "MTK", rows[0].Subject)
	assert.Equal(t, []int{1, 2}, rows[0].PeriodList)
}

func TestUploadValidatesInOrder(t *testing.T) {
	f := &fakeDB{classes: []db.Class{{ID: 2}}, subjects: []db.Subject{{ID: 3}}}
	photos := &fakePhotos{}
	ctx := context.Background()

	cases := []struct {
		in   UploadInput
		code string
	}{
		{UploadInput{Periods: period.Of(1)}, ErrMissingSelection},
		{UploadInput{SubjectID: 3, ClassID: 2}, ErrMissingPeriod},
		{UploadInput{SubjectID: 9, ClassID: 2, Periods: period.Of(1)}, ErrUnknownReference},
		{UploadInput{SubjectID: 3, ClassID: 9, Periods: period.Of(1)}, ErrUnknownReference},
		{UploadInput{SubjectID: 3, ClassID: 2, Periods: period.Of(1)}, ErrMissingPhoto},
	}
	for _, tc := range cases {
		_, err := Upload(ctx, f, photos, nil, tc.in)
		var opErr *Error
		require.ErrorAs(t, err, &opErr)
		assert.Equal(t, tc.code, opErr.Code)
	}
	assert.Empty(t, photos.saved)
}

func TestUploadStoresBatchWithLocation(t *testing.T) {
	f := &fakeDB{classes: []db.Class{{ID: 2}}, subjects: []db.Subject{{ID: 3}}}
	photos := &fakePhotos{}
	lat, lng := -6.2, 106.8
	now := time.Date(2024, time.May, 6, 9, 0, 0, 0, time.UTC)

	res, err := Upload(context.Background(), f, photos, []geofence.Location{
		{Name: "Gerbang", Lat: lat, Lng: lng, RadiusMeters: 50},
		{Name: "Lapangan", Lat: lat + 0.01, Lng: lng, RadiusMeters: 50},
	}, UploadInput{
		TeacherID: 1,
		SubjectID: 3,
		ClassID:   2,
		Periods:   period.Of(4, 3),
		Latitude:  &lat,
		Longitude: &lng,
		Ext:       ".jpg",
		Photo:     bytes.NewReader([]byte("img")),
		Now:       now,
	})
	require.NoError(t, err)
	require.Len(t, f.saved, 1)
	assert.Equal(t, []int{3, 4}, f.saved[0].Periods)
	assert.Equal(t, res.BatchID, f.saved[0].ID.String())
	require.NotNil(t, res.LocationValid)
	assert.True(t, *res.LocationValid)
	assert.Equal(t, "Gerbang", res.Nearest)
	require.NotNil(t, res.DistanceMeters)
	assert.InDelta(t, 0, *res.DistanceMeters, 0.001)
	assert.Equal(t, int64(3), res.Size)
	assert.Equal(t, "uploads/2024-05-06/photo.jpg", res.PhotoPath)
}

func TestUploadRemovesPhotoWhenSaveFails(t *testing.T) {
	f := &fakeDB{classes: []db.Class{{ID: 2}}, subjects: []db.Subject{{ID: 3}}, saveErr: errors.New("db down")}
	photos := &fakePhotos{}
	_, err := Upload(context.Background(), f, photos, nil, UploadInput{
		TeacherID: 1, SubjectID: 3, ClassID: 2, Periods: period.Of(1), Photo: bytes.NewReader(nil),
	})
	require.Error(t, err)
	assert.Equal(t, photos.saved, photos.removed)
}

func TestUploadWithoutLocationsIsUnknown(t *testing.T) {
	f := &fakeDB{classes: []db.Class{{ID: 2}}, subjects: []db.Subject{{ID: 3}}}
	lat, lng := -6.2, 106.8
	res, err := Upload(context.Background(), f, &fakePhotos{}, nil, UploadInput{
		TeacherID: 1, SubjectID: 3, ClassID: 2, Periods: period.Of(1),
		Latitude: &lat, Longitude: &lng, Photo: bytes.NewReader(nil),
	})
	require.NoError(t, err)
	assert.Nil(t, res.LocationValid)
	assert.Empty(t, res.Nearest)
	assert.Nil(t, res.DistanceMeters)
}

func TestClassifyUpload(t *testing.T) {
	f := &fakeDB{
		slots: []db.AllocationSlot{
			{ID: 1, Day: 1, Period: intp(1), StartMinute: 420, EndMinute: 460},
			{ID: 2, Day: 1, Period: intp(2), StartMinute: 460, EndMinute: 500},
		},
		entries: []db.TimetableEntry{
			{ID: 1, TeacherID: 1, ClassID: 2, SubjectID: 3, Day: 1, StartMinute: 460, EndMinute: 500},
			{ID: 2, TeacherID: 1, ClassID: 2, SubjectID: 3, Day: 2, StartMinute: 420, EndMinute: 460},
		},
	}
	monday := time.Date(2024, time.May, 6, 9, 0, 0, 0, time.UTC)
	in := UploadInput{TeacherID: 1, ClassID: 2, SubjectID: 3, Now: monday}

	res, err := ClassifyUpload(context.Background(), f, time.UTC, in, UploadResult{BatchID: "b", Periods: period.Of(2)})
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, "matched", res.Outcome())

	res, err = ClassifyUpload(context.Background(), f, time.UTC, in, UploadResult{BatchID: "b", Periods: period.Of(1)})
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Equal(t, matcher.ReasonSet{matcher.ReasonWrongPeriod}, res.Reasons)
}

func TestDeletePhotos(t *testing.T) {
	id := uuid.New()
	f := &fakeDB{clearPath: []string{"uploads/a.jpg"}}
	photos := &fakePhotos{}

	n, err := DeletePhotos(context.Background(), f, photos, []string{id.String(), " " + id.String()})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []uuid.UUID{id}, f.cleared)
	assert.Equal(t, []string{"uploads/a.jpg"}, photos.removed)

	_, err = DeletePhotos(context.Background(), f, photos, []string{"nope"})
	var opErr *Error
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, ErrInvalidBatchID, opErr.Code)

	_, err = DeletePhotos(context.Background(), f, photos, nil)
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, ErrNothingToDelete, opErr.Code)
}

type fakeAllocation struct {
	existing map[[2]int]bool
	created  []db.AllocationSlotParams
}

func (f *fakeAllocation) AllocationSlotExists(_ context.Context, day, p int) (bool, error) {
	return f.existing[[2]int{day, p}], nil
}

func (f *fakeAllocation) CreateAllocationSlot(_ context.Context, arg db.AllocationSlotParams) (db.AllocationSlot, error) {
	f.created = append(f.created, arg)
	return db.AllocationSlot{ID: int64(len(f.created)), Day: arg.Day, Period: arg.Period}, nil
}

func TestCreateAllocationSkipsExistingDays(t *testing.T) {
	w := &fakeAllocation{existing: map[[2]int]bool{{2, 3}: true}}
	res, err := CreateAllocation(context.Background(), w, AllocationInput{
		Days: []int{3, 1, 2, 1}, Period: intp(3), StartMinute: 540, EndMinute: 580,
	})
	require.NoError(t, err)
	assert.Len(t, res.Created, 2)
	assert.Equal(t, []int{2}, res.Skipped)
	assert.Equal(t, 1, w.created[0].Day)
	assert.Equal(t, 3, w.created[1].Day)
}

func TestCreateAllocationValidation(t *testing.T) {
	w := &fakeAllocation{}
	cases := []struct {
		in   AllocationInput
		code string
	}{
		{AllocationInput{Days: []int{7}, StartMinute: 1, EndMinute: 2}, ErrInvalidDay},
		{AllocationInput{Days: []int{1}, Period: intp(13), StartMinute: 1, EndMinute: 2}, ErrInvalidPeriod},
		{AllocationInput{Days: []int{1}, Period: intp(0), StartMinute: 1, EndMinute: 2}, ErrInvalidPeriod},
		{AllocationInput{Days: []int{1}, StartMinute: 60, EndMinute: 60}, ErrInvalidTimeRange},
		{AllocationInput{}, ErrInvalidDay},
	}
	for _, tc := range cases {
		_, err := CreateAllocation(context.Background(), w, tc.in)
		var opErr *Error
		require.ErrorAs(t, err, &opErr)
		assert.Equal(t, tc.code, opErr.Code)
	}
	assert.Empty(t, w.created)
}

type fakeTimetable struct {
	slots   []db.AllocationSlot
	created []db.TimetableEntryParams
}

func (f *fakeTimetable) ListAllocationSlotsByDay(_ context.Context, day int) ([]db.AllocationSlot, error) {
	return f.slots, nil
}

func (f *fakeTimetable) CreateTimetableEntry(_ context.Context, arg db.TimetableEntryParams) (db.TimetableEntry, bool, error) {
	for _, c := range f.created {
		if c == arg {
			return db.TimetableEntry{}, false, nil
		}
	}
	f.created = append(f.created, arg)
	return db.TimetableEntry{ID: int64(len(f.created))}, true, nil
}

func TestCreateTimetableFromPeriods(t *testing.T) {
	w := &fakeTimetable{slots: []db.AllocationSlot{
		{Day: 1, Period: intp(1), StartMinute: 420, EndMinute: 460},
		{Day: 1, Period: intp(2), StartMinute: 460, EndMinute: 500},
	}}
	in := TimetableInput{TeacherID: 1, SubjectID: 2, ClassID: 3, Day: 1, Periods: period.Of(1, 2, 5)}

	res, err := CreateTimetable(context.Background(), w, in)
	require.NoError(t, err)
	assert.Len(t, res.Created, 2)
	assert.Equal(t, 0, res.Skipped)
	assert.Equal(t, []int{5}, res.Missing)
	assert.Equal(t, 460, w.created[1].StartMinute)

	res, err = CreateTimetable(context.Background(), w, in)
	require.NoError(t, err)
	assert.Empty(t, res.Created)
	assert.Equal(t, 2, res.Skipped)
}

func TestBuildDashboard(t *testing.T) {
	loc := time.UTC
	// Wednesday.
	now := time.Date(2024, time.May, 8, 10, 15, 30, 0, loc)
	photo := "uploads/x.jpg"
	invalid := false

	todayBatch := mustUUID(t, "11111111-1111-4111-8111-111111111111")
	todayBatch.TeacherID = 1
	todayBatch.CreatedAt = now.Add(-10 * time.Second)
	todayBatch.PhotoPath = &photo
	todayBatch.LocationValid = &invalid

	lastSunday := mustUUID(t, "22222222-2222-4222-8222-222222222222")
	lastSunday.TeacherID = 2
	lastSunday.CreatedAt = time.Date(2024, time.May, 5, 9, 0, 0, 0, loc)

	labels := report.NewLabels()
	labels.Teachers[1] = "A"
	labels.Teachers[2] = "B"
	labels.Teachers[3] = "C"

	batches := []db.SubmissionBatch{todayBatch, lastSunday}
	d := BuildDashboard(now, labels, batches, batches, []db.AllocationSlot{
		{Day: 3, Period: intp(1)}, {Day: 3, Period: intp(1)}, {Day: 3, Period: intp(2)}, {Day: 3},
	})

	assert.Equal(t, 3, d.TotalTeachers)
	assert.Equal(t, 1, d.WeekCount)
	assert.Equal(t, 1, d.TodayCount)
	assert.Equal(t, 1, d.TodayActiveTeacher)
	assert.Len(t, d.InvalidToday, 1)
	assert.Equal(t, 2, d.PeriodsToday)
	assert.Equal(t, 1, d.SubmittedThisMin)
	assert.Equal(t, 2, d.MissingThisMin)
	require.Len(t, d.Daily, 7)
	assert.Equal(t, "Kam", d.Daily[0].Label)
	assert.Equal(t, "Rab", d.Daily[6].Label)
	assert.Equal(t, 1, d.Daily[3].Count)
	assert.Equal(t, 0, d.Daily[4].Count)
	assert.Equal(t, 1, d.Daily[6].Count)
	assert.Len(t, d.Latest, 2)
	assert.Len(t, d.LatestPhotos, 1)
	assert.Equal(t, "/uploads/x.jpg", d.LatestPhotos[0].PhotoURL)
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "Link tidak valid", (&Error{Code: ErrInvalidToken}).Message())
	assert.Equal(t, "whatever", (&Error{Code: "whatever"}).Message())
}
