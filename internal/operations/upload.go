package operations

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/simdigmanuda/pdp.sim/internal/db"
	"github.com/simdigmanuda/pdp.sim/internal/geofence"
	"github.com/simdigmanuda/pdp.sim/internal/matcher"
	"github.com/simdigmanuda/pdp.sim/internal/period"
	"github.com/simdigmanuda/pdp.sim/internal/schedule"
)

// SubmissionWriter is what an upload needs from the database.
type SubmissionWriter interface {
	GetSubject(ctx context.Context, id int64) (db.Subject, error)
	GetClass(ctx context.Context, id int64) (db.Class, error)
	SaveSubmission(ctx context.Context, arg db.CreateSubmissionParams) error
}

// PhotoStore is the subset of storage.Photos an upload uses.
type PhotoStore interface {
	Save(now time.Time, ext string, r io.Reader) (string, int64, error)
	Thumbnail(rel string) (string, error)
	Remove(rel string) error
}

type UploadInput struct {
	TeacherID int64
	SubjectID int64
	ClassID   int64
	Periods   period.Set
	Latitude  *float64
	Longitude *float64
	Ext       string
	Photo     io.Reader
	Now       time.Time
}

// UploadResult reports the stored batch. Nearest is the closest configured
// location, empty when the location is unknown.
type UploadResult struct {
	BatchID        string
	Periods        period.Set
	PhotoPath      string
	Size           int64
	LocationValid  *bool
	Nearest        string
	DistanceMeters *float64
}

// Upload stores one documentation photo and a batch claiming every selected
// period. Location validity is decided against locations at upload time.
func Upload(ctx context.Context, w SubmissionWriter, photos PhotoStore, locations []geofence.Location, in UploadInput) (UploadResult, error) {
	if in.SubjectID <= 0 || in.ClassID <= 0 {
		return UploadResult{}, &Error{Code: ErrMissingSelection}
	}
	if in.Periods.Empty() {
		return UploadResult{}, &Error{Code: ErrMissingPeriod}
	}
	if _, err := w.GetSubject(ctx, in.SubjectID); err != nil {
		if db.IsNotFound(err) {
			return UploadResult{}, &Error{Code: ErrUnknownReference}
		}
		return UploadResult{}, err
	}
	if _, err := w.GetClass(ctx, in.ClassID); err != nil {
		if db.IsNotFound(err) {
			return UploadResult{}, &Error{Code: ErrUnknownReference}
		}
		return UploadResult{}, err
	}
	if in.Photo == nil {
		return UploadResult{}, &Error{Code: ErrMissingPhoto}
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	valid := geofence.Check(in.Latitude, in.Longitude, locations)
	var nearest string
	var distance *float64
	if valid != nil {
		if loc, d, ok := geofence.Nearest(*in.Latitude, *in.Longitude, locations); ok {
			nearest, distance = loc.Name, &d
		}
	}

	rel, size, err := photos.Save(now, in.Ext, in.Photo)
	if err != nil {
		log.Printf("upload save error: %v", err)
		return UploadResult{}, &Error{Code: ErrStorage}
	}
	if _, err := photos.Thumbnail(rel); err != nil {
		log.Printf("thumbnail error for %s: %v", rel, err)
	}

	id := uuid.New()
	if err := w.SaveSubmission(ctx, db.CreateSubmissionParams{
		ID:            id,
		TeacherID:     in.TeacherID,
		ClassID:       in.ClassID,
		SubjectID:     in.SubjectID,
		PhotoPath:     &rel,
		Latitude:      in.Latitude,
		Longitude:     in.Longitude,
		LocationValid: valid,
		CreatedAt:     now.UTC(),
		Periods:       in.Periods.Ints(),
	}); err != nil {
		if rmErr := photos.Remove(rel); rmErr != nil {
			log.Printf("cleanup photo %s: %v", rel, rmErr)
		}
		return UploadResult{}, err
	}

	return UploadResult{
		BatchID:        id.String(),
		Periods:        in.Periods,
		PhotoPath:      rel,
		Size:           size,
		LocationValid:  valid,
		Nearest:        nearest,
		DistanceMeters: distance,
	}, nil
}

// DayScheduleReader reads the allocation and timetable of one weekday.
type DayScheduleReader interface {
	ListAllocationSlotsByDay(ctx context.Context, day int) ([]db.AllocationSlot, error)
	ListTimetableEntriesByDay(ctx context.Context, day int) ([]db.TimetableEntry, error)
}

// ClassifyUpload classifies a stored batch against the groups of the weekday
// it was uploaded on, in loc.
func ClassifyUpload(ctx context.Context, r DayScheduleReader, loc *time.Location, in UploadInput, res UploadResult) (matcher.Result, error) {
	if loc == nil {
		loc = time.UTC
	}
	day := int(in.Now.In(loc).Weekday())
	slots, err := r.ListAllocationSlotsByDay(ctx, day)
	if err != nil {
		return matcher.Result{}, err
	}
	entries, err := r.ListTimetableEntriesByDay(ctx, day)
	if err != nil {
		return matcher.Result{}, err
	}
	timetable := make([]schedule.TimetableEntry, 0, len(entries))
	for _, e := range entries {
		timetable = append(timetable, e.Schedule())
	}
	groups := schedule.BuildDayFromAllocation(day, allocationOf(slots), timetable)
	return matcher.Classify(matcher.Submission{
		ID:            res.BatchID,
		TeacherID:     in.TeacherID,
		ClassID:       in.ClassID,
		SubjectID:     in.SubjectID,
		Periods:       res.Periods,
		LocationValid: res.LocationValid,
		CreatedAt:     in.Now,
	}, groups), nil
}
