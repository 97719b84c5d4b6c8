package operations

import (
	"context"
	"time"

	"github.com/simdigmanuda/pdp.sim/internal/db"
)

type GalleryReader interface {
	ListSubmissions(ctx context.Context, arg db.SubmissionFilter) ([]db.SubmissionBatch, error)
}

type GalleryFilter struct {
	Start     time.Time
	End       time.Time
	TeacherID int64
	SubjectID int64
}

// LoadGallery returns the newest photo of every teacher between the start
// and end dates, both inclusive.
func LoadGallery(ctx context.Context, r GalleryReader, f GalleryFilter) ([]db.SubmissionBatch, error) {
	batches, err := r.ListSubmissions(ctx, db.SubmissionFilter{
		From:      f.Start,
		To:        f.End.AddDate(0, 0, 1),
		TeacherID: f.TeacherID,
		SubjectID: f.SubjectID,
	})
	if err != nil {
		return nil, err
	}
	return NewestPhotoPerTeacher(batches), nil
}

// NewestPhotoPerTeacher keeps the first batch with a photo of each teacher.
// batches must be ordered newest first.
func NewestPhotoPerTeacher(batches []db.SubmissionBatch) []db.SubmissionBatch {
	seen := make(map[int64]struct{})
	out := make([]db.SubmissionBatch, 0)
	for _, b := range batches {
		if b.PhotoPath == nil || *b.PhotoPath == "" {
			continue
		}
		if _, ok := seen[b.TeacherID]; ok {
			continue
		}
		seen[b.TeacherID] = struct{}{}
		out = append(out, b)
	}
	return out
}
