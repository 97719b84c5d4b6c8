package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/simdigmanuda/pdp.sim/internal/config"
)

type fakeClearer struct {
	cutoff time.Time
	paths  []string
}

func (f *fakeClearer) ClearPhotos(context.Context, []uuid.UUID) ([]string, error) {
	return nil, nil
}

func (f *fakeClearer) ClearPhotosBefore(_ context.Context, cutoff time.Time) ([]string, error) {
	f.cutoff = cutoff
	return f.paths, nil
}

type fakeRemover struct {
	removed []string
}

func (f *fakeRemover) Remove(rel string) error {
	f.removed = append(f.removed, rel)
	return nil
}

func TestPurgeExpiredPhotos(t *testing.T) {
	clearer := &fakeClearer{paths: []string{"uploads/2024-01-01/1.jpg", "uploads/2024-01-02/2.jpg"}}
	remover := &fakeRemover{}
	now := time.Date(2024, time.May, 8, 3, 0, 0, 0, time.UTC)

	n, err := purgeExpiredPhotos(context.Background(), clearer, remover, 90, now)
	if err != nil {
		t.Fatalf("purge error: %v", err)
	}
	if n != 2 || len(remover.removed) != 2 {
		t.Fatalf("expected 2 removed photos, got %d %v", n, remover.removed)
	}
	if expect := now.AddDate(0, 0, -90); !clearer.cutoff.Equal(expect) {
		t.Fatalf("expected cutoff %v got %v", expect, clearer.cutoff)
	}
}

func TestPhotoRetentionJobDisabled(t *testing.T) {
	clearer := &fakeClearer{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartPhotoRetentionJob(ctx, config.Config{PhotoRetentionDays: 0, PhotoRetentionInterval: time.Millisecond}, clearer, &fakeRemover{})
	time.Sleep(20 * time.Millisecond)
	if !clearer.cutoff.IsZero() {
		t.Fatalf("expected disabled job not to run")
	}
}
