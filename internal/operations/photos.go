package operations

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

type PhotoClearer interface {
	ClearPhotos(ctx context.Context, ids []uuid.UUID) ([]string, error)
	ClearPhotosBefore(ctx context.Context, cutoff time.Time) ([]string, error)
}

type PhotoRemover interface {
	Remove(rel string) error
}

// DeletePhotos detaches the photos of the given batches and removes their
// files. Submission rows stay. It returns how many photos were cleared.
func DeletePhotos(ctx context.Context, c PhotoClearer, files PhotoRemover, batchIDs []string) (int, error) {
	ids := make([]uuid.UUID, 0, len(batchIDs))
	seen := make(map[uuid.UUID]struct{}, len(batchIDs))
	for _, raw := range batchIDs {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return 0, &Error{Code: ErrInvalidBatchID}
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return 0, &Error{Code: ErrNothingToDelete}
	}
	paths, err := c.ClearPhotos(ctx, ids)
	if err != nil {
		return 0, err
	}
	removeFiles(files, paths)
	return len(paths), nil
}

// PurgePhotosBefore clears every photo of batches created before cutoff.
func PurgePhotosBefore(ctx context.Context, c PhotoClearer, files PhotoRemover, cutoff time.Time) (int, error) {
	paths, err := c.ClearPhotosBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	removeFiles(files, paths)
	return len(paths), nil
}

func removeFiles(files PhotoRemover, paths []string) {
	for _, p := range paths {
		if err := files.Remove(p); err != nil {
			log.Printf("remove photo %s: %v", p, err)
		}
	}
}
