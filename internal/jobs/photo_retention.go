package jobs

import (
	"context"
	"log"
	"time"

	"github.com/simdigmanuda/pdp.sim/internal/config"
	"github.com/simdigmanuda/pdp.sim/internal/operations"
)

// StartPhotoRetentionJob clears photos older than PhotoRetentionDays on
// every tick. The submissions themselves are kept.
func StartPhotoRetentionJob(ctx context.Context, cfg config.Config, store operations.PhotoClearer, photos operations.PhotoRemover) {
	if cfg.PhotoRetentionDays <= 0 {
		return
	}
	if store == nil || photos == nil {
		log.Printf("photo retention job disabled: storage not configured")
		return
	}
	interval := cfg.PhotoRetentionInterval
	if interval <= 0 {
		interval = time.Hour
	}
	timeout := cfg.PhotoRetentionTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tickCtx, cancel := context.WithTimeout(ctx, timeout)
				n, err := purgeExpiredPhotos(tickCtx, store, photos, cfg.PhotoRetentionDays, time.Now())
				cancel()
				if err != nil {
					log.Printf("photo retention job error: %v", err)
					continue
				}
				if n > 0 {
					log.Printf("photo retention job cleared %d photos", n)
				}
			}
		}
	}()
}

func purgeExpiredPhotos(ctx context.Context, store operations.PhotoClearer, photos operations.PhotoRemover, days int, now time.Time) (int, error) {
	cutoff := now.AddDate(0, 0, -days)
	return operations.PurgePhotosBefore(ctx, store, photos, cutoff)
}
