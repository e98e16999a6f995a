package idempotency

import (
	"log/slog"
	"time"
)

// DefaultExpiry is how long keys are kept. A day comfortably covers client
// retry windows.
const DefaultExpiry = 24 * time.Hour

// CleanupOldKeys drops expired keys and reports how many were removed.
func CleanupOldKeys(repo Repository, expiry time.Duration) (int64, error) {
	deleted, err := repo.DeleteOlderThan(expiry)
	if err != nil {
		slog.Error("failed to cleanup old idempotency keys", "error", err)
		return 0, err
	}
	if deleted > 0 {
		slog.Info("cleaned up old idempotency keys", "deleted", deleted, "older_than", expiry)
	}
	return deleted, nil
}

// RunPeriodicCleanup cleans immediately and then on every tick until the stop
// channel closes. Blocks; run in a goroutine.
func RunPeriodicCleanup(repo Repository, interval, expiry time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	CleanupOldKeys(repo, expiry)

	for {
		select {
		case <-ticker.C:
			CleanupOldKeys(repo, expiry)
		case <-stop:
			slog.Info("stopping idempotency cleanup")
			return
		}
	}
}
