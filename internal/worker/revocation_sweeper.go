package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/blog-auth/internal/revocation"
)

// StartRevocationSweeper periodically drops revocation entries whose tokens
// have expired. Only the in-memory store needs this; the Redis backend
// expires entries on its own. The sweeper stops when ctx is cancelled.
func StartRevocationSweeper(ctx context.Context, store *revocation.MemoryStore, interval time.Duration, logger *zap.Logger) {
	if store == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed := store.Sweep()
				if removed > 0 {
					logger.Debug("swept revocation entries", zap.Int("removed", removed), zap.Int("remaining", store.Len()))
				}
			}
		}
	}()
}
