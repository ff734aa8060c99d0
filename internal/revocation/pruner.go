package revocation

import (
	"context"
	"log/slog"
	"time"
)

const pruneInterval = 3 * 24 * time.Hour

// RunPruner issues a one-shot prune at startup, then prunes every 3 days
// until ctx is cancelled. Failures are logged and do not halt the loop: the
// next scheduled or startup prune will retry.
func RunPruner(ctx context.Context, idx *Index) error {
	if err := idx.PruneExpired(ctx); err != nil {
		slog.Error("startup revocation prune failed", "error", err)
	}

	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := idx.PruneExpired(ctx); err != nil {
				slog.Error("revocation prune failed", "error", err)
			}
		}
	}
}
