package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/lexandro/docindex-mcp/ingest"
)

// SyncResult holds the outcome of a single rescan.
type SyncResult struct {
	Stats    ingest.Stats
	Removed  int // tracked documents no longer on disk
	Duration time.Duration
}

// runPeriodicSync rescans the root at the given interval until stop is closed or ctx
// is cancelled.
func runPeriodicSync(ctx context.Context, a *app, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.logger.Info("periodic sync started", "interval", interval)

	for {
		select {
		case <-stop:
			a.logger.Info("periodic sync stopped")
			return
		case <-ctx.Done():
			a.logger.Info("periodic sync stopped")
			return
		case <-ticker.C:
			result, err := performSync(ctx, a)
			if err != nil {
				a.logger.Error("sync failed", "error", err)
				continue
			}
			if result.Stats.NewFiles+result.Stats.UpdatedFiles+result.Removed > 0 {
				a.logger.Info("sync complete",
					"new", result.Stats.NewFiles,
					"updated", result.Stats.UpdatedFiles,
					"removed", result.Removed,
					"chunks", result.Stats.TotalChunks,
					"duration", result.Duration,
				)
			} else {
				a.logger.Debug("sync complete, index is in sync", "duration", result.Duration)
			}
		}
	}
}

// performSync drops tracked documents that disappeared from disk, then runs a
// non-forced ingestion of the root so only new and modified documents are re-chunked.
func performSync(ctx context.Context, a *app) (SyncResult, error) {
	start := time.Now()
	var result SyncResult

	for _, rec := range a.state.Records() {
		if _, err := os.Stat(rec.Path); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := a.engine.RemoveFile(ctx, rec.Path); err != nil {
			a.logger.Warn("sync: failed to remove stale document", "path", rec.Path, "error", err)
			continue
		}
		a.logger.Info("sync: removed stale document", "path", rec.Path)
		result.Removed++
	}

	stats, err := a.engine.IngestDirectory(ctx, a.cfg.Root, a.cfg.Recursive, false)
	result.Stats = stats
	result.Duration = time.Since(start)
	return result, err
}
