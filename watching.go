package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/lexandro/docindex-mcp/format"
	"github.com/lexandro/docindex-mcp/ignore"
	"github.com/lexandro/docindex-mcp/watcher"
)

// handleWatcherEvents applies debounced file system events to the index until the
// event channel closes or ctx is cancelled.
func handleWatcherEvents(ctx context.Context, events <-chan []watcher.DebouncedEvent, a *app) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-events:
			if !ok {
				return
			}
			applyEvents(ctx, batch, a)
		}
	}
}

// applyEvents ingests created and written documents and drops removed ones. Events
// for files that are not documents are skipped without logging, since the log file
// itself may live under the root.
func applyEvents(ctx context.Context, batch []watcher.DebouncedEvent, a *app) {
	for _, event := range batch {
		if ignore.IsIgnoreFile(event.Path) {
			a.ignore.Reload()
			a.logger.Info("reloaded ignore rules", "trigger", filepath.Base(event.Path))
			continue
		}

		switch event.Op {
		case watcher.OpRemove, watcher.OpRename:
			// Editors that save atomically rename over the old file; the path still exists
			if info, err := os.Stat(event.Path); err == nil && !info.IsDir() {
				ingestChanged(ctx, event.Path, a)
				continue
			}
			removePath(ctx, event.Path, a)

		case watcher.OpCreate, watcher.OpWrite:
			ingestChanged(ctx, event.Path, a)
		}
	}
}

func ingestChanged(ctx context.Context, path string, a *app) {
	if !format.IsSupported(path) || a.ignore.ShouldIgnore(path) {
		return
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}
	if a.ignore.IsFileTooLarge(info.Size()) {
		a.logger.Debug("skipped oversized document", "path", path, "size", info.Size())
		return
	}
	if err := a.engine.IngestFile(ctx, path); err != nil {
		a.logger.Error("failed to ingest changed document", "path", path, "error", err)
		return
	}
	a.logger.Debug("updated index", "path", path)
}

// removePath drops a removed document, or every tracked document under a removed
// directory.
func removePath(ctx context.Context, path string, a *app) {
	if _, tracked := a.state.Get(path); tracked {
		if err := a.engine.RemoveFile(ctx, path); err != nil {
			a.logger.Error("failed to remove document", "path", path, "error", err)
			return
		}
		a.logger.Debug("removed from index", "path", path)
		return
	}

	prefix := path + string(filepath.Separator)
	for _, rec := range a.state.Records() {
		if !strings.HasPrefix(rec.Path, prefix) {
			continue
		}
		if err := a.engine.RemoveFile(ctx, rec.Path); err != nil {
			a.logger.Error("failed to remove document", "path", rec.Path, "error", err)
			continue
		}
		a.logger.Debug("removed from index", "path", rec.Path)
	}
}
