// Package ingest scans directories, detects changed documents and hands their
// chunks to storage.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lexandro/docindex-mcp/change"
	"github.com/lexandro/docindex-mcp/chunk"
	"github.com/lexandro/docindex-mcp/extract"
	"github.com/lexandro/docindex-mcp/format"
	"github.com/lexandro/docindex-mcp/index"
)

// Store receives the chunk batch of an ingestion run.
type Store interface {
	AddChunks(ctx context.Context, records []index.Record) (int, error)
}

// Remover is implemented by stores that can drop all chunks of a file.
type Remover interface {
	RemoveFile(ctx context.Context, filePath string) error
}

// Filter decides which paths the scanner skips. *ignore.Matcher implements it.
type Filter interface {
	ShouldIgnore(path string) bool
	ShouldIgnoreDir(path string) bool
	IsFileTooLarge(size int64) bool
}

// Config wires the engine's collaborators.
type Config struct {
	Chunker *chunk.Chunker
	State   *change.Index
	Store   Store
	Ignore  Filter // optional
	Workers int    // parallel extractions, defaults to the number of CPUs
	Logger  *slog.Logger
}

// Stats summarises one ingestion run.
type Stats struct {
	TotalFiles   int
	NewFiles     int
	UpdatedFiles int
	SkippedFiles int
	TotalChunks  int
}

func (s Stats) String() string {
	return fmt.Sprintf("Indexed %d files (%d new, %d updated, %d skipped). Created %d chunks.",
		s.TotalFiles, s.NewFiles, s.UpdatedFiles, s.SkippedFiles, s.TotalChunks)
}

// Engine runs directory and single-file ingestion. It is safe for concurrent use.
// Commits to the change index and writes to the store happen together under
// writeMu, so the state and the stored chunks of a file always come from the
// same observation.
type Engine struct {
	writeMu sync.Mutex

	chunker *chunk.Chunker
	state   *change.Index
	store   Store
	filter  Filter
	workers int
	logger  *slog.Logger
}

// New creates an engine from cfg.
func New(cfg Config) (*Engine, error) {
	switch {
	case cfg.Chunker == nil:
		return nil, errors.New("ingest: chunker is required")
	case cfg.State == nil:
		return nil, errors.New("ingest: state index is required")
	case cfg.Store == nil:
		return nil, errors.New("ingest: store is required")
	}

	engine := &Engine{
		chunker: cfg.Chunker,
		state:   cfg.State,
		store:   cfg.Store,
		filter:  cfg.Ignore,
		workers: cfg.Workers,
		logger:  cfg.Logger,
	}
	if engine.filter == nil {
		engine.filter = noFilter{}
	}
	if engine.workers <= 0 {
		engine.workers = runtime.NumCPU()
	}
	if engine.logger == nil {
		engine.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return engine, nil
}

// candidate is a scanned file that needs (re-)ingestion.
type candidate struct {
	record change.FileRecord
	status change.Status
	ticket uint64
}

// fileResult is the extraction and chunking outcome of one candidate.
type fileResult struct {
	records []index.Record
	err     error
}

// IngestDirectory ingests every supported file under root whose fingerprint changed
// since it was last ingested. A missing root yields zero stats. Only a storage
// failure is returned as an error; the stats gathered so far are returned with it.
func (e *Engine) IngestDirectory(ctx context.Context, root string, recursive, force bool) (Stats, error) {
	var stats Stats
	logger := e.logger.With("run", uuid.NewString())

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		logger.Warn("ingestion root is not a directory", "path", root, "error", err)
		return stats, nil
	}

	start := time.Now()
	paths := e.scan(root, recursive)
	stats.TotalFiles = len(paths)

	var pending []candidate
	for _, path := range paths {
		ticket := e.state.Ticket()
		record, err := change.Fingerprint(path)
		if err != nil {
			logger.Warn("file unavailable", "path", path, "error", err)
			continue
		}

		status := e.state.Classify(record, force)
		if !status.Changed() {
			stats.SkippedFiles++
			logger.Debug("unchanged", "path", path)
			continue
		}
		if status == change.New {
			stats.NewFiles++
		} else {
			stats.UpdatedFiles++
		}
		pending = append(pending, candidate{record: record, status: status, ticket: ticket})
	}

	results := make([]fileResult, len(pending))
	var group errgroup.Group
	group.SetLimit(e.workers)
	for i, c := range pending {
		group.Go(func() error {
			records, err := e.processFile(c.record)
			results[i] = fileResult{records: records, err: err}
			return nil
		})
	}
	group.Wait() //nolint:errcheck // workers never fail, errors are kept per file

	stored, err := e.storeResults(ctx, logger, pending, results)
	stats.TotalChunks = stored
	if err != nil {
		return stats, fmt.Errorf("storing %d chunks from %s: %w", stored, root, err)
	}

	logger.Info("ingestion complete",
		"path", root,
		"files", stats.TotalFiles,
		"new", stats.NewFiles,
		"updated", stats.UpdatedFiles,
		"skipped", stats.SkippedFiles,
		"chunks", stats.TotalChunks,
		"duration", time.Since(start),
	)
	return stats, nil
}

// IngestFile ingests a single file, treating it as changed. Problems with the file
// itself are logged and swallowed; only a storage failure is returned.
func (e *Engine) IngestFile(ctx context.Context, path string) error {
	if !format.IsSupported(path) {
		e.logger.Debug("unsupported file", "path", path)
		return nil
	}

	ticket := e.state.Ticket()
	record, err := change.Fingerprint(path)
	if err != nil {
		e.logger.Warn("file unavailable", "path", path, "error", err)
		return nil
	}

	records, err := e.processFile(record)
	if err != nil {
		e.logger.Warn("extraction failed", "path", path, "error", err)
		return nil
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	if !e.state.CommitObserved(record, ticket) {
		e.logger.Debug("superseded by a newer change", "path", path)
		return nil
	}
	batch := appendBatch(nil, records)
	if len(batch) == 0 {
		e.dropStaleChunks(ctx, e.logger, path)
		return nil
	}
	if _, err := e.store.AddChunks(ctx, batch); err != nil {
		return fmt.Errorf("storing %d chunks from %s: %w", len(batch), path, err)
	}
	e.logger.Debug("ingested file", "path", path, "chunks", len(batch))
	return nil
}

// RemoveFile forgets the file's fingerprint and removes its chunks from the store
// when the store supports removal.
func (e *Engine) RemoveFile(ctx context.Context, path string) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	e.state.Forget(path)
	remover, ok := e.store.(Remover)
	if !ok {
		return nil
	}
	if err := remover.RemoveFile(ctx, path); err != nil {
		return fmt.Errorf("removing chunks of %s: %w", path, err)
	}
	return nil
}

// storeResults commits the extracted candidates and hands their chunks to the
// store as one batch. Candidates superseded by a newer change are left out. It
// returns the size of the batch.
func (e *Engine) storeResults(ctx context.Context, logger *slog.Logger, pending []candidate, results []fileResult) (int, error) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	var batch []index.Record
	for i, c := range pending {
		result := results[i]
		if result.err != nil {
			logger.Warn("extraction failed", "path", c.record.Path, "error", result.err)
			continue
		}
		if !e.state.CommitObserved(c.record, c.ticket) {
			logger.Debug("superseded by a newer change", "path", c.record.Path)
			continue
		}
		batch = appendBatch(batch, result.records)
		if len(result.records) == 0 {
			e.dropStaleChunks(ctx, logger, c.record.Path)
		}
		logger.Debug("ingested file", "path", c.record.Path, "status", c.status, "chunks", len(result.records))
	}

	if len(batch) == 0 {
		return 0, nil
	}
	if _, err := e.store.AddChunks(ctx, batch); err != nil {
		return len(batch), err
	}
	return len(batch), nil
}

// dropStaleChunks removes chunks left over from an earlier version of a file that
// now produces none.
func (e *Engine) dropStaleChunks(ctx context.Context, logger *slog.Logger, path string) {
	remover, ok := e.store.(Remover)
	if !ok {
		return
	}
	if err := remover.RemoveFile(ctx, path); err != nil {
		logger.Warn("failed to drop stale chunks", "path", path, "error", err)
	}
}

// scan returns the sorted supported files under root.
func (e *Engine) scan(root string, recursive bool) []string {
	var paths []string
	filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error { //nolint:errcheck
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			if !recursive || e.filter.ShouldIgnoreDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !format.IsSupported(path) || e.filter.ShouldIgnore(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if e.filter.IsFileTooLarge(info.Size()) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	sort.Strings(paths)
	return paths
}

// processFile extracts and chunks one file. Chunk positions within the file continue
// across segments and are kept in the file_chunk_index metadata key.
func (e *Engine) processFile(record change.FileRecord) ([]index.Record, error) {
	f := format.Detect(record.Path)
	segments, err := extract.File(record.Path)
	if errors.Is(err, extract.ErrNotText) {
		e.logger.Debug("skipped: not text", "path", record.Path)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	fileMetadata := map[string]any{
		"file_path":  record.Path,
		"file_name":  filepath.Base(record.Path),
		"file_size":  record.Size,
		"file_mtime": record.ModTime.UTC().Format(time.RFC3339),
		"format":     f.String(),
	}

	var records []index.Record
	for _, segment := range segments {
		for _, c := range e.chunker.Chunk(segment.Text, f) {
			metadata := mergeMetadata(fileMetadata, segment.Metadata, c.Metadata())
			metadata["file_chunk_index"] = len(records)
			records = append(records, index.Record{
				Content:  c.Content,
				FilePath: record.Path,
				Metadata: metadata,
			})
		}
	}
	return records, nil
}

// mergeMetadata combines metadata layers; keys in later layers win.
func mergeMetadata(layers ...map[string]any) map[string]any {
	merged := make(map[string]any)
	for _, layer := range layers {
		maps.Copy(merged, layer)
	}
	return merged
}

// appendBatch appends records to batch, numbering them by their batch position.
func appendBatch(batch []index.Record, records []index.Record) []index.Record {
	for _, rec := range records {
		rec.ChunkIndex = len(batch)
		batch = append(batch, rec)
	}
	return batch
}

type noFilter struct{}

func (noFilter) ShouldIgnore(string) bool    { return false }
func (noFilter) ShouldIgnoreDir(string) bool { return false }
func (noFilter) IsFileTooLarge(int64) bool   { return false }
