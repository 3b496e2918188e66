package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/lexandro/docindex-mcp/change"
	"github.com/lexandro/docindex-mcp/chunk"
	"github.com/lexandro/docindex-mcp/config"
	"github.com/lexandro/docindex-mcp/ignore"
	"github.com/lexandro/docindex-mcp/index"
	"github.com/lexandro/docindex-mcp/ingest"
)

// app holds the wired components shared by the server and the ingest command.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	ignore  *ignore.Matcher
	chunker *chunk.Chunker
	state   *change.Index
	chunks  *index.ChunkIndex
	sqlite  *index.SQLiteStore // nil unless a SQLite path is configured
	engine  *ingest.Engine
}

func newApp(cfg config.Config, logger *slog.Logger) (*app, error) {
	chunker, err := chunk.New(cfg.ChunkOptions())
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		chunker: chunker,
		ignore: ignore.NewMatcher(ignore.MatcherOptions{
			RootDir:          cfg.Root,
			CustomPatterns:   cfg.Exclude,
			MaxFileSizeBytes: cfg.MaxFileSize,
		}),
		state: change.NewIndex(),
	}

	if cfg.Store.IndexPath != "" {
		a.chunks, err = index.OpenChunkIndex(cfg.Store.IndexPath)
	} else {
		a.chunks, err = index.NewChunkIndex()
	}
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("opening chunk index: %w", err)
	}

	sinks := []index.Sink{a.chunks}
	if cfg.Store.SQLitePath != "" {
		a.sqlite, err = index.OpenSQLiteStore(cfg.Store.SQLitePath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		sinks = append(sinks, a.sqlite)
	}

	a.engine, err = ingest.New(ingest.Config{
		Chunker: chunker,
		State:   a.state,
		Store:   index.NewMulti(sinks...),
		Ignore:  a.ignore,
		Workers: cfg.Workers,
		Logger:  logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Close releases the stores and stops the change index.
func (a *app) Close() error {
	var errs []error
	if a.chunks != nil {
		errs = append(errs, a.chunks.Close())
	}
	if a.sqlite != nil {
		errs = append(errs, a.sqlite.Close())
	}
	a.state.Close()
	return errors.Join(errs...)
}
