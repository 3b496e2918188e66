package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/lexandro/docindex-mcp/format"
	"github.com/lexandro/docindex-mcp/ignore"
	"github.com/lexandro/docindex-mcp/ingest"
	"github.com/lexandro/docindex-mcp/register"
	"github.com/lexandro/docindex-mcp/server"
	"github.com/lexandro/docindex-mcp/tools"
	"github.com/lexandro/docindex-mcp/watcher"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	args := os.Args[1:]
	if len(args) > 0 {
		switch args[0] {
		case "register":
			serverName := register.DeriveServerName(os.Args[0])
			if err := register.Run(serverName, args[1:], os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				if errors.Is(err, register.ErrUsage) {
					register.PrintUsage(os.Stderr)
				}
				os.Exit(1)
			}
			return
		case "ingest":
			os.Exit(runIngest(args[1:], os.Stdout, os.Stderr))
		}
	}
	os.Exit(runServer(args))
}

// runIngest ingests the configured root once and prints the run statistics.
func runIngest(args []string, stdout, stderr io.Writer) int {
	flags := newCLIFlags("ingest", stderr)
	cfg, err := flags.load(args)
	if err != nil {
		if isHelp(err) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	logger := setupLogger(cfg.LogLevel, cfg.LogFile)

	a, err := newApp(cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := a.engine.IngestDirectory(ctx, cfg.Root, cfg.Recursive, cfg.ForceReindex)
	fmt.Fprintln(stdout, stats)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// runServer ingests the root, keeps it current and serves the MCP tools on stdio.
func runServer(args []string) int {
	flags := newCLIFlags("docindex-mcp", os.Stderr)
	cfg, err := flags.load(args)
	if err != nil {
		if isHelp(err) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	// Default log file: docindex-mcp.log in the root directory
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.Root, "docindex-mcp.log")
	}

	// Always to file or stderr, never to stdout - stdout is for MCP stdio
	logger := setupLogger(cfg.LogLevel, cfg.LogFile)

	logger.Info("starting docindex-mcp",
		"root", cfg.Root,
		"recursive", cfg.Recursive,
		"chunkSize", cfg.Chunking.ChunkSize,
		"overlap", cfg.Chunking.Overlap,
		"indexPath", cfg.Store.IndexPath,
		"sqlitePath", cfg.Store.SQLitePath,
	)

	startTime := time.Now()

	a, err := newApp(cfg, logger)
	if err != nil {
		logger.Error("failed to set up stores", "error", err)
		return 1
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := a.engine.IngestDirectory(ctx, cfg.Root, cfg.Recursive, cfg.ForceReindex)
	if err != nil {
		logger.Error("initial ingestion failed", "error", err)
	}
	logger.Info("initial ingestion complete", "stats", stats.String(), "duration", time.Since(startTime))

	if cfg.Watch {
		fileWatcher, err := watcher.NewWatcher(watcher.Options{
			RootDir: cfg.Root,
			Ignore:  a.ignore,
			Accept:  watchable,
			Logger:  logger,
		})
		if err != nil {
			logger.Warn("failed to start file watcher, continuing without live updates", "error", err)
		} else {
			go fileWatcher.Start()
			go handleWatcherEvents(ctx, fileWatcher.Events(), a)
			defer fileWatcher.Close()
		}
	}

	if cfg.SyncIntervalSeconds > 0 {
		stopSync := make(chan struct{})
		go runPeriodicSync(ctx, a, time.Duration(cfg.SyncIntervalSeconds)*time.Second, stopSync)
		defer close(stopSync)
	}

	mcpServer := server.Setup(server.Handlers{
		Ingest: &tools.IngestHandler{
			RootDir: cfg.Root,
			Logger:  logger,
			DoIngest: func(ctx context.Context, dir string, recursive, force bool) (ingest.Stats, error) {
				// Pick up edits to .gitignore or .docindexignore made since the last scan
				a.ignore.Reload()
				return a.engine.IngestDirectory(ctx, dir, recursive, force)
			},
		},
		Search: &tools.SearchHandler{Chunks: a.chunks, RootDir: cfg.Root, MaxResults: cfg.MaxResults, Logger: logger},
		Files:  &tools.FilesHandler{State: a.state, RootDir: cfg.Root, Logger: logger},
		Read:   &tools.ReadHandler{Chunks: a.chunks, RootDir: cfg.Root, Logger: logger},
		Status: &tools.StatusHandler{
			State:     a.state,
			Chunks:    a.chunks,
			Mirror:    a.sqlite,
			Chunker:   a.chunker,
			StartTime: startTime,
			RootDir:   cfg.Root,
			Logger:    logger,
		},
	})

	logger.Info("MCP server starting on stdio")
	if err := mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("MCP server error", "error", err)
		return 1
	}
	return 0
}

// watchable reports whether the watch loop needs events for path.
func watchable(path string) bool {
	return format.IsSupported(path) || ignore.IsIgnoreFile(path)
}

// setupLogger creates an slog.Logger writing to stderr or a file.
func setupLogger(level string, logFile string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var writer *os.File
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot open log file %s: %v, falling back to stderr\n", logFile, err)
			writer = os.Stderr
		} else {
			writer = f
		}
	} else {
		writer = os.Stderr
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{Level: logLevel})
	return slog.New(handler)
}
