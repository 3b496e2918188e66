package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lexandro/docindex-mcp/config"
)

// excludePatterns is a repeatable CLI flag for custom ignore patterns.
type excludePatterns []string

func (e *excludePatterns) String() string { return strings.Join(*e, ", ") }
func (e *excludePatterns) Set(value string) error {
	*e = append(*e, value)
	return nil
}

// cliFlags binds command-line flags to a scratch Config. Only flags the user actually
// set are copied over the file and environment layers.
type cliFlags struct {
	fs         *flag.FlagSet
	configFile string
	envFile    string
	values     config.Config
	exclude    excludePatterns
}

func newCLIFlags(name string, output io.Writer) *cliFlags {
	defaults := config.Default()
	c := &cliFlags{
		fs:     flag.NewFlagSet(name, flag.ContinueOnError),
		values: defaults,
	}
	c.fs.SetOutput(output)

	fs := c.fs
	fs.StringVar(&c.configFile, "config", "", "TOML configuration file")
	fs.StringVar(&c.envFile, "env-file", ".env", "Environment file loaded before DOCINDEX_* variables")
	fs.StringVar(&c.values.Root, "root", "", "Document root directory (default: current working directory)")
	fs.BoolVar(&c.values.Recursive, "recursive", defaults.Recursive, "Descend into subdirectories")
	fs.BoolVar(&c.values.ForceReindex, "force", defaults.ForceReindex, "Re-ingest every document on startup even when unchanged")
	fs.BoolVar(&c.values.Watch, "watch", defaults.Watch, "Watch the root for document changes")
	fs.IntVar(&c.values.SyncIntervalSeconds, "sync-interval", defaults.SyncIntervalSeconds, "Seconds between periodic rescans (0 disables)")
	fs.IntVar(&c.values.Workers, "workers", defaults.Workers, "Parallel document extractions")
	fs.Var(&c.exclude, "exclude", "Extra ignore pattern (repeatable)")
	fs.Int64Var(&c.values.MaxFileSize, "max-file-size", defaults.MaxFileSize, "Maximum document size in bytes")
	fs.IntVar(&c.values.MaxResults, "max-results", defaults.MaxResults, "Default max search results")
	fs.StringVar(&c.values.LogLevel, "log-level", defaults.LogLevel, "Log level: debug|info|warn|error")
	fs.StringVar(&c.values.LogFile, "log-file", "", "Log file path")
	fs.IntVar(&c.values.Chunking.ChunkSize, "chunk-size", defaults.Chunking.ChunkSize, "Target chunk size in characters")
	fs.IntVar(&c.values.Chunking.Overlap, "chunk-overlap", defaults.Chunking.Overlap, "Characters shared between consecutive chunks")
	fs.IntVar(&c.values.Chunking.MinChunkSize, "min-chunk-size", defaults.Chunking.MinChunkSize, "Minimum chunk size in characters")
	fs.StringVar(&c.values.Store.IndexPath, "index-path", "", "On-disk Bleve index directory (default: in memory)")
	fs.StringVar(&c.values.Store.SQLitePath, "sqlite-path", "", "SQLite database that mirrors every chunk (default: disabled)")
	return c
}

// load parses args and layers defaults, the config file, the environment and the
// explicitly set flags, in that order. The root is resolved to an absolute path.
func (c *cliFlags) load(args []string) (config.Config, error) {
	if err := c.fs.Parse(args); err != nil {
		return config.Config{}, err
	}

	cfg := config.Default()
	if c.configFile != "" {
		if err := cfg.LoadFile(c.configFile); err != nil {
			return config.Config{}, err
		}
	}
	if err := cfg.ApplyEnv(c.envFile); err != nil {
		return config.Config{}, err
	}
	c.fs.Visit(func(f *flag.Flag) {
		c.apply(&cfg, f.Name)
	})

	if cfg.Root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return config.Config{}, fmt.Errorf("getting working directory: %w", err)
		}
		cfg.Root = wd
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return config.Config{}, fmt.Errorf("resolving root %s: %w", cfg.Root, err)
	}
	cfg.Root = root

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func (c *cliFlags) apply(cfg *config.Config, name string) {
	switch name {
	case "root":
		cfg.Root = c.values.Root
	case "recursive":
		cfg.Recursive = c.values.Recursive
	case "force":
		cfg.ForceReindex = c.values.ForceReindex
	case "watch":
		cfg.Watch = c.values.Watch
	case "sync-interval":
		cfg.SyncIntervalSeconds = c.values.SyncIntervalSeconds
	case "workers":
		cfg.Workers = c.values.Workers
	case "exclude":
		cfg.Exclude = append(cfg.Exclude, c.exclude...)
	case "max-file-size":
		cfg.MaxFileSize = c.values.MaxFileSize
	case "max-results":
		cfg.MaxResults = c.values.MaxResults
	case "log-level":
		cfg.LogLevel = c.values.LogLevel
	case "log-file":
		cfg.LogFile = c.values.LogFile
	case "chunk-size":
		cfg.Chunking.ChunkSize = c.values.Chunking.ChunkSize
	case "chunk-overlap":
		cfg.Chunking.Overlap = c.values.Chunking.Overlap
	case "min-chunk-size":
		cfg.Chunking.MinChunkSize = c.values.Chunking.MinChunkSize
	case "index-path":
		cfg.Store.IndexPath = c.values.Store.IndexPath
	case "sqlite-path":
		cfg.Store.SQLitePath = c.values.Store.SQLitePath
	}
}

// isHelp reports whether err is the flag package's response to -h.
func isHelp(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
