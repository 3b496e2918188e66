// Package config layers docindex-mcp settings: defaults, a TOML file, .env and
// DOCINDEX_* environment variables. Command-line flags are applied last by main.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/lexandro/docindex-mcp/chunk"
	"github.com/lexandro/docindex-mcp/ignore"
)

// ErrInvalid is returned when a configuration value is out of range or malformed.
var ErrInvalid = errors.New("invalid configuration")

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "DOCINDEX_"

// Config holds every setting of the server and the ingest command.
type Config struct {
	Root                string   `toml:"root"`
	Recursive           bool     `toml:"recursive"`
	ForceReindex        bool     `toml:"force_reindex"`
	Watch               bool     `toml:"watch"`
	SyncIntervalSeconds int      `toml:"sync_interval_seconds"` // 0 disables periodic rescans
	Workers             int      `toml:"workers"`
	MaxFileSize         int64    `toml:"max_file_size"`
	MaxResults          int      `toml:"max_results"`
	Exclude             []string `toml:"exclude"`
	LogLevel            string   `toml:"log_level"`
	LogFile             string   `toml:"log_file"`
	Chunking            Chunking `toml:"chunking"`
	Store               Store    `toml:"store"`
}

// Chunking mirrors chunk.Options.
type Chunking struct {
	ChunkSize    int `toml:"chunk_size"`
	Overlap      int `toml:"overlap"`
	MinChunkSize int `toml:"min_chunk_size"`
}

// Store selects where chunks are kept. Empty paths mean in-memory only.
type Store struct {
	IndexPath  string `toml:"index_path"`
	SQLitePath string `toml:"sqlite_path"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Recursive:           true,
		Watch:               true,
		SyncIntervalSeconds: 300,
		Workers:             runtime.NumCPU(),
		MaxFileSize:         ignore.DefaultMaxFileSizeBytes,
		MaxResults:          20,
		LogLevel:            "info",
		Chunking: Chunking{
			ChunkSize:    chunk.DefaultChunkSize,
			Overlap:      chunk.DefaultOverlap,
			MinChunkSize: chunk.DefaultMinChunkSize,
		},
	}
}

// LoadFile overlays the keys present in the TOML file at path onto c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%w: parsing %s: %w", ErrInvalid, path, err)
	}
	return nil
}

// ApplyEnv loads envFile (when it exists) into the process environment without
// overriding variables that are already set, then applies DOCINDEX_* variables.
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return fmt.Errorf("loading %s: %w", envFile, err)
			}
		}
	}

	env := envReader{}
	env.str("ROOT", &c.Root)
	env.boolean("RECURSIVE", &c.Recursive)
	env.boolean("FORCE_REINDEX", &c.ForceReindex)
	env.boolean("WATCH", &c.Watch)
	env.integer("SYNC_INTERVAL", &c.SyncIntervalSeconds)
	env.integer("WORKERS", &c.Workers)
	env.int64("MAX_FILE_SIZE", &c.MaxFileSize)
	env.integer("MAX_RESULTS", &c.MaxResults)
	env.list("EXCLUDE", &c.Exclude)
	env.str("LOG_LEVEL", &c.LogLevel)
	env.str("LOG_FILE", &c.LogFile)
	env.integer("CHUNK_SIZE", &c.Chunking.ChunkSize)
	env.integer("CHUNK_OVERLAP", &c.Chunking.Overlap)
	env.integer("MIN_CHUNK_SIZE", &c.Chunking.MinChunkSize)
	env.str("INDEX_PATH", &c.Store.IndexPath)
	env.str("SQLITE_PATH", &c.Store.SQLitePath)
	return errors.Join(env.errs...)
}

// ChunkOptions returns the chunker options described by the configuration.
func (c Config) ChunkOptions() chunk.Options {
	return chunk.Options{
		ChunkSize:    c.Chunking.ChunkSize,
		Overlap:      c.Chunking.Overlap,
		MinChunkSize: c.Chunking.MinChunkSize,
	}
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	if err := c.ChunkOptions().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	switch {
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalid, c.Workers)
	case c.MaxFileSize <= 0:
		return fmt.Errorf("%w: max file size must be positive, got %d", ErrInvalid, c.MaxFileSize)
	case c.MaxResults <= 0:
		return fmt.Errorf("%w: max results must be positive, got %d", ErrInvalid, c.MaxResults)
	case c.SyncIntervalSeconds < 0:
		return fmt.Errorf("%w: sync interval must not be negative, got %d", ErrInvalid, c.SyncIntervalSeconds)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalid, c.LogLevel)
	}
	return nil
}

// envReader reads DOCINDEX_* variables, collecting parse errors.
type envReader struct {
	errs []error
}

func (r *envReader) lookup(name string) (string, bool) {
	value, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}
	return strings.TrimSpace(value), true
}

func (r *envReader) str(name string, target *string) {
	if value, ok := r.lookup(name); ok {
		*target = value
	}
}

func (r *envReader) boolean(name string, target *bool) {
	value, ok := r.lookup(name)
	if !ok {
		return
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%w: %s%s=%q is not a boolean", ErrInvalid, EnvPrefix, name, value))
		return
	}
	*target = parsed
}

func (r *envReader) integer(name string, target *int) {
	value, ok := r.lookup(name)
	if !ok {
		return
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%w: %s%s=%q is not an integer", ErrInvalid, EnvPrefix, name, value))
		return
	}
	*target = parsed
}

func (r *envReader) int64(name string, target *int64) {
	value, ok := r.lookup(name)
	if !ok {
		return
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%w: %s%s=%q is not an integer", ErrInvalid, EnvPrefix, name, value))
		return
	}
	*target = parsed
}

func (r *envReader) list(name string, target *[]string) {
	value, ok := r.lookup(name)
	if !ok {
		return
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	*target = items
}
