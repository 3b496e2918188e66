package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexandro/docindex-mcp/chunk"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func Test_Default_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, chunk.DefaultOptions(), cfg.ChunkOptions())
	assert.True(t, cfg.Recursive)
	assert.True(t, cfg.Watch)
	assert.Equal(t, int64(50*1024*1024), cfg.MaxFileSize)
}

func Test_Config_LoadFileOverlaysPresentKeys(t *testing.T) {
	path := writeConfig(t, "docindex.toml", `
root = "/srv/docs"
recursive = false
exclude = ["drafts/**", "*.scratch.md"]
sync_interval_seconds = 60

[chunking]
chunk_size = 800
overlap = 80

[store]
sqlite_path = "/var/lib/docindex/chunks.db"
`)

	cfg := Default()
	require.NoError(t, cfg.LoadFile(path))

	assert.Equal(t, "/srv/docs", cfg.Root)
	assert.False(t, cfg.Recursive)
	assert.Equal(t, []string{"drafts/**", "*.scratch.md"}, cfg.Exclude)
	assert.Equal(t, 60, cfg.SyncIntervalSeconds)
	assert.Equal(t, 800, cfg.Chunking.ChunkSize)
	assert.Equal(t, 80, cfg.Chunking.Overlap)
	// keys absent from the file keep their defaults
	assert.Equal(t, chunk.DefaultMinChunkSize, cfg.Chunking.MinChunkSize)
	assert.True(t, cfg.Watch)
	assert.Equal(t, "/var/lib/docindex/chunks.db", cfg.Store.SQLitePath)
	assert.Empty(t, cfg.Store.IndexPath)
}

func Test_Config_LoadFileErrors(t *testing.T) {
	cfg := Default()
	assert.ErrorIs(t, cfg.LoadFile(filepath.Join(t.TempDir(), "missing.toml")), os.ErrNotExist)

	bad := writeConfig(t, "bad.toml", "chunking = [not toml")
	assert.ErrorIs(t, cfg.LoadFile(bad), ErrInvalid)
}

func Test_Config_ApplyEnv(t *testing.T) {
	t.Setenv("DOCINDEX_ROOT", "/data/papers")
	t.Setenv("DOCINDEX_WATCH", "false")
	t.Setenv("DOCINDEX_CHUNK_SIZE", "1200")
	t.Setenv("DOCINDEX_EXCLUDE", "a/**, b.md ,")
	t.Setenv("DOCINDEX_MAX_FILE_SIZE", "1048576")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(""))

	assert.Equal(t, "/data/papers", cfg.Root)
	assert.False(t, cfg.Watch)
	assert.Equal(t, 1200, cfg.Chunking.ChunkSize)
	assert.Equal(t, []string{"a/**", "b.md"}, cfg.Exclude)
	assert.Equal(t, int64(1048576), cfg.MaxFileSize)
}

func Test_Config_ApplyEnvReadsDotEnvWithoutOverriding(t *testing.T) {
	envFile := writeConfig(t, ".env", "DOCINDEX_LOG_FILE=/tmp/docindex-test.log\nDOCINDEX_MAX_RESULTS=7\n")
	t.Setenv("DOCINDEX_MAX_RESULTS", "9")
	t.Cleanup(func() { os.Unsetenv("DOCINDEX_LOG_FILE") })

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(envFile))

	assert.Equal(t, "/tmp/docindex-test.log", cfg.LogFile)
	assert.Equal(t, 9, cfg.MaxResults)

	require.NoError(t, cfg.ApplyEnv(filepath.Join(t.TempDir(), "absent.env")))
}

func Test_Config_ApplyEnvTreatsEmptyAsUnset(t *testing.T) {
	t.Setenv("DOCINDEX_LOG_LEVEL", "  ")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(""))
	assert.Equal(t, "info", cfg.LogLevel)
}

func Test_Config_ApplyEnvRejectsMalformedValues(t *testing.T) {
	t.Setenv("DOCINDEX_WORKERS", "many")
	t.Setenv("DOCINDEX_RECURSIVE", "perhaps")

	cfg := Default()
	err := cfg.ApplyEnv("")
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "DOCINDEX_WORKERS")
	assert.Contains(t, err.Error(), "DOCINDEX_RECURSIVE")
}

func Test_Config_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"overlap too large", func(c *Config) { c.Chunking.Overlap = c.Chunking.ChunkSize }},
		{"negative workers", func(c *Config) { c.Workers = -1 }},
		{"zero max file size", func(c *Config) { c.MaxFileSize = 0 }},
		{"zero max results", func(c *Config) { c.MaxResults = 0 }},
		{"negative sync interval", func(c *Config) { c.SyncIntervalSeconds = -5 }},
		{"unknown log level", func(c *Config) { c.LogLevel = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func Test_Config_ValidateWrapsChunkErrors(t *testing.T) {
	cfg := Default()
	cfg.Chunking.MinChunkSize = cfg.Chunking.ChunkSize + 1
	err := cfg.Validate()
	assert.ErrorIs(t, err, ErrInvalid)
	assert.ErrorIs(t, err, chunk.ErrInvalidOptions)
}
