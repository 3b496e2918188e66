package tools

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/lexandro/docindex-mcp/change"
	"github.com/lexandro/docindex-mcp/index"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const testRoot = "/docs/project"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestChunks(t *testing.T) *index.ChunkIndex {
	t.Helper()
	ci, err := index.NewChunkIndex()
	if err != nil {
		t.Fatalf("failed to create chunk index: %v", err)
	}
	t.Cleanup(func() { ci.Close() })
	return ci
}

func newTestState(t *testing.T, relPaths ...string) *change.Index {
	t.Helper()
	state := change.NewIndex()
	t.Cleanup(state.Close)
	for i, rel := range relPaths {
		state.Commit(change.FileRecord{
			Path:        filepath.Join(testRoot, filepath.FromSlash(rel)),
			Size:        int64(1024 * (i + 1)),
			ModTime:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			ContentHash: "hash",
		})
	}
	return state
}

// chunkRecord builds a markdown chunk record for a file under testRoot.
func chunkRecord(rel string, position int, content, heading string) index.Record {
	path := filepath.Join(testRoot, filepath.FromSlash(rel))
	return index.Record{
		Content:    content,
		FilePath:   path,
		ChunkIndex: position,
		Metadata: map[string]any{
			"file_path":        path,
			"file_name":        filepath.Base(path),
			"format":           "markdown",
			"heading":          heading,
			"start_line":       position*10 + 1,
			"end_line":         position*10 + 9,
			"file_chunk_index": position,
		},
	}
}

func addChunks(t *testing.T, ci *index.ChunkIndex, records ...index.Record) {
	t.Helper()
	if _, err := ci.AddChunks(context.Background(), records); err != nil {
		t.Fatalf("failed to add chunks: %v", err)
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	return result.Content[0].(*mcp.TextContent).Text
}
