package tools

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lexandro/docindex-mcp/chunk"
	"github.com/lexandro/docindex-mcp/index"
)

func Test_FormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{"Seconds_zero", 0, "0s"},
		{"Seconds_59", 59 * time.Second, "59s"},
		{"Minutes_5m30s", 5*time.Minute + 30*time.Second, "5m30s"},
		{"Hours_1h30m", 90 * time.Minute, "1h30m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatDuration(tt.duration); got != tt.expected {
				t.Errorf("formatDuration(%v) = %q, want %q", tt.duration, got, tt.expected)
			}
		})
	}
}

func Test_StatusHandler_Report(t *testing.T) {
	ci := newTestChunks(t)
	addChunks(t, ci,
		chunkRecord("guide.md", 0, "alpha", "A"),
		chunkRecord("guide.md", 1, "beta", "B"),
		chunkRecord("notes.md", 2, "gamma", "C"),
	)
	h := &StatusHandler{
		State:     newTestState(t, "guide.md", "notes.md", "paper.pdf"),
		Chunks:    ci,
		StartTime: time.Now(),
		RootDir:   testRoot,
		Logger:    discardLogger(),
	}

	result, _, err := h.Handle(context.Background(), nil, StatusArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := resultText(t, result)
	for _, want := range []string{
		"Root directory: " + testRoot,
		"Tracked documents: 3",
		"Indexed chunks: 3",
		"Total document size: 6.0 KB",
		"Index path: (in memory)",
		"markdown   2 files",
		"pdf        1 files",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in status, got:\n%s", want, text)
		}
	}
	if strings.Index(text, "markdown") > strings.Index(text, "pdf ") {
		t.Errorf("formats should be sorted by count, got:\n%s", text)
	}
}

func Test_StatusHandler_ReportsMirrorAndChunking(t *testing.T) {
	ctx := context.Background()
	mirrorPath := filepath.Join(t.TempDir(), "chunks.db")
	mirror, err := index.OpenSQLiteStore(mirrorPath)
	if err != nil {
		t.Fatalf("failed to open sqlite store: %v", err)
	}
	t.Cleanup(func() { mirror.Close() })
	if _, err := mirror.AddChunks(ctx, []index.Record{
		chunkRecord("guide.md", 0, "alpha", "A"),
		chunkRecord("guide.md", 1, "beta", "B"),
	}); err != nil {
		t.Fatalf("failed to add chunks: %v", err)
	}

	chunker, err := chunk.New(chunk.Options{ChunkSize: 800, Overlap: 100, MinChunkSize: 50})
	if err != nil {
		t.Fatalf("failed to create chunker: %v", err)
	}

	h := &StatusHandler{
		State:     newTestState(t, "guide.md"),
		Chunks:    newTestChunks(t),
		Mirror:    mirror,
		Chunker:   chunker,
		StartTime: time.Now(),
		RootDir:   testRoot,
		Logger:    discardLogger(),
	}

	result, _, err := h.Handle(ctx, nil, StatusArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := resultText(t, result)
	for _, want := range []string{
		"SQLite mirror: " + mirrorPath + " (2 chunks)",
		"Chunking: size 800, overlap 100, minimum 50",
		"Supported extensions: .docx .markdown .md .pdf .txt",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in status, got:\n%s", want, text)
		}
	}
}
