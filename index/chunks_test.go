package index

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestChunkIndex(t *testing.T) *ChunkIndex {
	t.Helper()
	ci, err := NewChunkIndex()
	if err != nil {
		t.Fatalf("failed to create chunk index: %v", err)
	}
	t.Cleanup(func() { ci.Close() })
	return ci
}

func addRecords(t *testing.T, ci *ChunkIndex, records ...Record) {
	t.Helper()
	n, err := ci.AddChunks(context.Background(), records)
	if err != nil {
		t.Fatalf("failed to add chunks: %v", err)
	}
	if n != len(records) {
		t.Fatalf("expected %d chunks added, got %d", len(records), n)
	}
}

func markdownRecord(path string, position int, content string, heading string) Record {
	return Record{
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

func Test_Record_ID(t *testing.T) {
	rec := Record{Content: "hello", FilePath: "/docs/a.md", ChunkIndex: 3}
	if got, want := rec.ID(), "/docs/a.md#3_2cf24dba"; got != want {
		t.Errorf("expected id %s, got %s", want, got)
	}
}

func Test_ChunkIndex_AddAndSearch(t *testing.T) {
	ci := newTestChunkIndex(t)
	addRecords(t, ci,
		markdownRecord("/docs/a.md", 0, "The quick brown fox jumps over the fence", "# Animals"),
		Record{Content: "A lazy dog sleeps all day", FilePath: "/docs/b.txt", ChunkIndex: 1,
			Metadata: map[string]any{"format": "text", "file_chunk_index": 0}},
	)

	hits, total, err := ci.Search(SearchOptions{Query: "fox", MaxResults: 10})
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if total != 1 || len(hits) != 1 {
		t.Fatalf("expected one hit, got %d (total %d)", len(hits), total)
	}

	hit := hits[0]
	if hit.FilePath != "/docs/a.md" {
		t.Errorf("expected /docs/a.md, got %s", hit.FilePath)
	}
	if hit.Heading != "# Animals" {
		t.Errorf("expected heading '# Animals', got %q", hit.Heading)
	}
	if hit.StartLine != 1 || hit.EndLine != 9 {
		t.Errorf("expected lines 1-9, got %d-%d", hit.StartLine, hit.EndLine)
	}
	if hit.FileName != "a.md" || hit.Format != "markdown" {
		t.Errorf("unexpected file name/format %q/%q", hit.FileName, hit.Format)
	}
	if hit.Content != "The quick brown fox jumps over the fence" {
		t.Errorf("unexpected content %q", hit.Content)
	}
	if hit.Score <= 0 {
		t.Errorf("expected positive score, got %f", hit.Score)
	}
}

func Test_ChunkIndex_PhraseAndRegexSearch(t *testing.T) {
	ci := newTestChunkIndex(t)
	addRecords(t, ci,
		Record{Content: "quarterly revenue grew strongly", FilePath: "/r/q1.txt", ChunkIndex: 0},
		Record{Content: "revenue was flat, growth elsewhere", FilePath: "/r/q2.txt", ChunkIndex: 1},
	)

	hits, _, err := ci.Search(SearchOptions{Query: `"revenue grew"`})
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(hits) != 1 || hits[0].FilePath != "/r/q1.txt" {
		t.Fatalf("expected phrase match in q1.txt, got %+v", hits)
	}

	hits, _, err = ci.Search(SearchOptions{Query: "/quart.*/"})
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(hits) != 1 || hits[0].FilePath != "/r/q1.txt" {
		t.Fatalf("expected regex match in q1.txt, got %+v", hits)
	}
}

func Test_ChunkIndex_AddReplacesPreviousChunksOfFile(t *testing.T) {
	ci := newTestChunkIndex(t)
	addRecords(t, ci,
		markdownRecord("/docs/a.md", 0, "first version alpha", "# A"),
		markdownRecord("/docs/a.md", 1, "first version beta", "# A"),
		markdownRecord("/docs/other.md", 2, "untouched gamma", "# O"),
	)
	if got := ci.DocumentCount(); got != 3 {
		t.Fatalf("expected 3 chunks, got %d", got)
	}

	addRecords(t, ci, markdownRecord("/docs/a.md", 0, "second version delta", "# A"))

	if got := ci.DocumentCount(); got != 2 {
		t.Fatalf("expected 2 chunks after replace, got %d", got)
	}
	hits, _, _ := ci.Search(SearchOptions{Query: "alpha"})
	if len(hits) != 0 {
		t.Errorf("expected old chunk to be gone, got %d hits", len(hits))
	}
	hits, _, _ = ci.Search(SearchOptions{Query: "gamma"})
	if len(hits) != 1 {
		t.Errorf("expected other file untouched, got %d hits", len(hits))
	}
}

func Test_ChunkIndex_RemoveFile(t *testing.T) {
	ci := newTestChunkIndex(t)
	addRecords(t, ci,
		markdownRecord("/docs/a.md", 0, "remove me please", "# A"),
		markdownRecord("/docs/b.md", 1, "keep me around", "# B"),
	)

	if err := ci.RemoveFile(context.Background(), "/docs/a.md"); err != nil {
		t.Fatalf("remove error: %v", err)
	}
	if got := ci.DocumentCount(); got != 1 {
		t.Errorf("expected 1 chunk left, got %d", got)
	}
	if err := ci.RemoveFile(context.Background(), "/docs/missing.md"); err != nil {
		t.Errorf("removing unknown file should not fail: %v", err)
	}
}

func Test_ChunkIndex_SearchFilters(t *testing.T) {
	ci := newTestChunkIndex(t)
	addRecords(t, ci,
		markdownRecord("/root/guides/setup.md", 0, "install the budget tool", "# Setup"),
		Record{Content: "budget report for march", FilePath: "/root/reports/march.txt", ChunkIndex: 1},
		Record{Content: "budget notes", FilePath: "/root/notes.txt", ChunkIndex: 2},
	)

	hits, _, err := ci.Search(SearchOptions{Query: "budget", FilePath: "/root/notes.txt"})
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(hits) != 1 || hits[0].FilePath != "/root/notes.txt" {
		t.Fatalf("expected only notes.txt, got %+v", hits)
	}

	hits, total, err := ci.Search(SearchOptions{Query: "budget", FileGlob: "reports/**", Root: "/root"})
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if total != 1 || len(hits) != 1 || hits[0].FilePath != "/root/reports/march.txt" {
		t.Fatalf("expected only reports/march.txt, got %+v", hits)
	}

	hits, _, _ = ci.Search(SearchOptions{Query: "budget", FileGlob: "*.txt", Root: "/root"})
	if len(hits) != 2 {
		t.Errorf("expected 2 txt hits, got %d", len(hits))
	}

	hits, _, _ = ci.Search(SearchOptions{Query: "budget", MaxResults: 1})
	if len(hits) != 1 {
		t.Errorf("expected MaxResults to cap hits, got %d", len(hits))
	}
}

func Test_ChunkIndex_FileChunksInOrder(t *testing.T) {
	ci := newTestChunkIndex(t)
	addRecords(t, ci,
		markdownRecord("/docs/a.md", 2, "third part", "# C"),
		markdownRecord("/docs/a.md", 0, "first part", "# A"),
		markdownRecord("/docs/a.md", 1, "second part", "# B"),
	)

	chunks, err := ci.FileChunks("/docs/a.md")
	if err != nil {
		t.Fatalf("file chunks error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, want := range []string{"first part", "second part", "third part"} {
		if chunks[i].Content != want {
			t.Errorf("chunk %d: expected %q, got %q", i, want, chunks[i].Content)
		}
	}

	none, err := ci.FileChunks("/docs/none.md")
	if err != nil || len(none) != 0 {
		t.Errorf("expected no chunks for unknown file, got %d (err %v)", len(none), err)
	}
}

func Test_ChunkIndex_CancelledContext(t *testing.T) {
	ci := newTestChunkIndex(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := ci.AddChunks(ctx, []Record{{Content: "x", FilePath: "/a.txt"}}); err == nil {
		t.Error("expected error for cancelled context")
	}
	if got := ci.DocumentCount(); got != 0 {
		t.Errorf("expected empty index, got %d", got)
	}
}

func Test_ChunkIndex_OnDiskReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chunks.bleve")

	ci, err := OpenChunkIndex(path)
	if err != nil {
		t.Fatalf("open error: %v", err)
	}
	addRecords(t, ci, markdownRecord("/docs/a.md", 0, "persisted content", "# P"))
	if ci.Path() != path {
		t.Errorf("expected path %s, got %s", path, ci.Path())
	}
	if err := ci.Close(); err != nil {
		t.Fatalf("close error: %v", err)
	}

	reopened, err := OpenChunkIndex(path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer reopened.Close()
	if got := reopened.DocumentCount(); got != 1 {
		t.Errorf("expected 1 persisted chunk, got %d", got)
	}
}

func Test_MatchGlob(t *testing.T) {
	tests := []struct {
		pattern string
		root    string
		path    string
		want    bool
	}{
		{"**/*.md", "/root", "/root/a/b/c.md", true},
		{"**/*.md", "/root", "/root/c.md", true},
		{"*.md", "/root", "/root/a/b/c.md", true},
		{"a/*.md", "/root", "/root/a/c.md", true},
		{"a/*.md", "/root", "/root/b/c.md", false},
		{"docs\\*.txt", "/root", "/root/docs/x.txt", true},
		{"*.pdf", "/root", "/root/a/c.md", false},
		{"**/*.md", "", "a/b.md", true},
	}
	for _, tt := range tests {
		if got := MatchGlob(tt.pattern, tt.root, tt.path); got != tt.want {
			t.Errorf("MatchGlob(%q, %q, %q) = %v, want %v", tt.pattern, tt.root, tt.path, got, tt.want)
		}
	}
}
