package tools

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lexandro/docindex-mcp/change"
	"github.com/lexandro/docindex-mcp/format"
	"github.com/lexandro/docindex-mcp/index"
)

// snippetRunes caps the chunk text shown per search hit.
const snippetRunes = 400

// FormatSearchResults formats chunk hits as human-readable text, one block per chunk
// with its location inside the source document.
func FormatSearchResults(hits []index.ChunkHit, total uint64, rootDir string) string {
	if len(hits) == 0 {
		return "No matches found."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Found %d matching chunks (showing %d):\n\n", total, len(hits)))

	for i, hit := range hits {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(fmt.Sprintf("── %s ──%s\n", relativePath(rootDir, hit.FilePath), describeLocation(hit)))
		builder.WriteString(fmt.Sprintf("  score %.3f, chunk %d\n", hit.Score, hit.FileChunkIndex))
		for _, line := range strings.Split(snippet(hit.Content, snippetRunes), "\n") {
			builder.WriteString("  ")
			builder.WriteString(line)
			builder.WriteString("\n")
		}
	}

	return builder.String()
}

// FormatFileResults formats tracked files as human-readable text.
func FormatFileResults(records []change.FileRecord, rootDir string, nameOnly bool) string {
	if len(records) == 0 {
		return "No files matched."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Found %d files:\n\n", len(records)))

	for _, rec := range records {
		rel := relativePath(rootDir, rec.Path)
		if nameOnly {
			builder.WriteString(rel)
			builder.WriteString("\n")
			continue
		}
		builder.WriteString(fmt.Sprintf("  %s  (%s, %s, modified %s)\n",
			rel,
			format.Detect(rec.Path),
			formatFileSize(rec.Size),
			rec.ModTime.Format("2006-01-02 15:04"),
		))
	}

	return builder.String()
}

// FormatFileChunks renders a document's chunks in order, each under a header with its
// position, similar to reading the document itself.
func FormatFileChunks(filePath string, chunks []index.ChunkHit) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("── %s (%d chunks) ──\n", filePath, len(chunks)))

	width := len(fmt.Sprintf("%d", len(chunks)))
	for _, c := range chunks {
		builder.WriteString(fmt.Sprintf("\n[%*d]%s\n", width, c.FileChunkIndex, describeLocation(c)))
		builder.WriteString(c.Content)
		builder.WriteString("\n")
	}

	return builder.String()
}

// describeLocation returns the heading, line range and page of a chunk, for the
// parts its format tracks.
func describeLocation(hit index.ChunkHit) string {
	var parts []string
	if hit.Heading != "" {
		parts = append(parts, fmt.Sprintf("%q", hit.Heading))
	}
	if hit.StartLine > 0 {
		parts = append(parts, fmt.Sprintf("lines %d-%d", hit.StartLine, hit.EndLine))
	}
	if hit.Page > 0 {
		parts = append(parts, fmt.Sprintf("page %d", hit.Page))
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + strings.Join(parts, ", ")
}

// snippet truncates text to limit runes, marking the cut.
func snippet(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "…"
}

// relativePath shows path relative to rootDir with forward slashes, or unchanged when it
// lies outside the root.
func relativePath(rootDir, path string) string {
	if rootDir == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(rootDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// formatFileSize converts bytes to a human-readable string.
func formatFileSize(bytes int64) string {
	switch {
	case bytes >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	case bytes >= 1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
