package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/lexandro/docindex-mcp/change"
	"github.com/lexandro/docindex-mcp/chunk"
	"github.com/lexandro/docindex-mcp/format"
	"github.com/lexandro/docindex-mcp/index"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// StatusArgs defines the input parameters for the docindex_status tool (none required).
type StatusArgs struct{}

// StatusHandler holds the dependencies for the status tool.
type StatusHandler struct {
	State     *change.Index
	Chunks    *index.ChunkIndex
	Mirror    *index.SQLiteStore // optional
	Chunker   *chunk.Chunker     // optional
	StartTime time.Time
	RootDir   string
	Logger    *slog.Logger
}

// Handle processes a docindex_status request.
func (h *StatusHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args StatusArgs) (*mcp.CallToolResult, any, error) {
	var builder strings.Builder

	records := h.State.Records()
	var totalSize int64
	formatCounts := make(map[string]int)
	for _, rec := range records {
		totalSize += rec.Size
		formatCounts[format.Detect(rec.Path).String()]++
	}
	chunkCount := h.Chunks.DocumentCount()
	uptime := time.Since(h.StartTime)

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	h.Logger.Info("docindex_status",
		"files", len(records),
		"chunks", chunkCount,
		"totalSize", totalSize,
		"memory", memStats.Alloc,
		"uptime", uptime,
	)

	builder.WriteString("=== docindex-mcp Status ===\n\n")
	builder.WriteString(fmt.Sprintf("Root directory: %s\n", h.RootDir))
	builder.WriteString(fmt.Sprintf("Uptime: %s\n", formatDuration(uptime)))
	builder.WriteString(fmt.Sprintf("Tracked documents: %d\n", len(records)))
	builder.WriteString(fmt.Sprintf("Indexed chunks: %d\n", chunkCount))
	builder.WriteString(fmt.Sprintf("Total document size: %s\n", formatFileSize(totalSize)))
	if path := h.Chunks.Path(); path != "" {
		builder.WriteString(fmt.Sprintf("Index path: %s\n", path))
	} else {
		builder.WriteString("Index path: (in memory)\n")
	}
	if h.Mirror != nil {
		if mirrored, err := h.Mirror.Count(ctx); err != nil {
			h.Logger.Warn("docindex_status sqlite count failed", "error", err)
			builder.WriteString(fmt.Sprintf("SQLite mirror: %s (count unavailable)\n", h.Mirror.Path()))
		} else {
			builder.WriteString(fmt.Sprintf("SQLite mirror: %s (%d chunks)\n", h.Mirror.Path(), mirrored))
		}
	}
	if h.Chunker != nil {
		opts := h.Chunker.Options()
		builder.WriteString(fmt.Sprintf("Chunking: size %d, overlap %d, minimum %d\n",
			opts.ChunkSize, opts.Overlap, opts.MinChunkSize))
	}
	builder.WriteString(fmt.Sprintf("Supported extensions: %s\n", strings.Join(format.Extensions(), " ")))
	builder.WriteString(fmt.Sprintf("Memory usage: %s (heap: %s)\n",
		formatFileSize(int64(memStats.Alloc)),
		formatFileSize(int64(memStats.HeapAlloc)),
	))

	if len(formatCounts) > 0 {
		builder.WriteString("\nFormats:\n")

		type formatEntry struct {
			name  string
			count int
		}
		entries := make([]formatEntry, 0, len(formatCounts))
		for name, count := range formatCounts {
			entries = append(entries, formatEntry{name, count})
		}
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].count != entries[j].count {
				return entries[i].count > entries[j].count
			}
			return entries[i].name < entries[j].name
		})

		for _, entry := range entries {
			builder.WriteString(fmt.Sprintf("  %-10s %d files\n", entry.name, entry.count))
		}
	}

	return textResult(builder.String()), nil, nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	if totalSeconds < 60 {
		return fmt.Sprintf("%ds", totalSeconds)
	}
	totalMinutes := totalSeconds / 60
	remainderSeconds := totalSeconds % 60
	if totalMinutes < 60 {
		return fmt.Sprintf("%dm%ds", totalMinutes, remainderSeconds)
	}
	hours := totalMinutes / 60
	remainderMinutes := totalMinutes % 60
	return fmt.Sprintf("%dh%dm", hours, remainderMinutes)
}
