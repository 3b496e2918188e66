package tools

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/lexandro/docindex-mcp/ingest"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// IngestArgs defines the input parameters for the docindex_ingest tool.
type IngestArgs struct {
	Path      string `json:"path,omitempty" jsonschema:"Directory to ingest, relative to the root (default: the root itself)"`
	Recursive *bool  `json:"recursive,omitempty" jsonschema:"Descend into subdirectories (default true)"`
	Force     bool   `json:"force,omitempty" jsonschema:"Re-ingest every document even when unchanged"`
}

// IngestFunc runs a directory ingestion. It is provided by main.go to avoid
// circular dependencies.
type IngestFunc func(ctx context.Context, dir string, recursive, force bool) (ingest.Stats, error)

// IngestHandler holds the dependencies for the ingest tool.
type IngestHandler struct {
	DoIngest IngestFunc
	RootDir  string
	Logger   *slog.Logger
}

// Handle processes a docindex_ingest request.
func (h *IngestHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args IngestArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	dir := h.RootDir
	if args.Path != "" {
		dir = args.Path
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(h.RootDir, filepath.FromSlash(dir))
		}
	}
	recursive := true
	if args.Recursive != nil {
		recursive = *args.Recursive
	}

	h.Logger.Info("docindex_ingest started", "dir", dir, "recursive", recursive, "force", args.Force)

	stats, err := h.DoIngest(ctx, dir, recursive, args.Force)
	if err != nil {
		h.Logger.Error("docindex_ingest failed", "dir", dir, "error", err)
		return errorResult(fmt.Sprintf("Ingest error: %v\n%s", err, stats)), nil, nil
	}

	elapsed := time.Since(start).Round(time.Millisecond)
	h.Logger.Info("docindex_ingest complete",
		"files", stats.TotalFiles,
		"new", stats.NewFiles,
		"updated", stats.UpdatedFiles,
		"skipped", stats.SkippedFiles,
		"chunks", stats.TotalChunks,
		"elapsed", elapsed,
	)

	return textResult(fmt.Sprintf("%s\nElapsed: %s", stats, elapsed)), nil, nil
}
