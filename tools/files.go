package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/lexandro/docindex-mcp/change"
	"github.com/lexandro/docindex-mcp/index"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const defaultFileResults = 50

// FilesArgs defines the input parameters for the docindex_files tool.
type FilesArgs struct {
	Pattern    string `json:"pattern" jsonschema:"Glob pattern to match tracked documents (e.g. **/*.pdf or notes/**/*.md)"`
	NameOnly   bool   `json:"nameOnly,omitempty" jsonschema:"If true return only file paths without metadata"`
	MaxResults int    `json:"maxResults,omitempty" jsonschema:"Maximum number of results to return (default 50)"`
}

// FilesHandler holds the dependencies for the files tool.
type FilesHandler struct {
	State   *change.Index
	RootDir string
	Logger  *slog.Logger
}

// Handle processes a docindex_files request.
func (h *FilesHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args FilesArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if args.Pattern == "" {
		h.Logger.Warn("docindex_files called with empty pattern")
		return errorResult("Error: pattern parameter is required"), nil, nil
	}
	if !doublestar.ValidatePattern(args.Pattern) {
		h.Logger.Warn("docindex_files called with invalid pattern", "pattern", args.Pattern)
		return errorResult(fmt.Sprintf("Error: invalid glob pattern %q", args.Pattern)), nil, nil
	}

	maxResults := args.MaxResults
	if maxResults <= 0 {
		maxResults = defaultFileResults
	}

	var matched []change.FileRecord
	for _, rec := range h.State.Records() {
		if !index.MatchGlob(args.Pattern, h.RootDir, rec.Path) {
			continue
		}
		matched = append(matched, rec)
		if len(matched) >= maxResults {
			break
		}
	}

	h.Logger.Info("docindex_files",
		"pattern", args.Pattern,
		"results", len(matched),
		"elapsed", time.Since(start),
	)

	return textResult(FormatFileResults(matched, h.RootDir, args.NameOnly)), nil, nil
}
