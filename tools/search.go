package tools

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/lexandro/docindex-mcp/index"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SearchArgs defines the input parameters for the docindex_search tool.
type SearchArgs struct {
	Query      string `json:"query" jsonschema:"Search query. Plain text for word match, quoted for exact phrase, /regex/ for regular expression"`
	FilePath   string `json:"filePath,omitempty" jsonschema:"Relative document path to search in (overrides fileGlob)"`
	FileGlob   string `json:"fileGlob,omitempty" jsonschema:"Optional glob pattern to filter documents (e.g. docs/**/*.md)"`
	MaxResults int    `json:"maxResults,omitempty" jsonschema:"Maximum number of chunks to return (default 20)"`
}

// SearchHandler holds the dependencies for the search tool.
type SearchHandler struct {
	Chunks     *index.ChunkIndex
	RootDir    string
	MaxResults int
	Logger     *slog.Logger
}

// Handle processes a docindex_search request.
func (h *SearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if args.Query == "" {
		h.Logger.Warn("docindex_search called with empty query")
		return errorResult("Error: query parameter is required"), nil, nil
	}

	maxResults := args.MaxResults
	if maxResults <= 0 {
		maxResults = h.MaxResults
	}

	filePath := args.FilePath
	if filePath != "" && !filepath.IsAbs(filePath) {
		filePath = filepath.Join(h.RootDir, filepath.FromSlash(filePath))
	}

	hits, total, err := h.Chunks.Search(index.SearchOptions{
		Query:      args.Query,
		FilePath:   filePath,
		FileGlob:   args.FileGlob,
		Root:       h.RootDir,
		MaxResults: maxResults,
	})
	if err != nil {
		h.Logger.Error("docindex_search failed", "query", args.Query, "error", err)
		return errorResult(fmt.Sprintf("Search error: %v", err)), nil, nil
	}

	h.Logger.Info("docindex_search",
		"query", args.Query,
		"filePath", args.FilePath,
		"fileGlob", args.FileGlob,
		"chunks", len(hits),
		"total", total,
		"elapsed", time.Since(start),
	)

	return textResult(FormatSearchResults(hits, total, h.RootDir)), nil, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}
