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

// ReadArgs defines the input parameters for the docindex_read tool.
type ReadArgs struct {
	FilePath string `json:"filePath" jsonschema:"Relative document path to read from the index (e.g. docs/guide.md)"`
}

// ReadHandler holds the dependencies for the read tool.
type ReadHandler struct {
	Chunks  *index.ChunkIndex
	RootDir string
	Logger  *slog.Logger
}

// Handle processes a docindex_read request.
func (h *ReadHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ReadArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if args.FilePath == "" {
		h.Logger.Warn("docindex_read called with empty filePath")
		return errorResult("Error: filePath parameter is required"), nil, nil
	}

	path := args.FilePath
	if !filepath.IsAbs(path) {
		path = filepath.Join(h.RootDir, filepath.FromSlash(path))
	}

	chunks, err := h.Chunks.FileChunks(path)
	if err != nil {
		h.Logger.Error("docindex_read failed", "filePath", args.FilePath, "error", err)
		return errorResult(fmt.Sprintf("Read error: %v", err)), nil, nil
	}
	if len(chunks) == 0 {
		h.Logger.Info("docindex_read file not found", "filePath", args.FilePath)
		return errorResult(fmt.Sprintf("File not found in index: %s", args.FilePath)), nil, nil
	}

	h.Logger.Info("docindex_read", "filePath", args.FilePath, "chunks", len(chunks), "elapsed", time.Since(start))

	return textResult(FormatFileChunks(relativePath(h.RootDir, path), chunks)), nil, nil
}
