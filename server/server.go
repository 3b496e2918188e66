package server

import (
	"github.com/lexandro/docindex-mcp/tools"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is reported to MCP clients during initialization.
const Version = "0.1.0"

// Handlers groups the tool handlers exposed by the server.
type Handlers struct {
	Ingest *tools.IngestHandler
	Search *tools.SearchHandler
	Files  *tools.FilesHandler
	Read   *tools.ReadHandler
	Status *tools.StatusHandler
}

// Setup creates and configures the MCP server with all tool registrations.
func Setup(handlers Handlers) *mcp.Server {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "docindex-mcp",
			Version: Version,
		},
		&mcp.ServerOptions{
			Instructions: `This server ingests a directory of documents (plain text, Markdown, PDF, DOCX), splits them into overlapping chunks and keeps a full-text index of those chunks.

Use these tools to answer questions from the documents:
- Use docindex_search to find passages; results carry the heading, line range or page they came from
- Use docindex_read to read a whole document as its ordered chunks
- Use docindex_files to list tracked documents by glob pattern
- Use docindex_ingest after adding documents outside the watched root, or with force to rebuild
- The index updates automatically when documents change (via filesystem watcher)`,
		},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "docindex_search",
		Description: `Search document chunks using full-text indexed search.

Query formats:
  - Plain text: word-level matching (e.g., "retention policy")
  - "quoted text": exact phrase matching (e.g., "\"data retention\"")
  - /regex/: regular expression matching on single terms (e.g., "/deploy.*/")

Filtering:
  - filePath: relative path to search in a single document (e.g., "docs/guide.md"). Overrides fileGlob.
  - fileGlob: glob pattern to filter documents (e.g., "**/*.pdf").`,
	}, handlers.Search.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "docindex_files",
		Description: `Find tracked documents by glob pattern.

Pattern examples:
  - "**/*.pdf" - all PDF documents
  - "notes/**/*.md" - Markdown notes under notes/
  - "*.docx" - Word documents matched by file name`,
	}, handlers.Files.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "docindex_read",
		Description: `Read an indexed document as its ordered chunks, each labelled with its heading, line range or page.`,
	}, handlers.Read.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "docindex_ingest",
		Description: "Ingest a directory: new and modified documents are extracted, chunked and indexed; unchanged ones are skipped unless force is set.",
	}, handlers.Ingest.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "docindex_status",
		Description: "Show index status: tracked documents, chunk count, formats, memory usage, and uptime.",
	}, handlers.Status.Handle)

	return mcpServer
}
