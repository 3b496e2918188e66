// Package index stores ingested chunks: a bleve full-text index for search and
// an optional SQLite sink for persistence.
package index

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/bmatcuk/doublestar/v4"
)

const idPageSize = 1000

// ChunkIndex provides full-text search over chunks using a Bleve index.
// Chunks are grouped by file: adding chunks for a file replaces its previous ones.
type ChunkIndex struct {
	mu    sync.RWMutex
	index bleve.Index
	path  string // empty for an in-memory index
}

// NewChunkIndex creates a new in-memory chunk index.
func NewChunkIndex() (*ChunkIndex, error) {
	bleveIndex, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating bleve index: %w", err)
	}
	return &ChunkIndex{index: bleveIndex}, nil
}

// OpenChunkIndex opens the on-disk index at path, creating it when missing.
func OpenChunkIndex(path string) (*ChunkIndex, error) {
	bleveIndex, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		bleveIndex, err = bleve.New(path, buildIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("opening bleve index %s: %w", path, err)
	}
	return &ChunkIndex{index: bleveIndex, path: path}, nil
}

// chunkDocument is the document structure stored in Bleve.
type chunkDocument struct {
	Content        string `json:"content"`
	FilePath       string `json:"file_path"`
	FileName       string `json:"file_name"`
	Format         string `json:"format"`
	FileMtime      string `json:"file_mtime"`
	Heading        string `json:"heading"`
	ChunkIndex     int    `json:"chunk_index"`
	FileChunkIndex int    `json:"file_chunk_index"`
	Page           int    `json:"page"`
	StartLine      int    `json:"start_line"`
	EndLine        int    `json:"end_line"`
}

func newChunkDocument(rec Record) chunkDocument {
	return chunkDocument{
		Content:        rec.Content,
		FilePath:       rec.FilePath,
		FileName:       metaString(rec.Metadata, "file_name"),
		Format:         metaString(rec.Metadata, "format"),
		FileMtime:      metaString(rec.Metadata, "file_mtime"),
		Heading:        metaString(rec.Metadata, "heading"),
		ChunkIndex:     rec.ChunkIndex,
		FileChunkIndex: metaInt(rec.Metadata, "file_chunk_index"),
		Page:           metaInt(rec.Metadata, "page"),
		StartLine:      metaInt(rec.Metadata, "start_line"),
		EndLine:        metaInt(rec.Metadata, "end_line"),
	}
}

// buildIndexMapping creates the Bleve index mapping for chunk documents.
func buildIndexMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	for _, name := range []string{"content", "heading"} {
		textField := bleve.NewTextFieldMapping()
		textField.Store = true
		textField.IncludeInAll = true
		docMapping.AddFieldMappingsAt(name, textField)
	}

	for _, name := range []string{"file_path", "file_name", "format", "file_mtime"} {
		keywordField := bleve.NewKeywordFieldMapping()
		keywordField.Store = true
		keywordField.IncludeInAll = false
		docMapping.AddFieldMappingsAt(name, keywordField)
	}

	for _, name := range []string{"chunk_index", "file_chunk_index", "page", "start_line", "end_line"} {
		numericField := bleve.NewNumericFieldMapping()
		numericField.Store = true
		numericField.IncludeInAll = false
		docMapping.AddFieldMappingsAt(name, numericField)
	}

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// AddChunks indexes records in one batch. Any chunks previously stored for a
// file that appears in records are removed first.
func (ci *ChunkIndex) AddChunks(ctx context.Context, records []Record) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	ci.mu.Lock()
	defer ci.mu.Unlock()

	batch := ci.index.NewBatch()
	replaced := make(map[string]bool)
	for _, rec := range records {
		if replaced[rec.FilePath] {
			continue
		}
		replaced[rec.FilePath] = true
		ids, err := ci.fileDocIDs(rec.FilePath)
		if err != nil {
			return 0, err
		}
		for _, id := range ids {
			batch.Delete(id)
		}
	}

	for _, rec := range records {
		id := rec.ID()
		if err := batch.Index(id, newChunkDocument(rec)); err != nil {
			return 0, fmt.Errorf("indexing chunk %s: %w", id, err)
		}
	}

	if err := ci.index.Batch(batch); err != nil {
		return 0, fmt.Errorf("writing chunk batch: %w", err)
	}
	return len(records), nil
}

// RemoveFile removes all chunks of a file from the index.
func (ci *ChunkIndex) RemoveFile(ctx context.Context, filePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ci.mu.Lock()
	defer ci.mu.Unlock()

	ids, err := ci.fileDocIDs(filePath)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	batch := ci.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	if err := ci.index.Batch(batch); err != nil {
		return fmt.Errorf("removing file %s from index: %w", filePath, err)
	}
	return nil
}

// fileDocIDs returns the ids of every chunk stored for filePath. Callers hold the lock.
func (ci *ChunkIndex) fileDocIDs(filePath string) ([]string, error) {
	var ids []string
	for from := 0; ; from += idPageSize {
		request := bleve.NewSearchRequestOptions(fileQuery(filePath), idPageSize, from, false)
		request.SortBy([]string{"_id"})
		result, err := ci.index.Search(request)
		if err != nil {
			return nil, fmt.Errorf("listing chunks of %s: %w", filePath, err)
		}
		for _, hit := range result.Hits {
			ids = append(ids, hit.ID)
		}
		if len(result.Hits) < idPageSize {
			return ids, nil
		}
	}
}

func fileQuery(filePath string) query.Query {
	termQuery := bleve.NewTermQuery(filePath)
	termQuery.SetField("file_path")
	return termQuery
}

// ChunkHit is a stored chunk returned from the index.
type ChunkHit struct {
	ID             string
	FilePath       string
	FileName       string
	Format         string
	Heading        string
	Content        string
	ChunkIndex     int
	FileChunkIndex int
	Page           int // 0 when the format has no pages
	StartLine      int // 0 when lines are not tracked
	EndLine        int
	Score          float64
}

// SearchOptions configures a chunk search.
type SearchOptions struct {
	Query      string
	FilePath   string // Exact file path to restrict search to a single file (overrides FileGlob)
	FileGlob   string // doublestar pattern matched against the path relative to Root
	Root       string
	MaxResults int
}

// Search performs a full-text search across all indexed chunks and returns the hits
// together with the total number of matches.
// Query format:
//   - Plain text: match query (word-level matching)
//   - "quoted text": phrase query (exact phrase match)
//   - /regex/: regexp query
func (ci *ChunkIndex) Search(options SearchOptions) ([]ChunkHit, uint64, error) {
	ci.mu.RLock()
	defer ci.mu.RUnlock()

	if options.MaxResults <= 0 {
		options.MaxResults = 20
	}

	bleveQuery := buildQuery(options.Query)
	if options.FilePath != "" {
		bleveQuery = bleve.NewConjunctionQuery(bleveQuery, fileQuery(options.FilePath))
	}

	searchRequest := bleve.NewSearchRequest(bleveQuery)
	searchRequest.Size = options.MaxResults
	if options.FilePath == "" && options.FileGlob != "" {
		// Get more results because the glob filter runs after the search
		searchRequest.Size = options.MaxResults * 5
	}
	searchRequest.Fields = []string{"*"}

	searchResults, err := ci.index.Search(searchRequest)
	if err != nil {
		return nil, 0, fmt.Errorf("searching index: %w", err)
	}

	if options.FilePath != "" || options.FileGlob == "" {
		hits := make([]ChunkHit, 0, len(searchResults.Hits))
		for _, hit := range searchResults.Hits {
			hits = append(hits, newChunkHit(hit.ID, hit.Score, hit.Fields))
		}
		return hits, searchResults.Total, nil
	}

	var hits []ChunkHit
	var matched uint64
	for _, hit := range searchResults.Hits {
		chunkHit := newChunkHit(hit.ID, hit.Score, hit.Fields)
		if !MatchGlob(options.FileGlob, options.Root, chunkHit.FilePath) {
			continue
		}
		matched++
		if len(hits) < options.MaxResults {
			hits = append(hits, chunkHit)
		}
	}
	return hits, matched, nil
}

// FileChunks returns all chunks of a file ordered by their position within the file.
func (ci *ChunkIndex) FileChunks(filePath string) ([]ChunkHit, error) {
	ci.mu.RLock()
	defer ci.mu.RUnlock()

	var hits []ChunkHit
	for from := 0; ; from += idPageSize {
		request := bleve.NewSearchRequestOptions(fileQuery(filePath), idPageSize, from, false)
		request.SortBy([]string{"_id"})
		request.Fields = []string{"*"}
		result, err := ci.index.Search(request)
		if err != nil {
			return nil, fmt.Errorf("reading chunks of %s: %w", filePath, err)
		}
		for _, hit := range result.Hits {
			hits = append(hits, newChunkHit(hit.ID, 0, hit.Fields))
		}
		if len(result.Hits) < idPageSize {
			break
		}
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].FileChunkIndex < hits[j].FileChunkIndex })
	return hits, nil
}

func newChunkHit(id string, score float64, fields map[string]interface{}) ChunkHit {
	return ChunkHit{
		ID:             id,
		FilePath:       fieldString(fields, "file_path"),
		FileName:       fieldString(fields, "file_name"),
		Format:         fieldString(fields, "format"),
		Heading:        fieldString(fields, "heading"),
		Content:        fieldString(fields, "content"),
		ChunkIndex:     fieldInt(fields, "chunk_index"),
		FileChunkIndex: fieldInt(fields, "file_chunk_index"),
		Page:           fieldInt(fields, "page"),
		StartLine:      fieldInt(fields, "start_line"),
		EndLine:        fieldInt(fields, "end_line"),
		Score:          score,
	}
}

func fieldString(fields map[string]interface{}, name string) string {
	s, _ := fields[name].(string)
	return s
}

func fieldInt(fields map[string]interface{}, name string) int {
	f, _ := fields[name].(float64)
	return int(f)
}

// buildQuery parses the query string into a Bleve query.
func buildQuery(queryString string) query.Query {
	queryString = strings.TrimSpace(queryString)

	// Regex query: /pattern/
	if strings.HasPrefix(queryString, "/") && strings.HasSuffix(queryString, "/") && len(queryString) > 2 {
		return bleve.NewRegexpQuery(queryString[1 : len(queryString)-1])
	}

	// Phrase query: "exact phrase"
	if strings.HasPrefix(queryString, "\"") && strings.HasSuffix(queryString, "\"") && len(queryString) > 2 {
		return bleve.NewMatchPhraseQuery(queryString[1 : len(queryString)-1])
	}

	return bleve.NewMatchQuery(queryString)
}

// MatchGlob reports whether filePath matches a doublestar pattern. The pattern is matched
// against the path relative to root (forward slashes); patterns without a slash also
// match the base name.
func MatchGlob(pattern, root, filePath string) bool {
	pattern = strings.ReplaceAll(pattern, "\\", "/")
	target := filePath
	if root != "" {
		if rel, err := filepath.Rel(root, filePath); err == nil && !strings.HasPrefix(rel, "..") {
			target = rel
		}
	}
	target = filepath.ToSlash(target)

	if matched, _ := doublestar.Match(pattern, target); matched {
		return true
	}
	if !strings.Contains(pattern, "/") {
		matched, _ := doublestar.Match(pattern, filepath.Base(filePath))
		return matched
	}
	return false
}

// DocumentCount returns the number of chunks in the Bleve index.
func (ci *ChunkIndex) DocumentCount() uint64 {
	ci.mu.RLock()
	defer ci.mu.RUnlock()
	count, _ := ci.index.DocCount()
	return count
}

// Path returns the on-disk location of the index, or "" for an in-memory index.
func (ci *ChunkIndex) Path() string {
	return ci.path
}

// Close closes the Bleve index.
func (ci *ChunkIndex) Close() error {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	return ci.index.Close()
}
