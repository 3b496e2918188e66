// Package chunk splits extracted document text into bounded, overlapping chunks.
package chunk

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/lexandro/docindex-mcp/format"
)

const (
	DefaultChunkSize    = 500
	DefaultOverlap      = 50
	DefaultMinChunkSize = 100

	// IntroductionHeading labels material that precedes the first heading.
	IntroductionHeading = "Introduction"
	// FallbackHeading labels the single chunk emitted for inputs that produced no chunks.
	FallbackHeading = "Content"
)

// ErrInvalidOptions is returned when chunking options are inconsistent.
var ErrInvalidOptions = errors.New("invalid chunking options")

// Options configures the chunker. All sizes are measured in characters (runes).
type Options struct {
	ChunkSize    int // target chunk size
	Overlap      int // characters repeated at the boundary of adjacent chunks
	MinChunkSize int // chunks below this size are merged instead of emitted
}

// DefaultOptions returns the default chunking options (500/50/100).
func DefaultOptions() Options {
	return Options{
		ChunkSize:    DefaultChunkSize,
		Overlap:      DefaultOverlap,
		MinChunkSize: DefaultMinChunkSize,
	}
}

// Validate checks that the options describe a usable chunker.
func (o Options) Validate() error {
	switch {
	case o.ChunkSize <= 0:
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidOptions, o.ChunkSize)
	case o.Overlap < 0:
		return fmt.Errorf("%w: overlap must not be negative, got %d", ErrInvalidOptions, o.Overlap)
	case o.Overlap >= o.ChunkSize:
		return fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", ErrInvalidOptions, o.Overlap, o.ChunkSize)
	case o.MinChunkSize < 0:
		return fmt.Errorf("%w: minimum chunk size must not be negative, got %d", ErrInvalidOptions, o.MinChunkSize)
	case o.MinChunkSize > o.ChunkSize:
		return fmt.Errorf("%w: minimum chunk size %d exceeds chunk size %d", ErrInvalidOptions, o.MinChunkSize, o.ChunkSize)
	}
	return nil
}

// Chunk is one bounded unit of text produced from a segment.
// Heading is empty and StartLine/EndLine are zero when the strategy does not track them.
type Chunk struct {
	Content   string
	Index     int // position within the segment's chunk sequence
	Heading   string
	StartLine int // 1-based, inclusive
	EndLine   int // 1-based, inclusive
}

// Metadata returns the chunk-level metadata layer (heading and line range when present).
func (c Chunk) Metadata() map[string]any {
	metadata := make(map[string]any, 3)
	if c.Heading != "" {
		metadata["heading"] = c.Heading
	}
	if c.StartLine > 0 {
		metadata["start_line"] = c.StartLine
		metadata["end_line"] = c.EndLine
	}
	return metadata
}

// Chunker splits raw text into chunks. It holds no mutable state and is safe for concurrent use.
type Chunker struct {
	opts Options
}

// New creates a chunker after validating the options.
func New(opts Options) (*Chunker, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Chunker{opts: opts}, nil
}

// Options returns the options the chunker was built with.
func (c *Chunker) Options() Options {
	return c.opts
}

// Chunk splits text using the strategy that fits the format: heading-aware for markup,
// paragraph-based for everything else. Chunks after the first receive the overlap prefix.
func (c *Chunker) Chunk(text string, f format.Format) []Chunk {
	var chunks []Chunk
	if f.IsMarkup() {
		chunks = c.splitByHeadings(text)
	} else {
		for _, content := range c.splitParagraphs(text) {
			chunks = append(chunks, Chunk{Content: content})
		}
	}

	c.applyOverlap(chunks)
	for i := range chunks {
		chunks[i].Index = i
	}
	return chunks
}

// applyOverlap prefixes every chunk except the first with the tail of its predecessor.
// The tail is taken from the predecessor's content before its own prefix was added.
func (c *Chunker) applyOverlap(chunks []Chunk) {
	if len(chunks) < 2 || c.opts.Overlap <= 0 {
		return
	}
	previous := chunks[0].Content
	for i := 1; i < len(chunks); i++ {
		current := chunks[i].Content
		if runeLen(previous) >= c.opts.Overlap {
			chunks[i].Content = tail(previous, c.opts.Overlap) + "\n\n" + current
		}
		previous = current
	}
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// tail returns the last n runes of s.
func tail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := len(s)
	for count := 0; i > 0 && count < n; count++ {
		_, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
	}
	return s[i:]
}

// runeOffset returns the byte offset just past the first n runes of s.
func runeOffset(s string, n int) int {
	for i := range s {
		if n == 0 {
			return i
		}
		n--
	}
	return len(s)
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
