// Package extract turns supported document files into raw text segments.
package extract

import (
	"errors"
	"fmt"

	"github.com/lexandro/docindex-mcp/format"
)

// ErrUnsupportedFormat is returned by For when no extractor handles the format.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// ErrNotText is returned by TextExtractor when the content is binary or cannot be
// decoded as text.
var ErrNotText = errors.New("content is not text")

// Segment is a unit of raw text produced by an extractor, together with
// segment-level metadata such as the page number.
type Segment struct {
	Text     string
	Metadata map[string]any
}

// Extractor reads a file and returns its text segments.
// Zero segments means the file has no usable text.
type Extractor interface {
	Extract(path string) ([]Segment, error)
}

// For returns the extractor that handles the given format.
// Markdown shares the plain text extractor.
func For(f format.Format) (Extractor, error) {
	switch f {
	case format.Text, format.Markdown:
		return TextExtractor{}, nil
	case format.PDF:
		return PDFExtractor{}, nil
	case format.DOCX:
		return DOCXExtractor{}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
}

// File detects the format of path and extracts it.
func File(path string) ([]Segment, error) {
	extractor, err := For(format.Detect(path))
	if err != nil {
		return nil, err
	}
	return extractor.Extract(path)
}
