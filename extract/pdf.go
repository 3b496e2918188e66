package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor produces one segment per page that carries text.
type PDFExtractor struct{}

// Extract reads every page's plain text. Pages without text are dropped,
// the remaining segments carry their 1-based page number.
func (PDFExtractor) Extract(path string) (segments []Segment, err error) {
	// the parser panics on some malformed documents
	defer func() {
		if r := recover(); r != nil {
			segments = nil
			err = fmt.Errorf("parsing pdf %s: %v", path, r)
		}
	}()

	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer file.Close()

	texts := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			texts = append(texts, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("reading page %d of %s: %w", i, path, err)
		}
		texts = append(texts, text)
	}
	return pageSegments(texts), nil
}

// pageSegments converts page texts (in page order) into segments, skipping blank pages.
func pageSegments(texts []string) []Segment {
	var segments []Segment
	for i, text := range texts {
		text = normalizeNewlines(text)
		if strings.TrimSpace(text) == "" {
			continue
		}
		segments = append(segments, Segment{
			Text:     text,
			Metadata: map[string]any{"page": i + 1},
		})
	}
	return segments
}
