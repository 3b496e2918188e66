package extract

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/lexandro/docindex-mcp/format"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// TextExtractor reads plain text and markdown files as a single segment.
type TextExtractor struct{}

// Extract reads the whole file. Content that is not valid UTF-8 is decoded as ISO-8859-1;
// binary content behind a text extension returns ErrNotText.
func (TextExtractor) Extract(path string) ([]Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	text, ok := decodeText(data)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotText, path)
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return []Segment{{Text: text, Metadata: map[string]any{}}}, nil
}

// decodeText converts raw bytes into normalised UTF-8 text with LF line endings.
// The second result is false when the bytes are binary or cannot be decoded at all.
func decodeText(data []byte) (string, bool) {
	if format.IsBinaryContent(data) {
		return "", false
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return "", false
		}
		data = decoded
	}
	return normalizeNewlines(string(data)), true
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
