package extract

import (
	"fmt"
	"os"
	"strings"

	"code.sajari.com/docconv"
)

// DOCXExtractor reads Word documents as one segment of blank-line separated paragraphs.
type DOCXExtractor struct{}

func (DOCXExtractor) Extract(path string) ([]Segment, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening docx %s: %w", path, err)
	}
	defer file.Close()

	text, _, err := docconv.ConvertDocx(file)
	if err != nil {
		return nil, fmt.Errorf("converting docx %s: %w", path, err)
	}

	paragraphs := joinParagraphs(text)
	if paragraphs == "" {
		return nil, nil
	}
	return []Segment{{Text: paragraphs, Metadata: map[string]any{}}}, nil
}

// joinParagraphs treats each non-blank line as a paragraph and separates them with blank lines.
func joinParagraphs(text string) string {
	var paragraphs []string
	for _, line := range strings.Split(normalizeNewlines(text), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			paragraphs = append(paragraphs, line)
		}
	}
	return strings.Join(paragraphs, "\n\n")
}
