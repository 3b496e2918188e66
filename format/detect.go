package format

import (
	"path/filepath"
	"strings"
)

// Format identifies one of the supported document formats.
type Format int

const (
	Unknown Format = iota
	Text
	Markdown
	PDF
	DOCX
)

// ExtensionToFormat maps lowercase file extensions (without dot) to formats.
var ExtensionToFormat = map[string]Format{
	"txt":      Text,
	"md":       Markdown,
	"markdown": Markdown,
	"pdf":      PDF,
	"docx":     DOCX,
}

// String returns the short name used in chunk metadata and status output.
func (f Format) String() string {
	switch f {
	case Text:
		return "text"
	case Markdown:
		return "markdown"
	case PDF:
		return "pdf"
	case DOCX:
		return "docx"
	default:
		return "unknown"
	}
}

// IsMarkup reports whether the format carries heading structure.
func (f Format) IsMarkup() bool {
	return f == Markdown
}

// Detect returns the format for a file path based on its extension.
// Matching is case-insensitive. Returns Unknown if the extension is not supported.
func Detect(filePath string) Format {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filePath), "."))
	if ext == "" {
		return Unknown
	}
	if f, ok := ExtensionToFormat[ext]; ok {
		return f
	}
	return Unknown
}

// IsSupported reports whether the file at filePath can be ingested.
func IsSupported(filePath string) bool {
	return Detect(filePath) != Unknown
}

// Extensions returns the supported extensions with a leading dot, sorted.
func Extensions() []string {
	return []string{".docx", ".markdown", ".md", ".pdf", ".txt"}
}
