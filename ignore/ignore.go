// Package ignore decides which paths are skipped while scanning and watching documents.
package ignore

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/denormal/go-gitignore"
)

// DefaultMaxFileSizeBytes caps the size of ingested documents (50MB).
const DefaultMaxFileSizeBytes = 50 * 1024 * 1024

// Ignore file names read from the root directory.
const (
	GitIgnoreFile = ".gitignore"
	DocIgnoreFile = ".docindexignore"
)

// Matcher determines whether a path should be skipped during ingestion.
// It combines default patterns, .gitignore rules, .docindexignore rules, and custom exclude patterns.
// Thread-safe: Reload() acquires a write lock, ShouldIgnore()/ShouldIgnoreDir() acquire a read lock.
type Matcher struct {
	mu               sync.RWMutex
	rootDir          string
	gitIgnore        gitignore.GitIgnore
	docIgnore        gitignore.GitIgnore
	customPatterns   []string
	maxFileSizeBytes int64
}

// MatcherOptions configures the ignore matcher.
type MatcherOptions struct {
	RootDir          string
	CustomPatterns   []string // doublestar patterns, matched against the relative path and the base name
	MaxFileSizeBytes int64
}

// NewMatcher creates an ignore matcher rooted at options.RootDir.
func NewMatcher(options MatcherOptions) *Matcher {
	matcher := &Matcher{
		rootDir:          options.RootDir,
		maxFileSizeBytes: options.MaxFileSizeBytes,
	}
	for _, pattern := range options.CustomPatterns {
		matcher.customPatterns = append(matcher.customPatterns, filepath.ToSlash(pattern))
	}

	if matcher.maxFileSizeBytes <= 0 {
		matcher.maxFileSizeBytes = DefaultMaxFileSizeBytes
	}

	matcher.gitIgnore = loadIgnoreFile(filepath.Join(options.RootDir, GitIgnoreFile), options.RootDir)
	matcher.docIgnore = loadIgnoreFile(filepath.Join(options.RootDir, DocIgnoreFile), options.RootDir)

	return matcher
}

// IsIgnoreFile reports whether path names one of the ignore files the matcher reads.
func IsIgnoreFile(path string) bool {
	switch filepath.Base(path) {
	case GitIgnoreFile, DocIgnoreFile:
		return true
	}
	return false
}

// ShouldIgnore returns true if the given path should be excluded from ingestion.
// The path should be an absolute path or relative to the root directory.
func (m *Matcher) ShouldIgnore(absolutePath string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	relativePath, err := filepath.Rel(m.rootDir, absolutePath)
	if err != nil {
		relativePath = absolutePath
	}
	relativePath = filepath.ToSlash(relativePath)

	if m.matchesDefaultPatterns(relativePath, absolutePath) {
		return true
	}

	isDir := false
	if info, err := os.Stat(absolutePath); err == nil {
		isDir = info.IsDir()
	}

	// Relative() doesn't require the file to exist on disk
	for _, rules := range []gitignore.GitIgnore{m.gitIgnore, m.docIgnore} {
		if rules == nil {
			continue
		}
		if match := rules.Relative(relativePath, isDir); match != nil && match.Ignore() {
			return true
		}
	}

	return m.matchesCustomPatterns(relativePath)
}

// ShouldIgnoreDir returns true if a directory should be skipped entirely during traversal.
func (m *Matcher) ShouldIgnoreDir(absolutePath string) bool {
	dirName := filepath.Base(absolutePath)

	// Fast check: common directories that never hold user documents (no lock needed)
	switch dirName {
	case ".git", ".svn", ".hg", "node_modules", "__pycache__",
		".idea", ".vscode", ".vs", ".cache", ".venv", "venv",
		".obsidian", ".Trash", ".Trashes", "$RECYCLE.BIN":
		return true
	}

	return m.ShouldIgnore(absolutePath)
}

// IsFileTooLarge returns true if the file exceeds the max file size limit.
func (m *Matcher) IsFileTooLarge(fileSize int64) bool {
	return fileSize > m.maxFileSizeBytes
}

// MaxFileSizeBytes returns the configured maximum file size.
func (m *Matcher) MaxFileSizeBytes() int64 {
	return m.maxFileSizeBytes
}

// matchesDefaultPatterns checks if the path matches any hardcoded default ignore pattern.
func (m *Matcher) matchesDefaultPatterns(relativePath string, absolutePath string) bool {
	baseNameLower := strings.ToLower(filepath.Base(absolutePath))
	relativeLower := strings.ToLower(relativePath)

	for _, pattern := range DefaultIgnorePatterns {
		patternLower := strings.ToLower(pattern)

		// Plain name: check the base name and every path component
		if !strings.ContainsAny(pattern, "*?[") {
			if baseNameLower == patternLower {
				return true
			}
			for _, part := range strings.Split(relativeLower, "/") {
				if part == patternLower {
					return true
				}
			}
			continue
		}

		if matched, err := filepath.Match(patternLower, baseNameLower); err == nil && matched {
			return true
		}
		if matched, err := filepath.Match(patternLower, relativeLower); err == nil && matched {
			return true
		}
	}
	return false
}

// matchesCustomPatterns checks the relative path and its base name against the exclude patterns.
func (m *Matcher) matchesCustomPatterns(relativePath string) bool {
	baseName := filepath.Base(relativePath)
	for _, pattern := range m.customPatterns {
		if matched, _ := doublestar.Match(pattern, relativePath); matched {
			return true
		}
		if matched, _ := doublestar.Match(pattern, baseName); matched {
			return true
		}
	}
	return false
}

// Reload re-reads .gitignore and .docindexignore from disk.
// Used when the watcher detects changes to these files.
func (m *Matcher) Reload() {
	newGitIgnore := loadIgnoreFile(filepath.Join(m.rootDir, GitIgnoreFile), m.rootDir)
	newDocIgnore := loadIgnoreFile(filepath.Join(m.rootDir, DocIgnoreFile), m.rootDir)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.gitIgnore = newGitIgnore
	m.docIgnore = newDocIgnore
}

// loadIgnoreFile reads an ignore file and creates a GitIgnore matcher from it.
// Uses io.Reader approach to ensure the file handle is properly closed on Windows.
func loadIgnoreFile(filePath string, baseDir string) gitignore.GitIgnore {
	f, err := os.Open(filePath)
	if err != nil {
		return nil
	}
	defer f.Close()

	return gitignore.New(f, baseDir, nil)
}
