// Package change tracks file fingerprints and decides which files need re-ingestion.
package change

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"
)

// FileRecord is the fingerprint of a file at the time it was last ingested.
type FileRecord struct {
	Path        string
	Size        int64
	ModTime     time.Time
	ContentHash string // sha256, hex encoded
}

// Fingerprint stats and hashes the file at path.
// Any error means the file is currently unavailable.
func Fingerprint(path string) (FileRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return FileRecord{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return FileRecord{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return FileRecord{}, fmt.Errorf("fingerprinting %s: is a directory", path)
	}

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return FileRecord{}, fmt.Errorf("hashing %s: %w", path, err)
	}

	return FileRecord{
		Path:        path,
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		ContentHash: hex.EncodeToString(hash.Sum(nil)),
	}, nil
}

// Status is the outcome of comparing a fingerprint against the stored record.
type Status int

const (
	Unchanged Status = iota
	New
	Updated
)

func (s Status) String() string {
	switch s {
	case New:
		return "new"
	case Updated:
		return "updated"
	default:
		return "unchanged"
	}
}

// Changed reports whether the file must be (re-)ingested.
func (s Status) Changed() bool {
	return s != Unchanged
}

// Classify compares a fresh snapshot with the previously stored record.
// known is false when no record exists for the path. force treats every file as new.
func Classify(snapshot, previous FileRecord, known, force bool) Status {
	if force || !known {
		return New
	}
	if snapshot.ModTime.After(previous.ModTime) || snapshot.ContentHash != previous.ContentHash {
		return Updated
	}
	return Unchanged
}
