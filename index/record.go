package index

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Record is the unit handed to storage: one chunk of one file.
// ChunkIndex is the chunk's position within the ingestion batch.
type Record struct {
	Content    string
	FilePath   string
	ChunkIndex int
	Metadata   map[string]any
}

// ID returns the stable storage identifier "path#index_hash8", where hash8 is the
// first 8 hex characters of the content's sha256.
func (r Record) ID() string {
	sum := sha256.Sum256([]byte(r.Content))
	return fmt.Sprintf("%s#%d_%s", r.FilePath, r.ChunkIndex, hex.EncodeToString(sum[:4]))
}

func metaString(metadata map[string]any, key string) string {
	s, _ := metadata[key].(string)
	return s
}

func metaInt(metadata map[string]any, key string) int {
	switch v := metadata[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
