package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const chunkSchema = `
CREATE TABLE IF NOT EXISTS chunks (
	id          TEXT PRIMARY KEY,
	file_path   TEXT NOT NULL,
	chunk_index INTEGER NOT NULL,
	content     TEXT NOT NULL,
	metadata    TEXT NOT NULL,
	ingested_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_file_path ON chunks(file_path);
`

// SQLiteStore persists chunk records in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLiteStore opens (or creates) the database file at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(chunkSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating chunk schema: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// AddChunks stores records in one transaction, replacing earlier chunks of the same files.
func (s *SQLiteStore) AddChunks(ctx context.Context, records []Record) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	replaced := make(map[string]bool)
	for _, rec := range records {
		if replaced[rec.FilePath] {
			continue
		}
		replaced[rec.FilePath] = true
		if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE file_path = ?", rec.FilePath); err != nil {
			return 0, fmt.Errorf("clearing chunks of %s: %w", rec.FilePath, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, file_path, chunk_index, content, metadata, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			file_path = excluded.file_path,
			chunk_index = excluded.chunk_index,
			content = excluded.content,
			metadata = excluded.metadata,
			ingested_at = excluded.ingested_at
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, rec := range records {
		metadataJSON, err := json.Marshal(rec.Metadata)
		if err != nil {
			return 0, fmt.Errorf("marshalling chunk metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, rec.ID(), rec.FilePath, rec.ChunkIndex,
			rec.Content, string(metadataJSON), now); err != nil {
			return 0, fmt.Errorf("saving chunk %s: %w", rec.ID(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return len(records), nil
}

// RemoveFile deletes every chunk of a file.
func (s *SQLiteStore) RemoveFile(ctx context.Context, filePath string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM chunks WHERE file_path = ?", filePath); err != nil {
		return fmt.Errorf("deleting chunks of %s: %w", filePath, err)
	}
	return nil
}

// FileChunks returns the stored records of a file in chunk order.
func (s *SQLiteStore) FileChunks(ctx context.Context, filePath string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT file_path, chunk_index, content, metadata
		FROM chunks WHERE file_path = ?
		ORDER BY chunk_index
	`, filePath)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var records []Record //nolint:prealloc // size unknown from query
	for rows.Next() {
		var rec Record
		var metadataJSON string
		if err := rows.Scan(&rec.FilePath, &rec.ChunkIndex, &rec.Content, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if err := json.Unmarshal([]byte(metadataJSON), &rec.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling chunk metadata: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return records, nil
}

// Count returns the number of stored chunks.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
