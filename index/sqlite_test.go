package index

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "data", "chunks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func Test_SQLiteStore_AddAndReadBack(t *testing.T) {
	store := setupTestSQLiteStore(t)
	ctx := context.Background()

	n, err := store.AddChunks(ctx, []Record{
		markdownRecord("/docs/a.md", 1, "second", "# B"),
		markdownRecord("/docs/a.md", 0, "first", "# A"),
		markdownRecord("/docs/b.md", 2, "other", "# O"),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	records, err := store.FileChunks(ctx, "/docs/a.md")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "first", records[0].Content)
	assert.Equal(t, "second", records[1].Content)
	assert.Equal(t, "# A", records[0].Metadata["heading"])
	assert.EqualValues(t, 1, records[0].Metadata["start_line"])

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func Test_SQLiteStore_ReplacesFileChunks(t *testing.T) {
	store := setupTestSQLiteStore(t)
	ctx := context.Background()

	_, err := store.AddChunks(ctx, []Record{
		markdownRecord("/docs/a.md", 0, "old one", "# A"),
		markdownRecord("/docs/a.md", 1, "old two", "# A"),
	})
	require.NoError(t, err)

	_, err = store.AddChunks(ctx, []Record{markdownRecord("/docs/a.md", 0, "new one", "# A")})
	require.NoError(t, err)

	records, err := store.FileChunks(ctx, "/docs/a.md")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "new one", records[0].Content)
}

func Test_SQLiteStore_RemoveFile(t *testing.T) {
	store := setupTestSQLiteStore(t)
	ctx := context.Background()

	_, err := store.AddChunks(ctx, []Record{
		markdownRecord("/docs/a.md", 0, "gone soon", "# A"),
		markdownRecord("/docs/b.md", 1, "stays", "# B"),
	})
	require.NoError(t, err)

	require.NoError(t, store.RemoveFile(ctx, "/docs/a.md"))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	records, err := store.FileChunks(ctx, "/docs/a.md")
	require.NoError(t, err)
	assert.Empty(t, records)
}
