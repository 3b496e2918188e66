package index

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	added   [][]Record
	removed []string
	err     error
}

func (s *recordingSink) AddChunks(_ context.Context, records []Record) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.added = append(s.added, records)
	return len(records), nil
}

func (s *recordingSink) RemoveFile(_ context.Context, filePath string) error {
	s.removed = append(s.removed, filePath)
	return nil
}

type addOnlySink struct{ calls int }

func (s *addOnlySink) AddChunks(_ context.Context, records []Record) (int, error) {
	s.calls++
	return len(records), nil
}

func Test_Multi_FansOutToEverySink(t *testing.T) {
	first, second := &recordingSink{}, &addOnlySink{}
	multi := NewMulti(first, nil, second)
	records := []Record{{Content: "a", FilePath: "/a.txt"}, {Content: "b", FilePath: "/a.txt", ChunkIndex: 1}}

	n, err := multi.AddChunks(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, first.added, 1)
	assert.Equal(t, 1, second.calls)

	require.NoError(t, multi.RemoveFile(context.Background(), "/a.txt"))
	assert.Equal(t, []string{"/a.txt"}, first.removed)
}

func Test_Multi_StopsAtFirstFailure(t *testing.T) {
	boom := errors.New("disk full")
	failing, after := &recordingSink{err: boom}, &addOnlySink{}
	multi := NewMulti(failing, after)

	_, err := multi.AddChunks(context.Background(), []Record{{Content: "a", FilePath: "/a.txt"}})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, after.calls)
}

func Test_Multi_WithChunkIndexAndSQLite(t *testing.T) {
	ci := newTestChunkIndex(t)
	store := setupTestSQLiteStore(t)
	multi := NewMulti(ci, store)
	ctx := context.Background()

	_, err := multi.AddChunks(ctx, []Record{markdownRecord("/docs/a.md", 0, "shared content", "# S")})
	require.NoError(t, err)
	assert.EqualValues(t, 1, ci.DocumentCount())
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, multi.RemoveFile(ctx, "/docs/a.md"))
	assert.EqualValues(t, 0, ci.DocumentCount())
	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
