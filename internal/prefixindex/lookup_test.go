package prefixindex

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-prefix-index/config"
	engineErrors "github.com/gcbaptista/go-prefix-index/internal/errors"
)

func buildAndOpen(t *testing.T, maxPrefix int, docs ...[2]string) *Index {
	t.Helper()
	dir := t.TempDir()
	b, err := NewBuilder(config.BuildSettings{OutputDir: dir, MaxPrefix: maxPrefix}, WithProgress(nil))
	require.NoError(t, err)
	for _, d := range docs {
		require.NoError(t, b.AddDocument(d[0], d[1]))
	}
	_, err = b.Finish(context.Background())
	require.NoError(t, err)

	idx, err := Open(filepath.Join(dir, config.DefaultFulltextFile), filepath.Join(dir, config.DefaultIndexFile), b.Settings().MaxPrefix)
	require.NoError(t, err)
	return idx
}

func TestIndexSearch(t *testing.T) {
	idx := buildAndOpen(t, 0, [2]string{"a", "foo bar"}, [2]string{"b<|", "foo"})
	require.NoError(t, idx.Verify())
	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, []string{"a", "b<|"}, idx.Documents())

	hits := idx.Search("foo", 0)
	require.Len(t, hits, 2)
	assert.Equal(t, Hit{Offset: 0, Document: "a", Snippet: "foo bar"}, hits[0])
	assert.Equal(t, uint32(16), hits[1].Offset)
	assert.Equal(t, "b<|", hits[1].Document)
	assert.Equal(t, "foo", hits[1].Snippet)

	hits = idx.Search("ba", 0)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].Document)

	assert.Len(t, idx.Search("fo", 1), 1)
	assert.Empty(t, idx.Search("zzz", 0))
	assert.Empty(t, idx.Search("", 0))
}

func TestIndexSearch_QueryLongerThanPrefix(t *testing.T) {
	idx := buildAndOpen(t, 3, [2]string{"a", "foo bar"}, [2]string{"b", "food"})

	// Both anchors share the window "foo"; the rest of the query decides.
	hits := idx.Search("foo b", 0)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].Document)

	hits = idx.Search("food", 0)
	require.Len(t, hits, 1)
	assert.Equal(t, "b", hits[0].Document)
}

func TestLoad_Corrupt(t *testing.T) {
	fulltext := []byte("foo<<<<a>>>>\n")

	_, err := Load(fulltext, []byte{1, 2, 3}, 20)
	assert.True(t, errors.Is(err, engineErrors.ErrCorruptIndex))

	_, err = Load(fulltext, []byte{200, 0, 0, 0}, 20)
	assert.True(t, errors.Is(err, engineErrors.ErrCorruptIndex))

	_, err = Load(fulltext, nil, 0)
	assert.True(t, errors.Is(err, engineErrors.ErrInvalidInput))
}

func TestIndexVerify_DetectsDisorder(t *testing.T) {
	fulltext := []byte("foo bar<<<<a>>>>\n")
	// "foo..." (0) before "bar..." (4) is out of order.
	idx, err := Load(fulltext, []byte{0, 0, 0, 0, 4, 0, 0, 0}, 20)
	require.NoError(t, err)
	assert.True(t, errors.Is(idx.Verify(), engineErrors.ErrCorruptIndex))
}
