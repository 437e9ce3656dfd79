package prefixindex

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-prefix-index/config"
	engineErrors "github.com/gcbaptista/go-prefix-index/internal/errors"
)

func newTestBuilder(t *testing.T, dir string, opts ...Option) *Builder {
	t.Helper()
	opts = append([]Option{WithProgress(nil)}, opts...)
	b, err := NewBuilder(config.BuildSettings{OutputDir: dir}, opts...)
	require.NoError(t, err)
	return b
}

func readOutputs(t *testing.T, dir string) (fulltext, index, suffixes []byte) {
	t.Helper()
	var err error
	fulltext, err = os.ReadFile(filepath.Join(dir, config.DefaultFulltextFile))
	require.NoError(t, err)
	index, err = os.ReadFile(filepath.Join(dir, config.DefaultIndexFile))
	require.NoError(t, err)
	suffixes, err = os.ReadFile(filepath.Join(dir, config.DefaultSuffixesFile))
	require.NoError(t, err)
	return fulltext, index, suffixes
}

func decodeIndex(raw []byte) []uint32 {
	offsets := make([]uint32, len(raw)/4)
	for i := range offsets {
		offsets[i] = binary.LittleEndian.Uint32(raw[4*i:])
	}
	return offsets
}

func TestBuilder_TwoDocuments(t *testing.T) {
	dir := t.TempDir()
	b := newTestBuilder(t, dir)
	require.NoError(t, b.AddDocument("a", "foo bar"))
	require.NoError(t, b.AddDocument("b", "foo"))

	stats, err := b.Finish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Documents)
	assert.Equal(t, 2, stats.Segments)
	assert.Equal(t, 3, stats.Suffixes)
	assert.Equal(t, 28, stats.CorpusBytes)
	assert.Zero(t, stats.TrailingBytes)

	fulltext, index, suffixes := readOutputs(t, dir)
	assert.Equal(t, "foo bar<<<<a>>>>foo<<<<b>>>>\n", string(fulltext))

	// "bar..." sorts first; both "foo" anchors follow in extraction order.
	assert.Equal(t, []uint32{4, 0, 16}, decodeIndex(index))
	assert.Equal(t, []byte{4, 0, 0, 0, 0, 0, 0, 0, 16, 0, 0, 0}, index)

	expected := strconv.Quote("bar<<<<a>>>>foo<<<<b") + "\n" +
		strconv.Quote("foo bar<<<<a>>>>foo<") + "\n" +
		strconv.Quote("foo<<<<b>>>>") + "\n"
	assert.Equal(t, expected, string(suffixes))
}

func TestBuilder_EmptyDocument(t *testing.T) {
	dir := t.TempDir()
	b := newTestBuilder(t, dir)
	require.NoError(t, b.AddDocument("x", ""))

	stats, err := b.Finish(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Suffixes)

	fulltext, index, suffixes := readOutputs(t, dir)
	assert.Equal(t, "<<<<x>>>>\n", string(fulltext))
	assert.Empty(t, index)
	assert.Empty(t, suffixes)
}

func TestBuilder_NoDocuments(t *testing.T) {
	dir := t.TempDir()
	b := newTestBuilder(t, dir)

	stats, err := b.Finish(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Suffixes)

	fulltext, index, _ := readOutputs(t, dir)
	assert.Equal(t, "\n", string(fulltext))
	assert.Empty(t, index)
}

func TestBuilder_EqualKeysKeepExtractionOrder(t *testing.T) {
	dir := t.TempDir()
	b := newTestBuilder(t, dir)
	// Identical 20-byte windows: every "same..." anchor ties with the others.
	long := "same_prefix_that_is_long_enough"
	require.NoError(t, b.AddDocument("one", long))
	require.NoError(t, b.AddDocument("two", long))
	require.NoError(t, b.AddDocument("three", long))

	_, err := b.Finish(context.Background())
	require.NoError(t, err)

	_, index, _ := readOutputs(t, dir)
	offsets := decodeIndex(index)
	require.Len(t, offsets, 3)
	assert.True(t, offsets[0] < offsets[1] && offsets[1] < offsets[2], "ties must keep extraction order, got %v", offsets)
}

func TestBuilder_OrderingAndDeterminism(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	type doc struct{ name, text string }
	var docs []doc
	for i := 0; i < 200; i++ {
		docs = append(docs, doc{
			name: "doc-" + strconv.Itoa(i) + "|<" + randomString(rng, "ab", 3),
			text: randomString(rng, "abcdefg_01 \n.<>", 80),
		})
	}

	build := func(dir string) {
		b := newTestBuilder(t, dir)
		for _, d := range docs {
			require.NoError(t, b.AddDocument(d.name, d.text))
		}
		_, err := b.Finish(context.Background())
		require.NoError(t, err)
	}

	dirA, dirB := t.TempDir(), t.TempDir()
	build(dirA)
	build(dirB)

	fulltextA, indexA, suffixesA := readOutputs(t, dirA)
	fulltextB, indexB, suffixesB := readOutputs(t, dirB)
	assert.True(t, bytes.Equal(fulltextA, fulltextB), "fulltext must be byte-identical")
	assert.True(t, bytes.Equal(indexA, indexB), "index must be byte-identical")
	assert.True(t, bytes.Equal(suffixesA, suffixesB), "suffixes must be byte-identical")

	idx, err := Load(fulltextA, indexA, config.DefaultMaxPrefix)
	require.NoError(t, err)
	require.NoError(t, idx.Verify())

	names := idx.Documents()
	require.Len(t, names, len(docs))
	for i, d := range docs {
		assert.Equal(t, d.name, names[i])
	}
}

func TestBuilder_BatchedIndexMatchesSingleWrite(t *testing.T) {
	offsets := []uint32{5, 1, 300, 70000, 2}

	var single bytes.Buffer
	require.NoError(t, WriteIndex(&single, offsets, 0))

	counter := &countingWriter{}
	require.NoError(t, WriteIndex(counter, offsets, 2))

	assert.Equal(t, single.Bytes(), counter.buf.Bytes())
	assert.Equal(t, 3, counter.writes)
	assert.Equal(t, 20, single.Len())
}

type countingWriter struct {
	buf    bytes.Buffer
	writes int
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.writes++
	return w.buf.Write(p)
}

func TestBuilder_AddAfterFinish(t *testing.T) {
	b := newTestBuilder(t, t.TempDir())
	require.NoError(t, b.AddDocument("a", "text"))
	_, err := b.Finish(context.Background())
	require.NoError(t, err)

	err = b.AddDocument("b", "more")
	assert.True(t, errors.Is(err, engineErrors.ErrCorpusFrozen))

	_, err = b.Finish(context.Background())
	assert.True(t, errors.Is(err, engineErrors.ErrCorpusFrozen))
}

func TestBuilder_Progress(t *testing.T) {
	var reports []int
	b, err := NewBuilder(config.BuildSettings{OutputDir: t.TempDir(), ProgressEvery: 1},
		WithProgress(func(percent int) { reports = append(reports, percent) }))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.NoError(t, b.AddDocument("d"+strconv.Itoa(i), "word"))
	}

	_, err = b.Finish(context.Background())
	require.NoError(t, err)

	require.Len(t, reports, 5)
	for i := 1; i < len(reports); i++ {
		assert.GreaterOrEqual(t, reports[i], reports[i-1])
	}
	assert.Equal(t, 100, reports[len(reports)-1])
}

func TestBuilder_CancelledContextLeavesNoOutputs(t *testing.T) {
	dir := t.TempDir()
	b := newTestBuilder(t, dir)
	require.NoError(t, b.AddDocument("a", "foo bar"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := b.Finish(ctx)
	require.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no output or temporary file may remain")
}

func TestBuilder_OutputFailureIsFatal(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	b, err := NewBuilder(config.BuildSettings{OutputDir: blocker}, WithProgress(nil))
	require.NoError(t, err)
	require.NoError(t, b.AddDocument("a", "foo"))

	_, err = b.Finish(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, engineErrors.ErrOutputFailed))
}

func TestBuilder_FailedCommitKeepsPreviousOutputs(t *testing.T) {
	dir := t.TempDir()
	fulltextPath := filepath.Join(dir, config.DefaultFulltextFile)
	indexPath := filepath.Join(dir, config.DefaultIndexFile)
	require.NoError(t, os.WriteFile(fulltextPath, []byte("OLD\n"), 0o644))
	// INDEX cannot be replaced by a rename.
	require.NoError(t, os.Mkdir(indexPath, 0o755))

	b := newTestBuilder(t, dir)
	require.NoError(t, b.AddDocument("a", "foo bar"))

	_, err := b.Finish(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, engineErrors.ErrOutputFailed))
	var outErr *engineErrors.OutputError
	require.True(t, errors.As(err, &outErr))
	assert.Equal(t, indexPath, outErr.Path)

	fulltext, err := os.ReadFile(fulltextPath)
	require.NoError(t, err)
	assert.Equal(t, "OLD\n", string(fulltext), "fulltext must not be replaced when the index is not")
	assert.NoFileExists(t, filepath.Join(dir, config.DefaultSuffixesFile))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temporary file may remain")
}

func TestNewBuilder_InvalidSettings(t *testing.T) {
	_, err := NewBuilder(config.BuildSettings{MaxPrefix: -1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, engineErrors.ErrInvalidInput))
}

func TestSortKey_NearEnd(t *testing.T) {
	corpus := []byte("abcdef")
	assert.Equal(t, "def", string(SortKey(corpus, 3, 20)))
	assert.Equal(t, "ab", string(SortKey(corpus, 0, 2)))
}
