package engine_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-prefix-index/config"
	"github.com/gcbaptista/go-prefix-index/internal/engine"
	engineErrors "github.com/gcbaptista/go-prefix-index/internal/errors"
	"github.com/gcbaptista/go-prefix-index/internal/prefixindex"
	testutil "github.com/gcbaptista/go-prefix-index/internal/testing"
	"github.com/gcbaptista/go-prefix-index/services"
)

var arrayAndString = []testutil.RIFixture{
	{Path: "Array/new-c.yaml", Comment: []string{"Returns a new array.", "See also fill"}},
	{Path: "String/new-c.yaml", Comment: []string{"Returns a new string"}},
}

func TestEngine_BuildAndSearch(t *testing.T) {
	eng := testutil.CreateTestEngine(t)
	accessor := testutil.BuildTestIndex(t, eng, "ri", arrayAndString...)

	manifest := accessor.Manifest()
	assert.Equal(t, "ri", manifest.Name)
	assert.NotEmpty(t, manifest.ID)
	assert.Equal(t, config.DefaultMaxPrefix, manifest.MaxPrefix)
	assert.Equal(t, 2, manifest.Stats.Documents)
	assert.Equal(t, 0, manifest.Stats.BadSources)
	assert.Greater(t, manifest.Stats.Suffixes, 0)

	testutil.RunSearchTests(t, accessor, []testutil.SearchTestCase{
		{Name: "shared prefix", Query: "Returns a new", ExpectedCount: 2},
		{
			Name:          "single document",
			Query:         "new array",
			ExpectedCount: 1,
			ValidateFunc: func(t *testing.T, results *services.SearchResult) {
				hit := results.Hits[0]
				assert.True(t, strings.HasSuffix(hit.Document, filepath.Join("Array", "new-c.yaml")), hit.Document)
				assert.True(t, strings.HasPrefix(hit.Snippet, "new array."), hit.Snippet)
				assert.NotEmpty(t, results.QueryId)
			},
		},
		{Name: "limit", Query: "Returns", Limit: 1, ExpectedCount: 1},
		{Name: "no match", Query: "zebra", ExpectedCount: 0},
		{Name: "not an anchor", Query: "eturns", ExpectedCount: 0},
	})
}

func TestEngine_ListAndDelete(t *testing.T) {
	eng := testutil.CreateTestEngine(t)
	testutil.BuildTestIndex(t, eng, "beta", arrayAndString...)
	testutil.BuildTestIndex(t, eng, "alpha", arrayAndString[:1]...)

	manifests := eng.ListIndexes()
	require.Len(t, manifests, 2)
	assert.Equal(t, "alpha", manifests[0].Name)
	assert.Equal(t, "beta", manifests[1].Name)

	require.NoError(t, eng.DeleteIndex("alpha"))
	_, err := eng.GetIndex("alpha")
	assert.ErrorIs(t, err, engineErrors.ErrIndexNotFound)
	assert.Len(t, eng.ListIndexes(), 1)

	err = eng.DeleteIndex("alpha")
	assert.ErrorIs(t, err, engineErrors.ErrIndexNotFound)
}

func TestEngine_ReloadFromDisk(t *testing.T) {
	dataDir := t.TempDir()
	eng := engine.NewEngine(dataDir)
	testutil.BuildTestIndex(t, eng, "persisted", arrayAndString...)
	before, err := eng.GetIndex("persisted")
	require.NoError(t, err)
	eng.Stop()

	// A directory without a manifest is ignored.
	require.NoError(t, os.MkdirAll(filepath.Join(dataDir, "stray"), 0o755))

	reloaded := engine.NewEngine(dataDir)
	defer reloaded.Stop()

	after, err := reloaded.GetIndex("persisted")
	require.NoError(t, err)
	assert.Equal(t, before.Manifest().ID, after.Manifest().ID)
	assert.Equal(t, 2, after.Search("Returns", 0).Total)
	assert.Len(t, reloaded.ListIndexes(), 1)
}

func TestEngine_ReloadRejectsMismatchedOutputs(t *testing.T) {
	tests := []struct {
		name   string
		damage func(raw []byte) []byte
	}{
		{"entry missing", func(raw []byte) []byte { return raw[:len(raw)-4] }},
		{"entries out of order", func(raw []byte) []byte {
			last := len(raw) - 4
			swapped := append([]byte(nil), raw...)
			copy(swapped[:4], raw[last:])
			copy(swapped[last:], raw[:4])
			return swapped
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dataDir := t.TempDir()
			eng := engine.NewEngine(dataDir)
			testutil.BuildTestIndex(t, eng, "ri", arrayAndString...)
			eng.Stop()

			indexPath := filepath.Join(dataDir, "ri", config.DefaultIndexFile)
			raw, err := os.ReadFile(indexPath)
			require.NoError(t, err)
			require.NoError(t, os.WriteFile(indexPath, tt.damage(raw), 0o644))

			reloaded := engine.NewEngine(dataDir)
			defer reloaded.Stop()

			_, err = reloaded.GetIndex("ri")
			assert.ErrorIs(t, err, engineErrors.ErrIndexNotFound)
			assert.Empty(t, reloaded.ListIndexes())
		})
	}
}

func TestEngine_RebuildReplacesIndex(t *testing.T) {
	eng := testutil.CreateTestEngine(t)
	first := testutil.BuildTestIndex(t, eng, "ri", arrayAndString[:1]...)
	second := testutil.BuildTestIndex(t, eng, "ri", arrayAndString...)

	assert.NotEqual(t, first.Manifest().ID, second.Manifest().ID)
	assert.Equal(t, 2, second.Search("Returns", 0).Total)
	assert.Len(t, eng.ListIndexes(), 1)
}

func TestEngine_BuildValidation(t *testing.T) {
	eng := testutil.CreateTestEngine(t)
	sourceDir := testutil.WriteRIFixtures(t, arrayAndString...)

	tests := []struct {
		name string
		req  services.BuildRequest
	}{
		{"empty name", services.BuildRequest{SourceDirs: []string{sourceDir}}},
		{"path in name", services.BuildRequest{Name: "../escape", SourceDirs: []string{sourceDir}}},
		{"hidden name", services.BuildRequest{Name: ".hidden", SourceDirs: []string{sourceDir}}},
		{"no sources", services.BuildRequest{Name: "ri"}},
		{"negative prefix", services.BuildRequest{Name: "ri", SourceDirs: []string{sourceDir}, MaxPrefix: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.BuildIndexAsync(tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, engineErrors.ErrInvalidInput)
		})
	}
}

func TestEngine_SourceRoot(t *testing.T) {
	root := t.TempDir()
	inside := filepath.Join(root, "ri")
	for _, fx := range arrayAndString {
		testutil.WriteRIFile(t, filepath.Join(inside, fx.Path), fx.Comment...)
	}
	outside := testutil.WriteRIFixtures(t, arrayAndString...)
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "link")))

	eng := engine.NewEngine(t.TempDir(), engine.WithSourceRoot(root))
	defer eng.Stop()

	rejected := map[string]string{
		"filesystem root":   "/",
		"outside directory": outside,
		"dot-dot escape":    filepath.Join(inside, "..", "..", filepath.Base(outside)),
		"symlink out":       filepath.Join(root, "link"),
		"missing directory": filepath.Join(root, "missing"),
	}
	for name, dir := range rejected {
		t.Run(name, func(t *testing.T) {
			_, err := eng.BuildIndexAsync(services.BuildRequest{Name: "ri", SourceDirs: []string{inside, dir}})
			require.Error(t, err)
			assert.ErrorIs(t, err, engineErrors.ErrInvalidInput)
			assert.Empty(t, eng.ListJobs("ri", nil), "no job may be created")
		})
	}

	jobID, err := eng.BuildIndexAsync(services.BuildRequest{Name: "ri", SourceDirs: []string{filepath.Join(inside, "..", "ri")}})
	require.NoError(t, err)
	testutil.WaitForJobCompletion(t, eng, jobID, testutil.DefaultJobPollingOptions())

	accessor, err := eng.GetIndex("ri")
	require.NoError(t, err)
	assert.Equal(t, 2, accessor.Manifest().Stats.Documents)
}

func TestEngine_BadSourcesCounted(t *testing.T) {
	eng := testutil.CreateTestEngine(t)
	sourceDir := testutil.WriteRIFixtures(t, arrayAndString...)
	require.NoError(t, os.WriteFile(filepath.Join(sourceDir, "broken.yaml"), []byte("comment: [unclosed\n"), 0o644))

	jobID, err := eng.BuildIndexAsync(services.BuildRequest{Name: "ri", SourceDirs: []string{sourceDir}})
	require.NoError(t, err)
	testutil.WaitForJobCompletion(t, eng, jobID, testutil.DefaultJobPollingOptions())

	accessor, err := eng.GetIndex("ri")
	require.NoError(t, err)
	assert.Equal(t, 1, accessor.Manifest().Stats.BadSources)
	assert.Equal(t, 2, accessor.Manifest().Stats.Documents)
}

func TestEngine_JobsListedPerIndex(t *testing.T) {
	eng := testutil.CreateTestEngine(t)
	testutil.BuildTestIndex(t, eng, "ri", arrayAndString...)

	jobs := eng.ListJobs("ri", nil)
	require.Len(t, jobs, 1)
	require.NotNil(t, jobs[0].Progress)
	assert.Equal(t, 100, jobs[0].Progress.Current)
	assert.Empty(t, eng.ListJobs("other", nil))
}

func TestRunBuild(t *testing.T) {
	sourceDir := testutil.WriteRIFixtures(t, arrayAndString...)
	settings := config.BuildSettings{Name: "cli", OutputDir: t.TempDir()}
	settings.ApplyDefaults()

	stats, err := engine.RunBuild(context.Background(), settings, []string{sourceDir, filepath.Join(sourceDir, "missing")}, prefixindex.WithProgress(nil))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Documents)

	for _, path := range []string{settings.FulltextPath(), settings.IndexPath(), settings.SuffixesPath()} {
		_, err := os.Stat(path)
		assert.NoError(t, err, path)
	}

	idx, err := prefixindex.Open(settings.FulltextPath(), settings.IndexPath(), settings.MaxPrefix)
	require.NoError(t, err)
	assert.Equal(t, stats.Suffixes, idx.Len())
	assert.NoError(t, idx.Verify())
}

func TestRunBuild_Cancelled(t *testing.T) {
	sourceDir := testutil.WriteRIFixtures(t, arrayAndString...)
	settings := config.BuildSettings{Name: "cli", OutputDir: t.TempDir()}
	settings.ApplyDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.RunBuild(ctx, settings, []string{sourceDir})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(settings.IndexPath())
	assert.True(t, os.IsNotExist(statErr))
}
