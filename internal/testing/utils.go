// Package testing provides utilities and helpers for testing the index builder service.
package testing

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-prefix-index/internal/engine"
	"github.com/gcbaptista/go-prefix-index/model"
	"github.com/gcbaptista/go-prefix-index/services"
)

// CreateTestEngine creates an engine over a temporary data directory that is
// stopped and removed when the test ends.
func CreateTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	eng := engine.NewEngine(filepath.Join(t.TempDir(), "data"))
	t.Cleanup(eng.Stop)
	return eng
}

// RIFixture is one method description written as an ri YAML file.
type RIFixture struct {
	Path    string   // relative to the source directory, e.g. "Array/cdesc-Array.yaml"
	Comment []string // paragraphs of the comment section
}

// WriteRIFixtures writes fixtures below a fresh temporary directory and returns it.
func WriteRIFixtures(t *testing.T, fixtures ...RIFixture) string {
	t.Helper()
	dir := t.TempDir()
	for _, fx := range fixtures {
		WriteRIFile(t, filepath.Join(dir, fx.Path), fx.Comment...)
	}
	return dir
}

// WriteRIFile writes a single ri description with the given comment paragraphs.
func WriteRIFile(t *testing.T, path string, paragraphs ...string) {
	t.Helper()
	var b strings.Builder
	b.WriteString("--- !ruby/object:RI::MethodDescription\n")
	b.WriteString("aliases: []\n\ncomment:\n")
	for _, p := range paragraphs {
		b.WriteString("- !ruby/struct:SM::Flow::P\n")
		fmt.Fprintf(&b, "  body: %q\n", p)
	}
	b.WriteString("full_name: " + strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + "\n")

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

// JobPollingOptions configures job polling behavior
type JobPollingOptions struct {
	Timeout      time.Duration
	PollInterval time.Duration
	LogProgress  bool
}

// DefaultJobPollingOptions returns sensible defaults for job polling
func DefaultJobPollingOptions() JobPollingOptions {
	return JobPollingOptions{
		Timeout:      10 * time.Second,
		PollInterval: 20 * time.Millisecond,
		LogProgress:  false,
	}
}

// WaitForJobStatus polls a job until it reaches a terminal status or times out.
func WaitForJobStatus(t *testing.T, jobManager services.JobManager, jobID string, opts JobPollingOptions) *model.Job {
	t.Helper()
	timeout := time.After(opts.Timeout)
	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			t.Fatalf("Job %s did not finish within %v timeout", jobID, opts.Timeout)
			return nil
		case <-ticker.C:
			job, err := jobManager.GetJob(jobID)
			require.NoError(t, err, "Failed to get job status")

			if job.Status.IsTerminal() {
				return job
			}
			if opts.LogProgress && job.Progress != nil {
				t.Logf("Job %s progress: %d/%d - %s",
					jobID,
					job.Progress.Current,
					job.Progress.Total,
					job.Progress.Message)
			}
		}
	}
}

// WaitForJobCompletion polls a job until it completes, failing the test if it fails or is cancelled.
func WaitForJobCompletion(t *testing.T, jobManager services.JobManager, jobID string, opts JobPollingOptions) *model.Job {
	t.Helper()
	job := WaitForJobStatus(t, jobManager, jobID, opts)
	if job.Status != model.JobStatusCompleted {
		t.Fatalf("Job %s ended with status %s: %s", jobID, job.Status, job.Error)
	}
	return job
}

// AssertJobCompleted verifies that a job completed successfully
func AssertJobCompleted(t *testing.T, job *model.Job, expectedType model.JobType, expectedIndex string) {
	t.Helper()
	assert.Equal(t, model.JobStatusCompleted, job.Status, "Job should be completed")
	assert.Equal(t, expectedType, job.Type, "Job type should match")
	assert.Equal(t, expectedIndex, job.IndexName, "Job index name should match")
	assert.NotNil(t, job.CompletedAt, "Job should have completion timestamp")
	assert.Empty(t, job.Error, "Job should not have error")
}

// BuildTestIndex builds an index from the fixtures and waits for the job to complete.
func BuildTestIndex(t *testing.T, eng *engine.Engine, indexName string, fixtures ...RIFixture) services.IndexAccessor {
	t.Helper()
	sourceDir := WriteRIFixtures(t, fixtures...)
	jobID, err := eng.BuildIndexAsync(services.BuildRequest{Name: indexName, SourceDirs: []string{sourceDir}})
	require.NoError(t, err, "Failed to start build")

	job := WaitForJobCompletion(t, eng, jobID, DefaultJobPollingOptions())
	AssertJobCompleted(t, job, model.JobTypeBuildIndex, indexName)

	accessor, err := eng.GetIndex(indexName)
	require.NoError(t, err, "Built index should be registered")
	return accessor
}

// SearchTestCase represents a test case for prefix queries
type SearchTestCase struct {
	Name          string
	Query         string
	Limit         int
	ExpectedCount int
	ExpectedFirst string // Expected document of the first hit
	ValidateFunc  func(t *testing.T, results *services.SearchResult)
}

// RunSearchTests runs a suite of search tests against an index
func RunSearchTests(t *testing.T, searcher services.Searcher, tests []SearchTestCase) {
	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			results := searcher.Search(tt.Query, tt.Limit)

			assert.Equal(t, tt.ExpectedCount, results.Total, "Result count should match")

			if tt.ExpectedFirst != "" && len(results.Hits) > 0 {
				assert.Equal(t, tt.ExpectedFirst, results.Hits[0].Document, "First result should match expected")
			}

			if tt.ValidateFunc != nil {
				tt.ValidateFunc(t, &results)
			}
		})
	}
}
