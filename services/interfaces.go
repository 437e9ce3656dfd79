package services

import (
	"github.com/gcbaptista/go-prefix-index/internal/prefixindex"
	"github.com/gcbaptista/go-prefix-index/model"
)

// BuildRequest asks for a new index built from ri YAML source directories.
type BuildRequest struct {
	Name       string   `json:"name"`                 // Index name; also its directory under the data directory
	SourceDirs []string `json:"source_dirs"`          // Directories searched recursively for *.yaml files
	MaxPrefix  int      `json:"max_prefix,omitempty"` // Optional: sort key width, defaults to 20
	BatchSize  int      `json:"batch_size,omitempty"` // Optional: offsets per index write
}

// SearchResult is the response to a prefix query against one index.
type SearchResult struct {
	Hits    []prefixindex.Hit `json:"hits"`
	Total   int               `json:"total"`
	Took    int64             `json:"took"`     // milliseconds
	QueryId string            `json:"query_id"` // unique UUID for this search query
}

// Searcher answers prefix queries
type Searcher interface {
	Search(query string, limit int) SearchResult
}

// IndexAccessor is a completed, opened index
type IndexAccessor interface {
	Searcher
	Manifest() model.BuildManifest
}

// IndexManager manages the lifecycle of built indexes
type IndexManager interface {
	BuildIndexAsync(req BuildRequest) (string, error) // Returns job ID
	GetIndex(name string) (IndexAccessor, error)
	ListIndexes() []model.BuildManifest
	DeleteIndex(name string) error
}

// JobManager defines operations for managing background jobs
type JobManager interface {
	GetJob(jobID string) (*model.Job, error)
	ListJobs(indexName string, status *model.JobStatus) []*model.Job
	CancelJob(jobID string) error
}
