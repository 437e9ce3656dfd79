package engine

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/gcbaptista/go-prefix-index/internal/errors"
	"github.com/gcbaptista/go-prefix-index/internal/jobs"
	"github.com/gcbaptista/go-prefix-index/model"
	"github.com/gcbaptista/go-prefix-index/services"
)

const (
	dataDirPerm = 0755
	maxWorkers  = 2
)

var indexNameRegex = regexp.MustCompile(`^[A-Za-z0-9_-][A-Za-z0-9_.-]*$`)

// Engine manages the completed builds under a data directory and runs new builds
// in the background. It implements services.IndexManager and services.JobManager.
type Engine struct {
	mu         sync.RWMutex
	indexes    map[string]*IndexInstance
	building   map[string]string // index name -> job ID of the build in progress
	dataDir    string
	sourceRoot string // empty allows any source directory
	jobManager *jobs.Manager
}

// Option configures an Engine.
type Option func(*Engine)

// WithSourceRoot confines build source directories to root and its subdirectories.
func WithSourceRoot(root string) Option {
	return func(e *Engine) {
		resolved, err := resolveDir(root)
		if err != nil {
			log.Printf("Warning: Could not resolve source root %s: %v. Using it as given.", root, err)
			resolved = filepath.Clean(root)
		}
		e.sourceRoot = resolved
	}
}

// NewEngine creates an engine over dataDir and loads every completed build found there.
func NewEngine(dataDir string, opts ...Option) *Engine {
	eng := &Engine{
		indexes:    make(map[string]*IndexInstance),
		building:   make(map[string]string),
		dataDir:    dataDir,
		jobManager: jobs.NewManager(maxWorkers),
	}
	for _, opt := range opts {
		opt(eng)
	}
	if err := os.MkdirAll(dataDir, dataDirPerm); err != nil {
		log.Printf("Warning: Could not create data directory %s: %v. New builds will fail.", dataDir, err)
	}
	eng.loadIndexesFromDisk()
	eng.jobManager.Start()
	return eng
}

// Stop cancels running builds and waits for them to return.
func (e *Engine) Stop() {
	e.jobManager.Stop()
}

// ValidateIndexName checks that name can be used as a directory name under the data directory.
func ValidateIndexName(name string) error {
	if name == "" {
		return errors.NewValidationError("name", "index name cannot be empty")
	}
	if !indexNameRegex.MatchString(name) {
		return errors.NewValidationError("name", fmt.Sprintf("index name %q may only contain letters, digits, '_', '-' and '.'", name))
	}
	return nil
}

// SourceRoot returns the directory build sources are confined to, or "" when unrestricted.
func (e *Engine) SourceRoot() string {
	return e.sourceRoot
}

// resolveSourceDirs makes every directory absolute and, when a source root is
// set, rejects directories that resolve outside of it.
func (e *Engine) resolveSourceDirs(dirs []string) ([]string, error) {
	resolved := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		if e.sourceRoot == "" {
			abs, err := filepath.Abs(dir)
			if err != nil {
				return nil, errors.NewValidationError("source_dirs", fmt.Sprintf("invalid source directory %q: %v", dir, err))
			}
			resolved = append(resolved, abs)
			continue
		}

		resolvedDir, err := resolveDir(dir)
		if err != nil {
			return nil, errors.NewValidationError("source_dirs", fmt.Sprintf("source directory %q cannot be read", dir))
		}
		rel, err := filepath.Rel(e.sourceRoot, resolvedDir)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, errors.NewValidationError("source_dirs", fmt.Sprintf("source directory %q is outside the source root", dir))
		}
		resolved = append(resolved, resolvedDir)
	}
	return resolved, nil
}

// resolveDir returns the absolute, symlink-free form of dir.
func resolveDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// GetIndex returns the opened index with the given name.
func (e *Engine) GetIndex(name string) (services.IndexAccessor, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	instance, exists := e.indexes[name]
	if !exists {
		return nil, errors.NewIndexNotFoundError(name)
	}
	return instance, nil
}

// ListIndexes returns the manifests of all completed builds, sorted by name.
func (e *Engine) ListIndexes() []model.BuildManifest {
	e.mu.RLock()
	defer e.mu.RUnlock()

	manifests := make([]model.BuildManifest, 0, len(e.indexes))
	for _, instance := range e.indexes {
		manifests = append(manifests, instance.manifest)
	}
	sort.Slice(manifests, func(i, j int) bool {
		return manifests[i].Name < manifests[j].Name
	})
	return manifests
}

// DeleteIndex removes a completed build and its files.
func (e *Engine) DeleteIndex(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.indexes[name]; !exists {
		return errors.NewIndexNotFoundError(name)
	}
	if jobID, busy := e.building[name]; busy {
		return errors.NewBuildInProgressError(name, jobID)
	}

	indexPath := filepath.Join(e.dataDir, name)
	if err := os.RemoveAll(indexPath); err != nil {
		return fmt.Errorf("failed to remove data for index %s: %w", name, err)
	}
	delete(e.indexes, name)
	log.Printf("Index '%s' deleted.", name)
	return nil
}

// GetJob retrieves a job by ID.
func (e *Engine) GetJob(jobID string) (*model.Job, error) {
	return e.jobManager.GetJob(jobID)
}

// ListJobs returns jobs for an index, optionally filtered by status.
func (e *Engine) ListJobs(indexName string, status *model.JobStatus) []*model.Job {
	return e.jobManager.ListJobs(indexName, status)
}

// CancelJob requests cancellation of a build job.
func (e *Engine) CancelJob(jobID string) error {
	return e.jobManager.CancelJob(jobID)
}

// GetJobMetrics returns job performance metrics.
func (e *Engine) GetJobMetrics() jobs.JobMetricsData {
	return e.jobManager.GetMetrics()
}

// GetJobSuccessRate returns the overall job success rate.
func (e *Engine) GetJobSuccessRate() float64 {
	return e.jobManager.GetJobSuccessRate()
}

// GetCurrentWorkload returns the number of unfinished jobs.
func (e *Engine) GetCurrentWorkload() int64 {
	return e.jobManager.GetCurrentWorkload()
}
