package engine

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gcbaptista/go-prefix-index/config"
	"github.com/gcbaptista/go-prefix-index/internal/errors"
	"github.com/gcbaptista/go-prefix-index/internal/prefixindex"
	"github.com/gcbaptista/go-prefix-index/internal/source/ri"
	"github.com/gcbaptista/go-prefix-index/model"
	"github.com/gcbaptista/go-prefix-index/services"
)

// RunBuild feeds every ri document below sourceDirs into a new builder and finishes it.
// Source files that cannot be loaded are counted in BuildStats.BadSources.
func RunBuild(ctx context.Context, settings config.BuildSettings, sourceDirs []string, opts ...prefixindex.Option) (*model.BuildStats, error) {
	return runBuild(ctx, ri.NewExtractor(), settings, sourceDirs, opts...)
}

func runBuild(ctx context.Context, extractor *ri.Extractor, settings config.BuildSettings, sourceDirs []string, opts ...prefixindex.Option) (*model.BuildStats, error) {
	builder, err := prefixindex.NewBuilder(settings, opts...)
	if err != nil {
		return nil, err
	}

	sourceStats, err := extractor.Walk(ctx, sourceDirs, builder.AddDocument)
	if err != nil {
		return nil, fmt.Errorf("failed to read documents: %w", err)
	}
	log.Printf("BAD files: %d", sourceStats.Bad)

	stats, err := builder.Finish(ctx)
	if err != nil {
		return nil, err
	}
	stats.BadSources = sourceStats.Bad
	return stats, nil
}

// BuildIndexAsync validates req and starts a background build job. Building an
// existing name replaces it once the new build completes.
func (e *Engine) BuildIndexAsync(req services.BuildRequest) (string, error) {
	if err := ValidateIndexName(req.Name); err != nil {
		return "", err
	}
	if len(req.SourceDirs) == 0 {
		return "", errors.NewValidationError("source_dirs", "at least one source directory is required")
	}
	sourceDirs, err := e.resolveSourceDirs(req.SourceDirs)
	if err != nil {
		return "", err
	}
	req.SourceDirs = sourceDirs
	settings := e.settingsFor(req)
	if problems := settings.Validate(); len(problems) > 0 {
		return "", errors.NewValidationError("settings", strings.Join(problems, "; "))
	}

	e.mu.Lock()
	if jobID, busy := e.building[req.Name]; busy {
		e.mu.Unlock()
		return "", errors.NewBuildInProgressError(req.Name, jobID)
	}
	jobID := e.jobManager.CreateJob(model.JobTypeBuildIndex, req.Name, map[string]string{
		"source_dirs": strings.Join(req.SourceDirs, ","),
	})
	e.building[req.Name] = jobID
	e.mu.Unlock()

	err = e.jobManager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error {
		defer e.clearBuilding(req.Name, job.ID)
		return e.executeBuildJob(ctx, req, settings, job.ID)
	})
	if err != nil {
		e.clearBuilding(req.Name, jobID)
		return "", fmt.Errorf("failed to start build job: %w", err)
	}
	return jobID, nil
}

func (e *Engine) settingsFor(req services.BuildRequest) config.BuildSettings {
	settings := config.BuildSettings{
		Name:      req.Name,
		OutputDir: filepath.Join(e.dataDir, req.Name),
		MaxPrefix: req.MaxPrefix,
		BatchSize: req.BatchSize,
	}
	settings.ApplyDefaults()
	return settings
}

func (e *Engine) clearBuilding(name, jobID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.building[name] == jobID {
		delete(e.building, name)
	}
}

// executeBuildJob runs one build, persists its manifest and swaps in the new instance.
func (e *Engine) executeBuildJob(ctx context.Context, req services.BuildRequest, settings config.BuildSettings, jobID string) error {
	e.jobManager.UpdateJobProgress(jobID, 0, 100, "Reading documents")
	progress := func(percent int) {
		e.jobManager.UpdateJobProgress(jobID, percent, 100, "Extracting suffixes")
	}

	extractor := ri.NewExtractor()
	extractor.SkipSymlinks = e.sourceRoot != ""
	stats, err := runBuild(ctx, extractor, settings, req.SourceDirs, prefixindex.WithProgress(progress))
	if err != nil {
		return err
	}

	manifest := model.BuildManifest{
		ID:           uuid.New().String(),
		Name:         req.Name,
		SourceDirs:   req.SourceDirs,
		FulltextFile: settings.FulltextFile,
		IndexFile:    settings.IndexFile,
		SuffixesFile: settings.SuffixesFile,
		MaxPrefix:    settings.MaxPrefix,
		Stats:        *stats,
		CompletedAt:  time.Now(),
	}
	if err := saveManifest(settings.OutputDir, manifest); err != nil {
		return err
	}

	instance, err := openInstance(settings.OutputDir, manifest)
	if err != nil {
		return fmt.Errorf("failed to open built index %s: %w", req.Name, err)
	}

	e.mu.Lock()
	e.indexes[req.Name] = instance
	e.mu.Unlock()

	e.jobManager.UpdateJobProgress(jobID, 100, 100, fmt.Sprintf("Indexed %d suffixes from %d documents", stats.Suffixes, stats.Documents))
	log.Printf("Index '%s' built: %d documents, %d suffixes, %d bad source files.", req.Name, stats.Documents, stats.Suffixes, stats.BadSources)
	return nil
}
