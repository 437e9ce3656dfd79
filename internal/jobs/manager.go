package jobs

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gcbaptista/go-prefix-index/internal/errors"
	"github.com/gcbaptista/go-prefix-index/model"
)

// JobFunc is the body of a background job. It should return promptly once ctx is done.
type JobFunc func(ctx context.Context, job *model.Job) error

// Manager handles background job execution and tracking
type Manager struct {
	mu      sync.RWMutex
	jobs    map[string]*model.Job
	cancels map[string]context.CancelFunc
	workers chan struct{} // Limits concurrent jobs
	ctx     context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup
	metrics *JobMetrics
}

// NewManager creates a new job manager with specified worker count
func NewManager(maxWorkers int) *Manager {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Manager{
		jobs:    make(map[string]*model.Job),
		cancels: make(map[string]context.CancelFunc),
		workers: make(chan struct{}, maxWorkers),
		ctx:     ctx,
		stop:    stop,
		metrics: NewJobMetrics(),
	}
}

// Start begins background cleanup of finished jobs
func (m *Manager) Start() {
	log.Printf("Job manager started with %d max workers", cap(m.workers))
	go m.cleanupRoutine()
}

// Stop cancels running jobs and waits for them to return
func (m *Manager) Stop() {
	m.stop()
	m.wg.Wait()
	log.Printf("Job manager stopped")
}

// CreateJob creates a new pending job and returns its ID
func (m *Manager) CreateJob(jobType model.JobType, indexName string, metadata map[string]string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	job := &model.Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Status:    model.JobStatusPending,
		IndexName: indexName,
		CreatedAt: time.Now(),
		Metadata:  metadata,
	}

	m.jobs[job.ID] = job
	m.metrics.RecordJobCreated(jobType)
	log.Printf("Created job %s (type: %s) for index '%s'", job.ID, job.Type, job.IndexName)
	return job.ID
}

// GetJob returns a copy of the job with the given ID
func (m *Manager) GetJob(jobID string) (*model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return nil, errors.NewJobNotFoundError(jobID)
	}
	return copyJob(job), nil
}

// ListJobs returns the jobs of one index, optionally filtered by status.
// An empty indexName lists the jobs of every index.
func (m *Manager) ListJobs(indexName string, status *model.JobStatus) []*model.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*model.Job, 0)
	for _, job := range m.jobs {
		if indexName != "" && job.IndexName != indexName {
			continue
		}
		if status != nil && job.Status != *status {
			continue
		}
		result = append(result, copyJob(job))
	}
	return result
}

func copyJob(job *model.Job) *model.Job {
	jobCopy := *job
	if job.Progress != nil {
		progressCopy := *job.Progress
		jobCopy.Progress = &progressCopy
	}
	return &jobCopy
}

// ExecuteJob runs a pending job in a goroutine once a worker slot is free
func (m *Manager) ExecuteJob(jobID string, jobFunc JobFunc) error {
	m.mu.Lock()
	job, exists := m.jobs[jobID]
	if !exists {
		m.mu.Unlock()
		return errors.NewJobNotFoundError(jobID)
	}
	if job.Status != model.JobStatusPending {
		m.mu.Unlock()
		return fmt.Errorf("job with ID '%s' is not in pending status (current: %s)", jobID, job.Status)
	}
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancels[jobID] = cancel
	jobType := job.Type
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer cancel()

		select {
		case m.workers <- struct{}{}:
		case <-ctx.Done():
			m.finishJob(jobID, model.JobStatusCancelled, "job cancelled before it started")
			return
		}
		defer func() { <-m.workers }()

		m.markRunning(jobID)
		startTime := time.Now()
		err := jobFunc(ctx, m.snapshot(jobID))
		executionTime := time.Since(startTime)

		switch {
		case err != nil && ctx.Err() != nil:
			m.finishJob(jobID, model.JobStatusCancelled, err.Error())
			log.Printf("Job %s cancelled after %v", jobID, executionTime)
		case err != nil:
			m.finishJob(jobID, model.JobStatusFailed, err.Error())
			m.metrics.RecordJobFailed(jobType)
			log.Printf("Job %s failed after %v: %v", jobID, executionTime, err)
		default:
			m.finishJob(jobID, model.JobStatusCompleted, "")
			m.metrics.RecordJobCompleted(jobType, executionTime)
			log.Printf("Job %s completed successfully in %v", jobID, executionTime)
		}
	}()

	return nil
}

// CancelJob requests cancellation of a pending or running job
func (m *Manager) CancelJob(jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return errors.NewJobNotFoundError(jobID)
	}
	if job.Status.IsTerminal() {
		return fmt.Errorf("job with ID '%s' already finished (status: %s)", jobID, job.Status)
	}
	if cancel, ok := m.cancels[jobID]; ok {
		m.metrics.RecordJobStatusChange(job.Status, model.JobStatusCancelling)
		job.Status = model.JobStatusCancelling
		cancel()
	}
	return nil
}

// UpdateJobProgress updates the progress of a running job
func (m *Manager) UpdateJobProgress(jobID string, current, total int, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return
	}
	if job.Progress == nil {
		job.Progress = &model.JobProgress{}
	}
	job.Progress.Current = current
	job.Progress.Total = total
	job.Progress.Message = message
}

func (m *Manager) snapshot(jobID string) *model.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyJob(m.jobs[jobID])
}

func (m *Manager) markRunning(jobID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job := m.jobs[jobID]
	if job.Status != model.JobStatusPending {
		return
	}
	m.metrics.RecordJobStatusChange(job.Status, model.JobStatusRunning)
	job.Status = model.JobStatusRunning
	now := time.Now()
	job.StartedAt = &now
}

func (m *Manager) finishJob(jobID string, status model.JobStatus, errorMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.cancels, jobID)
	job, exists := m.jobs[jobID]
	if !exists {
		return
	}

	m.metrics.RecordJobStatusChange(job.Status, status)
	job.Status = status
	if errorMsg != "" {
		job.Error = errorMsg
	}
	now := time.Now()
	job.CompletedAt = &now
}

// cleanupRoutine runs periodic job cleanup
func (m *Manager) cleanupRoutine() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.CleanupOldJobs(24 * time.Hour)
		case <-m.ctx.Done():
			return
		}
	}
}

// CleanupOldJobs removes finished jobs older than maxAge
func (m *Manager) CleanupOldJobs(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	cleaned := 0
	for jobID, job := range m.jobs {
		if job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(m.jobs, jobID)
			cleaned++
		}
	}

	if cleaned > 0 {
		log.Printf("Cleaned up %d old jobs", cleaned)
	}
}

// GetMetrics returns current job performance metrics
func (m *Manager) GetMetrics() JobMetricsData {
	return m.metrics.GetMetrics()
}

// GetJobSuccessRate returns the overall job success rate
func (m *Manager) GetJobSuccessRate() float64 {
	return m.metrics.GetSuccessRate()
}

// GetCurrentWorkload returns the number of pending and running jobs
func (m *Manager) GetCurrentWorkload() int64 {
	return m.metrics.GetCurrentWorkload()
}
