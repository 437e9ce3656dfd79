package jobs

import (
	"sync"
	"time"

	"github.com/gcbaptista/go-prefix-index/model"
)

// JobMetricsData is a point-in-time copy of the job counters
type JobMetricsData struct {
	JobsCreated          int64                     `json:"jobs_created"`
	JobsCompleted        int64                     `json:"jobs_completed"`
	JobsFailed           int64                     `json:"jobs_failed"`
	TotalExecutionTime   time.Duration             `json:"total_execution_time_ns"`
	AverageExecutionTime time.Duration             `json:"average_execution_time_ns"`
	JobsByType           map[model.JobType]int64   `json:"jobs_by_type"`
	JobsByStatus         map[model.JobStatus]int64 `json:"jobs_by_status"`
	LastUpdated          time.Time                 `json:"last_updated"`
}

// JobMetrics tracks job counters and execution time
type JobMetrics struct {
	mu   sync.RWMutex
	data JobMetricsData
}

// NewJobMetrics creates a new metrics collector
func NewJobMetrics() *JobMetrics {
	return &JobMetrics{data: JobMetricsData{
		JobsByType:   make(map[model.JobType]int64),
		JobsByStatus: make(map[model.JobStatus]int64),
		LastUpdated:  time.Now(),
	}}
}

// RecordJobCreated increments job creation counter
func (m *JobMetrics) RecordJobCreated(jobType model.JobType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data.JobsCreated++
	m.data.JobsByType[jobType]++
	m.data.JobsByStatus[model.JobStatusPending]++
	m.data.LastUpdated = time.Now()
}

// RecordJobStatusChange moves one job between status counters
func (m *JobMetrics) RecordJobStatusChange(oldStatus, newStatus model.JobStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if oldStatus != "" && m.data.JobsByStatus[oldStatus] > 0 {
		m.data.JobsByStatus[oldStatus]--
	}
	m.data.JobsByStatus[newStatus]++
	m.data.LastUpdated = time.Now()
}

// RecordJobCompleted records successful job completion
func (m *JobMetrics) RecordJobCompleted(jobType model.JobType, executionTime time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data.JobsCompleted++
	m.data.TotalExecutionTime += executionTime
	m.data.AverageExecutionTime = m.data.TotalExecutionTime / time.Duration(m.data.JobsCompleted)
	m.data.LastUpdated = time.Now()
}

// RecordJobFailed records job failure
func (m *JobMetrics) RecordJobFailed(jobType model.JobType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data.JobsFailed++
	m.data.LastUpdated = time.Now()
}

// GetMetrics returns a deep copy of the current metrics
func (m *JobMetrics) GetMetrics() JobMetricsData {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := m.data
	out.JobsByType = make(map[model.JobType]int64, len(m.data.JobsByType))
	for k, v := range m.data.JobsByType {
		out.JobsByType[k] = v
	}
	out.JobsByStatus = make(map[model.JobStatus]int64, len(m.data.JobsByStatus))
	for k, v := range m.data.JobsByStatus {
		out.JobsByStatus[k] = v
	}
	return out
}

// GetSuccessRate returns the success rate (0.0 to 1.0)
func (m *JobMetrics) GetSuccessRate() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	finished := m.data.JobsCompleted + m.data.JobsFailed
	if finished == 0 {
		return 1.0 // No jobs yet, assume 100% success
	}
	return float64(m.data.JobsCompleted) / float64(finished)
}

// GetCurrentWorkload returns the number of jobs that have not finished yet
func (m *JobMetrics) GetCurrentWorkload() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.data.JobsByStatus[model.JobStatusPending] +
		m.data.JobsByStatus[model.JobStatusRunning] +
		m.data.JobsByStatus[model.JobStatusCancelling]
}
