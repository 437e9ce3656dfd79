package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-prefix-index/internal/engine"
	"github.com/gcbaptista/go-prefix-index/model"
	"github.com/gcbaptista/go-prefix-index/services"
)

// GetJobHandler handles requests to get job status by ID
func (api *API) GetJobHandler(c *gin.Context) {
	jobID := c.Param("jobId")

	jobManager, ok := api.engine.(services.JobManager)
	if !ok {
		SendError(c, http.StatusNotImplemented, ErrorCodeNotSupported, "Job management not supported by this engine")
		return
	}

	job, err := jobManager.GetJob(jobID)
	if err != nil {
		SendEngineError(c, "get job", err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// CancelJobHandler requests cancellation of a pending or running job
func (api *API) CancelJobHandler(c *gin.Context) {
	jobID := c.Param("jobId")

	jobManager, ok := api.engine.(services.JobManager)
	if !ok {
		SendError(c, http.StatusNotImplemented, ErrorCodeNotSupported, "Job management not supported by this engine")
		return
	}

	job, err := jobManager.GetJob(jobID)
	if err != nil {
		SendEngineError(c, "cancel job", err)
		return
	}
	if job.Status.IsTerminal() {
		SendError(c, http.StatusConflict, ErrorCodeConflict, "Job '"+jobID+"' already finished with status "+string(job.Status))
		return
	}

	if err := jobManager.CancelJob(jobID); err != nil {
		SendEngineError(c, "cancel job", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"status":  "accepted",
		"message": "Cancellation requested for job '" + jobID + "'",
		"job_id":  jobID,
	})
}

// ListJobsHandler handles requests to list jobs for an index
func (api *API) ListJobsHandler(c *gin.Context) {
	indexName := c.Param("indexName")
	statusParam := c.Query("status")

	var statusFilter *model.JobStatus
	if statusParam != "" {
		status := model.JobStatus(statusParam)
		statusFilter = &status
	}

	jobManager, ok := api.engine.(services.JobManager)
	if !ok {
		SendError(c, http.StatusNotImplemented, ErrorCodeNotSupported, "Job management not supported by this engine")
		return
	}

	jobs := jobManager.ListJobs(indexName, statusFilter)
	c.JSON(http.StatusOK, gin.H{
		"jobs":       jobs,
		"index_name": indexName,
		"total":      len(jobs),
	})
}

// GetJobMetricsHandler handles requests to get job performance metrics
func (api *API) GetJobMetricsHandler(c *gin.Context) {
	engineWithMetrics, ok := api.engine.(*engine.Engine)
	if !ok {
		SendError(c, http.StatusNotImplemented, ErrorCodeNotSupported, "Job metrics not supported by this engine")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"metrics":          engineWithMetrics.GetJobMetrics(),
		"success_rate":     engineWithMetrics.GetJobSuccessRate(),
		"current_workload": engineWithMetrics.GetCurrentWorkload(),
	})
}
