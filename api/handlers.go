package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-prefix-index/internal/analytics"
	"github.com/gcbaptista/go-prefix-index/services"
)

// MaxRequestBodySize bounds build request bodies.
const MaxRequestBodySize = 1 << 20

// API holds dependencies for API handlers, primarily the index engine.
type API struct {
	engine    services.IndexManager
	analytics *analytics.Service
}

// NewAPI creates a new API handler structure.
func NewAPI(engine services.IndexManager, analyticsService *analytics.Service) *API {
	return &API{
		engine:    engine,
		analytics: analyticsService,
	}
}

// SetupRoutes defines all the API routes with in-memory search analytics.
func SetupRoutes(router *gin.Engine, engine services.IndexManager) {
	SetupRoutesWithAnalytics(router, engine, analytics.NewService(engine, ""))
}

// SetupRoutesWithAnalytics defines all the API routes for the index builder service.
func SetupRoutesWithAnalytics(router *gin.Engine, engine services.IndexManager, analyticsService *analytics.Service) {
	apiHandler := NewAPI(engine, analyticsService)

	router.Use(RequestIDMiddleware())
	router.Use(CORSMiddleware())
	router.Use(RequestSizeLimitMiddleware(MaxRequestBodySize))

	// Health check route
	router.GET("/health", apiHandler.HealthCheckHandler)

	// Analytics route
	router.GET("/analytics", apiHandler.GetAnalyticsHandler)

	// Build route
	router.POST("/builds", apiHandler.BuildIndexHandler)

	// Job management routes
	jobRoutes := router.Group("/jobs")
	{
		jobRoutes.GET("/metrics", apiHandler.GetJobMetricsHandler)    // Get job performance metrics
		jobRoutes.GET("/:jobId", apiHandler.GetJobHandler)            // Get job status by ID
		jobRoutes.POST("/:jobId/cancel", apiHandler.CancelJobHandler) // Cancel a pending or running job
	}

	// Index routes
	indexRoutes := router.Group("/indexes")
	{
		indexRoutes.GET("", apiHandler.ListIndexesHandler)               // List completed builds
		indexRoutes.GET("/:indexName", apiHandler.GetIndexHandler)       // Get the build manifest
		indexRoutes.DELETE("/:indexName", apiHandler.DeleteIndexHandler) // Delete a build and its files
		indexRoutes.GET("/:indexName/jobs", apiHandler.ListJobsHandler)  // List jobs for an index
		indexRoutes.GET("/:indexName/search", apiHandler.SearchHandler)  // Prefix query
	}
}

// HealthCheckHandler provides a simple health check endpoint
func (api *API) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "go-prefix-index",
		"timestamp": fmt.Sprintf("%d", time.Now().Unix()),
	})
}
