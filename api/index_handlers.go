package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-prefix-index/services"
)

// BuildIndexHandler starts a background build.
// Request Body: services.BuildRequest
func (api *API) BuildIndexHandler(c *gin.Context) {
	var req services.BuildRequest

	if result := ValidateJSONBinding(c, &req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	if result := ValidateBuildRequest(&req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	jobID, err := api.engine.BuildIndexAsync(req)
	if err != nil {
		SendEngineError(c, "build index", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "accepted",
		"message": "Index build started for '" + req.Name + "'",
		"job_id":  jobID,
	})
}

// ListIndexesHandler lists the manifests of all completed builds.
func (api *API) ListIndexesHandler(c *gin.Context) {
	manifests := api.engine.ListIndexes()
	c.JSON(http.StatusOK, gin.H{"indexes": manifests, "count": len(manifests)})
}

// GetIndexHandler returns the manifest of one completed build.
func (api *API) GetIndexHandler(c *gin.Context) {
	indexName := c.Param("indexName")
	indexAccessor, err := api.engine.GetIndex(indexName)
	if err != nil {
		SendEngineError(c, "get index", err)
		return
	}
	c.JSON(http.StatusOK, indexAccessor.Manifest())
}

// DeleteIndexHandler deletes a completed build and its output files.
func (api *API) DeleteIndexHandler(c *gin.Context) {
	indexName := c.Param("indexName")

	if err := api.engine.DeleteIndex(indexName); err != nil {
		SendEngineError(c, "delete index", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Index '" + indexName + "' deleted"})
}
