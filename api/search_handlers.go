package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-prefix-index/model"
)

// SearchRequest holds the query parameters of a prefix search.
type SearchRequest struct {
	Query string `form:"q"`
	Limit int    `form:"limit"`
}

// SearchHandler answers a prefix query against one completed build.
// Query parameters: q (required), limit (optional, default 20)
func (api *API) SearchHandler(c *gin.Context) {
	indexName := c.Param("indexName")

	if result := ValidateIndexName(indexName); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	var req SearchRequest
	if result := ValidateQueryBinding(c, &req); result.HasErrors() {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidQuery, result.Errors[0].Message)
		return
	}

	limit, result := ValidateSearchParams(req.Query, req.Limit)
	if result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	indexAccessor, err := api.engine.GetIndex(indexName)
	if err != nil {
		SendEngineError(c, "search", err)
		return
	}

	startTime := time.Now()
	results := indexAccessor.Search(req.Query, limit)
	api.analytics.TrackSearchEvent(model.SearchEvent{
		IndexName:    indexName,
		Query:        req.Query,
		ResponseTime: time.Since(startTime),
		ResultCount:  results.Total,
	})
	log.Printf("Search on '%s' for %q: %d hits in %dms (query_id=%s)", indexName, req.Query, results.Total, results.Took, results.QueryId)
	c.JSON(http.StatusOK, results)
}
