// Package api provides validation utilities for API request handling.
package api

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-prefix-index/internal/engine"
	"github.com/gcbaptista/go-prefix-index/services"
)

// MaxSearchLimit caps the number of hits a single search may return.
const MaxSearchLimit = 1000

// DefaultSearchLimit applies when a search does not specify a limit.
const DefaultSearchLimit = 20

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of validation operations
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// AddError adds a validation error to the result
func (vr *ValidationResult) AddError(field, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// ValidateIndexName validates an index name parameter
func ValidateIndexName(indexName string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if indexName == "" {
		result.AddError("indexName", "Index name is required")
		return result
	}

	if err := engine.ValidateIndexName(indexName); err != nil {
		result.AddError("indexName", err.Error())
	}

	return result
}

// ValidateBuildRequest validates a build request before it reaches the engine
func ValidateBuildRequest(req *services.BuildRequest) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if req.Name == "" {
		result.AddError("name", "Index name is required")
	} else if err := engine.ValidateIndexName(req.Name); err != nil {
		result.AddError("name", err.Error())
	}

	if len(req.SourceDirs) == 0 {
		result.AddError("source_dirs", "At least one source directory is required")
	}
	for _, dir := range req.SourceDirs {
		if strings.TrimSpace(dir) == "" {
			result.AddError("source_dirs", "Source directories cannot be empty")
			break
		}
	}

	if req.MaxPrefix < 0 {
		result.AddError("max_prefix", "Max prefix cannot be negative")
	}
	if req.BatchSize < 0 {
		result.AddError("batch_size", "Batch size cannot be negative")
	}

	return result
}

// ValidateSearchParams validates a search query and returns the limit to use
func ValidateSearchParams(query string, limit int) (int, *ValidationResult) {
	result := &ValidationResult{Valid: true}

	if query == "" {
		result.AddError("q", "Query is required")
	}

	if limit < 0 {
		result.AddError("limit", "Limit cannot be negative")
	}
	if limit == 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	return limit, result
}

// ValidateJSONBinding validates JSON binding and returns a standardized error
func ValidateJSONBinding(c *gin.Context, target interface{}) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if err := c.ShouldBindJSON(target); err != nil {
		result.AddError("request_body", "Invalid request body: "+err.Error())
	}

	return result
}

// ValidateQueryBinding validates query parameter binding
func ValidateQueryBinding(c *gin.Context, target interface{}) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if err := c.ShouldBindQuery(target); err != nil {
		result.AddError("query_parameters", "Invalid query parameters: "+err.Error())
	}

	return result
}
