package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// ErrIndexNotFound is returned when a completed build is not found
	ErrIndexNotFound = errors.New("index not found")

	// ErrBuildInProgress is returned when a build name is already being built
	ErrBuildInProgress = errors.New("build in progress")

	// ErrJobNotFound is returned when a job is not found
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidIdentifier is returned when a document identifier cannot be framed by a boundary marker
	ErrInvalidIdentifier = errors.New("invalid document identifier")

	// ErrCorpusFrozen is returned when documents are added after the build started finishing
	ErrCorpusFrozen = errors.New("corpus is frozen")

	// ErrCorpusTooLarge is returned when a corpus offset does not fit in 32 bits
	ErrCorpusTooLarge = errors.New("corpus too large for 32-bit offsets")

	// ErrOutputFailed is returned when writing one of the build outputs fails
	ErrOutputFailed = errors.New("output write failed")

	// ErrCorruptIndex is returned when an index file cannot be interpreted
	ErrCorruptIndex = errors.New("corrupt index")
)

// IndexNotFoundError represents an index not found error with context
type IndexNotFoundError struct {
	IndexName string
}

func (e *IndexNotFoundError) Error() string {
	return fmt.Sprintf("index named '%s' not found", e.IndexName)
}

func (e *IndexNotFoundError) Is(target error) bool {
	return target == ErrIndexNotFound
}

// NewIndexNotFoundError creates a new IndexNotFoundError
func NewIndexNotFoundError(indexName string) *IndexNotFoundError {
	return &IndexNotFoundError{IndexName: indexName}
}

// BuildInProgressError reports the job that currently holds a build name
type BuildInProgressError struct {
	IndexName string
	JobID     string
}

func (e *BuildInProgressError) Error() string {
	return fmt.Sprintf("index '%s' is already being built by job %s", e.IndexName, e.JobID)
}

func (e *BuildInProgressError) Is(target error) bool {
	return target == ErrBuildInProgress
}

// NewBuildInProgressError creates a new BuildInProgressError
func NewBuildInProgressError(indexName, jobID string) *BuildInProgressError {
	return &BuildInProgressError{IndexName: indexName, JobID: jobID}
}

// JobNotFoundError represents a job not found error with context
type JobNotFoundError struct {
	JobID string
}

func (e *JobNotFoundError) Error() string {
	return fmt.Sprintf("job with ID '%s' not found", e.JobID)
}

func (e *JobNotFoundError) Is(target error) bool {
	return target == ErrJobNotFound
}

// NewJobNotFoundError creates a new JobNotFoundError
func NewJobNotFoundError(jobID string) *JobNotFoundError {
	return &JobNotFoundError{JobID: jobID}
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// InvalidIdentifierError reports a document identifier that would corrupt segment splitting
type InvalidIdentifierError struct {
	Identifier string
	Reason     string
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("document identifier %q rejected: %s", e.Identifier, e.Reason)
}

func (e *InvalidIdentifierError) Is(target error) bool {
	return target == ErrInvalidIdentifier || target == ErrInvalidInput
}

// NewInvalidIdentifierError creates a new InvalidIdentifierError
func NewInvalidIdentifierError(identifier, reason string) *InvalidIdentifierError {
	return &InvalidIdentifierError{Identifier: identifier, Reason: reason}
}

// OutputError wraps an I/O failure on one of the build outputs
type OutputError struct {
	Path string
	Err  error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *OutputError) Is(target error) bool {
	return target == ErrOutputFailed
}

func (e *OutputError) Unwrap() error {
	return e.Err
}

// NewOutputError creates a new OutputError
func NewOutputError(path string, err error) *OutputError {
	return &OutputError{Path: path, Err: err}
}
