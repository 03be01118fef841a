package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrNotFound indicates that a requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that the input data is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSourceUnavailable indicates that an external content source failed.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrWorkflowFailed indicates that a workflow run ended in failure.
	ErrWorkflowFailed = errors.New("workflow failed")
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NotFoundError provides details about a not found entity.
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// SourceAPIError provides details about an external content API failure.
type SourceAPIError struct {
	Source     string
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *SourceAPIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s API error (status %d): %s", e.Source, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s API error: %s", e.Source, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *SourceAPIError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return ErrSourceUnavailable
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// NewSourceAPIError creates a new SourceAPIError.
func NewSourceAPIError(source string, statusCode int, message string, cause error) *SourceAPIError {
	return &SourceAPIError{
		Source:     source,
		StatusCode: statusCode,
		Message:    message,
		Cause:      cause,
	}
}
