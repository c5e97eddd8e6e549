package errors

import (
	"fmt"
)

type ErrorType string

const (
	ValidationError ErrorType = "VALIDATION_ERROR"
	ResolutionError ErrorType = "RESOLUTION_ERROR"
	SubprocessError ErrorType = "SUBPROCESS_ERROR"
	ArtifactError   ErrorType = "ARTIFACT_ERROR"
	InternalError   ErrorType = "INTERNAL_ERROR"
)

// AppError represents a custom application error
type AppError struct {
	Type    ErrorType              `json:"type"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"` // Internal error, not exposed in JSON
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Helper functions to create specific error types
func NewValidationError(msg string, details map[string]interface{}) *AppError {
	return &AppError{
		Type:    ValidationError,
		Message: msg,
		Details: details,
	}
}

func NewResolutionError(msg string, details map[string]interface{}) *AppError {
	return &AppError{
		Type:    ResolutionError,
		Message: msg,
		Details: details,
	}
}

func NewSubprocessError(msg string, err error, details map[string]interface{}) *AppError {
	return &AppError{
		Type:    SubprocessError,
		Message: msg,
		Details: details,
		Err:     err,
	}
}

func NewArtifactError(msg string, details map[string]interface{}) *AppError {
	return &AppError{
		Type:    ArtifactError,
		Message: msg,
		Details: details,
	}
}

func NewInternalError(msg string, err error, details map[string]interface{}) *AppError {
	return &AppError{
		Type:    InternalError,
		Message: msg,
		Details: details,
		Err:     err,
	}
}

func IsType(err error, target ErrorType) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Type == target
	}
	return false
}
