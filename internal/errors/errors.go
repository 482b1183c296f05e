// Package errors defines the structured error taxonomy shared by the sheet
// pipeline and the batch coordinator.
//
// Geometry and decode failures are normally represented as sheet state rather
// than returned errors; the types exist so that callers crossing a task
// boundary can still classify what went wrong with IsType.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeGeometryNotFound     ErrorType = "geometry_not_found"
	ErrorTypeDecodeAbsent         ErrorType = "decode_absent"
	ErrorTypeRectificationAborted ErrorType = "rectification_aborted"
	ErrorTypeResourceMisuse       ErrorType = "resource_misuse"
	ErrorTypeTaskFailure          ErrorType = "task_failure"
	ErrorTypeInvalidInput         ErrorType = "invalid_input"
)

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewGeometryNotFoundError reports that four usable fiducials could not be located.
func NewGeometryNotFoundError(message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeGeometryNotFound, Message: message, Cause: cause}
}

// NewDecodeAbsentError reports that no template barcode was found.
func NewDecodeAbsentError(message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeDecodeAbsent, Message: message, Cause: cause}
}

// NewRectificationError reports that rectification stopped without committing.
func NewRectificationError(message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeRectificationAborted, Message: message, Cause: cause}
}

// NewResourceMisuseError reports use of a released buffer or sheet.
func NewResourceMisuseError(message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeResourceMisuse, Message: message, Cause: cause}
}

// NewTaskFailureError reports an unexpected fault inside a worker task.
func NewTaskFailureError(message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeTaskFailure, Message: message, Cause: cause}
}

// NewInvalidInputError reports bad configuration or arguments.
func NewInvalidInputError(message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeInvalidInput, Message: message, Cause: cause}
}

// IsType checks if the error, or any error it wraps, is an AppError of the given type.
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// TypeOf returns the type of the outermost AppError in the chain, or "" if none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}
