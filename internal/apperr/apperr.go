// Package apperr provides a lightweight structured error type for
// category-based classification and retry semantics across the build and
// deploy pipeline. Core packages return these; the CLI boundary is the only
// place they are turned into user-facing messages.
package apperr

import (
	"errors"
	"fmt"
)

// Category classifies an error for handling decisions at the boundary.
type Category string

const (
	// User-facing configuration and input errors.
	CategoryConfig     Category = "config"
	CategoryValidation Category = "validation"

	// External system integration errors.
	CategoryNetwork Category = "network"
	CategoryDeploy  Category = "deploy"
	CategoryContent Category = "content"

	// Build and processing errors.
	CategoryRender     Category = "render"
	CategoryStorage    Category = "storage"
	CategoryFileSystem Category = "filesystem"

	CategoryInternal Category = "internal"
)

// Severity indicates how critical an error is.
type Severity string

const (
	SeverityFatal   Severity = "fatal"   // Stops execution
	SeverityError   Severity = "error"   // Error, but not fatal
	SeverityWarning Severity = "warning" // Continues with degraded functionality
)

// ContextFields carries structured context for an Error.
type ContextFields map[string]any

// Error is a structured error with category, retryability, and context.
type Error struct {
	Category  Category      `json:"category"`
	Severity  Severity      `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new Error.
func New(category Category, severity Severity, message string) *Error {
	return &Error{Category: category, Severity: severity, Message: message}
}

// Wrap creates a new Error that wraps an existing error.
func Wrap(err error, category Category, severity Severity, message string) *Error {
	return &Error{Category: category, Severity: severity, Message: message, Cause: err}
}

// WrapRetryable creates a new retryable Error that wraps an existing error.
func WrapRetryable(err error, category Category, severity Severity, message string) *Error {
	return &Error{Category: category, Severity: severity, Message: message, Cause: err, Retryable: true}
}

// ValidationError creates a precondition/validation error. Always safe to
// retry after fixing the precondition; no partial state change occurred.
func ValidationError(message string) *Error {
	return &Error{Category: CategoryValidation, Severity: SeverityWarning, Message: message}
}

// ConfigError creates a configuration error.
func ConfigError(message string) *Error {
	return &Error{Category: CategoryConfig, Severity: SeverityError, Message: message}
}

// IsCategory checks if an error belongs to a specific category.
func IsCategory(err error, category Category) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Category == category
	}
	return false
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// GetCategory extracts the category from an error, or CategoryInternal if
// the error is not an *Error.
func GetCategory(err error) Category {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return CategoryInternal
}
