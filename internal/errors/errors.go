// Package errors provides a lightweight structured error type (DaemonError)
// for category-based classification and retry semantics in the RPC, HTTP,
// and CLI adapters.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a linkmon error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"

	// External system integration errors
	CategoryNetwork ErrorCategory = "network"
	CategoryProbe   ErrorCategory = "probe"
	CategoryNotify  ErrorCategory = "notify"

	// Runtime and infrastructure errors
	CategoryCapacity ErrorCategory = "capacity"
	CategoryDaemon   ErrorCategory = "daemon"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// DaemonError is a structured error with category, retryability, and context
type DaemonError struct {
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// Build returns the error itself, keeping fluent call sites uniform.
func (e *DaemonError) Build() *DaemonError {
	return e
}

// ContextFields carries structured context for DaemonError
type ContextFields map[string]any

// Error implements the error interface
func (e *DaemonError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *DaemonError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *DaemonError) WithContext(key string, value any) *DaemonError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new DaemonError
func New(category ErrorCategory, severity ErrorSeverity, message string) *DaemonError {
	return &DaemonError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: false,
	}
}

// Wrap creates a new DaemonError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *DaemonError {
	return &DaemonError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: false,
	}
}

// Retryable creates a new retryable DaemonError
func Retryable(category ErrorCategory, severity ErrorSeverity, message string) *DaemonError {
	return &DaemonError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: true,
	}
}

// WrapRetryable creates a new retryable DaemonError that wraps an existing error
func WrapRetryable(err error, category ErrorCategory, severity ErrorSeverity, message string) *DaemonError {
	return &DaemonError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: true,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if de, ok := err.(*DaemonError); ok {
		return de.Category == category
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if de, ok := err.(*DaemonError); ok {
		return de.Retryable
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a DaemonError
func GetCategory(err error) ErrorCategory {
	if de, ok := err.(*DaemonError); ok {
		return de.Category
	}
	return CategoryInternal
}

// ValidationError creates a new validation error
func ValidationError(message string) *DaemonError {
	return &DaemonError{
		Category:  CategoryValidation,
		Severity:  SeverityWarning,
		Message:   message,
		Retryable: false,
	}
}

// DaemonUnavailable creates a new daemon error (service unavailable)
func DaemonUnavailable(message string) *DaemonError {
	return &DaemonError{
		Category:  CategoryDaemon,
		Severity:  SeverityError,
		Message:   message,
		Retryable: true,
	}
}

// WrapError wraps an existing error with a new DaemonError
func WrapError(err error, category ErrorCategory, message string) *DaemonError {
	return &DaemonError{
		Category:  category,
		Severity:  SeverityError,
		Message:   message,
		Cause:     err,
		Retryable: false,
	}
}
