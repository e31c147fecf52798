package common

import (
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeConfiguration for configuration-related errors
	ErrorTypeConfiguration ErrorType = "configuration"
	// ErrorTypeValidation for validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeAuth for authentication/authorization errors
	ErrorTypeAuth ErrorType = "auth"
	// ErrorTypeNetwork for network-related errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeConfluence for errors returned by the Confluence API
	ErrorTypeConfluence ErrorType = "confluence"
	// ErrorTypePageList for failures listing the pages of a space
	ErrorTypePageList ErrorType = "pagelist"
	// ErrorTypeLabeling for per-page label read/write failures
	ErrorTypeLabeling ErrorType = "labeling"
	// ErrorTypeReport for report rendering/publishing errors
	ErrorTypeReport ErrorType = "report"
	// ErrorTypeStorage for run-history persistence errors
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypeInternal for internal system errors
	ErrorTypeInternal ErrorType = "internal"
)

// LifecycleError represents a structured error with context
type LifecycleError struct {
	Type      ErrorType              `json:"type"`
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Cause     error                  `json:"-"`
}

// Error implements the error interface
func (e *LifecycleError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s:%s] %s: %s", e.Type, e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *LifecycleError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *LifecycleError) WithContext(key string, value interface{}) *LifecycleError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithCause sets the underlying cause
func (e *LifecycleError) WithCause(cause error) *LifecycleError {
	e.Cause = cause
	return e
}

// NewError creates a new LifecycleError
func NewError(errorType ErrorType, code, message string) *LifecycleError {
	return &LifecycleError{
		Type:      errorType,
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(code, message string) *LifecycleError {
	return NewError(ErrorTypeConfiguration, code, message)
}

// NewAuthError creates an authentication error
func NewAuthError(code, message string) *LifecycleError {
	return NewError(ErrorTypeAuth, code, message)
}

// NewConfluenceError creates a Confluence API error
func NewConfluenceError(code, message string) *LifecycleError {
	return NewError(ErrorTypeConfluence, code, message)
}

// NewPageListError creates a page-listing error
func NewPageListError(code, message string) *LifecycleError {
	return NewError(ErrorTypePageList, code, message)
}

// NewLabelingError creates a per-page labeling error
func NewLabelingError(code, message string) *LifecycleError {
	return NewError(ErrorTypeLabeling, code, message)
}

// NewReportError creates a report error
func NewReportError(code, message string) *LifecycleError {
	return NewError(ErrorTypeReport, code, message)
}

// NewStorageError creates a storage error
func NewStorageError(code, message string) *LifecycleError {
	return NewError(ErrorTypeStorage, code, message)
}

// WrapError wraps an existing error with LifecycleError context
func WrapError(err error, errorType ErrorType, code, message string) *LifecycleError {
	return &LifecycleError{
		Type:      errorType,
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Cause:     err,
	}
}
