package shared

import (
	"errors"
	"fmt"
	"strings"
)

// CodedError is implemented by every error the domain returns to callers.
// The code is a stable machine-readable identifier used by the API layer.
type CodedError interface {
	error
	ErrorCode() string
}

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// ErrorCode implements CodedError
func (e *DomainError) ErrorCode() string {
	return e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
)

// FieldError describes one rejected input field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when input is malformed. It never carries side effects:
// operations reject it before touching storage.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

// NewValidationError builds a ValidationError for a single field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// Add appends another field failure
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any field failed
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

// OrNil returns nil when no field failed, so callers can return it directly
func (e *ValidationError) OrNil() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ErrorCode implements CodedError
func (e *ValidationError) ErrorCode() string {
	return "VALIDATION_FAILED"
}

// InfrastructureError wraps a storage or network failure that is not a business outcome
type InfrastructureError struct {
	Op  string
	Err error
}

// NewInfrastructureError wraps err with the operation that failed. A nil err stays nil.
func NewInfrastructureError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &InfrastructureError{Op: op, Err: err}
}

func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InfrastructureError) Unwrap() error {
	return e.Err
}

// ErrorCode implements CodedError
func (e *InfrastructureError) ErrorCode() string {
	return "INFRASTRUCTURE"
}

// retryable is implemented by errors a caller may safely retry
type retryable interface {
	Retryable() bool
}

// Retryable implements the retry classification
func (e *InfrastructureError) Retryable() bool {
	return true
}

// IsRetryable reports whether err (or anything it wraps) is transient
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConcurrencyConflict) {
		return true
	}
	var r retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return false
}

// ErrorCodeOf extracts the code of the first CodedError in err's chain.
// Unclassified errors are reported as infrastructure failures.
func ErrorCodeOf(err error) string {
	var coded CodedError
	if errors.As(err, &coded) {
		return coded.ErrorCode()
	}
	return "INFRASTRUCTURE"
}
