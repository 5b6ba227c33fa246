package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatValidation ErrorCategory = "validation" // Invalid input
	ErrCatExecution  ErrorCategory = "execution"  // Analyst runtime failure
	ErrCatTimeout    ErrorCategory = "timeout"    // Session deadline exceeded
	ErrCatState      ErrorCategory = "state"      // Illegal phase/status transition
	ErrCatConsensus  ErrorCategory = "consensus"  // Consensus not reached
	ErrCatCapacity   ErrorCategory = "capacity"   // Session slot pool exhausted
	ErrCatNotFound   ErrorCategory = "not_found"  // Resource not found
	ErrCatData       ErrorCategory = "data"       // Data collection failure
	ErrCatInternal   ErrorCategory = "internal"   // Unexpected internal error
)

// DomainError represents a structured error from the engine.
type DomainError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Retryable bool
	Cause     error
	Details   map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds contextual information.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ErrValidation creates a validation error.
func ErrValidation(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatValidation,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrExecution creates an execution error.
func ErrExecution(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatExecution,
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// ErrTimeout creates a timeout error.
func ErrTimeout(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatTimeout,
		Code:      "TIMEOUT",
		Message:   message,
		Retryable: false,
	}
}

// ErrState creates a state error.
func ErrState(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatState,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrCapacity creates a capacity rejection error. Submitting a session when
// the slot pool is exhausted returns this synchronously; it is distinguishable
// from an in-progress failure.
func ErrCapacity(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatCapacity,
		Code:      CodeEngineBusy,
		Message:   message,
		Retryable: true,
	}
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) *DomainError {
	return &DomainError{
		Category:  ErrCatNotFound,
		Code:      "NOT_FOUND",
		Message:   fmt.Sprintf("%s not found: %s", resource, id),
		Retryable: false,
	}
}

// ErrData creates a data collection error.
func ErrData(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatData,
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// IsCapacity checks if an error is a capacity rejection.
func IsCapacity(err error) bool {
	return IsCategory(err, ErrCatCapacity)
}

// IsNotFound checks if an error is a not-found error.
func IsNotFound(err error) bool {
	return IsCategory(err, ErrCatNotFound)
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Retryable
	}
	return false
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ErrCatInternal
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	return GetCategory(err) == cat
}

// Predefined error codes
const (
	CodeEngineBusy        = "ENGINE_BUSY"
	CodeSessionNotFound   = "SESSION_NOT_FOUND"
	CodeDuplicateAnalyst  = "DUPLICATE_ANALYST"
	CodeUnknownAnalyst    = "UNKNOWN_ANALYST"
	CodeAnalystFailed     = "ANALYST_FAILED"
	CodeInvalidState      = "INVALID_STATE"
	CodeInvalidStrategy   = "INVALID_STRATEGY"
	CodeEmptySubject      = "EMPTY_SUBJECT"
	CodeEmptySelection    = "EMPTY_SELECTION"
	CodeResultAlreadySet  = "RESULT_ALREADY_SET"
	CodeRecordTerminal    = "RECORD_TERMINAL"
	CodePhaseRegression   = "PHASE_REGRESSION"
	CodeDataFetchFailed   = "DATA_FETCH_FAILED"
	CodeRosterParseFailed = "ROSTER_PARSE_FAILED"
)
