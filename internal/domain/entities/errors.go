package entities

import (
	"context"
	"errors"
	"fmt"
)

// Domain errors
var (
	// Lookup errors
	ErrNotFound = errors.New("not found")

	// Lifecycle errors
	ErrAlreadyTerminal   = errors.New("task already in a terminal state")
	ErrInvalidTransition = errors.New("invalid task transition")
	ErrCancelled         = errors.New("task cancelled")
	ErrNotCompleted      = errors.New("task has not completed")

	// Admission errors
	ErrCapacityExceeded = errors.New("admission queue is full")

	// Stage errors
	ErrValidation = errors.New("validation failed")
	ErrTimeout    = errors.New("stage timed out")
	ErrEngine     = errors.New("engine failure")

	// Upload errors
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported file format", ErrValidation)
	ErrFileTooLarge      = fmt.Errorf("%w: file too large", ErrValidation)
	ErrEmptyFile         = fmt.Errorf("%w: no file selected", ErrValidation)

	// Infrastructure errors
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ErrorKind classifies failures surfaced to clients
type ErrorKind string

const (
	ErrorKindValidation       ErrorKind = "ValidationError"
	ErrorKindTimeout          ErrorKind = "TimeoutError"
	ErrorKindEngine           ErrorKind = "EngineError"
	ErrorKindNotFound         ErrorKind = "NotFound"
	ErrorKindAlreadyTerminal  ErrorKind = "AlreadyTerminal"
	ErrorKindCapacityExceeded ErrorKind = "CapacityExceeded"
)

// StageError is returned by stage engines and runners. Retryable marks
// transient failures; the runner retries only those.
type StageError struct {
	Kind      ErrorKind
	Retryable bool
	Err       error
}

// Error formats the failure with its kind
func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches the sentinel for the error kind.
func (e *StageError) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Kind == ErrorKindValidation
	case ErrTimeout:
		return e.Kind == ErrorKindTimeout
	case ErrEngine:
		return e.Kind == ErrorKindEngine
	}
	return false
}

// NewValidationError wraps a non-retryable input failure
func NewValidationError(err error) *StageError {
	return &StageError{Kind: ErrorKindValidation, Err: err}
}

// NewTimeoutError wraps an exceeded per-attempt deadline
func NewTimeoutError(err error) *StageError {
	return &StageError{Kind: ErrorKindTimeout, Retryable: true, Err: err}
}

// NewEngineError wraps an engine failure; transient ones are retried
func NewEngineError(err error, transient bool) *StageError {
	return &StageError{Kind: ErrorKindEngine, Retryable: transient, Err: err}
}

// KindOf maps err onto the error kind recorded in Task.Error.
func KindOf(err error) ErrorKind {
	var se *StageError
	switch {
	case errors.As(err, &se):
		return se.Kind
	case errors.Is(err, ErrValidation):
		return ErrorKindValidation
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return ErrorKindTimeout
	case errors.Is(err, ErrNotFound):
		return ErrorKindNotFound
	case errors.Is(err, ErrAlreadyTerminal):
		return ErrorKindAlreadyTerminal
	case errors.Is(err, ErrCapacityExceeded):
		return ErrorKindCapacityExceeded
	default:
		return ErrorKindEngine
	}
}

// IsRetryable reports whether a stage attempt that returned err may be retried.
func IsRetryable(err error) bool {
	var se *StageError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}
