package errors

import (
	"context"
	stdErrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/johnquangdev/meetmemo/internal/domain/entities"
)

// AppError is the error type returned to HTTP clients
type AppError struct {
	Raw       error
	HTTPCode  int
	Code      ErrorCode
	Message   string
	Details   map[string]string
	Timestamp time.Time
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the domain error
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// General Errors
func ErrInternal(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTERNAL,
		Message:  "Internal server error",
	}
}

func ErrInvalidArgument(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_ARGUMENT,
		Message:  message,
	}
}

func ErrNotFound(resource string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_NOT_FOUND,
		Message:  fmt.Sprintf("%s not found", resource),
	}
}

func ErrInvalidPayload() AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_PAYLOAD,
		Message:  "Invalid payload",
	}
}

// Upload Errors
func ErrUnsupportedFormat() AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_UPLOAD_UNSUPPORTED_FORMAT,
		Message:  "Unsupported file format",
	}
}

func ErrFileTooLarge() AppError {
	return AppError{
		HTTPCode: http.StatusRequestEntityTooLarge,
		Code:     ErrorCode_UPLOAD_FILE_TOO_LARGE,
		Message:  "File too large",
	}
}

func ErrEmptyFile() AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_UPLOAD_EMPTY_FILE,
		Message:  "No file selected",
	}
}

func ErrUploadFailed(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_UPLOAD_FAILED,
		Message:  "File upload failed",
	}
}

// Task Errors
func ErrTaskNotFound(taskID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_TASK_NOT_FOUND,
		Message:  "Task not found",
	}.WithDetail("task_id", taskID)
}

func ErrTaskAlreadyTerminal() AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_TASK_ALREADY_TERMINAL,
		Message:  "Task already finished",
	}
}

func ErrTaskNotCompleted() AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_TASK_NOT_COMPLETED,
		Message:  "Task has not completed",
	}
}

func ErrCapacityExceeded() AppError {
	return AppError{
		HTTPCode: http.StatusServiceUnavailable,
		Code:     ErrorCode_CAPACITY_EXCEEDED,
		Message:  "Processing queue is full, retry later",
	}
}

// Integration Errors
func ErrStoreUnavailable(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusServiceUnavailable,
		Code:     ErrorCode_STORE_UNAVAILABLE,
		Message:  "Task store unavailable",
	}
}

func ErrStoreTimeout(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusGatewayTimeout,
		Code:     ErrorCode_TIMEOUT,
		Message:  "Task store did not answer in time",
	}
}

func ErrReportExportFailed(format string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_REPORT_EXPORT_FAILED,
		Message:  "Failed to export report",
	}.WithDetail("format", format)
}

// FromDomain maps a domain or infrastructure error onto the AppError sent to
// clients. AppErrors pass through unchanged.
func FromDomain(err error) AppError {
	var appErr AppError
	if stdErrors.As(err, &appErr) {
		return appErr
	}

	var out AppError
	switch {
	case stdErrors.Is(err, entities.ErrFileTooLarge):
		out = ErrFileTooLarge()
	case stdErrors.Is(err, entities.ErrUnsupportedFormat):
		out = ErrUnsupportedFormat()
	case stdErrors.Is(err, entities.ErrEmptyFile):
		out = ErrEmptyFile()
	case stdErrors.Is(err, entities.ErrValidation):
		out = ErrInvalidArgument("Validation failed")
	case stdErrors.Is(err, entities.ErrNotFound):
		out = ErrNotFound("Resource")
	case stdErrors.Is(err, entities.ErrAlreadyTerminal):
		out = ErrTaskAlreadyTerminal()
	case stdErrors.Is(err, entities.ErrNotCompleted):
		out = ErrTaskNotCompleted()
	case stdErrors.Is(err, entities.ErrCapacityExceeded):
		out = ErrCapacityExceeded()
	case stdErrors.Is(err, entities.ErrStoreUnavailable) && stdErrors.Is(err, context.DeadlineExceeded):
		out = ErrStoreTimeout(nil)
	case stdErrors.Is(err, entities.ErrStoreUnavailable):
		out = ErrStoreUnavailable(nil)
	case stdErrors.Is(err, context.DeadlineExceeded):
		out = AppError{HTTPCode: http.StatusGatewayTimeout, Code: ErrorCode_TIMEOUT, Message: "Request timed out"}
	default:
		out = ErrInternal(nil)
	}
	out.Raw = err
	return out
}
