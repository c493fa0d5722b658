package jobcontext

import (
	"context"
	"errors"
	"strings"
	"time"
)

type KeyContext string

var (
	keyTaskID        KeyContext = "task_id"
	keyStage         KeyContext = "stage"
	keyWorkerID      KeyContext = "worker_id"
	keyRetryAttempt  KeyContext = "retry_attempt"
	keyTaskStartTime KeyContext = "task_start_time"
)

// TaskMetadata holds metadata for one task execution on a worker
type TaskMetadata struct {
	TaskID       string
	Stage        string
	WorkerID     int
	RetryAttempt int
	StartTime    time.Time
}

// TaskBegin attaches task metadata to a worker context. Deadlines are applied
// per stage attempt, not here, because task duration depends on audio length.
func TaskBegin(parentCtx context.Context, taskID string, workerID int) context.Context {
	ctx := context.WithValue(parentCtx, keyTaskID, taskID)
	ctx = context.WithValue(ctx, keyWorkerID, workerID)
	ctx = context.WithValue(ctx, keyRetryAttempt, 0)
	ctx = context.WithValue(ctx, keyTaskStartTime, time.Now())
	return ctx
}

// WithStage records the running stage in the context
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, keyStage, stage)
}

// GetTaskID extracts task ID from context
func GetTaskID(ctx context.Context) (string, bool) {
	taskID, ok := ctx.Value(keyTaskID).(string)
	return taskID, ok
}

// GetStage extracts the running stage from context
func GetStage(ctx context.Context) (string, bool) {
	stage, ok := ctx.Value(keyStage).(string)
	return stage, ok
}

// GetWorkerID extracts worker ID from context
func GetWorkerID(ctx context.Context) int {
	workerID, ok := ctx.Value(keyWorkerID).(int)
	if !ok {
		return -1
	}
	return workerID
}

// GetRetryAttempt extracts current retry attempt from context
func GetRetryAttempt(ctx context.Context) int {
	attempt, ok := ctx.Value(keyRetryAttempt).(int)
	if !ok {
		return 0
	}
	return attempt
}

// SetRetryAttempt updates retry attempt in context
func SetRetryAttempt(ctx context.Context, attempt int) context.Context {
	return context.WithValue(ctx, keyRetryAttempt, attempt)
}

// GetTaskStartTime extracts task start time from context
func GetTaskStartTime(ctx context.Context) (time.Time, bool) {
	startTime, ok := ctx.Value(keyTaskStartTime).(time.Time)
	return startTime, ok
}

// GetTaskMetadata extracts all task metadata from context
func GetTaskMetadata(ctx context.Context) *TaskMetadata {
	taskID, _ := GetTaskID(ctx)
	stage, _ := GetStage(ctx)
	startTime, _ := GetTaskStartTime(ctx)

	return &TaskMetadata{
		TaskID:       taskID,
		Stage:        stage,
		WorkerID:     GetWorkerID(ctx),
		RetryAttempt: GetRetryAttempt(ctx),
		StartTime:    startTime,
	}
}

// IsRetryableError checks if an engine error is transient.
// Retryable errors include: network errors, timeouts, rate limits, 5xx responses.
// Cancellation is never retryable.
func IsRetryableError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	errStr := strings.ToLower(err.Error())

	// Network errors
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "network unreachable") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "i/o timeout") ||
		strings.Contains(errStr, "unexpected eof") {
		return true
	}

	// API rate limiting
	if strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429") {
		return true
	}

	// Server errors (5xx)
	if strings.Contains(errStr, "status 5") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "service unavailable") ||
		strings.Contains(errStr, "bad gateway") ||
		strings.Contains(errStr, "gateway timeout") {
		return true
	}

	// Temporary failures
	if strings.Contains(errStr, "temporary failure") ||
		strings.Contains(errStr, "try again") {
		return true
	}

	return false
}

// IsNonRetryableError checks if an error should NOT trigger a retry
func IsNonRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	// Client errors (4xx except 429)
	if strings.Contains(errStr, "400") ||
		strings.Contains(errStr, "401") ||
		strings.Contains(errStr, "403") ||
		strings.Contains(errStr, "404") ||
		strings.Contains(errStr, "invalid") ||
		strings.Contains(errStr, "bad request") {
		return true
	}

	// Data validation errors
	if strings.Contains(errStr, "validation failed") ||
		strings.Contains(errStr, "malformed") ||
		strings.Contains(errStr, "unsupported") ||
		strings.Contains(errStr, "parse error") {
		return true
	}

	return false
}
