package task

import (
	"context"
	"io"
	"time"

	"github.com/johnquangdev/meetmemo/internal/domain/entities"
	"github.com/johnquangdev/meetmemo/internal/usecase/scheduler"
)

// Service defines the interface for the task use case
type Service interface {
	// Submit stores the upload, creates a pending task and admits it
	Submit(ctx context.Context, input SubmitInput) (*SubmitOutput, error)

	// GetStatus returns a consistent snapshot of the task, with its
	// artifacts resolved once it has completed
	GetStatus(ctx context.Context, taskID string) (*StatusOutput, error)

	// Cancel cancels a task; terminal tasks are reported as a no-op
	Cancel(ctx context.Context, taskID string) (*CancelOutput, error)

	// DeleteResult removes the task record and every blob it references
	DeleteResult(ctx context.Context, taskID string) error

	// DeleteFile removes an uploaded file and its dependent task
	DeleteFile(ctx context.Context, fileID string) error

	// ListActive returns pending and processing tasks
	ListActive(ctx context.Context) ([]ActiveTask, error)

	// Stats summarizes the queue and the worker pool
	Stats(ctx context.Context) (*StatsOutput, error)

	// Formats describes accepted uploads
	Formats() FormatsOutput

	// DetailedHealth checks every dependency
	DetailedHealth(ctx context.Context) HealthReport

	// Close releases background resources
	Close()
}

// Scheduler is the part of the task scheduler the service drives
type Scheduler interface {
	Admit(ctx context.Context, taskID string) error
	Cancel(ctx context.Context, taskID string) (*entities.Task, error)
	Stats() scheduler.Stats
	Active() map[string]int
}

// SubmitInput is one uploaded recording
type SubmitInput struct {
	FileName     string
	Size         int64
	Body         io.Reader
	MeetingTitle string
	Language     string
	WhisperModel string
}

// SubmitOutput describes an accepted upload
type SubmitOutput struct {
	TaskID       string
	FileInfo     *entities.FileInfo
	MeetingTitle string
	Language     string
	WhisperModel entities.WhisperModel
	UploadTime   time.Time
}

// ResultView is a completed task with its artifacts loaded
type ResultView struct {
	FileID                string
	Transcription         *entities.TranscriptionResult
	Summary               *entities.SummaryResult
	FileInfo              *entities.FileInfo
	ProcessingCompletedAt time.Time
}

// StatusOutput is the snapshot served to polling clients
type StatusOutput struct {
	Task   *entities.Task
	Result *ResultView
}

// CancelOutput reports the outcome of a cancel request
type CancelOutput struct {
	Task *entities.Task
	// AlreadyTerminal is set when the task had finished before the request
	AlreadyTerminal bool
}

// ActiveTask is a task that has not reached a terminal state
type ActiveTask struct {
	Task     *entities.Task
	WorkerID int
}

// StatsOutput summarizes scheduler activity
type StatsOutput struct {
	Timestamp    time.Time
	ActiveTasks  int64
	QueuedTasks  int
	TotalPending int64
	ByStatus     map[entities.TaskStatus]int64
	Scheduler    scheduler.Stats
}

// FormatsOutput lists accepted upload formats
type FormatsOutput struct {
	SupportedFormats []string
	MaxFileSize      int64
	MaxFileSizeMB    float64
}

// HealthCheck probes one dependency
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// ComponentHealth is the result of one probe
type ComponentHealth struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthReport is the detailed health of the service
type HealthReport struct {
	Status     string                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Components map[string]ComponentHealth `json:"components"`
	Scheduler  scheduler.Stats            `json:"scheduler"`
}

// Health states
const (
	HealthHealthy   = "healthy"
	HealthDegraded  = "degraded"
	HealthUnhealthy = "unhealthy"
)
