package task

import (
	"time"

	"github.com/johnquangdev/meetmemo/internal/domain/entities"
)

// UploadFileInfo describes an accepted upload
type UploadFileInfo struct {
	FileID           string    `json:"file_id"`
	OriginalFilename string    `json:"original_filename"`
	FileSize         int64     `json:"file_size"`
	MeetingTitle     string    `json:"meeting_title"`
	Language         string    `json:"language"`
	WhisperModel     string    `json:"whisper_model"`
	UploadTime       time.Time `json:"upload_time"`
}

// UploadResponse is returned by POST /api/upload/audio
type UploadResponse struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message"`
	TaskID   string         `json:"task_id"`
	FileInfo UploadFileInfo `json:"file_info"`
}

// ResultResponse holds the artifacts of a completed task
type ResultResponse struct {
	Success               bool                          `json:"success"`
	FileID                string                        `json:"file_id"`
	Transcription         *entities.TranscriptionResult `json:"transcription"`
	Summary               *entities.SummaryResult       `json:"summary"`
	FileInfo              *entities.FileInfo            `json:"file_info"`
	ProcessingCompletedAt time.Time                     `json:"processing_completed_at"`
}

// TaskStatusResponse is the polling snapshot of one task
type TaskStatusResponse struct {
	TaskID          string          `json:"task_id"`
	Status          string          `json:"status"`
	Message         string          `json:"message"`
	Progress        int             `json:"progress"`
	CurrentStep     string          `json:"current_step,omitempty"`
	CurrentStage    string          `json:"current_stage,omitempty"`
	StepIndex       int             `json:"step_index"`
	TotalSteps      int             `json:"total_steps"`
	CancelRequested bool            `json:"cancel_requested,omitempty"`
	Result          *ResultResponse `json:"result,omitempty"`
	Error           string          `json:"error,omitempty"`
	ErrorKind       string          `json:"error_kind,omitempty"`
	CreatedAt       *time.Time      `json:"created_at,omitempty"`
	StartedAt       *time.Time      `json:"started_at,omitempty"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
}

// CancelResponse is returned by DELETE /api/tasks/{task_id}
type CancelResponse struct {
	TaskID  string `json:"task_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// DeleteResponse acknowledges a removed file or result
type DeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id"`
}

// ActiveTaskResponse is one entry of GET /api/tasks
type ActiveTaskResponse struct {
	TaskID       string     `json:"task_id"`
	Status       string     `json:"status"`
	CurrentStage string     `json:"current_stage,omitempty"`
	Progress     int        `json:"progress"`
	Worker       *int       `json:"worker,omitempty"`
	MeetingTitle string     `json:"meeting_title"`
	CreatedAt    time.Time  `json:"created_at"`
	TimeStart    *time.Time `json:"time_start,omitempty"`
}

// ActiveTasksResponse lists pending and processing tasks
type ActiveTasksResponse struct {
	ActiveTasks []ActiveTaskResponse `json:"active_tasks"`
	TotalCount  int                  `json:"total_count"`
}

// StatsResponse is returned by GET /api/tasks/stats/summary
type StatsResponse struct {
	Timestamp      time.Time        `json:"timestamp"`
	ActiveTasks    int64            `json:"active_tasks"`
	QueuedTasks    int              `json:"queued_tasks"`
	TotalPending   int64            `json:"total_pending"`
	Workers        int              `json:"workers"`
	BusyWorkers    int              `json:"busy_workers"`
	QueueCapacity  int              `json:"queue_capacity"`
	TasksProcessed int64            `json:"tasks_processed"`
	TasksSucceeded int64            `json:"tasks_succeeded"`
	TasksFailed    int64            `json:"tasks_failed"`
	TasksCancelled int64            `json:"tasks_cancelled"`
	ByStatus       map[string]int64 `json:"by_status"`
}

// FormatsResponse is returned by GET /api/upload/formats
type FormatsResponse struct {
	SupportedFormats []string `json:"supported_formats"`
	MaxFileSize      int64    `json:"max_file_size"`
	MaxFileSizeMB    float64  `json:"max_file_size_mb"`
}
