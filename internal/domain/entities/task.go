package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// TaskStatus represents the lifecycle status of a processing task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"    // Waiting for a worker slot
	TaskStatusProcessing TaskStatus = "processing" // Owned by a worker, running stages
	TaskStatusCompleted  TaskStatus = "completed"  // Transcript and summary available
	TaskStatusFailed     TaskStatus = "failed"     // A stage exhausted its retries
	TaskStatusCancelled  TaskStatus = "cancelled"  // Cancelled by the client
)

// IsTerminal reports whether no further transition may happen from s.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed || s == TaskStatusCancelled
}

// Stage identifies which part of the pipeline is active for a processing task
type Stage string

const (
	StageQueued       Stage = "queued"
	StageTranscribing Stage = "transcribing"
	StageSummarizing  Stage = "summarizing"
	StageFinalizing   Stage = "finalizing"
)

// WhisperModel is the transcription model tier selected at upload time
type WhisperModel string

const (
	WhisperModelBase  WhisperModel = "base"
	WhisperModelLarge WhisperModel = "large"
	WhisperModelTurbo WhisperModel = "turbo"
)

// IsValid reports whether m is one of the supported tiers.
func (m WhisperModel) IsValid() bool {
	switch m {
	case WhisperModelBase, WhisperModelLarge, WhisperModelTurbo:
		return true
	}
	return false
}

// LanguageAuto asks the transcription engine to detect the spoken language.
const LanguageAuto = "auto"

// TaskConfig is the immutable snapshot of submission parameters
type TaskConfig struct {
	Language     string       `json:"language"`
	WhisperModel WhisperModel `json:"whisper_model"`
	MeetingTitle string       `json:"meeting_title"`
}

// TaskError describes why a task failed
type TaskError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// TaskResult references the artifacts produced by a completed task
type TaskResult struct {
	FileID                string    `json:"file_id"`
	TranscriptID          string    `json:"transcript_id"`
	SummaryID             string    `json:"summary_id"`
	ResultID              string    `json:"result_id"`
	ProcessingCompletedAt time.Time `json:"processing_completed_at"`
}

// Task is the lifecycle record of one uploaded recording
type Task struct {
	ID              string                           `json:"task_id" gorm:"type:uuid;primary_key"`
	FileID          string                           `json:"file_id" gorm:"type:varchar(64);not null;index"`
	Status          TaskStatus                       `json:"status" gorm:"type:varchar(20);not null;index;default:'pending'"`
	CurrentStage    Stage                            `json:"current_stage,omitempty" gorm:"type:varchar(20)"`
	Progress        int                              `json:"progress" gorm:"type:integer;not null;default:0"`
	CancelRequested bool                             `json:"cancel_requested" gorm:"not null;default:false"`
	Config          datatypes.JSONType[TaskConfig]   `json:"config" gorm:"type:jsonb;not null"`
	Error           *TaskError                       `json:"error,omitempty" gorm:"type:jsonb;serializer:json"`
	Result          *TaskResult                      `json:"result,omitempty" gorm:"type:jsonb;serializer:json"`
	WorkerID        int                              `json:"worker_id" gorm:"type:integer;not null;default:-1"`
	CreatedAt       time.Time                        `json:"created_at" gorm:"not null;index"`
	StartedAt       *time.Time                       `json:"started_at,omitempty" gorm:"type:timestamp"`
	CompletedAt     *time.Time                       `json:"completed_at,omitempty" gorm:"type:timestamp"`
	UpdatedAt       time.Time                        `json:"updated_at"`
	Version         int64                            `json:"-" gorm:"not null;default:0"`
}

// TableName specifies the table name for GORM
func (Task) TableName() string {
	return "tasks"
}

// NewTask creates a pending task for an uploaded file
func NewTask(fileID string, cfg TaskConfig) *Task {
	now := time.Now().UTC()
	return &Task{
		ID:           uuid.NewString(),
		FileID:       fileID,
		Status:       TaskStatusPending,
		CurrentStage: StageQueued,
		Config:       datatypes.NewJSONType(cfg),
		WorkerID:     -1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Settings returns the submission-time configuration.
func (t *Task) Settings() TaskConfig {
	return t.Config.Data()
}

// Clone returns a deep copy so that readers never share mutable state with writers.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	if t.StartedAt != nil {
		v := *t.StartedAt
		c.StartedAt = &v
	}
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		c.CompletedAt = &v
	}
	if t.Error != nil {
		v := *t.Error
		c.Error = &v
	}
	if t.Result != nil {
		v := *t.Result
		c.Result = &v
	}
	return &c
}

// MarkAsProcessing moves the task onto a worker at the given stage
func (t *Task) MarkAsProcessing(workerID int, stage Stage) {
	t.Status = TaskStatusProcessing
	t.CurrentStage = stage
	t.WorkerID = workerID
}

// AdvanceProgress raises progress to p; lower values are ignored.
func (t *Task) AdvanceProgress(p int) {
	if p > 100 {
		p = 100
	}
	if p > t.Progress {
		t.Progress = p
	}
}

// MarkAsCompleted records the artifact references of a finished task
func (t *Task) MarkAsCompleted(result TaskResult) {
	t.Status = TaskStatusCompleted
	t.Result = &result
	t.Progress = 100
}

// MarkAsFailed records the cause of a failed task
func (t *Task) MarkAsFailed(kind ErrorKind, msg string) {
	t.Status = TaskStatusFailed
	t.Error = &TaskError{Kind: kind, Message: msg}
}

// MarkAsCancelled moves the task into the cancelled state
func (t *Task) MarkAsCancelled() {
	t.Status = TaskStatusCancelled
}

// Settle fills the fields owned by the store after a mutator ran against prev:
// write-once timestamps, stage clearing on terminal states, and the CAS version.
func (t *Task) Settle(prev *Task, now time.Time) {
	if t.Status == TaskStatusProcessing && t.StartedAt == nil {
		started := now
		t.StartedAt = &started
	}
	if t.Status.IsTerminal() {
		if t.CompletedAt == nil {
			completed := now
			t.CompletedAt = &completed
		}
		t.CurrentStage = ""
		t.WorkerID = -1
	}
	if t.Status == TaskStatusCompleted {
		t.Progress = 100
	}
	t.UpdatedAt = now
	t.Version = prev.Version + 1
}

// ValidateTransition checks every lifecycle invariant between prev and t.
func (t *Task) ValidateTransition(prev *Task) error {
	if prev.Status.IsTerminal() {
		return ErrAlreadyTerminal
	}
	if t.ID != prev.ID || t.FileID != prev.FileID || !t.CreatedAt.Equal(prev.CreatedAt) {
		return fmt.Errorf("%w: identity fields are immutable", ErrInvalidTransition)
	}
	if t.Settings() != prev.Settings() {
		return fmt.Errorf("%w: config is immutable", ErrInvalidTransition)
	}
	if !canTransition(prev.Status, t.Status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, prev.Status, t.Status)
	}
	if t.Progress < 0 || t.Progress > 100 {
		return fmt.Errorf("%w: progress %d out of range", ErrInvalidTransition, t.Progress)
	}
	if t.Status == TaskStatusPending && t.Progress != 0 {
		return fmt.Errorf("%w: pending task with progress %d", ErrInvalidTransition, t.Progress)
	}
	if t.Status == TaskStatusProcessing && t.Progress < prev.Progress {
		return fmt.Errorf("%w: progress went back from %d to %d", ErrInvalidTransition, prev.Progress, t.Progress)
	}
	if !sameTime(prev.StartedAt, t.StartedAt) && prev.StartedAt != nil {
		return fmt.Errorf("%w: started_at is write-once", ErrInvalidTransition)
	}
	if t.Status != TaskStatusPending && t.Status != TaskStatusCancelled && t.StartedAt == nil {
		return fmt.Errorf("%w: started_at missing for %s", ErrInvalidTransition, t.Status)
	}
	if t.Status.IsTerminal() != (t.CompletedAt != nil) {
		return fmt.Errorf("%w: completed_at must be set exactly on terminal states", ErrInvalidTransition)
	}
	if (t.Error != nil) != (t.Status == TaskStatusFailed) {
		return fmt.Errorf("%w: error is only allowed on failed tasks", ErrInvalidTransition)
	}
	if (t.Result != nil) != (t.Status == TaskStatusCompleted) {
		return fmt.Errorf("%w: result is only allowed on completed tasks", ErrInvalidTransition)
	}
	if t.Status.IsTerminal() && t.CurrentStage != "" {
		return fmt.Errorf("%w: stage must be cleared on %s", ErrInvalidTransition, t.Status)
	}
	return nil
}

// canTransition enforces the task state machine edges.
func canTransition(from, to TaskStatus) bool {
	switch from {
	case TaskStatusPending:
		return to == TaskStatusPending || to == TaskStatusProcessing || to == TaskStatusCancelled
	case TaskStatusProcessing:
		return to == TaskStatusProcessing || to == TaskStatusCompleted || to == TaskStatusFailed || to == TaskStatusCancelled
	default:
		return false
	}
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
