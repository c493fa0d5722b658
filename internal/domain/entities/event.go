package entities

import "time"

// TaskEvent is broadcast after every committed task transition
type TaskEvent struct {
	TaskID    string     `json:"task_id"`
	Type      string     `json:"type"`
	Status    TaskStatus `json:"status"`
	Stage     Stage      `json:"stage,omitempty"`
	Progress  int        `json:"progress"`
	Message   string     `json:"message,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Event types
const (
	EventSubmitted = "submitted"
	EventStarted   = "started"
	EventProgress  = "progress"
	EventStage     = "stage"
	EventCompleted = "completed"
	EventFailed    = "failed"
	EventCancelled = "cancelled"
)

// NewTaskEvent snapshots t into an event of the given type
func NewTaskEvent(eventType string, t *Task) TaskEvent {
	ev := TaskEvent{
		TaskID:    t.ID,
		Type:      eventType,
		Status:    t.Status,
		Stage:     t.CurrentStage,
		Progress:  t.Progress,
		Timestamp: t.UpdatedAt,
	}
	if t.Error != nil {
		ev.Message = t.Error.Message
	}
	return ev
}

// EventSnapshot carries the current state to a new stream subscriber
const EventSnapshot = "snapshot"
