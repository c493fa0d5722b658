package entities

import "time"

// ResultDocument is the combined result artifact written next to the
// transcript and summary artifacts of a completed task
type ResultDocument struct {
	TaskID                string               `json:"task_id"`
	FileInfo              *FileInfo            `json:"file_info"`
	Transcription         *TranscriptionResult `json:"transcription"`
	Summary               *SummaryResult       `json:"summary"`
	ProcessingTime        float64              `json:"processing_time"`
	ProcessingCompletedAt time.Time            `json:"processing_completed_at"`
}
