package entities

import "strings"

// Segment is a contiguous piece of speech with its time range in seconds
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// TranscriptionResult is the output of the transcription stage
type TranscriptionResult struct {
	Text     string    `json:"text"`
	Language string    `json:"language"`
	Duration float64   `json:"duration"`
	Segments []Segment `json:"segments"`
}

// Normalize trims text and derives the duration from the last segment when
// the engine did not report one.
func (r *TranscriptionResult) Normalize() {
	r.Text = strings.TrimSpace(r.Text)
	if r.Language == "" {
		r.Language = "unknown"
	}
	if r.Segments == nil {
		r.Segments = []Segment{}
	}
	if r.Duration <= 0 && len(r.Segments) > 0 {
		r.Duration = r.Segments[len(r.Segments)-1].End
	}
}
