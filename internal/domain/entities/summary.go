package entities

import (
	"strings"
	"time"
)

// SummaryRepresentation tells which form of the summary the engine produced
type SummaryRepresentation string

const (
	SummaryFreeForm   SummaryRepresentation = "free_form"
	SummaryStructured SummaryRepresentation = "structured"
	SummaryEmpty      SummaryRepresentation = "empty"
)

// TokenUsage is the token accounting reported by the summary engine
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// SummaryResult is the output of the summarization stage. The engine fills
// either Summary or the structured fields.
type SummaryResult struct {
	MeetingTitle       string     `json:"meeting_title"`
	Summary            string     `json:"summary,omitempty"`
	MainPoints         []string   `json:"main_points,omitempty"`
	Decisions          []string   `json:"decisions,omitempty"`
	ActionItems        []string   `json:"action_items,omitempty"`
	Participants       []string   `json:"participants,omitempty"`
	ModelUsed          string     `json:"model_used"`
	TokensUsed         TokenUsage `json:"tokens_used"`
	GeneratedAt        time.Time  `json:"generated_at"`
	Language           string     `json:"language"`
	OriginalTextLength int        `json:"original_text_length"`
}

// Representation reports which form of the summary is populated.
func (s *SummaryResult) Representation() SummaryRepresentation {
	if s == nil {
		return SummaryEmpty
	}
	if strings.TrimSpace(s.Summary) != "" {
		return SummaryFreeForm
	}
	if len(s.MainPoints)+len(s.Decisions)+len(s.ActionItems)+len(s.Participants) > 0 {
		return SummaryStructured
	}
	return SummaryEmpty
}
