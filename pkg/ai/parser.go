package ai

import (
	"encoding/json"
	"strings"

	"github.com/johnquangdev/meetmemo/internal/domain/entities"
)

// structuredSummary is the JSON shape some models answer with instead of prose
type structuredSummary struct {
	Summary      string   `json:"summary"`
	MainPoints   []string `json:"main_points"`
	Decisions    []string `json:"decisions"`
	ActionItems  []string `json:"action_items"`
	Participants []string `json:"participants"`
}

// ParseSummary turns raw model output into a SummaryResult. A JSON object
// (optionally fenced) carrying structured fields fills them; anything else is
// kept as the free-form summary.
func ParseSummary(content string) *entities.SummaryResult {
	content = strings.TrimSpace(content)
	result := &entities.SummaryResult{}

	candidate := extractJSON(content)
	if strings.HasPrefix(candidate, "{") {
		var s structuredSummary
		if err := json.Unmarshal([]byte(candidate), &s); err == nil &&
			(s.Summary != "" || len(s.MainPoints)+len(s.Decisions)+len(s.ActionItems)+len(s.Participants) > 0) {
			result.Summary = strings.TrimSpace(s.Summary)
			result.MainPoints = compact(s.MainPoints)
			result.Decisions = compact(s.Decisions)
			result.ActionItems = compact(s.ActionItems)
			result.Participants = compact(s.Participants)
			return result
		}
	}

	result.Summary = content
	return result
}

// extractJSON strips a markdown code fence around a JSON answer
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	// Check if wrapped in markdown code block
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	}

	return strings.TrimSpace(content)
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
