package ai

import (
	"fmt"

	"github.com/johnquangdev/meetmemo/internal/domain/entities"
	"github.com/johnquangdev/meetmemo/pkg/jobcontext"
)

// ProgressFunc receives stage-local progress (0-100). A non-nil error aborts
// the engine call at that checkpoint.
type ProgressFunc func(percent int) error

// TranscribeOptions selects how audio is transcribed
type TranscribeOptions struct {
	Language string
	Model    entities.WhisperModel
}

// SummarizeOptions selects how a transcript is summarized
type SummarizeOptions struct {
	MeetingTitle string
	Language     string
}

func noProgress(int) error { return nil }

// engineError wraps a provider failure, marking it transient when a retry may help
func engineError(provider string, err error) error {
	return entities.NewEngineError(fmt.Errorf("%s: %w", provider, err), jobcontext.IsRetryableError(err))
}
