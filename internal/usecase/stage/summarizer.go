package stage

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/johnquangdev/meetmemo/internal/domain/entities"
	"github.com/johnquangdev/meetmemo/internal/infrastructure/telemetry"
	"github.com/johnquangdev/meetmemo/pkg/ai"
)

// SummaryEngine turns a transcript into meeting minutes
type SummaryEngine interface {
	Summarize(ctx context.Context, transcript string, opts ai.SummarizeOptions, report ai.ProgressFunc) (*entities.SummaryResult, error)
}

type summarizeInput struct {
	text string
	opts ai.SummarizeOptions
}

// Summarizer is the second stage: transcript text to SummaryResult
type Summarizer struct {
	engine SummaryEngine
	runner *Runner[summarizeInput, *entities.SummaryResult]
}

var _ Stage = (*Summarizer)(nil)

// NewSummarizer creates the summary stage
func NewSummarizer(engine SummaryEngine, policy Policy, metrics *telemetry.Metrics, logger *zap.Logger) *Summarizer {
	s := &Summarizer{engine: engine}
	s.runner = NewRunner[summarizeInput, *entities.SummaryResult](entities.StageSummarizing, s.summarize, policy, metrics, logger)
	return s
}

func (s *Summarizer) Name() entities.Stage { return entities.StageSummarizing }

func (s *Summarizer) Band() entities.Band { return entities.SummaryBand }

// Run summarizes ws.Transcript into ws.Summary
func (s *Summarizer) Run(ctx context.Context, ws *Workspace, sink ProgressSink) error {
	if ws.Transcript == nil {
		return entities.NewEngineError(errors.New("summarizer ran before transcription"), false)
	}
	if strings.TrimSpace(ws.Transcript.Text) == "" {
		return entities.NewValidationError(errors.New("no speech recognized in audio"))
	}

	cfg := ws.Task.Settings()
	language := cfg.Language
	if language == "" || language == entities.LanguageAuto {
		language = ws.Transcript.Language
	}

	result, err := s.runner.Run(ctx, summarizeInput{
		text: ws.Transcript.Text,
		opts: ai.SummarizeOptions{
			MeetingTitle: cfg.MeetingTitle,
			Language:     language,
		},
	}, sink)
	if err != nil {
		return err
	}
	ws.Summary = result
	return nil
}

func (s *Summarizer) summarize(ctx context.Context, in summarizeInput, report func(int) error) (*entities.SummaryResult, error) {
	result, err := s.engine.Summarize(ctx, in.text, in.opts, report)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, entities.NewEngineError(errors.New("summary engine returned no result"), false)
	}
	if result.MeetingTitle == "" {
		result.MeetingTitle = in.opts.MeetingTitle
	}
	return result, nil
}
