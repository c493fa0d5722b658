package stage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/johnquangdev/meetmemo/internal/domain/entities"
	"github.com/johnquangdev/meetmemo/internal/domain/repositories"
	"github.com/johnquangdev/meetmemo/internal/infrastructure/telemetry"
	"github.com/johnquangdev/meetmemo/pkg/ai"
)

// TranscriptionEngine turns audio into timestamped text
type TranscriptionEngine interface {
	Transcribe(ctx context.Context, audio []byte, opts ai.TranscribeOptions, report ai.ProgressFunc) (*entities.TranscriptionResult, error)
}

type transcribeInput struct {
	fileID string
	opts   ai.TranscribeOptions
}

// Transcriber is the first stage: uploaded audio to TranscriptionResult
type Transcriber struct {
	engine TranscriptionEngine
	blobs  repositories.BlobRepository
	runner *Runner[transcribeInput, *entities.TranscriptionResult]
}

var _ Stage = (*Transcriber)(nil)

// NewTranscriber creates the transcription stage
func NewTranscriber(engine TranscriptionEngine, blobs repositories.BlobRepository, policy Policy, metrics *telemetry.Metrics, logger *zap.Logger) *Transcriber {
	t := &Transcriber{engine: engine, blobs: blobs}
	t.runner = NewRunner[transcribeInput, *entities.TranscriptionResult](entities.StageTranscribing, t.transcribe, policy, metrics, logger)
	return t
}

func (t *Transcriber) Name() entities.Stage { return entities.StageTranscribing }

func (t *Transcriber) Band() entities.Band { return entities.TranscriptionBand }

// Run transcribes the task's uploaded audio into ws.Transcript
func (t *Transcriber) Run(ctx context.Context, ws *Workspace, sink ProgressSink) error {
	cfg := ws.Task.Settings()
	result, err := t.runner.Run(ctx, transcribeInput{
		fileID: ws.Task.FileID,
		opts: ai.TranscribeOptions{
			Language: cfg.Language,
			Model:    cfg.WhisperModel,
		},
	}, sink)
	if err != nil {
		return err
	}
	ws.Transcript = result
	return nil
}

// transcribe is one attempt. The audio is read inside the attempt so a
// flaky blob store is retried like a flaky engine.
func (t *Transcriber) transcribe(ctx context.Context, in transcribeInput, report func(int) error) (*entities.TranscriptionResult, error) {
	audio, err := t.blobs.Get(ctx, in.fileID)
	if errors.Is(err, entities.ErrNotFound) {
		return nil, entities.NewValidationError(fmt.Errorf("audio file %s not found", in.fileID))
	}
	if err != nil {
		return nil, entities.NewEngineError(fmt.Errorf("failed to load audio: %w", err), true)
	}

	result, err := t.engine.Transcribe(ctx, audio, in.opts, report)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, entities.NewEngineError(errors.New("transcription engine returned no result"), false)
	}
	result.Normalize()
	return result, nil
}
