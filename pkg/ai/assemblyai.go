package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	"go.uber.org/zap"

	"github.com/johnquangdev/meetmemo/internal/domain/entities"
	"github.com/johnquangdev/meetmemo/pkg/config"
	"github.com/johnquangdev/meetmemo/pkg/jobcontext"
)

// Speech model tiers offered to clients, mapped onto AssemblyAI models
var speechModels = map[entities.WhisperModel]aai.SpeechModel{
	entities.WhisperModelBase:  aai.SpeechModel("nano"),
	entities.WhisperModelLarge: aai.SpeechModel("best"),
	entities.WhisperModelTurbo: aai.SpeechModel("universal"),
}

// AssemblyAIClient transcribes audio through the official AssemblyAI SDK
type AssemblyAIClient struct {
	client       *aai.Client
	apiKey       string
	pollInterval time.Duration
	logger       *zap.Logger
}

// NewAssemblyAIClient creates an AssemblyAI client using the provided config.
// If the key is empty, falls back to environment variables. Extra options
// are passed to the SDK (e.g. a custom base URL).
func NewAssemblyAIClient(cfg *config.AssemblyAIConfig, logger *zap.Logger, opts ...aai.ClientOption) *AssemblyAIClient {
	var (
		apiKey       string
		pollInterval = 3 * time.Second
	)
	if cfg != nil {
		apiKey = cfg.APIKey
		if cfg.PollInterval > 0 {
			pollInterval = cfg.PollInterval
		}
	}
	if apiKey == "" {
		apiKey = os.Getenv("ASSEMBLYAI_API_KEY")
	}

	opts = append([]aai.ClientOption{aai.WithAPIKey(apiKey)}, opts...)
	return &AssemblyAIClient{
		client:       aai.NewClientWithOptions(opts...),
		apiKey:       apiKey,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// Configured reports whether an API key is available
func (c *AssemblyAIClient) Configured() bool {
	return c.apiKey != ""
}

// Transcribe uploads the audio, submits a transcript job and polls it until
// it finishes. Every poll is a progress checkpoint.
func (c *AssemblyAIClient) Transcribe(ctx context.Context, audio []byte, opts TranscribeOptions, report ProgressFunc) (*entities.TranscriptionResult, error) {
	if report == nil {
		report = noProgress
	}
	if len(audio) == 0 {
		return nil, entities.NewValidationError(errors.New("audio file is empty"))
	}
	if !c.Configured() {
		return nil, entities.NewEngineError(errors.New("assemblyai: API key is not configured"), false)
	}

	taskID, _ := jobcontext.GetTaskID(ctx)

	// Upload to AssemblyAI using official SDK (Upload method on Client)
	uploadURL, err := c.client.Upload(ctx, bytes.NewReader(audio))
	if err != nil {
		return nil, engineError("assemblyai upload", err)
	}
	if err := report(10); err != nil {
		return nil, err
	}

	params := &aai.TranscriptOptionalParams{
		Punctuate:  aai.Bool(true),
		FormatText: aai.Bool(true),
	}
	if model, ok := speechModels[opts.Model]; ok {
		params.SpeechModel = model
	}
	if opts.Language == "" || opts.Language == entities.LanguageAuto {
		params.LanguageDetection = aai.Bool(true)
	} else {
		params.LanguageCode = aai.TranscriptLanguageCode(opts.Language)
	}

	transcript, err := c.client.Transcripts.SubmitFromURL(ctx, uploadURL, params)
	if err != nil {
		return nil, engineError("assemblyai submit", err)
	}
	transcriptID := deref(transcript.ID)
	if transcriptID == "" {
		return nil, entities.NewEngineError(errors.New("assemblyai: no transcript id returned"), true)
	}

	if c.logger != nil {
		c.logger.Info("🎙️ Transcription job submitted",
			zap.String("task_id", taskID),
			zap.String("transcript_id", transcriptID),
			zap.String("language", opts.Language),
			zap.String("model", string(opts.Model)),
		)
	}
	if err := report(20); err != nil {
		return nil, err
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for polls := 1; ; polls++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		transcript, err = c.client.Transcripts.Get(ctx, transcriptID)
		if err != nil {
			return nil, engineError("assemblyai poll", err)
		}

		switch transcript.Status {
		case aai.TranscriptStatusCompleted:
			result := toTranscriptionResult(transcript, opts.Language)
			if c.logger != nil {
				c.logger.Info("✅ Transcript completed",
					zap.String("task_id", taskID),
					zap.String("transcript_id", transcriptID),
					zap.Float64("duration", result.Duration),
					zap.Int("segments", len(result.Segments)),
				)
			}
			return result, report(100)

		case aai.TranscriptStatusError:
			msg := "transcription failed"
			if transcript.Error != nil {
				msg = *transcript.Error
			}
			failure := fmt.Errorf("assemblyai: %s", msg)
			if jobcontext.IsNonRetryableError(failure) {
				return nil, entities.NewValidationError(failure)
			}
			return nil, entities.NewEngineError(failure, jobcontext.IsRetryableError(failure))

		default:
			if err := report(pollProgress(polls)); err != nil {
				return nil, err
			}
		}
	}
}

// pollProgress grows from 20 toward 95 without reaching it; the engine gives
// no real percentage while a job is queued or processing.
func pollProgress(polls int) int {
	p := 20 + polls*5
	if p > 95 {
		return 95
	}
	return p
}

func toTranscriptionResult(t aai.Transcript, language string) *entities.TranscriptionResult {
	result := &entities.TranscriptionResult{
		Text:     deref(t.Text),
		Language: string(t.LanguageCode),
	}
	if result.Language == "" && language != entities.LanguageAuto {
		result.Language = language
	}
	if t.AudioDuration != nil {
		result.Duration = float64(*t.AudioDuration)
	}

	words := make([]Word, 0, len(t.Words))
	for _, w := range t.Words {
		word := Word{Text: deref(w.Text)}
		if w.Start != nil {
			word.Start = float64(*w.Start) / 1000.0 // ms to seconds
		}
		if w.End != nil {
			word.End = float64(*w.End) / 1000.0
		}
		words = append(words, word)
	}
	result.Segments = SegmentWords(words)
	result.Normalize()
	return result
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
