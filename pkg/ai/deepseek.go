package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/johnquangdev/meetmemo/internal/domain/entities"
	"github.com/johnquangdev/meetmemo/pkg/config"
	"github.com/johnquangdev/meetmemo/pkg/jobcontext"
)

// DeepSeekClient summarizes transcripts through DeepSeek's OpenAI-compatible API
type DeepSeekClient struct {
	client      *openai.Client
	apiKey      string
	model       string
	maxTokens   int
	temperature float32
	topP        float32
	logger      *zap.Logger
}

// NewDeepSeekClient creates a DeepSeek client using values from the provided config.
// If the key is empty, falls back to environment variables.
func NewDeepSeekClient(cfg *config.DeepSeekConfig, logger *zap.Logger) *DeepSeekClient {
	c := &DeepSeekClient{
		model:       "deepseek-chat",
		maxTokens:   4000,
		temperature: 0.3,
		topP:        0.9,
		logger:      logger,
	}
	baseURL := "https://api.deepseek.com/v1"
	if cfg != nil {
		c.apiKey = cfg.APIKey
		if cfg.BaseURL != "" {
			baseURL = cfg.BaseURL
		}
		if cfg.Model != "" {
			c.model = cfg.Model
		}
		if cfg.MaxTokens > 0 {
			c.maxTokens = cfg.MaxTokens
		}
		c.temperature = cfg.Temperature
		c.topP = cfg.TopP
	}
	if c.apiKey == "" {
		c.apiKey = os.Getenv("DEEPSEEK_API_KEY")
	}

	oc := openai.DefaultConfig(c.apiKey)
	oc.BaseURL = baseURL
	c.client = openai.NewClientWithConfig(oc)
	return c
}

// Configured reports whether an API key is available
func (c *DeepSeekClient) Configured() bool {
	return c.apiKey != ""
}

// Summarize streams a chat completion for the transcript. Each received chunk
// is a progress checkpoint.
func (c *DeepSeekClient) Summarize(ctx context.Context, transcript string, opts SummarizeOptions, report ProgressFunc) (*entities.SummaryResult, error) {
	if report == nil {
		report = noProgress
	}
	if strings.TrimSpace(transcript) == "" {
		return nil, entities.NewValidationError(errors.New("transcript is empty"))
	}
	if !c.Configured() {
		return nil, entities.NewEngineError(errors.New("deepseek: API key is not configured"), false)
	}
	if err := report(5); err != nil {
		return nil, err
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: BuildSummaryPrompt(transcript, opts.MeetingTitle, opts.Language),
			},
		},
		MaxTokens:     c.maxTokens,
		Temperature:   c.temperature,
		TopP:          c.topP,
		Stream:        true,
		StreamOptions: &openai.StreamOptions{IncludeUsage: true},
	})
	if err != nil {
		return nil, classifyOpenAIError(err)
	}
	defer stream.Close()

	var (
		content  strings.Builder
		usage    entities.TokenUsage
		model    = c.model
		chunks   int
		reported = 5
	)
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, classifyOpenAIError(err)
		}
		if resp.Model != "" {
			model = resp.Model
		}
		if resp.Usage != nil {
			usage = entities.TokenUsage{
				PromptTokens:     resp.Usage.PromptTokens,
				CompletionTokens: resp.Usage.CompletionTokens,
				TotalTokens:      resp.Usage.TotalTokens,
			}
		}
		for _, choice := range resp.Choices {
			content.WriteString(choice.Delta.Content)
		}

		chunks++
		if p := c.streamProgress(chunks); p > reported {
			reported = p
			if err := report(p); err != nil {
				return nil, err
			}
		}
	}

	text := strings.TrimSpace(content.String())
	if text == "" {
		return nil, entities.NewEngineError(errors.New("deepseek: empty completion"), true)
	}

	result := ParseSummary(text)
	result.MeetingTitle = opts.MeetingTitle
	result.ModelUsed = model
	result.TokensUsed = usage
	result.GeneratedAt = time.Now().UTC()
	result.Language = opts.Language
	result.OriginalTextLength = len([]rune(transcript))

	if c.logger != nil {
		taskID, _ := jobcontext.GetTaskID(ctx)
		c.logger.Info("✅ Summary generated",
			zap.String("task_id", taskID),
			zap.String("model", model),
			zap.String("representation", string(result.Representation())),
			zap.Int("total_tokens", usage.TotalTokens),
		)
	}
	return result, report(100)
}

// streamProgress estimates progress from the number of streamed chunks,
// assuming roughly one token per chunk.
func (c *DeepSeekClient) streamProgress(chunks int) int {
	p := 5 + chunks*90/c.maxTokens
	if p > 95 {
		return 95
	}
	return p
}

// classifyOpenAIError maps API failures onto retryable and permanent engine errors
func classifyOpenAIError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch {
	case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
		return entities.NewEngineError(fmt.Errorf("deepseek: %w", err), true)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return entities.NewValidationError(fmt.Errorf("deepseek: %w", err))
	case status >= http.StatusBadRequest:
		return entities.NewEngineError(fmt.Errorf("deepseek: %w", err), false)
	}
	return engineError("deepseek", err)
}
