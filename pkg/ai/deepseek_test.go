package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meetmemo/internal/domain/entities"
	"github.com/johnquangdev/meetmemo/pkg/config"
)

func streamServer(t *testing.T, chunks []string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, true, req["stream"])

		w.Header().Set("Content-Type", "text/event-stream")
		for _, c := range chunks {
			chunk := map[string]interface{}{
				"id":      "chatcmpl-1",
				"object":  "chat.completion.chunk",
				"created": 1700000000,
				"model":   "deepseek-chat",
				"choices": []map[string]interface{}{{"index": 0, "delta": map[string]string{"content": c}}},
			}
			b, _ := json.Marshal(chunk)
			fmt.Fprintf(w, "data: %s\n\n", b)
		}
		fmt.Fprintf(w, "data: %s\n\n", `{"id":"chatcmpl-1","object":"chat.completion.chunk","created":1700000000,"model":"deepseek-chat","choices":[],"usage":{"prompt_tokens":120,"completion_tokens":30,"total_tokens":150}}`)
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newTestDeepSeek(url string) *DeepSeekClient {
	return NewDeepSeekClient(&config.DeepSeekConfig{
		APIKey:    "test-key",
		BaseURL:   url,
		Model:     "deepseek-chat",
		MaxTokens: 10,
	}, nil)
}

func TestDeepSeekClient_Summarize(t *testing.T) {
	ts := streamServer(t, []string{"# Weekly sync\n\n", "## Decisions\n", "- Ship v2"})
	client := newTestDeepSeek(ts.URL)

	var progress []int
	result, err := client.Summarize(context.Background(), "we agreed to ship v2", SummarizeOptions{
		MeetingTitle: "Weekly sync",
		Language:     "en",
	}, func(p int) error {
		progress = append(progress, p)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, "# Weekly sync\n\n## Decisions\n- Ship v2", result.Summary)
	assert.Equal(t, entities.SummaryFreeForm, result.Representation())
	assert.Equal(t, "Weekly sync", result.MeetingTitle)
	assert.Equal(t, "deepseek-chat", result.ModelUsed)
	assert.Equal(t, 150, result.TokensUsed.TotalTokens)
	assert.Equal(t, len("we agreed to ship v2"), result.OriginalTextLength)
	assert.Equal(t, 100, progress[len(progress)-1])
}

func TestDeepSeekClient_StructuredAnswer(t *testing.T) {
	ts := streamServer(t, []string{"```json\n", `{"main_points":["budget"],"decisions":["hire two"]}`, "\n```"})
	client := newTestDeepSeek(ts.URL)

	result, err := client.Summarize(context.Background(), "budget talk", SummarizeOptions{}, nil)
	require.NoError(t, err)
	assert.Equal(t, entities.SummaryStructured, result.Representation())
	assert.Equal(t, []string{"budget"}, result.MainPoints)
	assert.Equal(t, []string{"hire two"}, result.Decisions)
}

func TestDeepSeekClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
		kind      entities.ErrorKind
	}{
		{http.StatusTooManyRequests, true, entities.ErrorKindEngine},
		{http.StatusServiceUnavailable, true, entities.ErrorKindEngine},
		{http.StatusUnauthorized, false, entities.ErrorKindEngine},
		{http.StatusBadRequest, false, entities.ErrorKindValidation},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				fmt.Fprint(w, `{"error":{"message":"upstream said no","type":"error"}}`)
			}))
			defer ts.Close()

			_, err := newTestDeepSeek(ts.URL).Summarize(context.Background(), "text", SummarizeOptions{}, nil)
			require.Error(t, err)
			assert.Equal(t, tt.retryable, entities.IsRetryable(err))
			assert.Equal(t, tt.kind, entities.KindOf(err))
		})
	}
}

func TestDeepSeekClient_EmptyTranscript(t *testing.T) {
	_, err := newTestDeepSeek("http://127.0.0.1:0").Summarize(context.Background(), "   ", SummarizeOptions{}, nil)
	assert.ErrorIs(t, err, entities.ErrValidation)
}

func TestParseSummary(t *testing.T) {
	free := ParseSummary("  Plain minutes text.  ")
	assert.Equal(t, "Plain minutes text.", free.Summary)
	assert.Equal(t, entities.SummaryFreeForm, free.Representation())

	structured := ParseSummary(`{"main_points":[" a ",""],"participants":["Lan","Minh"]}`)
	assert.Empty(t, structured.Summary)
	assert.Equal(t, []string{"a"}, structured.MainPoints)
	assert.Equal(t, []string{"Lan", "Minh"}, structured.Participants)

	notJSON := ParseSummary("{not json")
	assert.Equal(t, "{not json", notJSON.Summary)

	unrelated := ParseSummary(`{"foo":"bar"}`)
	assert.Equal(t, `{"foo":"bar"}`, unrelated.Summary)
}

func TestBuildSummaryPrompt(t *testing.T) {
	prompt := BuildSummaryPrompt("xin chào", "Sprint review", "vi")
	assert.Contains(t, prompt, "Meeting Title: Sprint review")
	assert.Contains(t, prompt, "xin chào")
	assert.Contains(t, prompt, `"vi"`)

	assert.Contains(t, BuildSummaryPrompt("大家好", "Sync", "auto"), "Chinese")
	assert.Contains(t, BuildSummaryPrompt("hello", "Sync", "auto"), "same language")
}
