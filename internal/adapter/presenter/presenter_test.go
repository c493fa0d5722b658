package presenter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meetmemo/internal/domain/entities"
	taskuse "github.com/johnquangdev/meetmemo/internal/usecase/task"
)

func newTask(status entities.TaskStatus, stage entities.Stage, progress int) *entities.Task {
	t := entities.NewTask("file-1", entities.TaskConfig{Language: "en", WhisperModel: entities.WhisperModelBase, MeetingTitle: "Planning"})
	t.Status = status
	t.CurrentStage = stage
	t.Progress = progress
	return t
}

func TestToTaskStatusResponse_Steps(t *testing.T) {
	tests := []struct {
		name     string
		task     *entities.Task
		step     int
		label    string
		hasLabel bool
	}{
		{"pending", newTask(entities.TaskStatusPending, entities.StageQueued, 0), entities.StepUploaded, "Uploaded, waiting in queue", true},
		{"transcribing", newTask(entities.TaskStatusProcessing, entities.StageTranscribing, 30), entities.StepTranscribing, "Transcribing audio", true},
		{"summarizing", newTask(entities.TaskStatusProcessing, entities.StageSummarizing, 80), entities.StepSummarizing, "Generating summary", true},
		{"finalizing", newTask(entities.TaskStatusProcessing, entities.StageFinalizing, 100), entities.StepDone, "Saving results", true},
		{"completed", newTask(entities.TaskStatusCompleted, "", 100), entities.StepDone, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ToTaskStatusResponse(&taskuse.StatusOutput{Task: tt.task})
			assert.Equal(t, tt.step, resp.StepIndex)
			assert.Equal(t, string(tt.task.CurrentStage), resp.CurrentStage)
			assert.Equal(t, tt.task.Progress, resp.Progress)
			assert.Equal(t, 3, resp.TotalSteps)
			if tt.hasLabel {
				assert.Equal(t, tt.label, resp.CurrentStep)
			} else {
				assert.Empty(t, resp.CurrentStep)
			}
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestToTaskStatusResponse_Failed(t *testing.T) {
	task := newTask(entities.TaskStatusFailed, "", 40)
	task.Error = &entities.TaskError{Kind: entities.ErrorKindTimeout, Message: "transcribing exceeded 30m0s"}

	resp := ToTaskStatusResponse(&taskuse.StatusOutput{Task: task})
	assert.Equal(t, "failed", resp.Status)
	assert.Equal(t, "transcribing exceeded 30m0s", resp.Error)
	assert.Equal(t, "TimeoutError", resp.ErrorKind)
	assert.Nil(t, resp.Result)
}

func TestToCancelResponse(t *testing.T) {
	processing := newTask(entities.TaskStatusProcessing, entities.StageTranscribing, 10)
	processing.CancelRequested = true
	assert.Contains(t, ToCancelResponse(&taskuse.CancelOutput{Task: processing}).Message, "next checkpoint")

	done := newTask(entities.TaskStatusCompleted, "", 100)
	resp := ToCancelResponse(&taskuse.CancelOutput{Task: done, AlreadyTerminal: true})
	assert.Equal(t, "completed", resp.Status)
	assert.Contains(t, resp.Message, "completed")
}

func resultView(summary *entities.SummaryResult) *taskuse.ResultView {
	return &taskuse.ResultView{
		FileID: "file-1",
		Transcription: &entities.TranscriptionResult{
			Text:     "Hello. Bye.",
			Language: "en",
			Duration: 3725,
			Segments: []entities.Segment{{Start: 0, End: 1.5, Text: "Hello."}, {Start: 3720, End: 3725, Text: "Bye."}},
		},
		Summary:               summary,
		FileInfo:              &entities.FileInfo{FileID: "file-1", OriginalName: "planning.mp3"},
		ProcessingCompletedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestRenderMinutes_PrefersFreeForm(t *testing.T) {
	task := newTask(entities.TaskStatusCompleted, "", 100)
	out, err := RenderMinutes(MinutesMarkdown, task, resultView(&entities.SummaryResult{
		Summary:    "We agreed on the plan.",
		MainPoints: []string{"ignored"},
	}))
	require.NoError(t, err)
	md := string(out)
	assert.Contains(t, md, "# Planning")
	assert.Contains(t, md, "We agreed on the plan.")
	assert.NotContains(t, md, "ignored")
	assert.Contains(t, md, "Duration: 01:02:05")
	assert.Contains(t, md, "[00:00 - 00:01] Hello.")
	assert.Contains(t, md, "[01:02:00 - 01:02:05] Bye.")
}

func TestRenderMinutes_StructuredFallback(t *testing.T) {
	task := newTask(entities.TaskStatusCompleted, "", 100)
	out, err := RenderMinutes(MinutesText, task, resultView(&entities.SummaryResult{
		MainPoints:  []string{"Budget approved"},
		ActionItems: []string{"Anna drafts the rollout"},
	}))
	require.NoError(t, err)
	txt := string(out)
	assert.Contains(t, txt, "Planning\n========")
	assert.Contains(t, txt, "Main points")
	assert.Contains(t, txt, "1. Budget approved")
	assert.Contains(t, txt, "1. Anna drafts the rollout")
	assert.NotContains(t, txt, "Decisions")
}

func TestRenderMinutes_EmptySummary(t *testing.T) {
	task := newTask(entities.TaskStatusCompleted, "", 100)
	out, err := RenderMinutes("", task, resultView(nil))
	require.NoError(t, err)
	assert.Contains(t, string(out), "No summary available.")

	_, err = RenderMinutes("pdf", task, resultView(nil))
	assert.ErrorIs(t, err, entities.ErrValidation)
}
