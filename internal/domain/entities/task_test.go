package entities

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBandMap(t *testing.T) {
	tests := []struct {
		band  Band
		local int
		want  int
	}{
		{TranscriptionBand, 0, 0},
		{TranscriptionBand, 50, 37},
		{TranscriptionBand, 100, 75},
		{TranscriptionBand, 150, 75},
		{SummaryBand, -5, 75},
		{SummaryBand, 40, 85},
		{SummaryBand, 100, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.band.Map(tt.local), "band %v local %d", tt.band, tt.local)
	}
}

func TestDisplayStep(t *testing.T) {
	assert.Equal(t, StepUploaded, DisplayStep(TaskStatusPending, StageQueued, 0))
	assert.Equal(t, StepTranscribing, DisplayStep(TaskStatusProcessing, StageTranscribing, 10))
	assert.Equal(t, StepSummarizing, DisplayStep(TaskStatusProcessing, StageSummarizing, 80))
	assert.Equal(t, StepDone, DisplayStep(TaskStatusProcessing, StageFinalizing, 100))
	assert.Equal(t, StepDone, DisplayStep(TaskStatusCompleted, "", 100))
	assert.Equal(t, StepUploaded, DisplayStep(TaskStatusFailed, "", 30))
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{NewValidationError(errors.New("bad codec")), ErrorKindValidation},
		{fmt.Errorf("wrap: %w", NewTimeoutError(context.DeadlineExceeded)), ErrorKindTimeout},
		{NewEngineError(errors.New("503"), true), ErrorKindEngine},
		{ErrFileTooLarge, ErrorKindValidation},
		{context.DeadlineExceeded, ErrorKindTimeout},
		{ErrNotFound, ErrorKindNotFound},
		{ErrCapacityExceeded, ErrorKindCapacityExceeded},
		{errors.New("unknown"), ErrorKindEngine},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.err), tt.err.Error())
	}
}

func TestStageErrorMatchesSentinels(t *testing.T) {
	err := fmt.Errorf("transcribe: %w", NewTimeoutError(context.DeadlineExceeded))
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, IsRetryable(err))

	assert.False(t, IsRetryable(NewValidationError(errors.New("codec"))))
	assert.False(t, IsRetryable(NewEngineError(errors.New("bad key"), false)))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestSummaryRepresentation(t *testing.T) {
	var nilSummary *SummaryResult
	assert.Equal(t, SummaryEmpty, nilSummary.Representation())
	assert.Equal(t, SummaryFreeForm, (&SummaryResult{Summary: "notes", MainPoints: []string{"x"}}).Representation())
	assert.Equal(t, SummaryStructured, (&SummaryResult{Decisions: []string{"ship"}}).Representation())
	assert.Equal(t, SummaryEmpty, (&SummaryResult{Summary: "  "}).Representation())
}

func TestTaskCloneIsDeep(t *testing.T) {
	task := NewTask("file", TaskConfig{Language: LanguageAuto, WhisperModel: WhisperModelBase})
	task.MarkAsProcessing(1, StageTranscribing)
	task.Settle(task.Clone(), task.CreatedAt)

	c := task.Clone()
	*c.StartedAt = c.StartedAt.Add(1)
	assert.NotEqual(t, *task.StartedAt, *c.StartedAt)
}
