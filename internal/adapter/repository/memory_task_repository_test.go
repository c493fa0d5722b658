package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/johnquangdev/meetmemo/internal/domain/entities"
)

var testConfig = entities.TaskConfig{
	Language:     entities.LanguageAuto,
	WhisperModel: entities.WhisperModelBase,
	MeetingTitle: "Weekly sync",
}

func TestMemoryTaskRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTaskRepository()

	task, err := repo.Create(ctx, "file-1", testConfig)
	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, entities.TaskStatusPending, task.Status)
	assert.Equal(t, entities.StageQueued, task.CurrentStage)
	assert.Zero(t, task.Progress)
	assert.Nil(t, task.StartedAt)

	got, err := repo.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, testConfig, got.Settings())

	byFile, err := repo.GetByFileID(ctx, "file-1")
	require.NoError(t, err)
	assert.Equal(t, task.ID, byFile.ID)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestMemoryTaskRepository_LifecycleTimestamps(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTaskRepository()
	task, err := repo.Create(ctx, "file-1", testConfig)
	require.NoError(t, err)

	started, err := repo.Update(ctx, task.ID, func(t *entities.Task) error {
		t.MarkAsProcessing(0, entities.StageTranscribing)
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, started.StartedAt)
	assert.Nil(t, started.CompletedAt)

	progressed, err := repo.Update(ctx, task.ID, func(t *entities.Task) error {
		t.AdvanceProgress(40)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, started.StartedAt.Equal(*progressed.StartedAt), "started_at is written once")
	assert.Equal(t, 40, progressed.Progress)

	done, err := repo.Update(ctx, task.ID, func(t *entities.Task) error {
		t.MarkAsCompleted(entities.TaskResult{FileID: "file-1", TranscriptID: "tr", SummaryID: "sm"})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, entities.TaskStatusCompleted, done.Status)
	assert.Equal(t, 100, done.Progress)
	assert.Empty(t, done.CurrentStage)
	assert.Equal(t, -1, done.WorkerID)
	require.NotNil(t, done.CompletedAt)
	assert.Nil(t, done.Error)
	require.NotNil(t, done.Result)
}

func TestMemoryTaskRepository_TerminalIsFinal(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTaskRepository()
	task, err := repo.Create(ctx, "file-1", testConfig)
	require.NoError(t, err)

	_, err = repo.Update(ctx, task.ID, func(t *entities.Task) error {
		t.MarkAsCancelled()
		return nil
	})
	require.NoError(t, err)

	called := false
	got, err := repo.Update(ctx, task.ID, func(t *entities.Task) error {
		called = true
		t.MarkAsProcessing(1, entities.StageTranscribing)
		return nil
	})
	assert.ErrorIs(t, err, entities.ErrAlreadyTerminal)
	assert.False(t, called, "mutator must not see a terminal record")
	require.NotNil(t, got)
	assert.Equal(t, entities.TaskStatusCancelled, got.Status)
}

func TestMemoryTaskRepository_RejectsInvalidTransitions(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTaskRepository()
	task, err := repo.Create(ctx, "file-1", testConfig)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(t *entities.Task)
	}{
		{"pending straight to completed", func(t *entities.Task) {
			t.MarkAsCompleted(entities.TaskResult{})
		}},
		{"progress while pending", func(t *entities.Task) {
			t.Progress = 10
		}},
		{"config changed", func(t *entities.Task) {
			cfg := t.Settings()
			cfg.Language = "vi"
			t.Config = datatypes.NewJSONType(cfg)
		}},
		{"failed without processing", func(t *entities.Task) {
			t.MarkAsFailed(entities.ErrorKindEngine, "boom")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Update(ctx, task.ID, func(task *entities.Task) error {
				tt.mutate(task)
				return nil
			})
			assert.ErrorIs(t, err, entities.ErrInvalidTransition)
		})
	}

	got, err := repo.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.TaskStatusPending, got.Status, "rejected updates leave no trace")
}

func TestMemoryTaskRepository_ProgressNeverDecreases(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTaskRepository()
	task, err := repo.Create(ctx, "file-1", testConfig)
	require.NoError(t, err)
	_, err = repo.Update(ctx, task.ID, func(t *entities.Task) error {
		t.MarkAsProcessing(0, entities.StageTranscribing)
		t.AdvanceProgress(50)
		return nil
	})
	require.NoError(t, err)

	_, err = repo.Update(ctx, task.ID, func(t *entities.Task) error {
		t.Progress = 20
		return nil
	})
	assert.ErrorIs(t, err, entities.ErrInvalidTransition)
}

func TestMemoryTaskRepository_ConcurrentUpdatesAreSerialized(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTaskRepository()
	task, err := repo.Create(ctx, "file-1", testConfig)
	require.NoError(t, err)
	_, err = repo.Update(ctx, task.ID, func(t *entities.Task) error {
		t.MarkAsProcessing(0, entities.StageTranscribing)
		return nil
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 1; i <= 64; i++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			_, err := repo.Update(ctx, task.ID, func(t *entities.Task) error {
				t.AdvanceProgress(p)
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := repo.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 64, got.Progress)
	assert.EqualValues(t, 65, got.Version, "every write landed exactly once")
}

func TestMemoryTaskRepository_ListByStatusIsFIFO(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTaskRepository()
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	tick := 0

	var ids []string
	for i := 0; i < 3; i++ {
		task, err := repo.Create(ctx, "file", testConfig)
		require.NoError(t, err)
		// Force distinct creation instants without sleeping.
		slot, _ := repo.slot(task.ID)
		stored := slot.Load().Clone()
		stored.CreatedAt = base.Add(time.Duration(tick) * time.Second)
		tick++
		slot.Store(stored)
		ids = append(ids, task.ID)
	}

	pending, err := repo.ListByStatus(ctx, entities.TaskStatusPending, 0)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	for i, task := range pending {
		assert.Equal(t, ids[i], task.ID)
	}

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, counts[entities.TaskStatusPending])
}

func TestMemoryTaskRepository_DeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTaskRepository()
	task, err := repo.Create(ctx, "file-1", testConfig)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, task.ID))
	require.NoError(t, repo.Delete(ctx, task.ID))

	_, err = repo.Get(ctx, task.ID)
	assert.ErrorIs(t, err, entities.ErrNotFound)
	_, err = repo.Update(ctx, task.ID, func(*entities.Task) error { return nil })
	assert.ErrorIs(t, err, entities.ErrNotFound)
}
