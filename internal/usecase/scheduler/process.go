package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meetmemo/internal/domain/entities"
	"github.com/johnquangdev/meetmemo/internal/domain/repositories"
	"github.com/johnquangdev/meetmemo/internal/usecase/stage"
	"github.com/johnquangdev/meetmemo/pkg/jobcontext"
)

var errNotPending = errors.New("task is not pending")

// runTask drives one task from claim to a terminal state
func (s *Scheduler) runTask(ctx context.Context, workerID int, taskID string) {
	if len(s.stages) == 0 {
		return
	}

	// Atomically claim the task; a task cancelled or deleted while queued is skipped.
	claimed, err := s.update(ctx, taskID, func(t *entities.Task) error {
		if t.Status != entities.TaskStatusPending {
			return errNotPending
		}
		t.MarkAsProcessing(workerID, s.stages[0].Name())
		return nil
	})
	if err != nil {
		if errors.Is(err, entities.ErrStoreUnavailable) && ctx.Err() == nil {
			if s.logger != nil {
				s.logger.Warn("⚠️ Task store unavailable, claim retried later",
					zap.String("task_id", taskID),
					zap.Int("worker_id", workerID),
					zap.Duration("delay", s.claimRetryDelay),
					zap.Error(err),
				)
			}
			s.requeue(ctx, taskID)
			return
		}
		if s.logger != nil {
			s.logger.Info("⏭️ Skipping task",
				zap.String("task_id", taskID),
				zap.Int("worker_id", workerID),
				zap.Error(err),
			)
		}
		return
	}

	s.active.Store(taskID, workerID)
	s.busy.Add(1)
	s.metrics.WorkerBusy(ctx, 1)
	defer func() {
		s.active.Delete(taskID)
		s.busy.Add(-1)
		s.metrics.WorkerBusy(ctx, -1)
	}()

	if s.logger != nil {
		s.logger.Info("👷 Worker claimed task",
			zap.Int("worker_id", workerID),
			zap.String("task_id", taskID),
			zap.String("file_id", claimed.FileID),
		)
	}
	s.publish(ctx, entities.EventStarted, claimed)

	taskCtx := jobcontext.TaskBegin(ctx, taskID, workerID)
	ws := &stage.Workspace{Task: claimed}

	for i, st := range s.stages {
		if i > 0 {
			next, band := st.Name(), st.Band()
			task, err := s.update(taskCtx, taskID, func(t *entities.Task) error {
				if t.CancelRequested {
					return entities.ErrCancelled
				}
				t.CurrentStage = next
				t.AdvanceProgress(band.Start)
				return nil
			})
			if err != nil {
				s.abort(taskCtx, taskID, err)
				return
			}
			s.publish(taskCtx, entities.EventStage, task)
		}

		stageCtx := jobcontext.WithStage(taskCtx, string(st.Name()))
		sink := &progressSink{s: s, ctx: stageCtx, taskID: taskID, band: st.Band()}

		began := time.Now()
		err := st.Run(stageCtx, ws, sink)
		s.metrics.StageDone(taskCtx, string(st.Name()), outcome(err), time.Since(began))
		if err != nil {
			s.abort(stageCtx, taskID, err)
			return
		}
	}

	s.finalize(taskCtx, taskID, ws)
}

// finalize stores the result artifacts and publishes the terminal state.
// A cancellation that arrived after the last checkpoint still wins.
func (s *Scheduler) finalize(ctx context.Context, taskID string, ws *stage.Workspace) {
	task, err := s.update(ctx, taskID, func(t *entities.Task) error {
		if t.CancelRequested {
			return entities.ErrCancelled
		}
		t.CurrentStage = entities.StageFinalizing
		return nil
	})
	if err != nil {
		s.abort(ctx, taskID, err)
		return
	}
	s.publish(ctx, entities.EventStage, task)

	result, written, err := s.writeArtifacts(ctx, task, ws)
	if err != nil {
		s.deleteBlobs(ctx, written)
		s.abort(ctx, taskID, entities.NewEngineError(fmt.Errorf("failed to store results: %w", err), false))
		return
	}

	final, err := s.update(ctx, taskID, func(t *entities.Task) error {
		if t.CancelRequested {
			t.MarkAsCancelled()
			return nil
		}
		t.MarkAsCompleted(result)
		return nil
	})
	if err != nil || final.Status != entities.TaskStatusCompleted {
		s.deleteBlobs(ctx, written)
	}
	if err != nil {
		s.abort(ctx, taskID, err)
		return
	}
	s.finished(ctx, final)
}

// writeArtifacts stores transcript, summary and the combined result document
func (s *Scheduler) writeArtifacts(ctx context.Context, task *entities.Task, ws *stage.Workspace) (entities.TaskResult, []string, error) {
	var written []string
	put := func(name string, v any) (string, error) {
		data, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to encode %s: %w", name, err)
		}
		storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
		defer cancel()
		info, err := s.blobs.Put(storeCtx, bytes.NewReader(data), int64(len(data)), entities.BlobMeta{
			OriginalName: name,
			ContentType:  "application/json",
		})
		if err != nil {
			return "", err
		}
		written = append(written, info.FileID)
		return info.FileID, nil
	}

	statCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	fileInfo, err := s.blobs.Stat(statCtx, task.FileID)
	cancel()
	if err != nil {
		return entities.TaskResult{}, nil, fmt.Errorf("failed to stat audio file: %w", err)
	}
	if fileInfo.Duration <= 0 && ws.Transcript != nil {
		fileInfo.Duration = ws.Transcript.Duration
	}

	transcriptID, err := put(task.ID+"_transcript.json", ws.Transcript)
	if err != nil {
		return entities.TaskResult{}, written, err
	}
	summaryID, err := put(task.ID+"_summary.json", ws.Summary)
	if err != nil {
		return entities.TaskResult{}, written, err
	}

	completedAt := time.Now().UTC()
	var processing float64
	if task.StartedAt != nil {
		processing = completedAt.Sub(*task.StartedAt).Seconds()
	}
	resultID, err := put(task.ID+"_result.json", entities.ResultDocument{
		TaskID:                task.ID,
		FileInfo:              fileInfo,
		Transcription:         ws.Transcript,
		Summary:               ws.Summary,
		ProcessingTime:        processing,
		ProcessingCompletedAt: completedAt,
	})
	if err != nil {
		return entities.TaskResult{}, written, err
	}

	return entities.TaskResult{
		FileID:                task.FileID,
		TranscriptID:          transcriptID,
		SummaryID:             summaryID,
		ResultID:              resultID,
		ProcessingCompletedAt: completedAt,
	}, written, nil
}

// abort settles a task whose stage sequence stopped early
func (s *Scheduler) abort(ctx context.Context, taskID string, cause error) {
	switch {
	case errors.Is(cause, entities.ErrAlreadyTerminal), errors.Is(cause, entities.ErrNotFound):
		// Settled or deleted elsewhere.
		return
	case ctx.Err() != nil:
		if s.logger != nil {
			s.logger.Warn("⚠️ Task interrupted by shutdown",
				zap.String("task_id", taskID),
				zap.Error(cause),
			)
		}
		return
	case errors.Is(cause, entities.ErrStoreUnavailable):
		if s.logger != nil {
			s.logger.Error("❌ Task store unavailable, task left for recovery",
				zap.String("task_id", taskID),
				zap.Error(cause),
			)
		}
		return
	}

	cancelled := errors.Is(cause, entities.ErrCancelled)
	task, err := s.update(ctx, taskID, func(t *entities.Task) error {
		if cancelled || t.CancelRequested {
			t.MarkAsCancelled()
			return nil
		}
		t.MarkAsFailed(entities.KindOf(cause), cause.Error())
		return nil
	})
	if err != nil {
		if s.logger != nil && !errors.Is(err, entities.ErrAlreadyTerminal) && !errors.Is(err, entities.ErrNotFound) {
			s.logger.Error("❌ Failed to settle task",
				zap.String("task_id", taskID),
				zap.Error(err),
			)
		}
		return
	}
	if s.logger != nil && task.Status == entities.TaskStatusFailed {
		meta := jobcontext.GetTaskMetadata(ctx)
		s.logger.Error("❌ Task failed",
			zap.String("task_id", taskID),
			zap.Int("worker_id", meta.WorkerID),
			zap.String("stage", meta.Stage),
			zap.String("error_kind", string(task.Error.Kind)),
			zap.Duration("elapsed", time.Since(meta.StartTime)),
			zap.Error(cause),
		)
	}
	s.finished(ctx, task)
}

// finished records a task that reached a terminal state
func (s *Scheduler) finished(ctx context.Context, task *entities.Task) {
	s.processed.Add(1)
	eventType := entities.EventCompleted
	switch task.Status {
	case entities.TaskStatusCompleted:
		s.succeeded.Add(1)
	case entities.TaskStatusFailed:
		s.failed.Add(1)
		eventType = entities.EventFailed
	case entities.TaskStatusCancelled:
		s.cancelled.Add(1)
		eventType = entities.EventCancelled
	}
	s.metrics.TaskFinished(ctx, string(task.Status))

	if s.logger != nil {
		s.logger.Info("🏁 Task finished",
			zap.String("task_id", task.ID),
			zap.String("status", string(task.Status)),
		)
	}
	s.publish(ctx, eventType, task)
}

// update writes through the task repository, retrying while the store is
// unavailable. Mutators run against a fresh copy on every attempt.
func (s *Scheduler) update(ctx context.Context, taskID string, mutate repositories.TaskMutator) (*entities.Task, error) {
	var task *entities.Task
	op := func() error {
		storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
		defer cancel()

		t, err := s.tasks.Update(storeCtx, taskID, mutate)
		task = t
		if err != nil && !errors.Is(err, entities.ErrStoreUnavailable) {
			return backoff.Permanent(err)
		}
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxInterval = time.Second
	bo.MaxElapsedTime = 0
	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, 3), ctx))
	return task, err
}

func (s *Scheduler) deleteBlobs(ctx context.Context, ids []string) {
	for _, id := range ids {
		storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
		if err := s.blobs.Delete(storeCtx, id); err != nil && s.logger != nil {
			s.logger.Warn("⚠️ Failed to delete artifact", zap.String("blob_id", id), zap.Error(err))
		}
		cancel()
	}
}

func (s *Scheduler) publish(ctx context.Context, eventType string, task *entities.Task) {
	if err := s.publisher.Publish(ctx, entities.NewTaskEvent(eventType, task)); err != nil && s.logger != nil {
		s.logger.Warn("⚠️ Failed to publish task event",
			zap.String("task_id", task.ID),
			zap.String("event", eventType),
			zap.Error(err),
		)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, entities.ErrCancelled):
		return "cancelled"
	default:
		return string(entities.KindOf(err))
	}
}

// progressSink maps stage-local progress into the stage band and writes it
// through the repository. It doubles as the cancellation checkpoint.
type progressSink struct {
	s      *Scheduler
	ctx    context.Context
	taskID string
	band   entities.Band

	mu   sync.Mutex
	last int
}

// Report records local progress. It returns ErrCancelled when the task has
// been cancelled, settled elsewhere, or deleted.
func (p *progressSink) Report(local int) error {
	overall := p.band.Map(local)

	p.mu.Lock()
	defer p.mu.Unlock()

	storeCtx, cancel := context.WithTimeout(p.ctx, p.s.storeTimeout)
	defer cancel()

	if overall <= p.last {
		task, err := p.s.tasks.Get(storeCtx, p.taskID)
		switch {
		case errors.Is(err, entities.ErrNotFound):
			return entities.ErrCancelled
		case err != nil:
			return nil
		case task.CancelRequested || task.Status.IsTerminal():
			return entities.ErrCancelled
		}
		return nil
	}

	task, err := p.s.tasks.Update(storeCtx, p.taskID, func(t *entities.Task) error {
		if t.CancelRequested {
			return entities.ErrCancelled
		}
		t.AdvanceProgress(overall)
		return nil
	})
	switch {
	case errors.Is(err, entities.ErrCancelled),
		errors.Is(err, entities.ErrAlreadyTerminal),
		errors.Is(err, entities.ErrNotFound):
		return entities.ErrCancelled
	case err != nil:
		// Progress is best effort; the stage keeps running.
		if p.s.logger != nil {
			p.s.logger.Warn("⚠️ Failed to record progress",
				zap.String("task_id", p.taskID),
				zap.Int("progress", overall),
				zap.Error(err),
			)
		}
		return nil
	}
	p.last = task.Progress
	p.s.publish(p.ctx, entities.EventProgress, task)
	return nil
}
