package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/johnquangdev/meetmemo/internal/domain/entities"
	"github.com/johnquangdev/meetmemo/internal/domain/repositories"
	"github.com/johnquangdev/meetmemo/internal/infrastructure/cache"
	"github.com/johnquangdev/meetmemo/internal/usecase/scheduler"
	"github.com/johnquangdev/meetmemo/pkg/config"
)

var languageCode = regexp.MustCompile(`^[a-z]{2,3}(-[A-Za-z]{2,4})?$`)

// Option customizes the task service
type Option func(*taskService)

// WithPublisher sets where submission events go
func WithPublisher(p scheduler.EventPublisher) Option {
	return func(s *taskService) { s.publisher = p }
}

// WithHealthChecks adds dependency probes to DetailedHealth
func WithHealthChecks(checks ...HealthCheck) Option {
	return func(s *taskService) { s.checks = append(s.checks, checks...) }
}

type taskService struct {
	tasks        repositories.TaskRepository
	blobs        repositories.BlobRepository
	sched        Scheduler
	publisher    scheduler.EventPublisher
	results      *cache.MemoryStore[*ResultView]
	checks       []HealthCheck
	upload       config.UploadConfig
	storeTimeout time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

// NewTaskService wires the task use case. Close releases the artifact cache.
func NewTaskService(
	tasks repositories.TaskRepository,
	blobs repositories.BlobRepository,
	sched Scheduler,
	cfg *config.Config,
	logger *zap.Logger,
	opts ...Option,
) Service {
	storeTimeout := cfg.Server.StoreTimeout
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	ttl := cfg.Server.CacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	s := &taskService{
		tasks:        tasks,
		blobs:        blobs,
		sched:        sched,
		publisher:    nopPublisher{},
		results:      cache.NewMemoryStore[*ResultView](ttl),
		upload:       cfg.Upload,
		storeTimeout: storeTimeout,
		logger:       logger,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close stops the artifact cache janitor
func (s *taskService) Close() {
	s.results.Close()
}

func (s *taskService) Submit(ctx context.Context, input SubmitInput) (*SubmitOutput, error) {
	if strings.TrimSpace(input.FileName) == "" || input.Body == nil {
		return nil, entities.ErrEmptyFile
	}
	ext := entities.FileExtension(input.FileName)
	if !s.upload.IsSupportedFormat(ext) {
		return nil, fmt.Errorf("%w: .%s (supported: %s)", entities.ErrUnsupportedFormat, ext, strings.Join(s.upload.SupportedFormats, ", "))
	}
	if input.Size > s.upload.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds the %d byte limit", entities.ErrFileTooLarge, input.Size, s.upload.MaxFileSize)
	}
	if input.Size == 0 {
		return nil, fmt.Errorf("%w: uploaded file is empty", entities.ErrEmptyFile)
	}

	model := entities.WhisperModel(input.WhisperModel)
	if model == "" {
		model = entities.WhisperModelBase
	}
	if !model.IsValid() {
		return nil, fmt.Errorf("%w: unknown whisper model %q", entities.ErrValidation, input.WhisperModel)
	}
	language := strings.TrimSpace(input.Language)
	if language == "" {
		language = entities.LanguageAuto
	}
	if language != entities.LanguageAuto && !languageCode.MatchString(language) {
		return nil, fmt.Errorf("%w: invalid language %q", entities.ErrValidation, input.Language)
	}

	uploadTime := s.now().UTC()
	title := strings.TrimSpace(input.MeetingTitle)
	if title == "" {
		title = "Meeting_" + uploadTime.Format("20060102_150405")
	}

	// Streaming the body is bounded by the request, not the store timeout.
	info, err := s.blobs.Put(ctx, input.Body, input.Size, entities.BlobMeta{
		OriginalName: input.FileName,
		ContentType:  entities.AudioContentType(input.FileName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	task, err := s.tasks.Create(storeCtx, info.FileID, entities.TaskConfig{
		Language:     language,
		WhisperModel: model,
		MeetingTitle: title,
	})
	cancel()
	if err != nil {
		s.deleteBlob(ctx, info.FileID)
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if err := s.sched.Admit(ctx, task.ID); err != nil {
		s.rollback(ctx, task)
		if s.logger != nil {
			s.logger.Warn("⚠️ Upload rejected, scheduler at capacity",
				zap.String("task_id", task.ID),
				zap.Error(err),
			)
		}
		return nil, err
	}

	if err := s.publisher.Publish(ctx, entities.NewTaskEvent(entities.EventSubmitted, task)); err != nil && s.logger != nil {
		s.logger.Warn("⚠️ Failed to publish task event", zap.String("task_id", task.ID), zap.Error(err))
	}
	if s.logger != nil {
		s.logger.Info("📤 Upload accepted",
			zap.String("task_id", task.ID),
			zap.String("file_id", info.FileID),
			zap.String("file_name", input.FileName),
			zap.Int64("size", info.FileSize),
			zap.String("language", language),
			zap.String("model", string(model)),
		)
	}

	return &SubmitOutput{
		TaskID:       task.ID,
		FileInfo:     info,
		MeetingTitle: title,
		Language:     language,
		WhisperModel: model,
		UploadTime:   uploadTime,
	}, nil
}

func (s *taskService) GetStatus(ctx context.Context, taskID string) (*StatusOutput, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	task, err := s.tasks.Get(storeCtx, taskID)
	cancel()
	if err != nil {
		return nil, err
	}

	out := &StatusOutput{Task: task}
	if task.Status != entities.TaskStatusCompleted || task.Result == nil {
		return out, nil
	}

	if view, ok := s.results.Get(task.ID); ok {
		out.Result = view
		return out, nil
	}
	view, err := s.loadResult(ctx, task)
	if err != nil {
		return nil, err
	}
	s.results.Set(task.ID, view)
	out.Result = view
	return out, nil
}

// loadResult reads the artifacts of a completed task concurrently
func (s *taskService) loadResult(ctx context.Context, task *entities.Task) (*ResultView, error) {
	view := &ResultView{
		FileID:                task.FileID,
		ProcessingCompletedAt: task.Result.ProcessingCompletedAt,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.readJSON(gctx, task.Result.TranscriptID, &view.Transcription)
	})
	g.Go(func() error {
		return s.readJSON(gctx, task.Result.SummaryID, &view.Summary)
	})
	g.Go(func() error {
		storeCtx, cancel := context.WithTimeout(gctx, s.storeTimeout)
		defer cancel()
		info, err := s.blobs.Stat(storeCtx, task.FileID)
		if errors.Is(err, entities.ErrNotFound) {
			// The audio may have been removed on its own; the result stays readable.
			return nil
		}
		if err != nil {
			return err
		}
		view.FileInfo = info
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load results of task %s: %w", task.ID, err)
	}
	if view.FileInfo != nil && view.FileInfo.Duration <= 0 && view.Transcription != nil {
		view.FileInfo.Duration = view.Transcription.Duration
	}
	return view, nil
}

func (s *taskService) readJSON(ctx context.Context, blobID string, v any) error {
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	data, err := s.blobs.Get(storeCtx, blobID)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (s *taskService) Cancel(ctx context.Context, taskID string) (*CancelOutput, error) {
	task, err := s.sched.Cancel(ctx, taskID)
	if errors.Is(err, entities.ErrAlreadyTerminal) && task != nil {
		return &CancelOutput{Task: task, AlreadyTerminal: true}, nil
	}
	if err != nil {
		return nil, err
	}
	return &CancelOutput{Task: task}, nil
}

// DeleteResult is idempotent: an id that is already gone is a no-op.
func (s *taskService) DeleteResult(ctx context.Context, taskID string) error {
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	task, err := s.tasks.Get(storeCtx, taskID)
	cancel()
	if errors.Is(err, entities.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if !task.Status.IsTerminal() {
		if _, err := s.sched.Cancel(ctx, taskID); err != nil &&
			!errors.Is(err, entities.ErrAlreadyTerminal) && !errors.Is(err, entities.ErrNotFound) {
			return err
		}
		// Re-read: the worker may have completed before the cancel landed.
		storeCtx, cancel = context.WithTimeout(ctx, s.storeTimeout)
		if latest, err := s.tasks.Get(storeCtx, taskID); err == nil {
			task = latest
		}
		cancel()
	}

	s.rollback(ctx, task)
	if s.logger != nil {
		s.logger.Info("🗑️ Task result deleted", zap.String("task_id", taskID))
	}
	return nil
}

func (s *taskService) DeleteFile(ctx context.Context, fileID string) error {
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	task, err := s.tasks.GetByFileID(storeCtx, fileID)
	cancel()
	switch {
	case err == nil:
		return s.DeleteResult(ctx, task.ID)
	case !errors.Is(err, entities.ErrNotFound):
		return err
	}

	storeCtx, cancel = context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if _, err := s.blobs.Stat(storeCtx, fileID); err != nil {
		return err
	}
	if err := s.blobs.Delete(storeCtx, fileID); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("🗑️ File deleted", zap.String("file_id", fileID))
	}
	return nil
}

func (s *taskService) ListActive(ctx context.Context) ([]ActiveTask, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	workers := s.sched.Active()
	var out []ActiveTask
	for _, status := range []entities.TaskStatus{entities.TaskStatusProcessing, entities.TaskStatusPending} {
		tasks, err := s.tasks.ListByStatus(storeCtx, status, -1)
		if err != nil {
			return nil, err
		}
		for _, t := range tasks {
			workerID, ok := workers[t.ID]
			if !ok {
				workerID = t.WorkerID
			}
			out = append(out, ActiveTask{Task: t, WorkerID: workerID})
		}
	}
	return out, nil
}

func (s *taskService) Stats(ctx context.Context) (*StatsOutput, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	counts, err := s.tasks.CountByStatus(storeCtx)
	cancel()
	if err != nil {
		return nil, err
	}
	stats := s.sched.Stats()
	return &StatsOutput{
		Timestamp:    s.now().UTC(),
		ActiveTasks:  counts[entities.TaskStatusProcessing],
		QueuedTasks:  stats.Queued,
		TotalPending: counts[entities.TaskStatusPending],
		ByStatus:     counts,
		Scheduler:    stats,
	}, nil
}

func (s *taskService) Formats() FormatsOutput {
	formats := make([]string, len(s.upload.SupportedFormats))
	for i, f := range s.upload.SupportedFormats {
		formats[i] = "." + f
	}
	return FormatsOutput{
		SupportedFormats: formats,
		MaxFileSize:      s.upload.MaxFileSize,
		MaxFileSizeMB:    float64(s.upload.MaxFileSize) / (1024 * 1024),
	}
}

func (s *taskService) DetailedHealth(ctx context.Context) HealthReport {
	report := HealthReport{
		Status:     HealthHealthy,
		Timestamp:  s.now().UTC(),
		Components: make(map[string]ComponentHealth, len(s.checks)+2),
		Scheduler:  s.sched.Stats(),
	}

	checks := append([]HealthCheck{
		{Name: "task_store", Check: s.tasks.Ping},
		{Name: "blob_store", Check: s.blobs.Ping},
	}, s.checks...)
	for _, c := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
		err := c.Check(checkCtx)
		cancel()
		if err != nil {
			report.Status = HealthDegraded
			report.Components[c.Name] = ComponentHealth{Status: HealthUnhealthy, Error: err.Error()}
			continue
		}
		report.Components[c.Name] = ComponentHealth{Status: HealthHealthy}
	}
	return report
}

// rollback removes a task and every blob it references. Missing pieces are
// skipped, so it is safe to repeat.
func (s *taskService) rollback(ctx context.Context, task *entities.Task) {
	s.results.Delete(task.ID)
	if task.Result != nil {
		for _, id := range []string{task.Result.TranscriptID, task.Result.SummaryID, task.Result.ResultID} {
			if id != "" {
				s.deleteBlob(ctx, id)
			}
		}
	}
	s.deleteBlob(ctx, task.FileID)

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.tasks.Delete(storeCtx, task.ID); err != nil && s.logger != nil {
		s.logger.Warn("⚠️ Failed to delete task", zap.String("task_id", task.ID), zap.Error(err))
	}
}

func (s *taskService) deleteBlob(ctx context.Context, id string) {
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.blobs.Delete(storeCtx, id); err != nil && s.logger != nil {
		s.logger.Warn("⚠️ Failed to delete blob", zap.String("blob_id", id), zap.Error(err))
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, entities.TaskEvent) error { return nil }
