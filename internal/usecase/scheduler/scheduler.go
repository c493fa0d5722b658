package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/meetmemo/internal/domain/entities"
	"github.com/johnquangdev/meetmemo/internal/domain/repositories"
	"github.com/johnquangdev/meetmemo/internal/infrastructure/telemetry"
	"github.com/johnquangdev/meetmemo/internal/usecase/stage"
	"github.com/johnquangdev/meetmemo/pkg/config"
)

const (
	defaultStoreTimeout    = 5 * time.Second
	defaultClaimRetryDelay = 2 * time.Second
)

// EventPublisher broadcasts committed task transitions
type EventPublisher interface {
	Publish(ctx context.Context, ev entities.TaskEvent) error
}

// Stats is a point-in-time view of the worker pool
type Stats struct {
	Workers       int   `json:"workers"`
	BusyWorkers   int   `json:"busy_workers"`
	Queued        int   `json:"queued"`
	QueueCapacity int   `json:"queue_capacity"`
	Processed     int64 `json:"tasks_processed"`
	Succeeded     int64 `json:"tasks_succeeded"`
	Failed        int64 `json:"tasks_failed"`
	Cancelled     int64 `json:"tasks_cancelled"`
}

// Option customizes a Scheduler
type Option func(*Scheduler)

// WithPublisher sets where task events go
func WithPublisher(p EventPublisher) Option {
	return func(s *Scheduler) { s.publisher = p }
}

// WithMetrics sets the scheduler instruments
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// WithStoreTimeout bounds every task store call
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

// WithClaimRetryDelay sets how long a task waits before it is queued again
// after its claim could not reach the store
func WithClaimRetryDelay(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.claimRetryDelay = d
		}
	}
}

// Scheduler admits tasks into a FIFO queue and runs their stages on a fixed
// pool of workers. A task is owned by exactly one worker from claim to
// terminal state; every state change goes through the task repository.
type Scheduler struct {
	tasks        repositories.TaskRepository
	blobs        repositories.BlobRepository
	stages       []stage.Stage
	publisher    EventPublisher
	metrics      *telemetry.Metrics
	logger       *zap.Logger
	cfg          config.SchedulerConfig
	storeTimeout time.Duration

	claimRetryDelay time.Duration

	// queue may hold ids of tasks cancelled while waiting; capacity is
	// accounted by waiting, which only counts ids still in queued.
	queue   chan string
	queued  sync.Map // task id -> struct{}
	waiting atomic.Int32
	active  sync.Map // task id -> worker id
	busy    atomic.Int32

	processed atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	cancelled atomic.Int64

	mu        sync.Mutex
	running   bool
	stopChan  chan struct{}
	cancelRun context.CancelFunc
	wg        sync.WaitGroup
}

// NewScheduler creates a scheduler running stages in the given order
func NewScheduler(
	tasks repositories.TaskRepository,
	blobs repositories.BlobRepository,
	stages []stage.Stage,
	cfg config.SchedulerConfig,
	logger *zap.Logger,
	opts ...Option,
) *Scheduler {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	s := &Scheduler{
		tasks:        tasks,
		blobs:        blobs,
		stages:       stages,
		publisher:    nopPublisher{},
		logger:       logger,
		cfg:          cfg,
		storeTimeout: defaultStoreTimeout,
		queue:        make(chan string, 2*cfg.QueueSize),

		claimRetryDelay: defaultClaimRetryDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the workers and, when enabled, recovers tasks left behind
// by a previous process. Recovery blocks until every pending task is queued.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.running = true
	s.stopChan = make(chan struct{})
	s.cancelRun = cancel

	if s.logger != nil {
		s.logger.Info("🚀 Starting task scheduler",
			zap.Int("worker_count", s.cfg.Workers),
			zap.Int("queue_size", s.cfg.QueueSize),
		)
	}
	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go s.worker(runCtx, i)
	}
	s.mu.Unlock()

	if s.cfg.RecoverOnStart {
		if err := s.Recover(runCtx); err != nil {
			return fmt.Errorf("failed to recover tasks: %w", err)
		}
	}
	return nil
}

// Stop stops taking new tasks and waits for running ones. When ctx expires
// first, in-flight stage calls are cancelled; their tasks stay processing
// and are failed by the next startup recovery.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler not running")
	}
	s.running = false
	close(s.stopChan)
	cancel := s.cancelRun
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Info("🛑 Stopping task scheduler...")
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
		cancel()
		<-done
	}
	cancel()

	if s.logger != nil {
		s.logger.Info("✅ Task scheduler stopped", zap.Error(err))
	}
	return err
}

// Admit queues a pending task. A full queue yields ErrCapacityExceeded.
func (s *Scheduler) Admit(ctx context.Context, taskID string) error {
	reserved, fresh := s.reserve(taskID)
	if !reserved {
		return fmt.Errorf("%w: %d tasks waiting", entities.ErrCapacityExceeded, s.cfg.QueueSize)
	}
	if !fresh {
		return nil
	}
	select {
	case s.queue <- taskID:
		s.metrics.TaskSubmitted(ctx)
		return nil
	default:
		s.release(taskID)
		return fmt.Errorf("%w: %d tasks waiting", entities.ErrCapacityExceeded, s.cfg.QueueSize)
	}
}

// enqueueWait queues a task, waiting for a free slot instead of failing
func (s *Scheduler) enqueueWait(ctx context.Context, taskID string) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		reserved, fresh := s.reserve(taskID)
		if reserved {
			if !fresh {
				return nil
			}
			select {
			case s.queue <- taskID:
				return nil
			case <-ctx.Done():
				s.release(taskID)
				return ctx.Err()
			}
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// reserve takes a queue slot for taskID. fresh is false when the id already
// holds one.
func (s *Scheduler) reserve(taskID string) (reserved, fresh bool) {
	if _, ok := s.queued.Load(taskID); ok {
		return true, false
	}
	for {
		n := s.waiting.Load()
		if int(n) >= s.cfg.QueueSize {
			return false, false
		}
		if s.waiting.CompareAndSwap(n, n+1) {
			break
		}
	}
	if _, loaded := s.queued.LoadOrStore(taskID, struct{}{}); loaded {
		s.waiting.Add(-1)
		return true, false
	}
	return true, true
}

// release frees the slot of taskID. It reports false when the slot was
// already freed, e.g. by a cancel while the task was waiting.
func (s *Scheduler) release(taskID string) bool {
	if _, ok := s.queued.LoadAndDelete(taskID); !ok {
		return false
	}
	s.waiting.Add(-1)
	return true
}

// requeue queues a task again after the claim retry delay. The task record
// is still pending, so the next claim picks it up normally.
func (s *Scheduler) requeue(ctx context.Context, taskID string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		timer := time.NewTimer(s.claimRetryDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}

		stopCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			select {
			case <-s.stopChan:
				cancel()
			case <-stopCtx.Done():
			}
		}()
		if err := s.enqueueWait(stopCtx, taskID); err != nil {
			return
		}
		s.metrics.TaskRequeued(ctx)
		if s.logger != nil {
			s.logger.Info("🔁 Task queued again", zap.String("task_id", taskID))
		}
	}()
}

// Cancel cancels a pending task immediately or flags a processing one for
// its worker to settle at the next checkpoint. Terminal tasks are returned
// unchanged together with ErrAlreadyTerminal.
func (s *Scheduler) Cancel(ctx context.Context, taskID string) (*entities.Task, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	task, err := s.tasks.Update(storeCtx, taskID, func(t *entities.Task) error {
		if t.Status == entities.TaskStatusPending {
			t.MarkAsCancelled()
			return nil
		}
		t.CancelRequested = true
		return nil
	})
	if err != nil {
		return task, err
	}

	if task.Status == entities.TaskStatusCancelled {
		if s.release(taskID) {
			s.metrics.TaskDequeued(ctx)
		}
		s.finished(ctx, task)
	} else if s.logger != nil {
		s.logger.Info("✋ Cancellation requested",
			zap.String("task_id", taskID),
			zap.String("stage", string(task.CurrentStage)),
		)
	}
	return task, nil
}

// Stats returns worker pool counters
func (s *Scheduler) Stats() Stats {
	return Stats{
		Workers:       s.cfg.Workers,
		BusyWorkers:   int(s.busy.Load()),
		Queued:        int(s.waiting.Load()),
		QueueCapacity: s.cfg.QueueSize,
		Processed:     s.processed.Load(),
		Succeeded:     s.succeeded.Load(),
		Failed:        s.failed.Load(),
		Cancelled:     s.cancelled.Load(),
	}
}

// Active maps the ids of tasks currently on a worker to that worker
func (s *Scheduler) Active() map[string]int {
	out := make(map[string]int)
	s.active.Range(func(k, v any) bool {
		out[k.(string)] = v.(int)
		return true
	})
	return out
}

// Recover fails tasks interrupted by a previous shutdown and re-queues
// pending ones oldest first.
func (s *Scheduler) Recover(ctx context.Context) error {
	stale, err := s.listByStatus(ctx, entities.TaskStatusProcessing)
	if err != nil {
		return err
	}
	for _, t := range stale {
		task, err := s.update(ctx, t.ID, func(t *entities.Task) error {
			t.MarkAsFailed(entities.ErrorKindEngine, "processing interrupted by service restart")
			return nil
		})
		if err != nil {
			if errors.Is(err, entities.ErrAlreadyTerminal) || errors.Is(err, entities.ErrNotFound) {
				continue
			}
			return err
		}
		s.finished(ctx, task)
	}

	pending, err := s.listByStatus(ctx, entities.TaskStatusPending)
	if err != nil {
		return err
	}
	for _, t := range pending {
		if err := s.enqueueWait(ctx, t.ID); err != nil {
			return err
		}
		s.metrics.TaskSubmitted(ctx)
	}

	if s.logger != nil && len(stale)+len(pending) > 0 {
		s.logger.Info("♻️ Recovered tasks",
			zap.Int("interrupted", len(stale)),
			zap.Int("requeued", len(pending)),
		)
	}
	return nil
}

func (s *Scheduler) listByStatus(ctx context.Context, status entities.TaskStatus) ([]*entities.Task, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.tasks.ListByStatus(storeCtx, status, -1)
}

func (s *Scheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	if s.logger != nil {
		s.logger.Info("👷 Worker started", zap.Int("worker_id", workerID))
	}

	for {
		select {
		case <-s.stopChan:
			if s.logger != nil {
				s.logger.Info("👷 Worker stopping", zap.Int("worker_id", workerID))
			}
			return
		case <-ctx.Done():
			return
		case taskID := <-s.queue:
			if !s.release(taskID) {
				// Cancelled while waiting.
				continue
			}
			s.metrics.TaskDequeued(ctx)
			s.runTask(ctx, workerID, taskID)
		}
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, entities.TaskEvent) error { return nil }
