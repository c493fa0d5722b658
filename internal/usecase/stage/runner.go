package stage

import (
	"context"
	"errors"
	"fmt"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meetmemo/internal/domain/entities"
	"github.com/johnquangdev/meetmemo/internal/infrastructure/telemetry"
	"github.com/johnquangdev/meetmemo/pkg/config"
	"github.com/johnquangdev/meetmemo/pkg/jobcontext"
)

// Policy bounds a single engine call
type Policy struct {
	Timeout        time.Duration // per attempt
	MaxRetries     int
	BackoffInitial time.Duration
	BackoffMax     time.Duration
}

// TranscriptionPolicy builds the transcription stage policy from config
func TranscriptionPolicy(cfg config.StageConfig) Policy {
	return Policy{
		Timeout:        cfg.TranscriptionTimeout,
		MaxRetries:     cfg.MaxRetries,
		BackoffInitial: cfg.BackoffInitial,
		BackoffMax:     cfg.BackoffMax,
	}
}

// SummaryPolicy builds the summary stage policy from config
func SummaryPolicy(cfg config.StageConfig) Policy {
	return Policy{
		Timeout:        cfg.SummaryTimeout,
		MaxRetries:     cfg.MaxRetries,
		BackoffInitial: cfg.BackoffInitial,
		BackoffMax:     cfg.BackoffMax,
	}
}

// CallFunc is one engine invocation
type CallFunc[In, Out any] func(ctx context.Context, in In, report func(local int) error) (Out, error)

// Runner executes an engine call with a per-attempt deadline and retries
// transient failures with exponential backoff. It never touches the task store.
type Runner[In, Out any] struct {
	name    entities.Stage
	call    CallFunc[In, Out]
	policy  Policy
	metrics *telemetry.Metrics
	logger  *zap.Logger
}

// NewRunner creates a runner for the named stage
func NewRunner[In, Out any](name entities.Stage, call CallFunc[In, Out], policy Policy, metrics *telemetry.Metrics, logger *zap.Logger) *Runner[In, Out] {
	if policy.BackoffInitial <= 0 {
		policy.BackoffInitial = 2 * time.Second
	}
	if policy.BackoffMax < policy.BackoffInitial {
		policy.BackoffMax = policy.BackoffInitial
	}
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	return &Runner[In, Out]{name: name, call: call, policy: policy, metrics: metrics, logger: logger}
}

type attemptResult[Out any] struct {
	out Out
	err error
}

// Run calls the engine until it succeeds, fails permanently, or the retry
// budget is spent. The last error is returned.
func (r *Runner[In, Out]) Run(ctx context.Context, in In, sink ProgressSink) (Out, error) {
	if sink == nil {
		sink = Discard
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.policy.BackoffInitial
	bo.MaxInterval = r.policy.BackoffMax
	bo.MaxElapsedTime = 0 // bounded by the retry count

	var (
		out        Out
		attempt    int
		attemptCtx = ctx
	)
	operation := func() error {
		attemptCtx = jobcontext.SetRetryAttempt(ctx, attempt)
		attempt++

		res, err := r.attempt(attemptCtx, in, sink)
		if err == nil {
			out = res
			return nil
		}
		if !entities.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		r.metrics.StageRetried(ctx, string(r.name))
		if r.logger != nil {
			meta := jobcontext.GetTaskMetadata(attemptCtx)
			fields := []zap.Field{
				zap.String("task_id", meta.TaskID),
				zap.String("stage", string(r.name)),
				zap.Int("worker_id", meta.WorkerID),
				zap.Int("retry_attempt", meta.RetryAttempt),
				zap.Duration("backoff", wait),
				zap.Error(err),
			}
			if !meta.StartTime.IsZero() {
				fields = append(fields, zap.Duration("task_elapsed", time.Since(meta.StartTime)))
			}
			r.logger.Warn("🔁 Stage attempt failed, retrying", fields...)
		}
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(r.policy.MaxRetries)), ctx)
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		var zero Out
		return zero, err
	}
	return out, nil
}

// attempt runs one engine call under its own deadline. The deadline is
// enforced even when the engine ignores its context.
func (r *Runner[In, Out]) attempt(ctx context.Context, in In, sink ProgressSink) (Out, error) {
	var zero Out
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	attemptCtx, cancel := context.WithTimeout(ctx, r.policy.Timeout)
	defer cancel()

	done := make(chan attemptResult[Out], 1)
	go func() {
		res, err := r.call(attemptCtx, in, sink.Report)
		done <- attemptResult[Out]{out: res, err: err}
	}()

	select {
	case res := <-done:
		if res.err == nil {
			return res.out, nil
		}
		return zero, r.classify(ctx, attemptCtx, res.err)
	case <-attemptCtx.Done():
		return zero, r.classify(ctx, attemptCtx, attemptCtx.Err())
	}
}

// classify turns a raw attempt failure into a StageError
func (r *Runner[In, Out]) classify(parent, attemptCtx context.Context, err error) error {
	switch {
	case errors.Is(err, entities.ErrCancelled):
		return err
	case parent.Err() != nil:
		// The worker is shutting down; not a stage failure.
		return parent.Err()
	case errors.Is(attemptCtx.Err(), context.DeadlineExceeded):
		return entities.NewTimeoutError(fmt.Errorf("%s exceeded %s", r.name, r.policy.Timeout))
	}

	var se *entities.StageError
	if errors.As(err, &se) {
		return err
	}
	return entities.NewEngineError(err, jobcontext.IsRetryableError(err))
}
