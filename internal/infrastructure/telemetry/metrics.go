package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/johnquangdev/meetmemo/pkg/config"
)

const instrumentationName = "github.com/johnquangdev/meetmemo/scheduler"

// Setup installs the global meter provider. Metrics are exported to stdout
// only when enabled; otherwise instruments record into a provider without readers.
func Setup(cfg config.TelemetryConfig) (*sdkmetric.MeterProvider, error) {
	var opts []sdkmetric.Option
	if cfg.StdoutMetrics {
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout metric exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.ExportInterval)),
		))
	}

	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// Metrics records scheduler activity. A nil *Metrics is valid and records nothing.
type Metrics struct {
	submitted     metric.Int64Counter
	finished      metric.Int64Counter
	stageDuration metric.Float64Histogram
	stageRetries  metric.Int64Counter
	queued        metric.Int64UpDownCounter
	busyWorkers   metric.Int64UpDownCounter
}

// NewMetrics creates the scheduler instruments on mp
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(instrumentationName)
	m := &Metrics{}
	var err error

	if m.submitted, err = meter.Int64Counter("meetmemo.tasks.submitted",
		metric.WithDescription("Tasks accepted for processing")); err != nil {
		return nil, err
	}
	if m.finished, err = meter.Int64Counter("meetmemo.tasks.finished",
		metric.WithDescription("Tasks that reached a terminal state")); err != nil {
		return nil, err
	}
	if m.stageDuration, err = meter.Float64Histogram("meetmemo.stage.duration",
		metric.WithDescription("Wall-clock time of one stage including retries"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.stageRetries, err = meter.Int64Counter("meetmemo.stage.retries",
		metric.WithDescription("Stage attempts that were retried")); err != nil {
		return nil, err
	}
	if m.queued, err = meter.Int64UpDownCounter("meetmemo.queue.depth",
		metric.WithDescription("Tasks waiting for a worker")); err != nil {
		return nil, err
	}
	if m.busyWorkers, err = meter.Int64UpDownCounter("meetmemo.workers.busy",
		metric.WithDescription("Workers currently running a task")); err != nil {
		return nil, err
	}
	return m, nil
}

// TaskSubmitted counts an admitted task
func (m *Metrics) TaskSubmitted(ctx context.Context) {
	if m == nil {
		return
	}
	m.submitted.Add(ctx, 1)
	m.queued.Add(ctx, 1)
}

// TaskDequeued records a task leaving the admission queue
func (m *Metrics) TaskDequeued(ctx context.Context) {
	if m == nil {
		return
	}
	m.queued.Add(ctx, -1)
}

// TaskRequeued records a task put back on the admission queue
func (m *Metrics) TaskRequeued(ctx context.Context) {
	if m == nil {
		return
	}
	m.queued.Add(ctx, 1)
}

// TaskFinished counts a terminal task by status
func (m *Metrics) TaskFinished(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.finished.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// StageDone records how long a stage ran and how it ended
func (m *Metrics) StageDone(ctx context.Context, stage, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("outcome", outcome),
	))
}

// StageRetried counts a retried stage attempt
func (m *Metrics) StageRetried(ctx context.Context, stage string) {
	if m == nil {
		return
	}
	m.stageRetries.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

// WorkerBusy adjusts the busy worker gauge by delta
func (m *Metrics) WorkerBusy(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.busyWorkers.Add(ctx, delta)
}
