package presenter

import (
	"time"

	"github.com/johnquangdev/meetmemo/internal/adapter/dto/health"
	taskuse "github.com/johnquangdev/meetmemo/internal/usecase/task"
)

const (
	serviceName    = "meetmemo"
	serviceVersion = "1.0.0"
)

// ToHealthResponse builds the liveness answer
func ToHealthResponse(now time.Time) *health.HealthResponse {
	return &health.HealthResponse{
		Status:    taskuse.HealthHealthy,
		Timestamp: now.UTC(),
		Service:   serviceName,
		Version:   serviceVersion,
	}
}

// ToDetailedHealthResponse converts a dependency report
func ToDetailedHealthResponse(r taskuse.HealthReport) *health.DetailedHealthResponse {
	deps := make(map[string]health.DependencyStatus, len(r.Components))
	for name, c := range r.Components {
		deps[name] = health.DependencyStatus{Status: c.Status, Error: c.Error}
	}
	return &health.DetailedHealthResponse{
		HealthResponse: health.HealthResponse{
			Status:    r.Status,
			Timestamp: r.Timestamp,
			Service:   serviceName,
			Version:   serviceVersion,
		},
		Dependencies: deps,
		Scheduler: health.SchedulerStatus{
			Workers:       r.Scheduler.Workers,
			BusyWorkers:   r.Scheduler.BusyWorkers,
			Queued:        r.Scheduler.Queued,
			QueueCapacity: r.Scheduler.QueueCapacity,
		},
	}
}
