package health

import "time"

// HealthResponse is the liveness answer
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
}

// DependencyStatus reports one checked dependency
type DependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// SchedulerStatus summarizes the worker pool
type SchedulerStatus struct {
	Workers       int `json:"workers"`
	BusyWorkers   int `json:"busy_workers"`
	Queued        int `json:"queued"`
	QueueCapacity int `json:"queue_capacity"`
}

// DetailedHealthResponse includes every dependency
type DetailedHealthResponse struct {
	HealthResponse
	Dependencies map[string]DependencyStatus `json:"dependencies"`
	Scheduler    SchedulerStatus             `json:"scheduler"`
}
