package stage

import (
	"context"

	"github.com/johnquangdev/meetmemo/internal/domain/entities"
)

// Workspace carries the outputs of earlier stages to later ones for a single
// task run. It is owned by one worker and never shared.
type Workspace struct {
	Task       *entities.Task
	Transcript *entities.TranscriptionResult
	Summary    *entities.SummaryResult
}

// ProgressSink receives stage-local progress (0-100). Report returns
// ErrCancelled once the task has a pending cancellation; stages must stop at
// that point and return the error.
type ProgressSink interface {
	Report(local int) error
}

// ProgressFunc adapts a function to ProgressSink
type ProgressFunc func(local int) error

// Report calls f(local)
func (f ProgressFunc) Report(local int) error { return f(local) }

// Discard ignores progress
var Discard ProgressSink = ProgressFunc(func(int) error { return nil })

// Stage is one step of the pipeline. The scheduler runs stages in order and
// maps their local progress through Band.
type Stage interface {
	Name() entities.Stage
	Band() entities.Band
	Run(ctx context.Context, ws *Workspace, sink ProgressSink) error
}
