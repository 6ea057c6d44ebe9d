// Package runner contains the job backends. A runner executes one job
// and reports everything that happens through an event stream.
package runner

import (
	"context"

	"github.com/bioclick/bioclick/internal/events"
	"github.com/bioclick/bioclick/internal/models"
)

// Runner executes a single job. The returned channel carries events in
// occurrence order and is closed by the runner after exactly one
// terminal event (Completed or Failed). The runner owns the goroutine
// behind the channel; callers only read.
type Runner interface {
	Run(ctx context.Context, job *models.JobHandle) <-chan events.Event
}

// eventChanSize buffers the per-job stream so short bursts of engine
// output do not stall the backend while the relay catches up.
const eventChanSize = 64
