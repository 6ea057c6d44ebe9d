// Package dispatch coordinates job submission: validation, the busy
// guard, backend selection, and relaying runner events onto the bus.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/bioclick/bioclick/internal/events"
	"github.com/bioclick/bioclick/internal/logging"
	"github.com/bioclick/bioclick/internal/models"
	"github.com/bioclick/bioclick/internal/runner"
)

// ErrJobInFlight is returned when a dispatch is attempted while another
// job has not yet reached its terminal event.
var ErrJobInFlight = errors.New("a job is already in flight")

// ValidationError describes a request rejected before any backend
// activity. Nothing is spawned, uploaded, or published when one occurs.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid job request: %s: %s", e.Field, e.Message)
}

// Notifier receives terminal outcomes for desktop notification. A nil
// notifier disables notifications.
type Notifier interface {
	JobCompleted(job *models.JobHandle, exitCode int)
	JobFailed(job *models.JobHandle, reason string)
}

// Dispatcher is the single entry point for running jobs. It enforces
// one job in flight at a time and forwards runner events to the bus
// verbatim, in order.
type Dispatcher struct {
	bus         *events.Bus
	runners     map[models.JobKind]runner.Runner
	logger      *logging.Logger
	notifier    Notifier
	uploadLimit int64

	mu     sync.Mutex
	active *models.JobHandle
}

// New creates a dispatcher. uploadLimit caps the input size for remote
// jobs; non-positive disables the check.
func New(bus *events.Bus, local, remote runner.Runner, uploadLimit int64, logger *logging.Logger, notifier Notifier) *Dispatcher {
	return &Dispatcher{
		bus: bus,
		runners: map[models.JobKind]runner.Runner{
			models.JobKindLocal:  local,
			models.JobKindRemote: remote,
		},
		logger:      logger,
		notifier:    notifier,
		uploadLimit: uploadLimit,
	}
}

// Dispatch validates req, claims the busy guard, and starts the job.
// Validation failures and ErrJobInFlight are returned synchronously
// with no events published and no backend activity. On success the
// returned handle identifies the running job; its outcome arrives on
// the bus.
func (d *Dispatcher) Dispatch(ctx context.Context, req models.JobRequest) (*models.JobHandle, error) {
	if err := d.validate(req); err != nil {
		return nil, err
	}

	d.mu.Lock()
	if d.active != nil {
		d.mu.Unlock()
		return nil, ErrJobInFlight
	}
	job := models.NewJobHandle(req)
	d.active = job
	d.mu.Unlock()

	d.logger.Info().
		Str("job_id", job.ID).
		Str("kind", string(req.Kind)).
		Str("input", req.InputPath).
		Msg("Dispatching job")

	d.bus.Publish(events.NewStateChange(job.ID, job.Name,
		string(models.StateIdle), string(models.StateDispatched)))

	ch := d.runners[req.Kind].Run(ctx, job)
	go d.relay(job, ch)

	return job, nil
}

// Busy reports whether a job is currently in flight.
func (d *Dispatcher) Busy() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active != nil
}

// Active returns the in-flight job handle, or nil.
func (d *Dispatcher) Active() *models.JobHandle {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// validate rejects malformed requests before anything is started.
func (d *Dispatcher) validate(req models.JobRequest) error {
	if req.InputPath == "" {
		return &ValidationError{Field: "input", Message: "no input file selected"}
	}
	if !req.Kind.Valid() {
		return &ValidationError{Field: "kind", Message: fmt.Sprintf("unknown backend %q", req.Kind)}
	}
	if !req.BlastType.Valid() {
		return &ValidationError{
			Field:   "blastType",
			Message: fmt.Sprintf("unsupported BLAST type %q (supported: %v)", req.BlastType, models.SupportedBlastTypes()),
		}
	}

	if req.Kind == models.JobKindRemote {
		info, err := os.Stat(req.InputPath)
		if err != nil {
			return &ValidationError{Field: "input", Message: fmt.Sprintf("cannot read input file: %v", err)}
		}
		if d.uploadLimit > 0 && info.Size() > d.uploadLimit {
			return &ValidationError{
				Field:   "input",
				Message: fmt.Sprintf("input file is %d bytes, over the %d byte upload limit", info.Size(), d.uploadLimit),
			}
		}
	}
	return nil
}

// relay forwards runner events to the bus in order and tracks the job
// state. The busy guard is released only after the runner's channel is
// drained, so the terminal event is always on the bus before the next
// dispatch can be accepted.
func (d *Dispatcher) relay(job *models.JobHandle, ch <-chan events.Event) {
	for ev := range ch {
		switch e := ev.(type) {
		case *events.StateChangeEvent:
			job.State = models.JobState(e.NewState)
		case *events.CompletedEvent:
			job.State = models.StateCompleted
			d.logger.Info().
				Str("job_id", job.ID).
				Int("exit_code", e.ExitCode).
				Msg("Job completed")
			if d.notifier != nil {
				d.notifier.JobCompleted(job, e.ExitCode)
			}
		case *events.FailedEvent:
			job.State = models.StateFailed
			d.logger.Error().
				Str("job_id", job.ID).
				Str("reason", e.Reason).
				Msg("Job failed")
			if d.notifier != nil {
				d.notifier.JobFailed(job, e.Reason)
			}
		}
		d.bus.Publish(ev)
	}

	d.mu.Lock()
	d.active = nil
	d.mu.Unlock()
}
