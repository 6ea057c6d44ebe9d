package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"golang.org/x/sync/errgroup"

	"github.com/bioclick/bioclick/internal/events"
	"github.com/bioclick/bioclick/internal/logging"
	"github.com/bioclick/bioclick/internal/models"
)

// readChunkSize is the per-read buffer for engine output. Fragments are
// forwarded as soon as they are read, never line-buffered, so partial
// lines and progress spinners reach the UI promptly.
const readChunkSize = 4096

// ProcessRunner executes jobs by spawning the local compute engine as a
// child process and streaming its output.
type ProcessRunner struct {
	binaryPath string
	logger     *logging.Logger
}

// NewProcessRunner creates a runner for the engine at binaryPath.
func NewProcessRunner(binaryPath string, logger *logging.Logger) *ProcessRunner {
	return &ProcessRunner{
		binaryPath: binaryPath,
		logger:     logger,
	}
}

// Run spawns the engine with the job's input file as its single
// argument. Spawn failures are reported as an ErrorChunk naming the
// attempted binary followed by Failed; once the process starts, its
// exit status is reported as Completed whatever the code.
func (r *ProcessRunner) Run(ctx context.Context, job *models.JobHandle) <-chan events.Event {
	out := make(chan events.Event, eventChanSize)
	go func() {
		defer close(out)
		r.run(ctx, job, out)
	}()
	return out
}

func (r *ProcessRunner) run(ctx context.Context, job *models.JobHandle, out chan<- events.Event) {
	cmd := exec.CommandContext(ctx, r.binaryPath, job.Request.InputPath)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		r.failSpawn(job, out, err)
		return
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		r.failSpawn(job, out, err)
		return
	}

	if err := cmd.Start(); err != nil {
		r.failSpawn(job, out, err)
		return
	}

	r.logger.Info().
		Str("job_id", job.ID).
		Str("binary", r.binaryPath).
		Str("input", job.Request.InputPath).
		Int("pid", cmd.Process.Pid).
		Msg("Engine process started")

	out <- events.NewStateChange(job.ID, job.Name,
		string(models.StateDispatched), string(models.StateRunning))

	// Pump both pipes concurrently; each fragment becomes one event.
	var g errgroup.Group
	g.Go(func() error {
		r.pump(job, stdout, out, false)
		return nil
	})
	g.Go(func() error {
		r.pump(job, stderr, out, true)
		return nil
	})
	g.Wait()

	// Wait must come after the pipes are drained; it closes them.
	err = cmd.Wait()

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			// The process started but Wait failed for another reason
			// (e.g. the context killed it). Treat it as a failure.
			out <- events.NewErrorChunk(job.ID, fmt.Sprintf("engine terminated abnormally: %v", err))
			out <- events.NewFailed(job.ID, fmt.Sprintf("engine terminated abnormally: %v", err))
			return
		}
	}

	r.logger.Info().
		Str("job_id", job.ID).
		Int("exit_code", exitCode).
		Msg("Engine process exited")

	out <- events.NewCompleted(job.ID, exitCode)
}

// failSpawn reports a process that never ran: diagnostics first, then
// the terminal Failed. The message names the attempted binary and hints
// at the usual cause so the user can fix their config.
func (r *ProcessRunner) failSpawn(job *models.JobHandle, out chan<- events.Event, err error) {
	msg := fmt.Sprintf(
		"failed to start engine %q: %v (check that the binary exists, is executable, and [engine] binary_path is set correctly)",
		r.binaryPath, err)

	r.logger.Error().
		Str("job_id", job.ID).
		Str("binary", r.binaryPath).
		Err(err).
		Msg("Engine spawn failed")

	out <- events.NewErrorChunk(job.ID, msg)
	out <- events.NewFailed(job.ID, msg)
}

// pump forwards fragments from one pipe until EOF. Read errors after the
// process exits are expected (closed pipe) and not reported.
func (r *ProcessRunner) pump(job *models.JobHandle, pipe io.Reader, out chan<- events.Event, isStderr bool) {
	buf := make([]byte, readChunkSize)
	stream := "stdout"
	if isStderr {
		stream = "stderr"
	}
	for {
		n, err := pipe.Read(buf)
		if n > 0 {
			text := string(buf[:n])
			r.logger.Debug().
				Str("job_id", job.ID).
				Str("stream", stream).
				Msg(text)
			if isStderr {
				out <- events.NewErrorChunk(job.ID, text)
			} else {
				out <- events.NewOutputChunk(job.ID, text)
			}
		}
		if err != nil {
			return
		}
	}
}
