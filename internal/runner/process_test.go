package runner

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bioclick/bioclick/internal/events"
	"github.com/bioclick/bioclick/internal/logging"
	"github.com/bioclick/bioclick/internal/models"
)

// collectEvents drains the runner channel until it closes, guarding
// against a runner that never terminates.
func collectEvents(t *testing.T, ch <-chan events.Event) []events.Event {
	t.Helper()
	var got []events.Event
	timeout := time.After(10 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return got
			}
			got = append(got, ev)
		case <-timeout:
			t.Fatalf("timed out waiting for event channel to close; got %d events", len(got))
		}
	}
}

// writeScript drops an executable shell script into a temp dir.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixtures are not portable to windows")
	}
	path := filepath.Join(t.TempDir(), "engine.sh")
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func newTestJob(input string) *models.JobHandle {
	return models.NewJobHandle(models.JobRequest{
		InputPath: input,
		Kind:      models.JobKindLocal,
		BlastType: models.BlastN,
	})
}

func TestProcessRunnerStreamsOutputAndCompletes(t *testing.T) {
	bin := writeScript(t, `echo "aligning $1"; echo "progress 50"; exit 0`)
	r := NewProcessRunner(bin, logging.NewDefaultCLILogger())

	got := collectEvents(t, r.Run(context.Background(), newTestJob("/tmp/query.fasta")))
	require.NotEmpty(t, got)

	sc, ok := got[0].(*events.StateChangeEvent)
	require.True(t, ok, "first event should be the running transition, got %T", got[0])
	assert.Equal(t, string(models.StateRunning), sc.NewState)

	var output strings.Builder
	for _, ev := range got[1 : len(got)-1] {
		chunk, ok := ev.(*events.OutputChunkEvent)
		require.True(t, ok, "mid-stream event should be an output chunk, got %T", ev)
		output.WriteString(chunk.Text)
	}
	assert.Contains(t, output.String(), "aligning /tmp/query.fasta")
	assert.Contains(t, output.String(), "progress 50")

	done, ok := got[len(got)-1].(*events.CompletedEvent)
	require.True(t, ok, "last event should be terminal, got %T", got[len(got)-1])
	assert.Equal(t, 0, done.ExitCode)
}

func TestProcessRunnerNonZeroExitIsStillCompleted(t *testing.T) {
	bin := writeScript(t, `exit 3`)
	r := NewProcessRunner(bin, logging.NewDefaultCLILogger())

	got := collectEvents(t, r.Run(context.Background(), newTestJob("in.fasta")))
	require.NotEmpty(t, got)

	done, ok := got[len(got)-1].(*events.CompletedEvent)
	require.True(t, ok, "a process that ran and exited must complete, got %T", got[len(got)-1])
	assert.Equal(t, 3, done.ExitCode)

	for _, ev := range got {
		assert.NotEqual(t, events.EventFailed, ev.Type(),
			"nonzero exit is an outcome, not a dispatch failure")
	}
}

func TestProcessRunnerStderrBecomesErrorChunks(t *testing.T) {
	bin := writeScript(t, `echo "warning: low memory" 1>&2; exit 0`)
	r := NewProcessRunner(bin, logging.NewDefaultCLILogger())

	got := collectEvents(t, r.Run(context.Background(), newTestJob("in.fasta")))

	var stderr strings.Builder
	for _, ev := range got {
		if chunk, ok := ev.(*events.ErrorChunkEvent); ok {
			stderr.WriteString(chunk.Text)
		}
	}
	assert.Contains(t, stderr.String(), "warning: low memory")

	done, ok := got[len(got)-1].(*events.CompletedEvent)
	require.True(t, ok)
	assert.Equal(t, 0, done.ExitCode)
}

func TestProcessRunnerSpawnFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-such-engine")
	r := NewProcessRunner(missing, logging.NewDefaultCLILogger())

	got := collectEvents(t, r.Run(context.Background(), newTestJob("in.fasta")))
	require.Len(t, got, 2, "spawn failure should emit diagnostics then the terminal event")

	chunk, ok := got[0].(*events.ErrorChunkEvent)
	require.True(t, ok, "diagnostics should precede the terminal event, got %T", got[0])
	assert.Contains(t, chunk.Text, missing, "diagnostics must name the attempted binary")
	assert.Contains(t, chunk.Text, "binary_path", "diagnostics should point at the config fix")

	failed, ok := got[1].(*events.FailedEvent)
	require.True(t, ok, "a process that never ran must fail, got %T", got[1])
	assert.Contains(t, failed.Reason, missing)
}

func TestProcessRunnerExactlyOneTerminalEvent(t *testing.T) {
	bin := writeScript(t, `echo hi; exit 1`)
	r := NewProcessRunner(bin, logging.NewDefaultCLILogger())

	got := collectEvents(t, r.Run(context.Background(), newTestJob("in.fasta")))

	terminals := 0
	for i, ev := range got {
		if events.IsTerminal(ev) {
			terminals++
			assert.Equal(t, len(got)-1, i, "terminal event must be last")
		}
	}
	assert.Equal(t, 1, terminals)
}
