package dispatch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bioclick/bioclick/internal/events"
	"github.com/bioclick/bioclick/internal/logging"
	"github.com/bioclick/bioclick/internal/models"
)

// fakeRunner emits a scripted event sequence for whatever job it is
// given, optionally holding the stream open until released.
type fakeRunner struct {
	script  func(job *models.JobHandle) []events.Event
	release chan struct{}
}

func (f *fakeRunner) Run(ctx context.Context, job *models.JobHandle) <-chan events.Event {
	out := make(chan events.Event, 16)
	go func() {
		defer close(out)
		if f.release != nil {
			<-f.release
		}
		for _, ev := range f.script(job) {
			out <- ev
		}
	}()
	return out
}

func completedScript(job *models.JobHandle) []events.Event {
	return []events.Event{
		events.NewStateChange(job.ID, job.Name, string(models.StateDispatched), string(models.StateRunning)),
		events.NewOutputChunk(job.ID, "chunk-1"),
		events.NewOutputChunk(job.ID, "chunk-2"),
		events.NewCompleted(job.ID, 0),
	}
}

func failedScript(job *models.JobHandle) []events.Event {
	return []events.Event{
		events.NewErrorChunk(job.ID, "engine missing"),
		events.NewFailed(job.ID, "engine missing"),
	}
}

type fakeNotifier struct {
	mu        sync.Mutex
	completed []int
	failed    []string
}

func (n *fakeNotifier) JobCompleted(job *models.JobHandle, exitCode int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed = append(n.completed, exitCode)
}

func (n *fakeNotifier) JobFailed(job *models.JobHandle, reason string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed = append(n.failed, reason)
}

func testRequest(t *testing.T, kind models.JobKind) models.JobRequest {
	t.Helper()
	path := filepath.Join(t.TempDir(), "query.fasta")
	require.NoError(t, os.WriteFile(path, []byte(">seq\nACGT\n"), 0o644))
	return models.JobRequest{InputPath: path, Kind: kind, BlastType: models.BlastN}
}

// drainUntilTerminal reads bus events until the job's terminal event.
func drainUntilTerminal(t *testing.T, sub *events.Subscription) []events.Event {
	t.Helper()
	var got []events.Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-sub.C:
			got = append(got, ev)
			if events.IsTerminal(ev) {
				return got
			}
		case <-timeout:
			t.Fatalf("no terminal event observed; got %d events", len(got))
		}
	}
}

func newTestDispatcher(local, remote *fakeRunner, notifier Notifier) (*Dispatcher, *events.Bus) {
	bus := events.NewBus(0)
	d := New(bus, local, remote, 1024, logging.NewDefaultCLILogger(), notifier)
	return d, bus
}

func TestDispatchRelaysEventsInOrder(t *testing.T) {
	d, bus := newTestDispatcher(&fakeRunner{script: completedScript}, nil, nil)
	sub := bus.Subscribe()
	defer sub.Unsubscribe()

	job, err := d.Dispatch(context.Background(), testRequest(t, models.JobKindLocal))
	require.NoError(t, err)

	got := drainUntilTerminal(t, sub)
	require.Len(t, got, 5)

	sc := got[0].(*events.StateChangeEvent)
	assert.Equal(t, string(models.StateDispatched), sc.NewState)

	assert.Equal(t, events.EventStateChange, got[1].Type())
	assert.Equal(t, "chunk-1", got[2].(*events.OutputChunkEvent).Text)
	assert.Equal(t, "chunk-2", got[3].(*events.OutputChunkEvent).Text)
	assert.Equal(t, 0, got[4].(*events.CompletedEvent).ExitCode)

	for _, ev := range got {
		assert.Equal(t, job.ID, ev.JobID())
	}

	require.Eventually(t, func() bool { return !d.Busy() }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, models.StateCompleted, job.State)
}

func TestDispatchRejectsSecondJobWhileBusy(t *testing.T) {
	release := make(chan struct{})
	d, bus := newTestDispatcher(&fakeRunner{script: completedScript, release: release}, nil, nil)
	sub := bus.Subscribe()
	defer sub.Unsubscribe()

	_, err := d.Dispatch(context.Background(), testRequest(t, models.JobKindLocal))
	require.NoError(t, err)
	assert.True(t, d.Busy())

	_, err = d.Dispatch(context.Background(), testRequest(t, models.JobKindLocal))
	assert.ErrorIs(t, err, ErrJobInFlight)

	close(release)
	drainUntilTerminal(t, sub)
	require.Eventually(t, func() bool { return !d.Busy() }, 2*time.Second, 10*time.Millisecond)

	// The guard clears after the terminal event, so a fresh dispatch works.
	_, err = d.Dispatch(context.Background(), testRequest(t, models.JobKindLocal))
	require.NoError(t, err)
	drainUntilTerminal(t, sub)
}

func TestDispatchValidationFailurePublishesNothing(t *testing.T) {
	d, bus := newTestDispatcher(&fakeRunner{script: completedScript}, nil, nil)
	sub := bus.Subscribe()
	defer sub.Unsubscribe()

	cases := []struct {
		name string
		req  models.JobRequest
	}{
		{"empty path", models.JobRequest{Kind: models.JobKindLocal, BlastType: models.BlastN}},
		{"bad kind", models.JobRequest{InputPath: "in.fasta", Kind: "cloud", BlastType: models.BlastN}},
		{"bad blast type", models.JobRequest{InputPath: "in.fasta", Kind: models.JobKindLocal, BlastType: "megablast"}},
		{"missing remote input", models.JobRequest{InputPath: "/does/not/exist.fasta", Kind: models.JobKindRemote, BlastType: models.BlastN}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := d.Dispatch(context.Background(), tc.req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.False(t, d.Busy(), "rejected request must not claim the busy guard")
		})
	}

	select {
	case ev := <-sub.C:
		t.Fatalf("no events should be published for rejected requests, got %v", ev.Type())
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDispatchRejectsOversizedRemoteInput(t *testing.T) {
	d, _ := newTestDispatcher(nil, &fakeRunner{script: completedScript}, nil)

	path := filepath.Join(t.TempDir(), "big.fasta")
	require.NoError(t, os.WriteFile(path, make([]byte, 2048), 0o644))

	_, err := d.Dispatch(context.Background(), models.JobRequest{
		InputPath: path, Kind: models.JobKindRemote, BlastType: models.BlastN,
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "upload limit")
}

func TestDispatchNotifiesOnTerminalOutcome(t *testing.T) {
	notifier := &fakeNotifier{}
	d, bus := newTestDispatcher(&fakeRunner{script: completedScript}, &fakeRunner{script: failedScript}, notifier)
	sub := bus.Subscribe()
	defer sub.Unsubscribe()

	_, err := d.Dispatch(context.Background(), testRequest(t, models.JobKindLocal))
	require.NoError(t, err)
	drainUntilTerminal(t, sub)
	require.Eventually(t, func() bool { return !d.Busy() }, 2*time.Second, 10*time.Millisecond)

	_, err = d.Dispatch(context.Background(), testRequest(t, models.JobKindRemote))
	require.NoError(t, err)
	drainUntilTerminal(t, sub)
	require.Eventually(t, func() bool { return !d.Busy() }, 2*time.Second, 10*time.Millisecond)

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	assert.Equal(t, []int{0}, notifier.completed)
	assert.Equal(t, []string{"engine missing"}, notifier.failed)
}

func TestDispatchFailedJobTracksState(t *testing.T) {
	d, bus := newTestDispatcher(&fakeRunner{script: failedScript}, nil, nil)
	sub := bus.Subscribe(events.EventFailed)
	defer sub.Unsubscribe()

	job, err := d.Dispatch(context.Background(), testRequest(t, models.JobKindLocal))
	require.NoError(t, err)

	got := drainUntilTerminal(t, sub)
	require.Len(t, got, 1)
	assert.Equal(t, "engine missing", got[0].(*events.FailedEvent).Reason)

	require.Eventually(t, func() bool { return !d.Busy() }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, models.StateFailed, job.State)
}
