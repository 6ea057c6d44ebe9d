// Package events defines the job event model and the bus that carries
// events from runners to UI front ends.
package events

import (
	"time"
)

// EventType defines the types of events that can be emitted for a job.
type EventType string

const (
	// EventOutputChunk carries one fragment of engine standard output.
	EventOutputChunk EventType = "output_chunk"
	// EventErrorChunk carries one fragment of engine standard error, or
	// diagnostic text for a failure.
	EventErrorChunk EventType = "error_chunk"
	// EventCompleted is the terminal event for a job whose backend ran to
	// completion. The exit code's interpretation is left to the consumer.
	EventCompleted EventType = "completed"
	// EventFailed is the terminal event for a job that could not run to
	// completion (spawn failure, transport failure, server-reported error).
	EventFailed EventType = "failed"
	// EventStateChange reports a job state transition.
	EventStateChange EventType = "state_change"
)

// Event is the base interface for all job events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
	JobID() string
}

// BaseEvent provides common event fields.
type BaseEvent struct {
	EventType EventType
	Time      time.Time
	Job       string
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }
func (e BaseEvent) JobID() string        { return e.Job }

// OutputChunkEvent is one fragment of streamed engine standard output.
type OutputChunkEvent struct {
	BaseEvent
	Text string
}

// ErrorChunkEvent is one fragment of streamed engine standard error or
// failure diagnostics.
type ErrorChunkEvent struct {
	BaseEvent
	Text string
}

// CompletedEvent is the terminal event for a job whose backend finished.
// ExitCode 0 conventionally means success but the runner does not judge.
// ArtifactPath is set when the job produced a saved result file; it
// names the file actually written, which may carry a collision suffix.
type CompletedEvent struct {
	BaseEvent
	ExitCode     int
	ArtifactPath string
}

// FailedEvent is the terminal event for a job that could not complete.
type FailedEvent struct {
	BaseEvent
	Reason string
}

// StateChangeEvent reports a job state transition.
type StateChangeEvent struct {
	BaseEvent
	JobName  string
	OldState string
	NewState string
}

// IsTerminal reports whether ev ends a job's lifecycle. Exactly one
// terminal event is emitted per job and no event may follow it.
func IsTerminal(ev Event) bool {
	t := ev.Type()
	return t == EventCompleted || t == EventFailed
}

// NewOutputChunk builds an output chunk event for the given job.
func NewOutputChunk(jobID, text string) *OutputChunkEvent {
	return &OutputChunkEvent{
		BaseEvent: BaseEvent{EventType: EventOutputChunk, Time: time.Now(), Job: jobID},
		Text:      text,
	}
}

// NewErrorChunk builds an error chunk event for the given job.
func NewErrorChunk(jobID, text string) *ErrorChunkEvent {
	return &ErrorChunkEvent{
		BaseEvent: BaseEvent{EventType: EventErrorChunk, Time: time.Now(), Job: jobID},
		Text:      text,
	}
}

// NewCompleted builds the terminal completed event for the given job.
func NewCompleted(jobID string, exitCode int) *CompletedEvent {
	return &CompletedEvent{
		BaseEvent: BaseEvent{EventType: EventCompleted, Time: time.Now(), Job: jobID},
		ExitCode:  exitCode,
	}
}

// NewFailed builds the terminal failed event for the given job.
func NewFailed(jobID, reason string) *FailedEvent {
	return &FailedEvent{
		BaseEvent: BaseEvent{EventType: EventFailed, Time: time.Now(), Job: jobID},
		Reason:    reason,
	}
}

// NewStateChange builds a state change event for the given job.
func NewStateChange(jobID, jobName, oldState, newState string) *StateChangeEvent {
	return &StateChangeEvent{
		BaseEvent: BaseEvent{EventType: EventStateChange, Time: time.Now(), Job: jobID},
		JobName:   jobName,
		OldState:  oldState,
		NewState:  newState,
	}
}
