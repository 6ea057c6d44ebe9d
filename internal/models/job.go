// Package models defines the core job types shared across packages.
package models

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobKind selects the backend that executes a job.
type JobKind string

const (
	// JobKindLocal runs the job by spawning the local compute engine.
	JobKindLocal JobKind = "local"
	// JobKindRemote runs the job against the remote BLAST service.
	JobKindRemote JobKind = "remote"
)

// Valid reports whether the kind is one of the known backends.
func (k JobKind) Valid() bool {
	return k == JobKindLocal || k == JobKindRemote
}

// ParseJobKind converts a user-supplied string into a JobKind.
func ParseJobKind(s string) (JobKind, error) {
	switch JobKind(strings.ToLower(strings.TrimSpace(s))) {
	case JobKindLocal:
		return JobKindLocal, nil
	case JobKindRemote:
		return JobKindRemote, nil
	default:
		return "", fmt.Errorf("unknown job kind %q (expected local or remote)", s)
	}
}

// BlastType is the BLAST program to run. The remote service rejects
// anything outside this set, so it is validated before dispatch.
type BlastType string

const (
	BlastN  BlastType = "blastn"
	BlastP  BlastType = "blastp"
	BlastX  BlastType = "blastx"
	TBlastN BlastType = "tblastn"
	TBlastX BlastType = "tblastx"
)

// SupportedBlastTypes lists the accepted BLAST programs.
func SupportedBlastTypes() []BlastType {
	return []BlastType{BlastN, BlastP, BlastX, TBlastN, TBlastX}
}

// Valid reports whether the BLAST type is supported.
func (b BlastType) Valid() bool {
	switch b {
	case BlastN, BlastP, BlastX, TBlastN, TBlastX:
		return true
	default:
		return false
	}
}

// JobRequest describes one dispatch. It is constructed only after the
// input path and kind are known and is not modified after dispatch.
type JobRequest struct {
	InputPath string
	Kind      JobKind
	BlastType BlastType
	Params    map[string]string
}

// DisplayName derives a human-readable job name from the input file.
func (r JobRequest) DisplayName() string {
	return "BLAST job for " + filepath.Base(r.InputPath)
}

// JobState is one phase of the job lifecycle.
type JobState string

const (
	StateIdle       JobState = "idle"
	StateDispatched JobState = "dispatched"
	StateRunning    JobState = "running"
	StateCompleted  JobState = "completed"
	StateFailed     JobState = "failed"
)

// Terminal reports whether the state ends the job lifecycle.
func (s JobState) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// JobHandle identifies the in-flight job. At most one handle exists at a
// time; the dispatcher owns it and the busy guard built on it. The State
// field is written only by the dispatcher's relay loop.
type JobHandle struct {
	ID        string
	Name      string
	Request   JobRequest
	StartedAt time.Time
	State     JobState
}

// NewJobHandle creates a handle for a validated request.
func NewJobHandle(req JobRequest) *JobHandle {
	return &JobHandle{
		ID:        uuid.NewString(),
		Name:      req.DisplayName(),
		Request:   req,
		StartedAt: time.Now(),
		State:     StateDispatched,
	}
}
