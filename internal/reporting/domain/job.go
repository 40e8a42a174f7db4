package reporting

import (
	"context"
	"time"
)

// JobState is the lifecycle state of a report job.
type JobState string

const (
	StateRunning  JobState = "Running"
	StateComplete JobState = "Complete"
	StateFailed   JobState = "Failed"
)

// IsTerminal reports whether no further transition is allowed.
func (s JobState) IsTerminal() bool {
	return s == StateComplete || s == StateFailed
}

// Job is one asynchronous whole-dataset report run.
type Job struct {
	ID          string
	State       JobState
	Rows        []Row
	Message     string
	AnchorAt    time.Time
	CreatedAt   time.Time
	CompletedAt time.Time
}

// Complete returns the terminal successful version of a running job.
func (j Job) Complete(rows []Row, anchor, at time.Time) (Job, error) {
	if j.State.IsTerminal() {
		return j, ErrJobTerminal
	}
	j.State = StateComplete
	j.Rows = rows
	j.AnchorAt = anchor
	j.CompletedAt = at
	return j, nil
}

// Fail returns the terminal failed version of a running job.
func (j Job) Fail(message string, at time.Time) (Job, error) {
	if j.State.IsTerminal() {
		return j, ErrJobTerminal
	}
	j.State = StateFailed
	j.Rows = nil
	j.Message = message
	j.CompletedAt = at
	return j, nil
}

// JobStore is the job registry. Implementations must be safe for concurrent use.
type JobStore interface {
	Create(ctx context.Context, job Job) error
	// Finish replaces a Running job with its terminal version.
	Finish(ctx context.Context, job Job) error
	Get(ctx context.Context, id string) (Job, error)
}
