package memory

import (
	"context"
	"sync"

	reporting "site-uptime/internal/reporting/domain"
)

// JobStore is the in-process job registry. Records live for the process lifetime.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]reporting.Job
}

// NewJobStore constructs an empty registry.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]reporting.Job)}
}

// Create registers a new job.
func (s *JobStore) Create(ctx context.Context, job reporting.Job) error {
	_ = ctx
	if job.ID == "" {
		return reporting.ErrEmptyJobID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; ok {
		return reporting.ErrJobExists
	}
	s.jobs[job.ID] = cloneJob(job)
	return nil
}

// Finish stores the terminal version of a running job.
func (s *JobStore) Finish(ctx context.Context, job reporting.Job) error {
	_ = ctx
	if job.ID == "" {
		return reporting.ErrEmptyJobID
	}
	if !job.State.IsTerminal() {
		return reporting.ErrJobTerminal
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.jobs[job.ID]
	if !ok {
		return reporting.ErrJobNotFound
	}
	if current.State.IsTerminal() {
		return reporting.ErrJobTerminal
	}
	s.jobs[job.ID] = cloneJob(job)
	return nil
}

// Get returns a snapshot of a job.
func (s *JobStore) Get(ctx context.Context, id string) (reporting.Job, error) {
	_ = ctx
	if id == "" {
		return reporting.Job{}, reporting.ErrEmptyJobID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return reporting.Job{}, reporting.ErrJobNotFound
	}
	return cloneJob(job), nil
}

// Len returns the number of registered jobs.
func (s *JobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

func cloneJob(job reporting.Job) reporting.Job {
	if job.Rows != nil {
		rows := make([]reporting.Row, len(job.Rows))
		copy(rows, job.Rows)
		job.Rows = rows
	}
	return job
}
