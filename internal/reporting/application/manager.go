package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"site-uptime/internal/observability/metrics"
	reporting "site-uptime/internal/reporting/domain"
	uptime "site-uptime/internal/uptime/domain"
)

// Clock provides time for the manager.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now in UTC.
type SystemClock struct{}

// Now returns current time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Dataset is the whole-dataset view a report run needs.
type Dataset interface {
	ListSiteIDs(ctx context.Context) ([]string, error)
	MaxObservationInstant(ctx context.Context) (time.Time, bool, error)
}

// SpanComputer computes one site's business-hours uptime for a span.
type SpanComputer interface {
	ComputeSpan(ctx context.Context, siteID string, start, end time.Time) (uptime.Durations, error)
}

// Task is the handle of a triggered job. Done closes once the job is terminal.
type Task struct {
	ID   string
	done chan struct{}
}

// Done returns a channel closed when the job reaches Complete or Failed.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the job is terminal or ctx ends.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Manager creates report jobs, runs them in the background and serves their status.
type Manager struct {
	store        reporting.JobStore
	data         Dataset
	spans        SpanComputer
	clock        Clock
	logger       logrus.FieldLogger
	newID        func() string
	workers      int
	uniformUnits bool

	wg sync.WaitGroup
}

// Option configures the manager.
type Option func(*Manager)

// WithWorkers bounds per-site parallelism inside one job. 1 keeps sites strictly sequential.
func WithWorkers(workers int) Option {
	return func(m *Manager) {
		if workers > 0 {
			m.workers = workers
		}
	}
}

// WithUniformUnits reports every figure in minutes.
func WithUniformUnits(enabled bool) Option {
	return func(m *Manager) {
		m.uniformUnits = enabled
	}
}

// WithClock overrides the clock.
func WithClock(clock Clock) Option {
	return func(m *Manager) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithIDGenerator overrides job id allocation.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// NewManager constructs a Manager.
func NewManager(store reporting.JobStore, data Dataset, spans SpanComputer, opts ...Option) (*Manager, error) {
	if store == nil || data == nil || spans == nil {
		return nil, errors.New("report manager: nil dependency")
	}
	m := &Manager{
		store:   store,
		data:    data,
		spans:   spans,
		clock:   SystemClock{},
		logger:  logrus.StandardLogger(),
		newID:   uuid.NewString,
		workers: 1,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Trigger registers a Running job and starts it without waiting for it.
func (m *Manager) Trigger(ctx context.Context) (*Task, error) {
	job := reporting.Job{
		ID:        m.newID(),
		State:     reporting.StateRunning,
		CreatedAt: m.clock.Now(),
	}
	if err := m.store.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("report manager: create job: %w", err)
	}

	task := &Task{ID: job.ID, done: make(chan struct{})}
	metrics.JobStarted()
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer close(task.done)
		// Jobs are not cancellable and outlive the triggering request.
		m.execute(context.Background(), job)
	}()
	return task, nil
}

// Status returns a snapshot of a job. Unknown ids yield reporting.ErrJobNotFound.
func (m *Manager) Status(ctx context.Context, id string) (reporting.Job, error) {
	return m.store.Get(ctx, id)
}

// Wait blocks until every triggered job is terminal or ctx ends.
func (m *Manager) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) execute(ctx context.Context, job reporting.Job) {
	started := m.clock.Now()
	log := m.logger.WithField("job_id", job.ID)
	log.WithField("event", "report_job_start").Info("report job started")

	rows, anchor, err := m.run(ctx, job.ID)

	ended := m.clock.Now()
	var final reporting.Job
	if err != nil {
		final, _ = job.Fail(err.Error(), ended)
	} else {
		final, _ = job.Complete(rows, anchor, ended)
	}
	if storeErr := m.store.Finish(ctx, final); storeErr != nil {
		log.WithError(storeErr).Error("report job finish failed")
	}
	metrics.ObserveJob(string(final.State), ended.Sub(started))

	fields := logrus.Fields{
		"state":       final.State,
		"sites":       len(rows),
		"duration_ms": ended.Sub(started).Milliseconds(),
	}
	if err != nil {
		log.WithFields(fields).WithField("event", "report_job_failed").WithError(err).Error("report job failed")
		return
	}
	fields["anchor"] = anchor.Format(time.RFC3339)
	log.WithFields(fields).WithField("event", "report_job_complete").Info("report job complete")
}

// run computes every site's row. Any failure aborts the whole job.
func (m *Manager) run(ctx context.Context, jobID string) (rows []reporting.Row, anchor time.Time, err error) {
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("report panic: %v", r)
		}
	}()

	anchor, ok, err := m.data.MaxObservationInstant(ctx)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("anchor instant: %w", err)
	}
	if !ok {
		return nil, time.Time{}, reporting.ErrNoObservations
	}
	anchor = anchor.UTC()

	siteIDs, err := m.data.ListSiteIDs(ctx)
	if err != nil {
		return nil, anchor, fmt.Errorf("list sites: %w", err)
	}

	rows = make([]reporting.Row, len(siteIDs))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(m.workers)
	for i, siteID := range siteIDs {
		group.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("site %s: panic: %v", siteID, r)
				}
			}()
			row, err := m.computeRow(groupCtx, siteID, anchor)
			if err != nil {
				return err
			}
			rows[i] = row
			metrics.IncSiteComputed()
			m.logger.WithFields(logrus.Fields{
				"event":      "report_site_computed",
				"job_id":     jobID,
				"store_id":   siteID,
				"index":      i + 1,
				"site_count": len(siteIDs),
			}).Debug("site computed")
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, anchor, err
	}
	return rows, anchor, nil
}

func (m *Manager) computeRow(ctx context.Context, siteID string, anchor time.Time) (reporting.Row, error) {
	results := make(map[reporting.Span]uptime.Durations, len(reporting.Spans))
	for _, span := range reporting.Spans {
		start, end := span.Window(anchor)
		durations, err := m.spans.ComputeSpan(ctx, siteID, start, end)
		if err != nil {
			return reporting.Row{}, fmt.Errorf("site %s %s: %w", siteID, span, err)
		}
		results[span] = durations
	}
	return BuildRow(siteID, results, m.uniformUnits), nil
}
