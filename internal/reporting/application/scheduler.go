package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Triggerer starts report jobs.
type Triggerer interface {
	Trigger(ctx context.Context) (*Task, error)
}

// Scheduler triggers one report job per day at a fixed UTC minute.
type Scheduler struct {
	reports Triggerer
	hour    int
	minute  int
	tick    time.Duration
	logger  logrus.FieldLogger
	lastRun time.Time
}

// NewScheduler parses dailyAt as "15:04" UTC.
func NewScheduler(reports Triggerer, dailyAt string, logger logrus.FieldLogger) (*Scheduler, error) {
	hour, minute, err := ParseDailyAt(dailyAt)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Scheduler{reports: reports, hour: hour, minute: minute, tick: time.Minute, logger: logger}, nil
}

// Start runs the loop until ctx ends.
func (s *Scheduler) Start(ctx context.Context) {
	if s == nil || s.reports == nil {
		return
	}
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.maybeRun(ctx, now.UTC())
		}
	}
}

func (s *Scheduler) maybeRun(ctx context.Context, now time.Time) bool {
	if now.Hour() != s.hour || now.Minute() != s.minute {
		return false
	}
	day := now.Truncate(24 * time.Hour)
	if s.lastRun.Equal(day) {
		return false
	}
	s.lastRun = day

	task, err := s.reports.Trigger(ctx)
	if err != nil {
		s.logger.WithError(err).WithField("event", "report_schedule_error").Error("scheduled report trigger failed")
		return false
	}
	s.logger.WithFields(logrus.Fields{"event": "report_scheduled", "job_id": task.ID}).Info("scheduled report triggered")
	return true
}

// ParseDailyAt parses "HH:MM".
func ParseDailyAt(value string) (int, int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}
