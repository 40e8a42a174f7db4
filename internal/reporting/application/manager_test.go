package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	reporting "site-uptime/internal/reporting/domain"
	jobmemory "site-uptime/internal/reporting/infrastructure/memory"
	uptime "site-uptime/internal/uptime/domain"
	"site-uptime/internal/uptime/infrastructure/memory"
)

// anchor is Monday 2023-01-23 17:00 UTC.
var anchor = time.Date(2023, 1, 23, 17, 0, 0, 0, time.UTC)

type spanFunc func(ctx context.Context, siteID string, start, end time.Time) (uptime.Durations, error)

func (f spanFunc) ComputeSpan(ctx context.Context, siteID string, start, end time.Time) (uptime.Durations, error) {
	return f(ctx, siteID, start, end)
}

func waitTerminal(t *testing.T, m *Manager, task *Task) reporting.Job {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, task.Wait(ctx))
	job, err := m.Status(context.Background(), task.ID)
	require.NoError(t, err)
	require.True(t, job.State.IsTerminal())
	return job
}

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.SetTimezone("S1", "UTC"))
	for weekday := 0; weekday < uptime.DaysPerWeek; weekday++ {
		require.NoError(t, store.AddBusinessHours(uptime.BusinessHoursRule{
			SiteID: "S1", Weekday: weekday, OpenLocal: "09:00:00", CloseLocal: "17:00:00",
		}))
	}
	require.NoError(t, store.AddObservations(
		uptime.Observation{SiteID: "S1", At: anchor.Add(-8 * time.Hour), Status: uptime.StatusActive},
		uptime.Observation{SiteID: "S1", At: anchor.Add(-4 * time.Hour), Status: uptime.StatusInactive},
		uptime.Observation{SiteID: "S1", At: anchor, Status: uptime.StatusInactive},
	))
	return store
}

func newEngine(t *testing.T, store *memory.Store, opts ...Option) *Manager {
	t.Helper()
	hours, err := uptime.NewBusinessHoursResolver(store, uptime.MissingHoursClosed)
	require.NoError(t, err)
	zones, err := uptime.NewTimezoneResolver(store, time.UTC)
	require.NoError(t, err)
	calc, err := uptime.NewSpanCalculator(store, hours, zones)
	require.NoError(t, err)
	m, err := NewManager(jobmemory.NewJobStore(), store, calc, opts...)
	require.NoError(t, err)
	return m
}

func TestManager_CompletesWithRowPerSite(t *testing.T) {
	store := seededStore(t)
	require.NoError(t, store.SetTimezone("S2", "UTC"))
	m := newEngine(t, store)

	task, err := m.Trigger(context.Background())
	require.NoError(t, err)
	job := waitTerminal(t, m, task)

	require.Equal(t, reporting.StateComplete, job.State, job.Message)
	require.Equal(t, anchor, job.AnchorAt)
	require.Len(t, job.Rows, 2)

	s1 := job.Rows[0]
	require.Equal(t, "S1", s1.SiteID)
	// last hour: 16:00-17:00 holds only the 17:00 inactive poll, carried to close.
	require.InDelta(t, 0.0, s1.UptimeLastHour, 1e-9)
	require.InDelta(t, 0.0, s1.DowntimeLastHour, 1e-9)
	// last day: 240 minutes each way, reported divided by 60.
	require.InDelta(t, 4.0, s1.UptimeLastDay, 1e-9)
	require.InDelta(t, 4.0, s1.DowntimeLastDay, 1e-9)
	// last week: the seven-day walk ends on Sunday, before the anchor's Monday.
	require.InDelta(t, 0.0, s1.UptimeLastWeek, 1e-9)
	require.InDelta(t, 0.0, s1.DowntimeLastWeek, 1e-9)

	s2 := job.Rows[1]
	require.Equal(t, reporting.Row{SiteID: "S2"}, s2)
}

func TestManager_NoObservationsFails(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.SetTimezone("S1", "UTC"))
	m := newEngine(t, store)

	task, err := m.Trigger(context.Background())
	require.NoError(t, err)
	job := waitTerminal(t, m, task)

	require.Equal(t, reporting.StateFailed, job.State)
	require.Contains(t, job.Message, "no store status records")
	require.Empty(t, job.Rows)
}

func TestManager_SiteFailureFailsWholeJob(t *testing.T) {
	store := seededStore(t)
	require.NoError(t, store.AddObservations(uptime.Observation{SiteID: "S0", At: anchor, Status: uptime.StatusActive}))
	boom := errors.New("resolver exploded")
	spans := spanFunc(func(_ context.Context, siteID string, _, _ time.Time) (uptime.Durations, error) {
		if siteID == "S1" {
			return uptime.Durations{}, boom
		}
		return uptime.Durations{Uptime: time.Hour}, nil
	})
	m, err := NewManager(jobmemory.NewJobStore(), store, spans)
	require.NoError(t, err)

	task, err := m.Trigger(context.Background())
	require.NoError(t, err)
	job := waitTerminal(t, m, task)

	require.Equal(t, reporting.StateFailed, job.State)
	require.Contains(t, job.Message, "resolver exploded")
	require.Contains(t, job.Message, "S1")
	require.Nil(t, job.Rows)
}

func TestManager_PanicBecomesFailed(t *testing.T) {
	spans := spanFunc(func(context.Context, string, time.Time, time.Time) (uptime.Durations, error) {
		panic("nil schedule")
	})
	m, err := NewManager(jobmemory.NewJobStore(), seededStore(t), spans, WithWorkers(4))
	require.NoError(t, err)

	task, err := m.Trigger(context.Background())
	require.NoError(t, err)
	job := waitTerminal(t, m, task)
	require.Equal(t, reporting.StateFailed, job.State)
	require.Contains(t, job.Message, "nil schedule")
}

func TestManager_RunningIsPolledWithoutSideEffects(t *testing.T) {
	release := make(chan struct{})
	spans := spanFunc(func(ctx context.Context, _ string, _, _ time.Time) (uptime.Durations, error) {
		<-release
		return uptime.Durations{}, nil
	})
	m, err := NewManager(jobmemory.NewJobStore(), seededStore(t), spans)
	require.NoError(t, err)

	task, err := m.Trigger(context.Background())
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		job, err := m.Status(context.Background(), task.ID)
		require.NoError(t, err)
		require.Equal(t, reporting.StateRunning, job.State)
	}
	close(release)
	require.Equal(t, reporting.StateComplete, waitTerminal(t, m, task).State)
}

func TestManager_TriggersAreIndependent(t *testing.T) {
	store := seededStore(t)
	m := newEngine(t, store)

	first, err := m.Trigger(context.Background())
	require.NoError(t, err)
	second, err := m.Trigger(context.Background())
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	a := waitTerminal(t, m, first)
	b := waitTerminal(t, m, second)
	require.Equal(t, a.Rows, b.Rows)
	require.Equal(t, first.ID, a.ID)
	require.Equal(t, second.ID, b.ID)
}

func TestManager_ConcurrentTriggers(t *testing.T) {
	m := newEngine(t, seededStore(t), WithWorkers(2))
	var (
		mu  sync.Mutex
		ids = make(map[string]struct{})
		wg  sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			task, err := m.Trigger(context.Background())
			if err != nil {
				t.Errorf("trigger: %v", err)
				return
			}
			mu.Lock()
			ids[task.ID] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Wait(ctx))
	require.Len(t, ids, 20)
	for id := range ids {
		job, err := m.Status(context.Background(), id)
		require.NoError(t, err)
		require.Equal(t, reporting.StateComplete, job.State)
	}
}

func TestManager_ParallelWorkersKeepSiteOrder(t *testing.T) {
	store := memory.NewStore()
	for i := 0; i < 12; i++ {
		require.NoError(t, store.AddObservations(uptime.Observation{
			SiteID: fmt.Sprintf("site-%02d", i), At: anchor, Status: uptime.StatusActive,
		}))
	}
	spans := spanFunc(func(_ context.Context, _ string, start, end time.Time) (uptime.Durations, error) {
		return uptime.Durations{Uptime: end.Sub(start)}, nil
	})
	m, err := NewManager(jobmemory.NewJobStore(), store, spans, WithWorkers(5))
	require.NoError(t, err)

	task, err := m.Trigger(context.Background())
	require.NoError(t, err)
	job := waitTerminal(t, m, task)
	require.Equal(t, reporting.StateComplete, job.State)
	require.Len(t, job.Rows, 12)
	for i, row := range job.Rows {
		require.Equal(t, fmt.Sprintf("site-%02d", i), row.SiteID)
		require.InDelta(t, 60.0, row.UptimeLastHour, 1e-9)
		require.InDelta(t, 24.0, row.UptimeLastDay, 1e-9)
		require.InDelta(t, 168.0, row.UptimeLastWeek, 1e-9)
	}
}

func TestManager_StatusNotFound(t *testing.T) {
	m := newEngine(t, seededStore(t))
	_, err := m.Status(context.Background(), "nope")
	require.ErrorIs(t, err, reporting.ErrJobNotFound)
}

func TestManager_IDGeneratorCollision(t *testing.T) {
	m := newEngine(t, seededStore(t), WithIDGenerator(func() string { return "fixed" }))
	task, err := m.Trigger(context.Background())
	require.NoError(t, err)
	_, err = m.Trigger(context.Background())
	require.ErrorIs(t, err, reporting.ErrJobExists)
	waitTerminal(t, m, task)
}
