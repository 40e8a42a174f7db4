package uptime_test

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/require"

	uptime "site-uptime/internal/uptime/domain"
	"site-uptime/internal/uptime/infrastructure/memory"
)

func newCalculator(t *testing.T, store *memory.Store, opts ...uptime.SpanOption) *uptime.SpanCalculator {
	t.Helper()
	hours, err := uptime.NewBusinessHoursResolver(store, uptime.MissingHoursClosed)
	require.NoError(t, err)
	zones, err := uptime.NewTimezoneResolver(store, time.UTC)
	require.NoError(t, err)
	calc, err := uptime.NewSpanCalculator(store, hours, zones, opts...)
	require.NoError(t, err)
	return calc
}

func mondayNineToFive(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.SetTimezone("S1", "UTC"))
	require.NoError(t, store.AddBusinessHours(uptime.BusinessHoursRule{
		SiteID: "S1", Weekday: 0, OpenLocal: "09:00:00", CloseLocal: "17:00:00",
	}))
	return store
}

func TestComputeSpan_OnlyBusinessHoursCount(t *testing.T) {
	store := mondayNineToFive(t)
	require.NoError(t, store.AddObservations(
		obs(at(3, 0), uptime.StatusInactive),
		obs(at(9, 0), uptime.StatusActive),
		obs(at(13, 0), uptime.StatusInactive),
		obs(at(20, 0), uptime.StatusActive),
	))
	calc := newCalculator(t, store)

	got, err := calc.ComputeSpan(context.Background(), "S1", at(0, 0), at(24, 0))
	require.NoError(t, err)
	require.InDelta(t, 240.0, got.UptimeMinutes(), 1e-9)
	require.InDelta(t, 240.0, got.DowntimeMinutes(), 1e-9)

	again, err := calc.ComputeSpan(context.Background(), "S1", at(0, 0), at(24, 0))
	require.NoError(t, err)
	require.Equal(t, got, again)
}

func TestComputeSpan_NoObservationsIsZero(t *testing.T) {
	calc := newCalculator(t, mondayNineToFive(t))
	got, err := calc.ComputeSpan(context.Background(), "S1", at(0, 0), at(24, 0))
	require.NoError(t, err)
	require.Equal(t, uptime.Durations{}, got)
}

func TestComputeSpan_OvernightPeriodIsContinuous(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.SetTimezone("S1", "UTC"))
	require.NoError(t, store.AddBusinessHours(uptime.BusinessHoursRule{
		SiteID: "S1", Weekday: 0, OpenLocal: "22:00:00", CloseLocal: "02:00:00",
	}))
	require.NoError(t, store.AddObservations(
		obs(at(23, 0), uptime.StatusActive),
		obs(at(25, 0), uptime.StatusInactive),
	))
	calc := newCalculator(t, store)

	got, err := calc.ComputeSpan(context.Background(), "S1", at(22, 30), at(25, 30))
	require.NoError(t, err)
	require.Equal(t, 2*time.Hour, got.Uptime)
	require.Equal(t, time.Hour, got.Downtime)
}

func TestComputeSpan_ClosedDayAbortsRemainingDays(t *testing.T) {
	store := mondayNineToFive(t)
	require.NoError(t, store.AddObservations(
		obs(at(9, 0), uptime.StatusActive),
		obs(at(13, 0), uptime.StatusInactive),
	))
	sunday := at(-24, 0)

	got, err := newCalculator(t, store).ComputeSpan(context.Background(), "S1", sunday, at(24, 0))
	require.NoError(t, err)
	require.Equal(t, uptime.Durations{}, got)

	skipping := newCalculator(t, store, uptime.WithClosedDayPolicy(uptime.ClosedDaySkipDay))
	got, err = skipping.ComputeSpan(context.Background(), "S1", sunday, at(24, 0))
	require.NoError(t, err)
	require.Equal(t, 4*time.Hour, got.Uptime)
	require.Equal(t, 4*time.Hour, got.Downtime)
}

func TestComputeSpan_ConvertsToSiteZone(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.SetTimezone("NY", "America/New_York"))
	require.NoError(t, store.AddBusinessHours(uptime.BusinessHoursRule{
		SiteID: "NY", Weekday: 0, OpenLocal: "09:00:00", CloseLocal: "17:00:00",
	}))
	require.NoError(t, store.AddObservations(
		uptime.Observation{SiteID: "NY", At: at(13, 0), Status: uptime.StatusInactive},
		uptime.Observation{SiteID: "NY", At: at(14, 0), Status: uptime.StatusActive},
	))
	calc := newCalculator(t, store)

	// Monday 09:00-17:00 EST is 14:00-22:00 UTC; the 13:00 poll is outside.
	got, err := calc.ComputeSpan(context.Background(), "NY", at(5, 0), at(29, 0))
	require.NoError(t, err)
	require.Equal(t, 8*time.Hour, got.Uptime)
	require.Zero(t, got.Downtime)
}

func TestComputeSpan_BoundedToSevenDays(t *testing.T) {
	store := memory.NewStore()
	for day := 0; day < 10; day++ {
		require.NoError(t, store.AddObservations(obs(monday.AddDate(0, 0, day), uptime.StatusActive)))
	}
	hours, err := uptime.NewBusinessHoursResolver(store, uptime.MissingHoursOpenAllDay)
	require.NoError(t, err)
	zones, err := uptime.NewTimezoneResolver(store, time.UTC)
	require.NoError(t, err)
	calc, err := uptime.NewSpanCalculator(store, hours, zones)
	require.NoError(t, err)

	got, err := calc.ComputeSpan(context.Background(), "S1", monday, monday.AddDate(0, 0, 10))
	require.NoError(t, err)
	require.Equal(t, 7*24*time.Hour, got.Uptime)
}

func TestComputeSpan_Errors(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.SetTimezone("BAD", "Mars/Olympus_Mons"))
	require.NoError(t, store.AddBusinessHours(uptime.BusinessHoursRule{
		SiteID: "MAL", Weekday: 0, OpenLocal: "nine", CloseLocal: "17:00:00",
	}))
	calc := newCalculator(t, store)
	ctx := context.Background()

	_, err := calc.ComputeSpan(ctx, "BAD", at(0, 0), at(24, 0))
	require.Error(t, err)

	_, err = calc.ComputeSpan(ctx, "MAL", at(0, 0), at(24, 0))
	require.ErrorIs(t, err, uptime.ErrInvalidTimeOfDay)

	_, err = calc.ComputeSpan(ctx, "", at(0, 0), at(24, 0))
	require.ErrorIs(t, err, uptime.ErrEmptySiteID)

	_, err = calc.ComputeSpan(ctx, "S1", at(24, 0), at(0, 0))
	require.ErrorIs(t, err, uptime.ErrInvalidSpan)
}

func TestTimezoneResolver_FallsBack(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.SetTimezone("BLANK", ""))
	resolver, err := uptime.NewTimezoneResolver(store, nil)
	require.NoError(t, err)
	require.Equal(t, uptime.DefaultTimezone, resolver.Fallback().String())

	loc, err := resolver.Resolve(context.Background(), "UNKNOWN")
	require.NoError(t, err)
	require.Equal(t, uptime.DefaultTimezone, loc.String())

	loc, err = resolver.Resolve(context.Background(), "BLANK")
	require.NoError(t, err)
	require.Equal(t, uptime.DefaultTimezone, loc.String())
}
