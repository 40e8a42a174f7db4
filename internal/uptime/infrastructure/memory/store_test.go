package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	uptime "site-uptime/internal/uptime/domain"
)

func TestStore_ListSiteIDsIsUnion(t *testing.T) {
	store := NewStore()
	ts := time.Date(2023, 1, 23, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.AddObservations(uptime.Observation{SiteID: "c", At: ts, Status: uptime.StatusActive}))
	require.NoError(t, store.AddBusinessHours(uptime.BusinessHoursRule{SiteID: "b", Weekday: 1, OpenLocal: "09:00", CloseLocal: "17:00"}))
	require.NoError(t, store.SetTimezone("a", "UTC"))
	require.NoError(t, store.SetTimezone("c", "UTC"))

	ids, err := store.ListSiteIDs(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestStore_ObservationsSortedAndCopied(t *testing.T) {
	store := NewStore()
	base := time.Date(2023, 1, 23, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.AddObservations(
		uptime.Observation{SiteID: "s", At: base.Add(2 * time.Hour), Status: uptime.StatusInactive},
		uptime.Observation{SiteID: "s", At: base, Status: uptime.StatusActive},
		uptime.Observation{SiteID: "s", At: base.Add(5 * time.Hour), Status: uptime.StatusActive},
	))

	got, err := store.ObservationsInRange(context.Background(), "s", base, base.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.True(t, got[0].At.Equal(base))
	got[0].Status = uptime.StatusInactive

	again, err := store.ObservationsInRange(context.Background(), "s", base, base)
	require.NoError(t, err)
	require.Equal(t, uptime.StatusActive, again[0].Status)

	latest, ok, err := store.MaxObservationInstant(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, latest.Equal(base.Add(5*time.Hour)))
}

func TestStore_Validation(t *testing.T) {
	store := NewStore()
	require.ErrorIs(t, store.AddObservations(uptime.Observation{Status: uptime.StatusActive}), uptime.ErrEmptySiteID)
	require.ErrorIs(t, store.AddObservations(uptime.Observation{SiteID: "s", Status: "paused"}), uptime.ErrInvalidStatus)
	require.ErrorIs(t, store.AddBusinessHours(uptime.BusinessHoursRule{SiteID: "s", Weekday: 7}), uptime.ErrInvalidWeekday)
	require.ErrorIs(t, store.SetTimezone("", "UTC"), uptime.ErrEmptySiteID)

	_, ok, err := store.MaxObservationInstant(context.Background())
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = store.TimezoneFor(context.Background(), "nobody")
	require.NoError(t, err)
	require.False(t, ok)
}
