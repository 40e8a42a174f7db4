package csvload_test

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	uptime "site-uptime/internal/uptime/domain"
	"site-uptime/internal/uptime/infrastructure/csvload"
)

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2023, 1, 22, 12, 9, 39, 388884000, time.UTC)
	got, err := csvload.ParseTimestamp("2023-01-22 12:09:39.388884 UTC")
	require.NoError(t, err)
	require.True(t, want.Equal(got))

	got, err = csvload.ParseTimestamp("2023-01-22 12:09:39")
	require.NoError(t, err)
	require.True(t, want.Truncate(time.Second).Equal(got))

	_, err = csvload.ParseTimestamp("22/01/2023")
	require.Error(t, err)
}

func TestReadObservations_ChunksAndSkips(t *testing.T) {
	input := strings.Join([]string{
		"store_id,status,timestamp_utc",
		"a,active,2023-01-22 12:09:39.388884 UTC",
		"a,broken,2023-01-22 12:10:00 UTC",
		"b,inactive,2023-01-22 13:00:00 UTC",
		"c,active,not-a-time",
		"c,ACTIVE,2023-01-22 14:00:00 UTC",
	}, "\n")

	var chunks [][]uptime.Observation
	stats, err := csvload.ReadObservations(strings.NewReader(input), 2, quietLogger(), func(chunk []uptime.Observation) error {
		chunks = append(chunks, chunk)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, csvload.Stats{Rows: 5, Processed: 3, Skipped: 2}, stats)
	require.Len(t, chunks, 2)
	require.Len(t, chunks[0], 2)
	require.Len(t, chunks[1], 1)
	require.Equal(t, "b", chunks[0][1].SiteID)
	require.Equal(t, uptime.StatusInactive, chunks[0][1].Status)
	require.Equal(t, uptime.StatusActive, chunks[1][0].Status)
}

func TestReadObservations_MissingColumn(t *testing.T) {
	_, err := csvload.ReadObservations(strings.NewReader("store_id,status\na,active\n"), 0, quietLogger(), func([]uptime.Observation) error { return nil })
	require.ErrorIs(t, err, csvload.ErrMissingColumn)
}

func TestReadObservations_SinkErrorStops(t *testing.T) {
	boom := errors.New("boom")
	input := "store_id,timestamp_utc,status\na,2023-01-22 12:00:00 UTC,active\n"
	_, err := csvload.ReadObservations(strings.NewReader(input), 10, quietLogger(), func([]uptime.Observation) error { return boom })
	require.ErrorIs(t, err, boom)
}

func TestReadBusinessHours_AcceptsDayOfWeek(t *testing.T) {
	input := "store_id,dayOfWeek,start_time_local,end_time_local\ns1,0,09:00:00,17:00:00\ns1,6,22:00:00,02:00:00\n"
	rules, err := csvload.ReadBusinessHours(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, []uptime.BusinessHoursRule{
		{SiteID: "s1", Weekday: 0, OpenLocal: "09:00:00", CloseLocal: "17:00:00"},
		{SiteID: "s1", Weekday: 6, OpenLocal: "22:00:00", CloseLocal: "02:00:00"},
	}, rules)
}

func TestReadBusinessHours_BadRowAborts(t *testing.T) {
	cases := map[string]string{
		"day range":   "store_id,day,start_time_local,end_time_local\ns1,7,09:00:00,17:00:00\n",
		"day integer": "store_id,day,start_time_local,end_time_local\ns1,mon,09:00:00,17:00:00\n",
		"time":        "store_id,day,start_time_local,end_time_local\ns1,1,9am,17:00:00\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := csvload.ReadBusinessHours(strings.NewReader(input))
			require.ErrorIs(t, err, csvload.ErrInvalidRow)
		})
	}

	_, err := csvload.ReadBusinessHours(strings.NewReader("store_id,start_time_local,end_time_local\n"))
	require.ErrorIs(t, err, csvload.ErrMissingColumn)
}

func TestReadTimezones(t *testing.T) {
	input := "store_id,timezone_str\ns1,America/Denver\ns2,Asia/Beirut\ns1,America/Boise\n"
	zones, err := csvload.ReadTimezones(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, map[string]string{"s1": "America/Boise", "s2": "Asia/Beirut"}, zones)
}
