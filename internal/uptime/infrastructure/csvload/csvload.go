// Package csvload parses the tabular exports the load command ingests.
package csvload

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	uptime "site-uptime/internal/uptime/domain"
)

// DefaultChunkSize is the number of rows handed to a sink at once.
const DefaultChunkSize = 1000

var (
	ErrMissingColumn = errors.New("csvload: missing required column")
	ErrInvalidRow    = errors.New("csvload: invalid row")
)

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// ParseTimestamp accepts "2023-01-22 12:09:39.388884 UTC" with or without
// the fractional part. Values without a zone are taken as UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	value = strings.TrimSpace(strings.TrimSuffix(value, "UTC"))
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp format: %q", raw)
}

// Stats summarises a streaming read.
type Stats struct {
	Rows      int
	Processed int
	Skipped   int
}

// ObservationSink receives parsed observations in chunks.
type ObservationSink func(chunk []uptime.Observation) error

// ReadObservations streams store_id,timestamp_utc,status rows into sink.
// Rows that fail to parse are logged and skipped.
func ReadObservations(r io.Reader, chunkSize int, logger logrus.FieldLogger, sink ObservationSink) (Stats, error) {
	var stats Stats
	if sink == nil {
		return stats, errors.New("csvload: nil sink")
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	reader := newReader(r)
	cols, err := header(reader, "store_id", "timestamp_utc", "status")
	if err != nil {
		return stats, err
	}

	chunk := make([]uptime.Observation, 0, chunkSize)
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return stats, fmt.Errorf("csvload: line %d: %w", line, err)
		}
		stats.Rows++

		obs, err := parseObservation(record, cols)
		if err != nil {
			stats.Skipped++
			logger.WithFields(logrus.Fields{"event": "load_row_skipped", "line": line}).WithError(err).Warn("skip store status row")
			continue
		}
		chunk = append(chunk, obs)
		stats.Processed++
		if len(chunk) == chunkSize {
			if err := sink(chunk); err != nil {
				return stats, err
			}
			chunk = make([]uptime.Observation, 0, chunkSize)
			logger.WithFields(logrus.Fields{"event": "load_progress", "processed": stats.Processed}).Info("store status rows processed")
		}
	}
	if len(chunk) > 0 {
		if err := sink(chunk); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

func parseObservation(record []string, cols map[string]int) (uptime.Observation, error) {
	siteID := field(record, cols["store_id"])
	if siteID == "" {
		return uptime.Observation{}, uptime.ErrEmptySiteID
	}
	at, err := ParseTimestamp(field(record, cols["timestamp_utc"]))
	if err != nil {
		return uptime.Observation{}, err
	}
	status, err := uptime.ParseStatus(field(record, cols["status"]))
	if err != nil {
		return uptime.Observation{}, err
	}
	return uptime.Observation{SiteID: siteID, At: at, Status: status}, nil
}

// ReadBusinessHours parses store_id,day,start_time_local,end_time_local.
// The weekday column may also be named dayOfWeek. Any bad row aborts.
func ReadBusinessHours(r io.Reader) ([]uptime.BusinessHoursRule, error) {
	reader := newReader(r)
	first, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("csvload: read header: %w", err)
	}
	for i, name := range first {
		if strings.TrimSpace(name) == "dayOfWeek" {
			first[i] = "day"
		}
	}
	cols, err := index(first, "store_id", "day", "start_time_local", "end_time_local")
	if err != nil {
		return nil, err
	}

	var rules []uptime.BusinessHoursRule
	for row := 1; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csvload: row %d: %w", row, err)
		}
		day, err := strconv.Atoi(field(record, cols["day"]))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: day must be an integer 0-6", ErrInvalidRow, row)
		}
		rule := uptime.BusinessHoursRule{
			SiteID:     field(record, cols["store_id"]),
			Weekday:    day,
			OpenLocal:  field(record, cols["start_time_local"]),
			CloseLocal: field(record, cols["end_time_local"]),
		}
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrInvalidRow, row, err)
		}
		if _, err := uptime.ParseTimeOfDay(rule.OpenLocal); err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrInvalidRow, row, err)
		}
		if _, err := uptime.ParseTimeOfDay(rule.CloseLocal); err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrInvalidRow, row, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// ReadTimezones parses store_id,timezone_str. Later rows win.
func ReadTimezones(r io.Reader) (map[string]string, error) {
	reader := newReader(r)
	cols, err := header(reader, "store_id", "timezone_str")
	if err != nil {
		return nil, err
	}

	zones := make(map[string]string)
	for row := 1; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csvload: row %d: %w", row, err)
		}
		siteID := field(record, cols["store_id"])
		if siteID == "" {
			return nil, fmt.Errorf("%w: row %d: %v", ErrInvalidRow, row, uptime.ErrEmptySiteID)
		}
		zones[siteID] = field(record, cols["timezone_str"])
	}
	return zones, nil
}

func newReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = false
	return reader
}

func header(reader *csv.Reader, required ...string) (map[string]int, error) {
	first, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("csvload: read header: %w", err)
	}
	return index(first, required...)
}

func index(names []string, required ...string) (map[string]int, error) {
	cols := make(map[string]int, len(names))
	for i, name := range names {
		name = strings.TrimPrefix(strings.TrimSpace(name), "\ufeff")
		if _, ok := cols[name]; !ok {
			cols[name] = i
		}
	}
	var missing []string
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s (found %s)", ErrMissingColumn, strings.Join(missing, ", "), strings.Join(names, ", "))
	}
	return cols, nil
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
