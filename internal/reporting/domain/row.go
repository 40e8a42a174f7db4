package reporting

import "time"

// Span is one of the fixed lookback windows ending at the anchor instant.
type Span string

const (
	SpanLastHour Span = "last_hour"
	SpanLastDay  Span = "last_day"
	SpanLastWeek Span = "last_week"
)

// Spans lists the reported spans in row order.
var Spans = []Span{SpanLastHour, SpanLastDay, SpanLastWeek}

// Lookback returns the span length.
func (s Span) Lookback() time.Duration {
	switch s {
	case SpanLastHour:
		return time.Hour
	case SpanLastDay:
		return 24 * time.Hour
	case SpanLastWeek:
		return 7 * 24 * time.Hour
	default:
		return 0
	}
}

// Window returns [anchor - lookback, anchor].
func (s Span) Window(anchor time.Time) (time.Time, time.Time) {
	return anchor.Add(-s.Lookback()), anchor
}

// Row is the per-site report line.
type Row struct {
	SiteID           string  `json:"store_id"`
	UptimeLastHour   float64 `json:"uptime_last_hour"`
	UptimeLastDay    float64 `json:"uptime_last_day"`
	UptimeLastWeek   float64 `json:"uptime_last_week"`
	DowntimeLastHour float64 `json:"downtime_last_hour"`
	DowntimeLastDay  float64 `json:"downtime_last_day"`
	DowntimeLastWeek float64 `json:"downtime_last_week"`
}

// Columns is the header of the tabular payload, in Row field order.
var Columns = []string{
	"store_id",
	"uptime_last_hour",
	"uptime_last_day",
	"uptime_last_week",
	"downtime_last_hour",
	"downtime_last_day",
	"downtime_last_week",
}

// Values returns the numeric cells of the row in Columns order, after store_id.
func (r Row) Values() []float64 {
	return []float64{
		r.UptimeLastHour,
		r.UptimeLastDay,
		r.UptimeLastWeek,
		r.DowntimeLastHour,
		r.DowntimeLastDay,
		r.DowntimeLastWeek,
	}
}
