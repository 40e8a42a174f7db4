package application

import (
	reporting "site-uptime/internal/reporting/domain"
	uptime "site-uptime/internal/uptime/domain"
)

// LongSpanDivisor is applied on top of minutes to the last-day and last-week figures.
// Rows therefore carry last-hour values in minutes and longer spans in hours.
const LongSpanDivisor = 60

// BuildRow tabulates one site's span results. With uniformUnits every figure is in minutes.
func BuildRow(siteID string, results map[reporting.Span]uptime.Durations, uniformUnits bool) reporting.Row {
	divisor := float64(LongSpanDivisor)
	if uniformUnits {
		divisor = 1
	}
	hour := results[reporting.SpanLastHour]
	day := results[reporting.SpanLastDay]
	week := results[reporting.SpanLastWeek]
	return reporting.Row{
		SiteID:           siteID,
		UptimeLastHour:   hour.UptimeMinutes(),
		UptimeLastDay:    day.UptimeMinutes() / divisor,
		UptimeLastWeek:   week.UptimeMinutes() / divisor,
		DowntimeLastHour: hour.DowntimeMinutes(),
		DowntimeLastDay:  day.DowntimeMinutes() / divisor,
		DowntimeLastWeek: week.DowntimeMinutes() / divisor,
	}
}
