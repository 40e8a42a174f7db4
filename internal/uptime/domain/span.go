package uptime

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// MaxSpanDays bounds the day walk of a single span. A week is the largest reported span.
const MaxSpanDays = 7

// ClosedDayPolicy decides what a closed weekday does to the rest of a span.
type ClosedDayPolicy string

const (
	// ClosedDayAbortSpan stops evaluating the span at the first closed day.
	ClosedDayAbortSpan ClosedDayPolicy = "abort_span"
	// ClosedDaySkipDay moves on to the next local day.
	ClosedDaySkipDay ClosedDayPolicy = "skip_day"
)

// ParseClosedDayPolicy validates a policy name. Empty selects ClosedDayAbortSpan.
func ParseClosedDayPolicy(value string) (ClosedDayPolicy, error) {
	switch ClosedDayPolicy(value) {
	case "", ClosedDayAbortSpan:
		return ClosedDayAbortSpan, nil
	case ClosedDaySkipDay:
		return ClosedDaySkipDay, nil
	default:
		return "", fmt.Errorf("%w: closed day %q", ErrInvalidPolicy, value)
	}
}

// SpanCalculator walks a span day by day and sums uptime/downtime inside business hours.
type SpanCalculator struct {
	observations ObservationReader
	hours        *BusinessHoursResolver
	zones        *TimezoneResolver
	closedDay    ClosedDayPolicy
}

// SpanOption configures a SpanCalculator.
type SpanOption func(*SpanCalculator)

// WithClosedDayPolicy overrides the closed-day behavior.
func WithClosedDayPolicy(policy ClosedDayPolicy) SpanOption {
	return func(c *SpanCalculator) {
		if policy != "" {
			c.closedDay = policy
		}
	}
}

// NewSpanCalculator constructs a SpanCalculator.
func NewSpanCalculator(observations ObservationReader, hours *BusinessHoursResolver, zones *TimezoneResolver, opts ...SpanOption) (*SpanCalculator, error) {
	if observations == nil || hours == nil || zones == nil {
		return nil, errors.New("uptime: nil span calculator dependency")
	}
	c := &SpanCalculator{
		observations: observations,
		hours:        hours,
		zones:        zones,
		closedDay:    ClosedDayAbortSpan,
	}
	for _, opt := range opts {
		opt(c)
	}
	if _, err := ParseClosedDayPolicy(string(c.closedDay)); err != nil {
		return nil, err
	}
	return c, nil
}

// ComputeSpan returns the uptime and downtime of a site within business hours of [start, end].
func (c *SpanCalculator) ComputeSpan(ctx context.Context, siteID string, start, end time.Time) (Durations, error) {
	if siteID == "" {
		return Durations{}, ErrEmptySiteID
	}
	if end.Before(start) {
		return Durations{}, ErrInvalidSpan
	}
	loc, err := c.zones.Resolve(ctx, siteID)
	if err != nil {
		return Durations{}, err
	}
	schedule, err := c.hours.Load(ctx, siteID)
	if err != nil {
		return Durations{}, err
	}
	observations, err := c.observations.ObservationsInRange(ctx, siteID, start.UTC(), end.UTC())
	if err != nil {
		return Durations{}, fmt.Errorf("observations for %s: %w", siteID, err)
	}
	SortObservations(observations)

	var total Durations
	cursor := start.UTC()
	for day := 0; day < MaxSpanDays && cursor.Before(end); day++ {
		local := cursor.In(loc)
		period, open, err := schedule.Period(LocalWeekday(local))
		if err != nil {
			return Durations{}, err
		}
		if !open {
			if c.closedDay == ClosedDaySkipDay {
				cursor = nextDay(local).UTC()
				continue
			}
			break
		}

		openAt, closeAt := period.Bounds(local)
		openUTC, closeUTC := openAt.UTC(), closeAt.UTC()
		total = total.Add(Aggregate(Within(observations, openUTC, closeUTC), openUTC, closeUTC))

		// A same-day close would re-resolve the day just evaluated.
		next := nextDay(local)
		if closeAt.After(next) {
			next = closeAt
		}
		cursor = next.UTC()
	}
	return total, nil
}
