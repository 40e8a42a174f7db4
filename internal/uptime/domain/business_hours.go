package uptime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DaysPerWeek is the number of weekdays a schedule can declare.
const DaysPerWeek = 7

// TimeOfDay is a local wall-clock time with minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM:SS" or "HH:MM". Seconds are dropped.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, value); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
}

// Before reports whether t is earlier in the day than other.
func (t TimeOfDay) Before(other TimeOfDay) bool {
	if t.Hour != other.Hour {
		return t.Hour < other.Hour
	}
	return t.Minute < other.Minute
}

// On returns the instant of t on the calendar day of day, in day's location.
func (t TimeOfDay) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, day.Location())
}

// String renders HH:MM:SS.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:00", t.Hour, t.Minute)
}

// BusinessHoursRule is one declared open window for a site and weekday (0 = Monday).
// Times are kept raw so that a malformed rule only fails when it is actually used.
type BusinessHoursRule struct {
	SiteID     string
	Weekday    int
	OpenLocal  string
	CloseLocal string
}

// Validate checks rule invariants without parsing the times.
func (r BusinessHoursRule) Validate() error {
	if r.SiteID == "" {
		return ErrEmptySiteID
	}
	if r.Weekday < 0 || r.Weekday >= DaysPerWeek {
		return fmt.Errorf("%w: %d", ErrInvalidWeekday, r.Weekday)
	}
	return nil
}

// OpenPeriod is the resolved local open/close pair for one weekday.
type OpenPeriod struct {
	Open   TimeOfDay
	Close  TimeOfDay
	AllDay bool
}

// Overnight reports whether the period closes on the following calendar day.
func (p OpenPeriod) Overnight() bool {
	return !p.AllDay && p.Close.Before(p.Open)
}

// Bounds returns the open and close instants of the period starting on day's calendar date,
// expressed in day's location.
func (p OpenPeriod) Bounds(day time.Time) (time.Time, time.Time) {
	if p.AllDay {
		start := startOfDay(day)
		return start, nextDay(start)
	}
	openAt := p.Open.On(day)
	closeAt := p.Close.On(day)
	if p.Overnight() {
		closeAt = p.Close.On(nextDay(day))
	}
	return openAt, closeAt
}

// LocalWeekday maps t's weekday in its own location to 0 = Monday ... 6 = Sunday.
func LocalWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % DaysPerWeek
}

// MissingHoursPolicy decides what a weekday without a rule means.
type MissingHoursPolicy string

const (
	// MissingHoursClosed treats an undeclared weekday as zero open minutes.
	MissingHoursClosed MissingHoursPolicy = "closed"
	// MissingHoursOpenAllDay treats an undeclared weekday as open for the whole local day.
	MissingHoursOpenAllDay MissingHoursPolicy = "open_all_day"
)

// ParseMissingHoursPolicy validates a policy name. Empty selects MissingHoursClosed.
func ParseMissingHoursPolicy(value string) (MissingHoursPolicy, error) {
	switch MissingHoursPolicy(value) {
	case "", MissingHoursClosed:
		return MissingHoursClosed, nil
	case MissingHoursOpenAllDay:
		return MissingHoursOpenAllDay, nil
	default:
		return "", fmt.Errorf("%w: missing hours %q", ErrInvalidPolicy, value)
	}
}

// WeeklySchedule is the loaded set of rules for one site.
type WeeklySchedule struct {
	rules   []BusinessHoursRule
	missing MissingHoursPolicy
}

// NewWeeklySchedule wraps rules with a missing-hours policy.
func NewWeeklySchedule(rules []BusinessHoursRule, missing MissingHoursPolicy) WeeklySchedule {
	if missing == "" {
		missing = MissingHoursClosed
	}
	return WeeklySchedule{rules: rules, missing: missing}
}

// Period resolves the open period for a weekday. open is false when the site is closed that day.
// The first rule matching the weekday wins.
func (s WeeklySchedule) Period(weekday int) (period OpenPeriod, open bool, err error) {
	if weekday < 0 || weekday >= DaysPerWeek {
		return OpenPeriod{}, false, fmt.Errorf("%w: %d", ErrInvalidWeekday, weekday)
	}
	for _, rule := range s.rules {
		if rule.Weekday != weekday {
			continue
		}
		openAt, err := ParseTimeOfDay(rule.OpenLocal)
		if err != nil {
			return OpenPeriod{}, false, fmt.Errorf("site %s weekday %d open: %w", rule.SiteID, weekday, err)
		}
		closeAt, err := ParseTimeOfDay(rule.CloseLocal)
		if err != nil {
			return OpenPeriod{}, false, fmt.Errorf("site %s weekday %d close: %w", rule.SiteID, weekday, err)
		}
		return OpenPeriod{Open: openAt, Close: closeAt}, true, nil
	}
	if s.missing == MissingHoursOpenAllDay {
		return OpenPeriod{AllDay: true}, true, nil
	}
	return OpenPeriod{}, false, nil
}

// BusinessHoursResolver maps (site, local weekday) to an open period.
type BusinessHoursResolver struct {
	reader  BusinessHoursReader
	missing MissingHoursPolicy
}

// NewBusinessHoursResolver constructs a resolver.
func NewBusinessHoursResolver(reader BusinessHoursReader, missing MissingHoursPolicy) (*BusinessHoursResolver, error) {
	if reader == nil {
		return nil, errors.New("uptime: nil business hours reader")
	}
	if _, err := ParseMissingHoursPolicy(string(missing)); err != nil {
		return nil, err
	}
	return &BusinessHoursResolver{reader: reader, missing: missing}, nil
}

// Load reads the weekly schedule of a site.
func (r *BusinessHoursResolver) Load(ctx context.Context, siteID string) (WeeklySchedule, error) {
	if siteID == "" {
		return WeeklySchedule{}, ErrEmptySiteID
	}
	rules, err := r.reader.BusinessHoursFor(ctx, siteID)
	if err != nil {
		return WeeklySchedule{}, fmt.Errorf("business hours for %s: %w", siteID, err)
	}
	return NewWeeklySchedule(rules, r.missing), nil
}

// Resolve returns the open period of a site on a local weekday.
func (r *BusinessHoursResolver) Resolve(ctx context.Context, siteID string, weekday int) (OpenPeriod, bool, error) {
	schedule, err := r.Load(ctx, siteID)
	if err != nil {
		return OpenPeriod{}, false, err
	}
	return schedule.Period(weekday)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func nextDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, t.Location())
}
