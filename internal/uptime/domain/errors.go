package uptime

import "errors"

var (
	// ErrEmptySiteID is returned when a site id is empty.
	ErrEmptySiteID = errors.New("uptime: empty site id")
	// ErrInvalidStatus is returned when an observation status is neither active nor inactive.
	ErrInvalidStatus = errors.New("uptime: invalid status")
	// ErrInvalidTimeOfDay is returned when a business-hours time cannot be parsed.
	ErrInvalidTimeOfDay = errors.New("uptime: invalid time of day")
	// ErrInvalidWeekday is returned when a weekday is outside 0..6.
	ErrInvalidWeekday = errors.New("uptime: invalid weekday")
	// ErrInvalidSpan is returned when a span end precedes its start.
	ErrInvalidSpan = errors.New("uptime: invalid span")
	// ErrInvalidPolicy is returned for an unknown policy name.
	ErrInvalidPolicy = errors.New("uptime: invalid policy")
)
