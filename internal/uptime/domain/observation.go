package uptime

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Status is the polled state of a site.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// ParseStatus normalizes a raw status value.
func ParseStatus(value string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusActive:
		return StatusActive, nil
	case StatusInactive:
		return StatusInactive, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, value)
	}
}

// IsValid reports whether the status is known.
func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusInactive
}

// Observation is a single status poll for a site.
type Observation struct {
	SiteID string
	At     time.Time
	Status Status
}

// SortObservations orders observations by instant. Equal instants keep their relative order.
func SortObservations(observations []Observation) {
	sort.SliceStable(observations, func(i, j int) bool {
		return observations[i].At.Before(observations[j].At)
	})
}

// Within returns the sub-slice of ascending observations whose instants fall in [start, end].
func Within(observations []Observation, start, end time.Time) []Observation {
	if end.Before(start) {
		return nil
	}
	lo := sort.Search(len(observations), func(i int) bool {
		return !observations[i].At.Before(start)
	})
	hi := sort.Search(len(observations), func(i int) bool {
		return observations[i].At.After(end)
	})
	if lo >= hi {
		return nil
	}
	return observations[lo:hi]
}
