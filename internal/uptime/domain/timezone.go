package uptime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// DefaultTimezone is the zone assumed for sites without a configured one.
const DefaultTimezone = "America/Chicago"

// TimezoneResolver maps a site to its local zone, falling back to a fixed zone.
type TimezoneResolver struct {
	reader   TimezoneReader
	fallback *time.Location

	mu    sync.Mutex
	zones map[string]*time.Location
}

// NewTimezoneResolver constructs a resolver. A nil fallback selects DefaultTimezone.
func NewTimezoneResolver(reader TimezoneReader, fallback *time.Location) (*TimezoneResolver, error) {
	if reader == nil {
		return nil, errors.New("uptime: nil timezone reader")
	}
	if fallback == nil {
		loc, err := time.LoadLocation(DefaultTimezone)
		if err != nil {
			return nil, fmt.Errorf("uptime: load default timezone: %w", err)
		}
		fallback = loc
	}
	return &TimezoneResolver{
		reader:   reader,
		fallback: fallback,
		zones:    make(map[string]*time.Location),
	}, nil
}

// Fallback returns the zone used when a site has none configured.
func (r *TimezoneResolver) Fallback() *time.Location {
	return r.fallback
}

// Resolve returns the site's zone. A missing or blank zone yields the fallback.
// An unknown zone name is an error.
func (r *TimezoneResolver) Resolve(ctx context.Context, siteID string) (*time.Location, error) {
	if siteID == "" {
		return nil, ErrEmptySiteID
	}
	name, ok, err := r.reader.TimezoneFor(ctx, siteID)
	if err != nil {
		return nil, fmt.Errorf("timezone for %s: %w", siteID, err)
	}
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return r.fallback, nil
	}
	return r.load(name)
}

func (r *TimezoneResolver) load(name string) (*time.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if loc, ok := r.zones[name]; ok {
		return loc, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("uptime: load timezone %q: %w", name, err)
	}
	r.zones[name] = loc
	return loc, nil
}
