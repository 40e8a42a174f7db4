package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	uptime "site-uptime/internal/uptime/domain"
)

// Store is an in-memory implementation of the uptime read contracts for demo/testing.
type Store struct {
	mu           sync.RWMutex
	observations map[string][]uptime.Observation
	hours        map[string][]uptime.BusinessHoursRule
	zones        map[string]string
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		observations: make(map[string][]uptime.Observation),
		hours:        make(map[string][]uptime.BusinessHoursRule),
		zones:        make(map[string]string),
	}
}

// AddObservations appends observations, keeping each site's stream ascending.
func (s *Store) AddObservations(observations ...uptime.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	touched := make(map[string]struct{})
	for _, obs := range observations {
		if obs.SiteID == "" {
			return uptime.ErrEmptySiteID
		}
		if !obs.Status.IsValid() {
			return uptime.ErrInvalidStatus
		}
		obs.At = obs.At.UTC()
		s.observations[obs.SiteID] = append(s.observations[obs.SiteID], obs)
		touched[obs.SiteID] = struct{}{}
	}
	for siteID := range touched {
		uptime.SortObservations(s.observations[siteID])
	}
	return nil
}

// AddBusinessHours appends rules in the given order.
func (s *Store) AddBusinessHours(rules ...uptime.BusinessHoursRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rule := range rules {
		if err := rule.Validate(); err != nil {
			return err
		}
		s.hours[rule.SiteID] = append(s.hours[rule.SiteID], rule)
	}
	return nil
}

// SetTimezone records a site's zone name.
func (s *Store) SetTimezone(siteID, zone string) error {
	if siteID == "" {
		return uptime.ErrEmptySiteID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zones[siteID] = zone
	return nil
}

// ListSiteIDs returns every site known to any of the three datasets, sorted.
func (s *Store) ListSiteIDs(ctx context.Context) ([]string, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	for id := range s.observations {
		seen[id] = struct{}{}
	}
	for id := range s.hours {
		seen[id] = struct{}{}
	}
	for id := range s.zones {
		seen[id] = struct{}{}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// ObservationsInRange returns a copy of the site's observations within [start, end].
func (s *Store) ObservationsInRange(ctx context.Context, siteID string, start, end time.Time) ([]uptime.Observation, error) {
	_ = ctx
	if siteID == "" {
		return nil, uptime.ErrEmptySiteID
	}
	if start.IsZero() || end.IsZero() {
		return nil, errors.New("memory store: invalid range")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	window := uptime.Within(s.observations[siteID], start, end)
	result := make([]uptime.Observation, len(window))
	copy(result, window)
	return result, nil
}

// MaxObservationInstant returns the latest observation instant across all sites.
func (s *Store) MaxObservationInstant(ctx context.Context) (time.Time, bool, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest time.Time
	found := false
	for _, observations := range s.observations {
		if len(observations) == 0 {
			continue
		}
		last := observations[len(observations)-1].At
		if !found || last.After(latest) {
			latest = last
			found = true
		}
	}
	return latest, found, nil
}

// BusinessHoursFor returns the site's rules in insertion order.
func (s *Store) BusinessHoursFor(ctx context.Context, siteID string) ([]uptime.BusinessHoursRule, error) {
	_ = ctx
	if siteID == "" {
		return nil, uptime.ErrEmptySiteID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rules := s.hours[siteID]
	result := make([]uptime.BusinessHoursRule, len(rules))
	copy(result, rules)
	return result, nil
}

// TimezoneFor returns the site's zone name, if any.
func (s *Store) TimezoneFor(ctx context.Context, siteID string) (string, bool, error) {
	_ = ctx
	if siteID == "" {
		return "", false, uptime.ErrEmptySiteID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	zone, ok := s.zones[siteID]
	return zone, ok, nil
}
