package uptime

import (
	"context"
	"time"
)

// SiteLister lists every known site.
type SiteLister interface {
	ListSiteIDs(ctx context.Context) ([]string, error)
}

// ObservationReader loads status polls.
type ObservationReader interface {
	// ObservationsInRange returns a site's observations within [start, end], ascending by instant.
	ObservationsInRange(ctx context.Context, siteID string, start, end time.Time) ([]Observation, error)
	// MaxObservationInstant returns the latest observation instant across all sites.
	// ok is false when no observation exists.
	MaxObservationInstant(ctx context.Context) (at time.Time, ok bool, err error)
}

// BusinessHoursReader loads the declared weekly schedule of a site.
type BusinessHoursReader interface {
	BusinessHoursFor(ctx context.Context, siteID string) ([]BusinessHoursRule, error)
}

// TimezoneReader loads the configured zone name of a site.
// ok is false when the site has no configured zone.
type TimezoneReader interface {
	TimezoneFor(ctx context.Context, siteID string) (zone string, ok bool, err error)
}

// Source bundles every read contract the report engine consumes.
type Source interface {
	SiteLister
	ObservationReader
	BusinessHoursReader
	TimezoneReader
}
