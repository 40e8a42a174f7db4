package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	uptime "site-uptime/internal/uptime/domain"
)

const (
	defaultObservationTable   = "store_status"
	defaultBusinessHoursTable = "business_hours"
	defaultTimezoneTable      = "stores"
)

// Store is a Postgres implementation of the uptime read contracts.
type Store struct {
	db                 *sql.DB
	observationTable   string
	businessHoursTable string
	timezoneTable      string
}

// NewStore constructs a store using the default table names.
func NewStore(db *sql.DB, opts ...StoreOption) *Store {
	store := &Store{
		db:                 db,
		observationTable:   defaultObservationTable,
		businessHoursTable: defaultBusinessHoursTable,
		timezoneTable:      defaultTimezoneTable,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// StoreOption configures the store.
type StoreOption func(*Store)

// WithObservationTable overrides the status poll table name.
func WithObservationTable(table string) StoreOption {
	return func(s *Store) {
		if table != "" {
			s.observationTable = table
		}
	}
}

// WithBusinessHoursTable overrides the business hours table name.
func WithBusinessHoursTable(table string) StoreOption {
	return func(s *Store) {
		if table != "" {
			s.businessHoursTable = table
		}
	}
}

// WithTimezoneTable overrides the timezone table name.
func WithTimezoneTable(table string) StoreOption {
	return func(s *Store) {
		if table != "" {
			s.timezoneTable = table
		}
	}
}

// ListSiteIDs returns every site id present in any of the three tables.
func (s *Store) ListSiteIDs(ctx context.Context) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("uptime store: nil db")
	}
	query := fmt.Sprintf(`
SELECT store_id FROM %s
UNION
SELECT store_id FROM %s
UNION
SELECT store_id FROM %s
ORDER BY 1`, s.timezoneTable, s.businessHoursTable, s.observationTable)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids, rows.Err()
}

// ObservationsInRange returns a site's polls within [start, end], ascending.
func (s *Store) ObservationsInRange(ctx context.Context, siteID string, start, end time.Time) ([]uptime.Observation, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("uptime store: nil db")
	}
	if siteID == "" {
		return nil, uptime.ErrEmptySiteID
	}
	if start.IsZero() || end.IsZero() {
		return nil, errors.New("uptime store: invalid range")
	}

	query := fmt.Sprintf(`
SELECT timestamp_utc, status
FROM %s
WHERE store_id = $1
	AND timestamp_utc >= $2
	AND timestamp_utc <= $3
ORDER BY timestamp_utc ASC, id ASC`, s.observationTable)

	rows, err := s.db.QueryContext(ctx, query, siteID, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var observations []uptime.Observation
	for rows.Next() {
		var at time.Time
		var raw string
		if err := rows.Scan(&at, &raw); err != nil {
			return nil, err
		}
		status, err := uptime.ParseStatus(raw)
		if err != nil {
			return nil, fmt.Errorf("store %s at %s: %w", siteID, at.UTC().Format(time.RFC3339), err)
		}
		observations = append(observations, uptime.Observation{SiteID: siteID, At: at.UTC(), Status: status})
	}
	return observations, rows.Err()
}

// MaxObservationInstant returns the latest poll across all sites.
func (s *Store) MaxObservationInstant(ctx context.Context) (time.Time, bool, error) {
	if s == nil || s.db == nil {
		return time.Time{}, false, errors.New("uptime store: nil db")
	}
	query := fmt.Sprintf(`SELECT MAX(timestamp_utc) FROM %s`, s.observationTable)

	var latest sql.NullTime
	if err := s.db.QueryRowContext(ctx, query).Scan(&latest); err != nil {
		return time.Time{}, false, err
	}
	if !latest.Valid {
		return time.Time{}, false, nil
	}
	return latest.Time.UTC(), true, nil
}

// BusinessHoursFor returns a site's rules in insertion order.
func (s *Store) BusinessHoursFor(ctx context.Context, siteID string) ([]uptime.BusinessHoursRule, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("uptime store: nil db")
	}
	if siteID == "" {
		return nil, uptime.ErrEmptySiteID
	}

	query := fmt.Sprintf(`
SELECT day, start_time_local, end_time_local
FROM %s
WHERE store_id = $1
ORDER BY id ASC`, s.businessHoursTable)

	rows, err := s.db.QueryContext(ctx, query, siteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []uptime.BusinessHoursRule
	for rows.Next() {
		rule := uptime.BusinessHoursRule{SiteID: siteID}
		if err := rows.Scan(&rule.Weekday, &rule.OpenLocal, &rule.CloseLocal); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// TimezoneFor returns a site's configured zone name.
func (s *Store) TimezoneFor(ctx context.Context, siteID string) (string, bool, error) {
	if s == nil || s.db == nil {
		return "", false, errors.New("uptime store: nil db")
	}
	if siteID == "" {
		return "", false, uptime.ErrEmptySiteID
	}

	query := fmt.Sprintf(`
SELECT timezone_str
FROM %s
WHERE store_id = $1
LIMIT 1`, s.timezoneTable)

	var zone sql.NullString
	if err := s.db.QueryRowContext(ctx, query, siteID).Scan(&zone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	if !zone.Valid {
		return "", false, nil
	}
	return zone.String, true, nil
}
