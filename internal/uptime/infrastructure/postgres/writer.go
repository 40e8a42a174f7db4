package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	uptime "site-uptime/internal/uptime/domain"
)

// InsertObservations writes status polls in one transaction.
func (s *Store) InsertObservations(ctx context.Context, observations []uptime.Observation) error {
	if s == nil || s.db == nil {
		return errors.New("uptime store: nil db")
	}
	if len(observations) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
INSERT INTO %s (store_id, timestamp_utc, status)
VALUES ($1, $2, $3)`, s.observationTable)

	return s.inTx(ctx, query, func(stmt *sql.Stmt) error {
		for _, obs := range observations {
			if obs.SiteID == "" || obs.At.IsZero() || !obs.Status.IsValid() {
				return errors.New("uptime store: invalid observation")
			}
			if _, err := stmt.ExecContext(ctx, obs.SiteID, obs.At.UTC(), string(obs.Status)); err != nil {
				return err
			}
		}
		return nil
	})
}

// InsertBusinessHours writes rules in the given order.
func (s *Store) InsertBusinessHours(ctx context.Context, rules []uptime.BusinessHoursRule) error {
	if s == nil || s.db == nil {
		return errors.New("uptime store: nil db")
	}
	if len(rules) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
INSERT INTO %s (store_id, day, start_time_local, end_time_local)
VALUES ($1, $2, $3, $4)`, s.businessHoursTable)

	return s.inTx(ctx, query, func(stmt *sql.Stmt) error {
		for _, rule := range rules {
			if err := rule.Validate(); err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, rule.SiteID, rule.Weekday, rule.OpenLocal, rule.CloseLocal); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpsertTimezones records zone names keyed by site id.
func (s *Store) UpsertTimezones(ctx context.Context, zones map[string]string) error {
	if s == nil || s.db == nil {
		return errors.New("uptime store: nil db")
	}
	if len(zones) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
INSERT INTO %s (store_id, timezone_str)
VALUES ($1, $2)
ON CONFLICT (store_id)
DO UPDATE SET timezone_str = EXCLUDED.timezone_str`, s.timezoneTable)

	return s.inTx(ctx, query, func(stmt *sql.Stmt) error {
		for siteID, zone := range zones {
			if siteID == "" {
				return uptime.ErrEmptySiteID
			}
			if _, err := stmt.ExecContext(ctx, siteID, zone); err != nil {
				return err
			}
		}
		return nil
	})
}

// Reset removes every row from the three collaborator tables.
func (s *Store) Reset(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("uptime store: nil db")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, table := range []string{s.observationTable, s.businessHoursTable, s.timezoneTable} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, table)); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) inTx(ctx context.Context, query string, fn func(stmt *sql.Stmt) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	if err := fn(stmt); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
