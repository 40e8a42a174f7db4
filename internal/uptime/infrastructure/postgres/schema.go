package postgres

import (
	"context"
	"database/sql"
	"errors"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS stores (
	store_id TEXT PRIMARY KEY,
	timezone_str TEXT
)`,
	`CREATE TABLE IF NOT EXISTS business_hours (
	id BIGSERIAL PRIMARY KEY,
	store_id TEXT NOT NULL,
	day SMALLINT NOT NULL CHECK (day BETWEEN 0 AND 6),
	start_time_local TEXT NOT NULL,
	end_time_local TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS business_hours_store_idx ON business_hours (store_id, id)`,
	`CREATE TABLE IF NOT EXISTS store_status (
	id BIGSERIAL PRIMARY KEY,
	store_id TEXT NOT NULL,
	timestamp_utc TIMESTAMPTZ NOT NULL,
	status TEXT NOT NULL CHECK (status IN ('active', 'inactive'))
)`,
	`CREATE INDEX IF NOT EXISTS store_status_store_ts_idx ON store_status (store_id, timestamp_utc)`,
	`CREATE INDEX IF NOT EXISTS store_status_ts_idx ON store_status (timestamp_utc DESC)`,
}

// Migrate creates the tables read by the report engine.
func Migrate(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("uptime migrate: nil db")
	}
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
