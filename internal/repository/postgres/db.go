package postgres

import (
	"context"
	"database/sql"
)

// Querier is satisfied by both *sql.DB and *sql.Tx so repositories can run
// inside or outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// schema is applied at startup. Statements are idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS parking_lots (
		id             TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		location       TEXT NOT NULL DEFAULT '',
		address        TEXT NOT NULL DEFAULT '',
		latitude       DOUBLE PRECISION NOT NULL CHECK (latitude BETWEEN -90 AND 90),
		longitude      DOUBLE PRECISION NOT NULL CHECK (longitude BETWEEN -180 AND 180),
		total_capacity INTEGER NOT NULL CHECK (total_capacity >= 0),
		price_per_hour NUMERIC(10,2) NOT NULL CHECK (price_per_hour >= 0),
		features       TEXT[] NOT NULL DEFAULT '{}',
		rating         DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS vehicles (
		id                  TEXT PRIMARY KEY,
		user_id             TEXT NOT NULL,
		brand               TEXT NOT NULL DEFAULT '',
		model               TEXT NOT NULL DEFAULT '',
		registration_number TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS parking_bookings (
		id                TEXT PRIMARY KEY,
		user_id           TEXT NOT NULL,
		parking_lot_id    TEXT NOT NULL REFERENCES parking_lots(id),
		vehicle_id        TEXT NOT NULL REFERENCES vehicles(id),
		start_time        TIMESTAMPTZ NOT NULL,
		end_time          TIMESTAMPTZ NOT NULL,
		status            TEXT NOT NULL,
		total_amount      NUMERIC(10,2) NOT NULL CHECK (total_amount >= 0),
		payment_status    TEXT NOT NULL,
		actual_start_time TIMESTAMPTZ,
		actual_end_time   TIMESTAMPTZ,
		final_amount      NUMERIC(10,2),
		created_at        TIMESTAMPTZ NOT NULL,
		updated_at        TIMESTAMPTZ NOT NULL,
		CHECK (start_time < end_time)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_parking_bookings_lot_window
		ON parking_bookings (parking_lot_id, status, start_time, end_time)`,
	`CREATE INDEX IF NOT EXISTS idx_parking_bookings_user_created
		ON parking_bookings (user_id, created_at DESC)`,
}

// EnsureSchema creates the tables and indexes the repositories rely on.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
