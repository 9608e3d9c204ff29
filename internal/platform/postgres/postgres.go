package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Open connects to PostgreSQL and verifies the connection. The returned DB is
// pooled and safe for concurrent use across all stores.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the four durable tables if they do not exist. The
// uniqueness constraints on soft_locks.national_id and checkins.national_id
// are load-bearing: they are the only cross-operator concurrency primitive.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS participants (
			national_id    VARCHAR(10) PRIMARY KEY,
			full_name      TEXT NOT NULL,
			father_name    TEXT NOT NULL DEFAULT '',
			payment_status VARCHAR(20) NOT NULL DEFAULT 'unpaid',
			imported_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS checkins (
			id           BIGSERIAL PRIMARY KEY,
			national_id  VARCHAR(10) NOT NULL UNIQUE,
			operator_id  VARCHAR(64) NOT NULL,
			disposition  VARCHAR(20) NOT NULL,
			recorded_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS soft_locks (
			national_id VARCHAR(10) PRIMARY KEY,
			holder      VARCHAR(64) NOT NULL,
			acquired_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			expires_at  TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS audit_logs (
			id          BIGSERIAL PRIMARY KEY,
			action      VARCHAR(50) NOT NULL,
			operator_id VARCHAR(64) NOT NULL,
			national_id VARCHAR(10),
			occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			details     TEXT NOT NULL DEFAULT ''
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
