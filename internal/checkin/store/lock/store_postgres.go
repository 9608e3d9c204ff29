package lock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"gatekeeper/internal/checkin/models"
	"gatekeeper/pkg/platform/sentinel"
)

// uniqueViolation is the postgres error code raised when an insert collides
// with the soft_locks primary key. That collision IS the mutual exclusion.
const uniqueViolation = "23505"

// PostgresStore persists soft locks in PostgreSQL. All operations are single
// atomic statements; there is no read-modify-write anywhere in this store.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, lk models.SoftLock) error {
	query := `
		INSERT INTO soft_locks (national_id, holder, acquired_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.ExecContext(ctx, query, lk.NationalID, lk.Holder, lk.AcquiredAt, lk.ExpiresAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrLockActive
		}
		return fmt.Errorf("insert soft lock: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM soft_locks WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("sweep expired locks: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweep expired locks rows affected: %w", err)
	}
	return int(rows), nil
}

func (s *PostgresStore) Delete(ctx context.Context, nationalID, holder string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM soft_locks WHERE national_id = $1 AND holder = $2`, nationalID, holder)
	if err != nil {
		return false, fmt.Errorf("delete soft lock: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete soft lock rows affected: %w", err)
	}
	if rows > 0 {
		return true, nil
	}

	// Nothing matched: either no lock exists (no-op) or someone else holds it.
	var exists bool
	err = s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM soft_locks WHERE national_id = $1)`, nationalID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check soft lock holder: %w", err)
	}
	if exists {
		return false, sentinel.ErrNotHolder
	}
	return false, nil
}

func (s *PostgresStore) Get(ctx context.Context, nationalID string) (*models.SoftLock, error) {
	query := `
		SELECT national_id, holder, acquired_at, expires_at
		FROM soft_locks
		WHERE national_id = $1
	`
	var lk models.SoftLock
	err := s.db.QueryRowContext(ctx, query, nationalID).
		Scan(&lk.NationalID, &lk.Holder, &lk.AcquiredAt, &lk.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get soft lock: %w", err)
	}
	return &lk, nil
}
