package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"gatekeeper/internal/audit"
)

// Store persists audit entries in the audit_logs table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, entry audit.Entry) error {
	query := `
		INSERT INTO audit_logs (action, operator_id, national_id, occurred_at, details)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.Action, entry.OperatorID, entry.NationalID, entry.OccurredAt, entry.Details)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Entry, error) {
	query := `
		SELECT action, operator_id, COALESCE(national_id, ''), occurred_at, details
		FROM audit_logs
		ORDER BY occurred_at DESC, id DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var out []audit.Entry
	for rows.Next() {
		var e audit.Entry
		if err := rows.Scan(&e.Action, &e.OperatorID, &e.NationalID, &e.OccurredAt, &e.Details); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return out, nil
}
