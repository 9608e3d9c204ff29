package participant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gatekeeper/internal/checkin/models"
	"gatekeeper/pkg/platform/sentinel"
)

// PostgresStore persists the participant roster in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Upsert(ctx context.Context, p models.Participant) error {
	query := `
		INSERT INTO participants (national_id, full_name, father_name, payment_status, imported_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (national_id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			father_name = EXCLUDED.father_name,
			payment_status = EXCLUDED.payment_status,
			imported_at = EXCLUDED.imported_at
	`
	_, err := s.db.ExecContext(ctx, query,
		p.NationalID, p.FullName, p.FatherName, string(p.PaymentStatus), p.ImportedAt)
	if err != nil {
		return fmt.Errorf("upsert participant: %w", err)
	}
	return nil
}

// UpsertBatch applies all rows inside one transaction so a failed import
// leaves the roster untouched.
func (s *PostgresStore) UpsertBatch(ctx context.Context, batch []models.Participant) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO participants (national_id, full_name, father_name, payment_status, imported_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (national_id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			father_name = EXCLUDED.father_name,
			payment_status = EXCLUDED.payment_status,
			imported_at = EXCLUDED.imported_at
	`
	for _, p := range batch {
		if _, err := tx.ExecContext(ctx, query,
			p.NationalID, p.FullName, p.FatherName, string(p.PaymentStatus), p.ImportedAt); err != nil {
			return fmt.Errorf("import participant %s: %w", p.NationalID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, nationalID string) (*models.Participant, error) {
	query := `
		SELECT national_id, full_name, father_name, payment_status, imported_at
		FROM participants
		WHERE national_id = $1
	`
	p, err := scanParticipant(s.db.QueryRowContext(ctx, query, nationalID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get participant: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) Search(ctx context.Context, query string, limit int) ([]models.Participant, error) {
	stmt := `
		SELECT national_id, full_name, father_name, payment_status, imported_at
		FROM participants
		WHERE full_name LIKE '%' || $1 || '%' OR father_name LIKE '%' || $1 || '%'
		ORDER BY full_name, national_id
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, stmt, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search participants: %w", err)
	}
	defer rows.Close()
	return collectParticipants(rows)
}

func (s *PostgresStore) List(ctx context.Context) ([]models.Participant, error) {
	stmt := `
		SELECT national_id, full_name, father_name, payment_status, imported_at
		FROM participants
		ORDER BY full_name
	`
	rows, err := s.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()
	return collectParticipants(rows)
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM participants`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count participants: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) CountUnpaid(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participants WHERE payment_status = $1`,
		string(models.PaymentUnpaid)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unpaid participants: %w", err)
	}
	return count, nil
}

type participantRow interface {
	Scan(dest ...any) error
}

func scanParticipant(row participantRow) (*models.Participant, error) {
	var p models.Participant
	var status string
	if err := row.Scan(&p.NationalID, &p.FullName, &p.FatherName, &status, &p.ImportedAt); err != nil {
		return nil, err
	}
	p.PaymentStatus = models.PaymentStatus(status)
	return &p, nil
}

func collectParticipants(rows *sql.Rows) ([]models.Participant, error) {
	var out []models.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}
	return out, nil
}
