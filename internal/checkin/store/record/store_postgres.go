package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"gatekeeper/internal/checkin/models"
	"gatekeeper/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresStore persists check-in records in PostgreSQL. The UNIQUE
// constraint on national_id enforces commit finality; there is no
// delete-then-reinsert path.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, rec models.CheckinRecord) error {
	query := `
		INSERT INTO checkins (national_id, operator_id, disposition, recorded_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.ExecContext(ctx, query, rec.NationalID, rec.OperatorID, string(rec.Disposition), rec.RecordedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert checkin: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, nationalID string) (*models.CheckinRecord, error) {
	query := `
		SELECT national_id, operator_id, disposition, recorded_at
		FROM checkins
		WHERE national_id = $1
	`
	var rec models.CheckinRecord
	var disposition string
	err := s.db.QueryRowContext(ctx, query, nationalID).
		Scan(&rec.NationalID, &rec.OperatorID, &disposition, &rec.RecordedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get checkin: %w", err)
	}
	rec.Disposition = models.Disposition(disposition)
	return &rec, nil
}

func (s *PostgresStore) CountByDisposition(ctx context.Context) (map[models.Disposition]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT disposition, COUNT(*) FROM checkins GROUP BY disposition`)
	if err != nil {
		return nil, fmt.Errorf("count checkins: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Disposition]int)
	for rows.Next() {
		var disposition string
		var count int
		if err := rows.Scan(&disposition, &count); err != nil {
			return nil, fmt.Errorf("scan checkin count: %w", err)
		}
		counts[models.Disposition(disposition)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkin counts: %w", err)
	}
	return counts, nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]models.CheckinRecord, error) {
	query := `
		SELECT national_id, operator_id, disposition, recorded_at
		FROM checkins
		ORDER BY recorded_at
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list checkins: %w", err)
	}
	defer rows.Close()

	var out []models.CheckinRecord
	for rows.Next() {
		var rec models.CheckinRecord
		var disposition string
		if err := rows.Scan(&rec.NationalID, &rec.OperatorID, &disposition, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan checkin: %w", err)
		}
		rec.Disposition = models.Disposition(disposition)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkins: %w", err)
	}
	return out, nil
}
