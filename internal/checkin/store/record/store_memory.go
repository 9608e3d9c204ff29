package record

import (
	"context"
	"sync"

	"gatekeeper/internal/checkin/models"
	"gatekeeper/pkg/platform/sentinel"
)

// Store is the full record surface. Services depend on the narrow slices
// they need; this union exists for wiring.
type Store interface {
	Insert(ctx context.Context, rec models.CheckinRecord) error
	Get(ctx context.Context, nationalID string) (*models.CheckinRecord, error)
	CountByDisposition(ctx context.Context) (map[models.Disposition]int, error)
	ListAll(ctx context.Context) ([]models.CheckinRecord, error)
}

// InMemoryStore keeps check-in records in a mutex-guarded map. Insert-only:
// once a record exists for an identity it is final.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]models.CheckinRecord
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]models.CheckinRecord)}
}

// Insert adds the record unless one already exists, in which case it returns
// sentinel.ErrConflict and mutates nothing.
func (s *InMemoryStore) Insert(_ context.Context, rec models.CheckinRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.NationalID]; exists {
		return sentinel.ErrConflict
	}
	s.records[rec.NationalID] = rec
	return nil
}

// Get returns the record for an identity, or sentinel.ErrNotFound.
func (s *InMemoryStore) Get(_ context.Context, nationalID string) (*models.CheckinRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, exists := s.records[nationalID]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	out := rec
	return &out, nil
}

// CountByDisposition tallies records per disposition.
func (s *InMemoryStore) CountByDisposition(_ context.Context) (map[models.Disposition]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[models.Disposition]int)
	for _, rec := range s.records {
		counts[rec.Disposition]++
	}
	return counts, nil
}

// ListAll returns every record. Used by the present-list export.
func (s *InMemoryStore) ListAll(_ context.Context) ([]models.CheckinRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CheckinRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	return out, nil
}
