package participant

import (
	"context"
	"sort"
	"strings"
	"sync"

	"gatekeeper/internal/checkin/models"
	"gatekeeper/pkg/platform/sentinel"
)

// Store is the full roster surface. Services depend on the narrow slices
// they need; this union exists for wiring.
type Store interface {
	Upsert(ctx context.Context, p models.Participant) error
	UpsertBatch(ctx context.Context, batch []models.Participant) error
	Get(ctx context.Context, nationalID string) (*models.Participant, error)
	Search(ctx context.Context, query string, limit int) ([]models.Participant, error)
	List(ctx context.Context) ([]models.Participant, error)
	Count(ctx context.Context) (int, error)
	CountUnpaid(ctx context.Context) (int, error)
}

// InMemoryStore keeps the participant roster in a mutex-guarded map.
type InMemoryStore struct {
	mu           sync.RWMutex
	participants map[string]models.Participant
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{participants: make(map[string]models.Participant)}
}

// Upsert inserts or overwrites one roster row keyed by national id.
func (s *InMemoryStore) Upsert(_ context.Context, p models.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[p.NationalID] = p
	return nil
}

// UpsertBatch applies Upsert row-wise. Later rows win on duplicate ids within
// the same batch, matching the postgres ON CONFLICT behavior.
func (s *InMemoryStore) UpsertBatch(ctx context.Context, batch []models.Participant) error {
	for _, p := range batch {
		if err := s.Upsert(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the participant for an identity, or sentinel.ErrNotFound.
func (s *InMemoryStore) Get(_ context.Context, nationalID string) (*models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, exists := s.participants[nationalID]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	out := p
	return &out, nil
}

// Search matches the query as a substring of full name or father name,
// returning at most limit rows ordered by full name.
func (s *InMemoryStore) Search(_ context.Context, query string, limit int) ([]models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Participant
	for _, p := range s.participants {
		if strings.Contains(p.FullName, query) || strings.Contains(p.FatherName, query) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FullName != out[j].FullName {
			return out[i].FullName < out[j].FullName
		}
		return out[i].NationalID < out[j].NationalID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// List returns the whole roster ordered by full name.
func (s *InMemoryStore) List(_ context.Context) ([]models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Participant, 0, len(s.participants))
	for _, p := range s.participants {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

// Count returns total roster size.
func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.participants), nil
}

// CountUnpaid returns how many roster rows carry an unpaid payment status.
func (s *InMemoryStore) CountUnpaid(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, p := range s.participants {
		if p.PaymentStatus == models.PaymentUnpaid {
			count++
		}
	}
	return count, nil
}
