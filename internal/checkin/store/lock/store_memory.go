package lock

import (
	"context"
	"sync"
	"time"

	"gatekeeper/internal/checkin/models"
	"gatekeeper/pkg/platform/sentinel"
)

// InMemoryStore keeps soft locks in a mutex-guarded map. It mirrors the
// postgres semantics exactly: an existing row blocks insertion even after its
// TTL has elapsed, until a sweep removes it. That staleness window is part of
// the contract, not an artifact.
type InMemoryStore struct {
	mu    sync.Mutex
	locks map[string]models.SoftLock
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{locks: make(map[string]models.SoftLock)}
}

// Insert adds a lock row if none exists for the identity. Returns
// sentinel.ErrLockActive when a row is present, expired or not.
func (s *InMemoryStore) Insert(_ context.Context, lk models.SoftLock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.locks[lk.NationalID]; exists {
		return sentinel.ErrLockActive
	}
	s.locks[lk.NationalID] = lk
	return nil
}

// DeleteExpired removes every lock whose expiry has passed and reports how
// many were swept.
func (s *InMemoryStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	swept := 0
	for id, lk := range s.locks {
		if lk.Expired(now) {
			delete(s.locks, id)
			swept++
		}
	}
	return swept, nil
}

// Delete removes the lock for an identity if held by the given holder.
// Reports whether a row was deleted; deleting an absent lock is a no-op.
func (s *InMemoryStore) Delete(_ context.Context, nationalID, holder string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lk, exists := s.locks[nationalID]
	if !exists {
		return false, nil
	}
	if lk.Holder != holder {
		return false, sentinel.ErrNotHolder
	}
	delete(s.locks, nationalID)
	return true, nil
}

// Get returns the lock row for an identity, or sentinel.ErrNotFound. For
// introspection only; acquisition never read-checks.
func (s *InMemoryStore) Get(_ context.Context, nationalID string) (*models.SoftLock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lk, exists := s.locks[nationalID]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	out := lk
	return &out, nil
}
