package store

import (
	"context"
	"sync"

	"gatekeeper/internal/session/models"
	"gatekeeper/pkg/platform/sentinel"
)

// Store is the session persistence contract, keyed by operator id.
type Store interface {
	Get(ctx context.Context, operatorID string) (*models.Session, error)
	Put(ctx context.Context, session *models.Session) error
	Delete(ctx context.Context, operatorID string) error
}

// InMemoryStore keeps sessions in a mutex-guarded map. The default for
// single-process deployments.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]models.Session)}
}

func (s *InMemoryStore) Get(_ context.Context, operatorID string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, exists := s.sessions[operatorID]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	out := sess
	return &out, nil
}

func (s *InMemoryStore) Put(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.OperatorID] = *session
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, operatorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, operatorID)
	return nil
}
