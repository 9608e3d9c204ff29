// Package directory is the read-only lookup facade over the imported
// participant roster.
package directory

import (
	"context"
	"errors"
	"fmt"

	"gatekeeper/internal/checkin/models"
	"gatekeeper/pkg/platform/sentinel"
)

// Store is the subset of the participant store the directory needs.
type Store interface {
	Get(ctx context.Context, nationalID string) (*models.Participant, error)
	Search(ctx context.Context, query string, limit int) ([]models.Participant, error)
}

// Directory answers lookups and substring searches. An unknown identity is
// not an error here; it routes the caller onto the emergency-admit path.
type Directory struct {
	store       Store
	searchLimit int
}

func New(store Store, searchLimit int) (*Directory, error) {
	if store == nil {
		return nil, fmt.Errorf("participant store is required")
	}
	if searchLimit <= 0 {
		searchLimit = 10
	}
	return &Directory{store: store, searchLimit: searchLimit}, nil
}

// Lookup returns the participant for an identity, or nil when the roster has
// no such row.
func (d *Directory) Lookup(ctx context.Context, nationalID string) (*models.Participant, error) {
	p, err := d.store.Get(ctx, nationalID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: lookup participant: %v", sentinel.ErrUnavailable, err)
	}
	return p, nil
}

// Search returns bounded substring matches over full name and father name.
func (d *Directory) Search(ctx context.Context, query string) ([]models.Participant, error) {
	matches, err := d.store.Search(ctx, query, d.searchLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: search participants: %v", sentinel.ErrUnavailable, err)
	}
	return matches, nil
}
