// Package locker implements the soft lock manager: time-bounded exclusive
// claims on participant identities, enforced by a store-level uniqueness
// constraint rather than any client-side mutexing.
package locker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gatekeeper/internal/checkin/models"
	"gatekeeper/internal/platform/metrics"
	"gatekeeper/pkg/platform/sentinel"
)

// Store is the persistence contract for soft locks. Insert must be a single
// atomic insert-if-absent; it is the sole mutual-exclusion primitive.
type Store interface {
	Insert(ctx context.Context, lk models.SoftLock) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
	Delete(ctx context.Context, nationalID, holder string) (bool, error)
	Get(ctx context.Context, nationalID string) (*models.SoftLock, error)
}

// Manager grants and releases soft locks. Expiry is lazy: expired rows are
// swept at the start of every Acquire, never by a background timer, so a
// stale lock can outlive its TTL until the next acquire anywhere.
type Manager struct {
	store   Store
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

func WithMetrics(mx *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mx }
}

// WithClock overrides the time source. For tests exercising TTL boundaries.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func New(store Store, ttl time.Duration, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("lock store is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("lock ttl must be positive")
	}
	m := &Manager{
		store:  store,
		ttl:    ttl,
		logger: slog.Default(),
		tracer: otel.Tracer("gatekeeper/locker"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Acquire claims the identity for the operator. Returns
// sentinel.ErrLockActive when another claim is live (or expired but not yet
// swept by this call), and sentinel.ErrUnavailable-wrapped errors when the
// store cannot be reached; callers must not advance workflow state on the
// latter. First successful atomic insert wins; no fairness among contenders.
func (m *Manager) Acquire(ctx context.Context, nationalID, operator string) error {
	ctx, span := m.tracer.Start(ctx, "locker.Acquire",
		trace.WithAttributes(attribute.String("checkin.national_id", nationalID)))
	defer span.End()

	now := m.now()
	swept, err := m.store.DeleteExpired(ctx, now)
	if err != nil {
		return fmt.Errorf("%w: sweep expired locks: %v", sentinel.ErrUnavailable, err)
	}
	if swept > 0 {
		if m.metrics != nil {
			m.metrics.LocksSweptTotal.Add(float64(swept))
		}
		m.logger.DebugContext(ctx, "swept expired locks", "count", swept)
	}

	err = m.store.Insert(ctx, models.SoftLock{
		NationalID: nationalID,
		Holder:     operator,
		AcquiredAt: now,
		ExpiresAt:  now.Add(m.ttl),
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrLockActive) {
			if m.metrics != nil {
				m.metrics.LockConflictsTotal.Inc()
			}
			return sentinel.ErrLockActive
		}
		return fmt.Errorf("%w: insert lock: %v", sentinel.ErrUnavailable, err)
	}
	return nil
}

// Release drops the operator's claim on the identity. Releasing an absent
// lock is a no-op. A release by a non-holder deletes nothing and returns
// sentinel.ErrNotHolder; callers treat that as a logged signal, not a
// failure of their own flow.
func (m *Manager) Release(ctx context.Context, nationalID, operator string) error {
	_, err := m.store.Delete(ctx, nationalID, operator)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotHolder) {
			m.logger.WarnContext(ctx, "release by non-holder ignored",
				"national_id", nationalID,
				"operator_id", operator,
			)
			return sentinel.ErrNotHolder
		}
		return fmt.Errorf("%w: delete lock: %v", sentinel.ErrUnavailable, err)
	}
	return nil
}

// Status returns the raw lock row for an identity, expired or not, or nil
// when none exists. Lazy expiry means an expired row can still show up here;
// callers wanting liveness must check Expired themselves.
func (m *Manager) Status(ctx context.Context, nationalID string) (*models.SoftLock, error) {
	lk, err := m.store.Get(ctx, nationalID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: get lock: %v", sentinel.ErrUnavailable, err)
	}
	return lk, nil
}

// TTL exposes the configured lock duration.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}
