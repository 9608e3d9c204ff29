// Package committer finalizes check-ins: it records the disposition, then
// releases the soft lock and emits audit as best-effort follow-ups. The
// record insert alone is the durable source of truth.
package committer

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

// RecordStore is the persistence contract for check-in records.
type RecordStore interface {
	Insert(ctx context.Context, rec models.CheckinRecord) error
	Get(ctx context.Context, nationalID string) (*models.CheckinRecord, error)
}

// Releaser drops a soft lock after a commit. Satisfied by locker.Manager.
type Releaser interface {
	Release(ctx context.Context, nationalID, operator string) error
}

// Auditor accepts fire-and-forget audit entries.
type Auditor interface {
	Record(ctx context.Context, action, operatorID, nationalID, details string)
}

// Committer performs the check-in commit transaction.
type Committer struct {
	records RecordStore
	locks   Releaser
	audit   Auditor
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

type Option func(*Committer)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Committer) { c.logger = logger }
}

func WithMetrics(mx *metrics.Metrics) Option {
	return func(c *Committer) { c.metrics = mx }
}

func WithClock(now func() time.Time) Option {
	return func(c *Committer) { c.now = now }
}

func New(records RecordStore, locks Releaser, auditor Auditor, opts ...Option) (*Committer, error) {
	if records == nil {
		return nil, fmt.Errorf("record store is required")
	}
	if locks == nil {
		return nil, fmt.Errorf("lock releaser is required")
	}
	c := &Committer{
		records: records,
		locks:   locks,
		audit:   auditor,
		logger:  slog.Default(),
		tracer:  otel.Tracer("gatekeeper/committer"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Commit records the final disposition for an identity. A pre-existing record
// yields sentinel.ErrAlreadyCommitted with nothing mutated; so does losing an
// insert race, since the uniqueness constraint is the arbiter. On success the
// lock release and audit emission run in that order as best-effort follow-ups
// whose failures are logged, never surfaced.
func (c *Committer) Commit(ctx context.Context, nationalID, operator string, disposition models.Disposition) (*models.CheckinRecord, error) {
	ctx, span := c.tracer.Start(ctx, "committer.Commit",
		trace.WithAttributes(
			attribute.String("checkin.national_id", nationalID),
			attribute.String("checkin.disposition", string(disposition)),
		))
	defer span.End()

	if !disposition.IsValid() {
		return nil, fmt.Errorf("invalid disposition %q", disposition)
	}

	existing, err := c.records.Get(ctx, nationalID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, fmt.Errorf("%w: check existing record: %v", sentinel.ErrUnavailable, err)
	}
	if existing != nil {
		return existing, sentinel.ErrAlreadyCommitted
	}

	rec := models.CheckinRecord{
		NationalID:  nationalID,
		OperatorID:  operator,
		Disposition: disposition,
		RecordedAt:  c.now(),
	}
	if err := c.records.Insert(ctx, rec); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Lost the race to another operator's commit.
			return nil, sentinel.ErrAlreadyCommitted
		}
		return nil, fmt.Errorf("%w: insert record: %v", sentinel.ErrUnavailable, err)
	}

	if c.metrics != nil {
		c.metrics.CheckinsTotal.WithLabelValues(string(disposition)).Inc()
	}

	if err := c.locks.Release(ctx, nationalID, operator); err != nil && !errors.Is(err, sentinel.ErrNotHolder) {
		c.logger.WarnContext(ctx, "post-commit lock release failed",
			"national_id", nationalID,
			"operator_id", operator,
			"error", err,
		)
	}

	if c.audit != nil {
		c.audit.Record(ctx, "checkin_"+string(disposition), operator, nationalID, "")
	}

	return &rec, nil
}

// Existing reports the final record for an identity, or nil when none exists.
// Workflows use this to short-circuit before attempting any lock.
func (c *Committer) Existing(ctx context.Context, nationalID string) (*models.CheckinRecord, error) {
	rec, err := c.records.Get(ctx, nationalID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: get record: %v", sentinel.ErrUnavailable, err)
	}
	return rec, nil
}
