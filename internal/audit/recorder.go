package audit

import (
	"context"
	"log/slog"
	"time"
)

// Store is the persistence contract for audit entries.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
}

// Publisher fans an entry out to an external sink (e.g. a Kafka topic).
// Implementations must not block the caller.
type Publisher interface {
	Publish(ctx context.Context, entry Entry)
}

// Recorder accepts audit entries fire-and-forget: Record never blocks and
// never fails the caller. Entries flow through a buffered inbox drained by a
// Worker; when the inbox is full the entry is dropped and logged, because no
// domain operation is allowed to stall on audit.
type Recorder struct {
	inbox  chan Entry
	logger *slog.Logger
}

// NewRecorder creates a recorder with a buffered inbox of the given size.
func NewRecorder(buffer int, logger *slog.Logger) *Recorder {
	if buffer <= 0 {
		buffer = 256
	}
	return &Recorder{
		inbox:  make(chan Entry, buffer),
		logger: logger,
	}
}

// Record enqueues an entry. Fire-and-forget per the audit contract: failures
// are logged, never propagated.
func (r *Recorder) Record(ctx context.Context, action, operatorID, nationalID, details string) {
	entry := Entry{
		Action:     action,
		OperatorID: operatorID,
		NationalID: nationalID,
		OccurredAt: time.Now(),
		Details:    details,
	}
	select {
	case r.inbox <- entry:
	default:
		r.logger.WarnContext(ctx, "audit inbox full, entry dropped",
			"action", action,
			"operator_id", operatorID,
		)
	}
}

// Inbox exposes the entry channel for the worker.
func (r *Recorder) Inbox() <-chan Entry {
	return r.inbox
}

// Worker drains the recorder inbox into the store and optional publisher.
type Worker struct {
	store     Store
	publisher Publisher
	inbox     <-chan Entry
	logger    *slog.Logger
}

func NewWorker(store Store, inbox <-chan Entry, logger *slog.Logger, publisher Publisher) *Worker {
	return &Worker{store: store, publisher: publisher, inbox: inbox, logger: logger}
}

// Run consumes entries until the context is cancelled. Store failures are
// logged and the worker keeps going; audit is best-effort by contract.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entry := <-w.inbox:
			if err := w.store.Append(ctx, entry); err != nil {
				w.logger.ErrorContext(ctx, "audit append failed",
					"action", entry.Action,
					"error", err,
				)
			}
			if w.publisher != nil {
				w.publisher.Publish(ctx, entry)
			}
		}
	}
}
