// Package importer implements the bulk import workflow. It is kept fully
// independent of check-in locking: imports only ever touch the participant
// roster, never soft locks or check-in records.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gatekeeper/internal/checkin/models"
	"gatekeeper/internal/events"
	"gatekeeper/internal/platform/metrics"
)

// ErrValidation reports a structurally unusable upload (missing required
// columns). The workflow stays in the awaiting-file state so the operator
// can resend a corrected file.
var ErrValidation = errors.New("import validation failed")

var requiredColumns = []string{"national_id", "full_name", "father_name", "payment_status"}

// State of the upload gate, per operator.
type State string

const (
	StateIdle         State = "idle"
	StateAwaitingFile State = "awaiting_file"
)

const (
	msgSendFile      = "Send the participant roster as a CSV file (columns: national_id, full_name, father_name, payment_status)."
	msgNotAwaiting   = "No upload in progress. Request an upload first."
	msgUploadRetry   = "Import failed due to a storage problem. Send the file again."
	msgUploadInvalid = "File rejected: required columns missing (national_id, full_name, father_name, payment_status). Fix the file and resend."
	msgCancelled     = "Upload cancelled."
)

// ParticipantStore is the roster write surface imports need.
type ParticipantStore interface {
	UpsertBatch(ctx context.Context, batch []models.Participant) error
}

// Auditor accepts fire-and-forget audit entries.
type Auditor interface {
	Record(ctx context.Context, action, operatorID, nationalID, details string)
}

// Workflow gates roster uploads behind an explicit request step so stray
// files are never silently imported.
type Workflow struct {
	mu           sync.Mutex
	states       map[string]State
	participants ParticipantStore
	audit        Auditor
	logger       *slog.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
}

type Option func(*Workflow)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) { w.logger = logger }
}

func WithAuditor(a Auditor) Option {
	return func(w *Workflow) { w.audit = a }
}

func WithMetrics(mx *metrics.Metrics) Option {
	return func(w *Workflow) { w.metrics = mx }
}

func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

func New(participants ParticipantStore, opts ...Option) (*Workflow, error) {
	if participants == nil {
		return nil, fmt.Errorf("participant store is required")
	}
	w := &Workflow{
		states:       make(map[string]State),
		participants: participants,
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// RequestUpload arms the gate for one file from this operator.
func (w *Workflow) RequestUpload(_ context.Context, operatorID string) *events.Prompt {
	w.setState(operatorID, StateAwaitingFile)
	return &events.Prompt{OperatorID: operatorID, Text: msgSendFile}
}

// HandleUpload accepts one CSV payload, validates and imports it, and closes
// the gate on success. Validation failures keep the gate open.
func (w *Workflow) HandleUpload(ctx context.Context, operatorID, payload string) *events.Prompt {
	if w.state(operatorID) != StateAwaitingFile {
		return &events.Prompt{OperatorID: operatorID, Text: msgNotAwaiting}
	}

	batch, skipped, err := Parse(strings.NewReader(payload), w.now())
	if err != nil {
		if errors.Is(err, ErrValidation) {
			// Gate stays open for a corrected file.
			return &events.Prompt{OperatorID: operatorID, Text: msgUploadInvalid}
		}
		w.logger.WarnContext(ctx, "upload parse failed", "operator_id", operatorID, "error", err)
		return &events.Prompt{OperatorID: operatorID, Text: msgUploadInvalid}
	}

	if err := w.participants.UpsertBatch(ctx, batch); err != nil {
		w.logger.ErrorContext(ctx, "import upsert failed", "operator_id", operatorID, "error", err)
		return &events.Prompt{OperatorID: operatorID, Text: msgUploadRetry}
	}

	w.setState(operatorID, StateIdle)
	if w.metrics != nil {
		w.metrics.ImportedRowsTotal.Add(float64(len(batch)))
	}
	if w.audit != nil {
		w.audit.Record(ctx, "import_completed", operatorID, "",
			fmt.Sprintf("rows=%d skipped=%d", len(batch), skipped))
	}

	text := fmt.Sprintf("Import complete: %d participants updated.", len(batch))
	if skipped > 0 {
		text += fmt.Sprintf(" %d rows skipped (invalid national id).", skipped)
	}
	return &events.Prompt{OperatorID: operatorID, Text: text}
}

// Cancel closes the gate without importing.
func (w *Workflow) Cancel(_ context.Context, operatorID string) *events.Prompt {
	w.setState(operatorID, StateIdle)
	return &events.Prompt{OperatorID: operatorID, Text: msgCancelled}
}

// AwaitingFile reports whether the operator's gate is armed. The dispatcher
// uses this to route upload events.
func (w *Workflow) AwaitingFile(operatorID string) bool {
	return w.state(operatorID) == StateAwaitingFile
}

func (w *Workflow) state(operatorID string) State {
	w.mu.Lock()
	defer w.mu.Unlock()
	st, ok := w.states[operatorID]
	if !ok {
		return StateIdle
	}
	return st
}

func (w *Workflow) setState(operatorID string, st State) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if st == StateIdle {
		delete(w.states, operatorID)
		return
	}
	w.states[operatorID] = st
}
