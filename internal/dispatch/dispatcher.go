// Package dispatch routes inbound operator events to the per-operator
// check-in workflow or the bulk import workflow, with the role guard
// composed around every handler as a plain function wrapper.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gatekeeper/internal/events"
	"gatekeeper/internal/importer"
	"gatekeeper/internal/platform/metrics"
	"gatekeeper/internal/session/workflow"
)

const (
	msgDenied  = "Access denied: your operator id is not authorized for this system."
	msgWelcome = "Check-in session ready."
)

// Auditor accepts fire-and-forget audit entries.
type Auditor interface {
	Record(ctx context.Context, action, operatorID, nationalID, details string)
}

type handlerFunc func(ctx context.Context, ev events.Event) *events.Prompt

// Dispatcher owns the event routing table. One inbound event produces
// exactly one outbound prompt; unauthorized events produce the denial prompt
// and an access_denied audit entry, with no state touched anywhere.
type Dispatcher struct {
	guard    *Guard
	sessions *workflow.Workflow
	imports  *importer.Workflow
	audit    Auditor
	logger   *slog.Logger
	metrics  *metrics.Metrics
	routes   map[events.Kind]handlerFunc
}

type Option func(*Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

func WithAuditor(a Auditor) Option {
	return func(d *Dispatcher) { d.audit = a }
}

func WithMetrics(mx *metrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = mx }
}

func New(guard *Guard, sessions *workflow.Workflow, imports *importer.Workflow, opts ...Option) (*Dispatcher, error) {
	if guard == nil || sessions == nil || imports == nil {
		return nil, fmt.Errorf("guard, session workflow and import workflow are required")
	}
	d := &Dispatcher{
		guard:    guard,
		sessions: sessions,
		imports:  imports,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.routes = map[events.Kind]handlerFunc{
		events.KindText:        d.restricted(false, d.handleSession),
		events.KindSelection:   d.restricted(false, d.handleSession),
		events.KindDisposition: d.restricted(false, d.handleSession),
		events.KindCancel:      d.restricted(false, d.handleCancel),
		events.KindUpload:      d.restricted(true, d.handleUpload),
	}
	return d, nil
}

// Dispatch routes one event and returns the prompt to render.
func (d *Dispatcher) Dispatch(ctx context.Context, ev events.Event) *events.Prompt {
	start := time.Now()
	defer func() {
		if d.metrics != nil {
			d.metrics.ObserveEvent(string(ev.Kind), start)
		}
	}()

	handler, ok := d.routes[ev.Kind]
	if !ok {
		return &events.Prompt{OperatorID: ev.OperatorID, Text: "Unsupported event."}
	}
	return handler(ctx, ev)
}

// StartSession is the start-session command: an authorized operator gets the
// welcome prompt, anyone else the denial.
func (d *Dispatcher) StartSession(ctx context.Context, operatorID string) *events.Prompt {
	h := d.restricted(false, func(_ context.Context, ev events.Event) *events.Prompt {
		return &events.Prompt{OperatorID: ev.OperatorID, Text: msgWelcome}
	})
	return h(ctx, events.Event{OperatorID: operatorID})
}

// RequestUpload is the request-upload command, admin-only.
func (d *Dispatcher) RequestUpload(ctx context.Context, operatorID string) *events.Prompt {
	h := d.restricted(true, func(ctx context.Context, ev events.Event) *events.Prompt {
		return d.imports.RequestUpload(ctx, ev.OperatorID)
	})
	return h(ctx, events.Event{OperatorID: operatorID})
}

// restricted wraps a handler with the capability check. Denials are audited
// and counted; the wrapped handler never runs.
func (d *Dispatcher) restricted(admin bool, next handlerFunc) handlerFunc {
	return func(ctx context.Context, ev events.Event) *events.Prompt {
		allowed := d.guard.IsOperator(ev.OperatorID)
		if admin {
			allowed = d.guard.IsAdmin(ev.OperatorID)
		}
		if !allowed {
			d.logger.WarnContext(ctx, "access denied",
				"operator_id", ev.OperatorID,
				"kind", string(ev.Kind),
			)
			if d.metrics != nil {
				d.metrics.AccessDeniedTotal.Inc()
			}
			if d.audit != nil {
				d.audit.Record(ctx, "access_denied", ev.OperatorID, "", string(ev.Kind))
			}
			return &events.Prompt{OperatorID: ev.OperatorID, Text: msgDenied}
		}
		return next(ctx, ev)
	}
}

func (d *Dispatcher) handleSession(ctx context.Context, ev events.Event) *events.Prompt {
	return d.sessions.Handle(ctx, ev)
}

// handleCancel resolves which workflow the cancel belongs to: an armed
// upload gate wins, otherwise the check-in session.
func (d *Dispatcher) handleCancel(ctx context.Context, ev events.Event) *events.Prompt {
	if d.imports.AwaitingFile(ev.OperatorID) {
		return d.imports.Cancel(ctx, ev.OperatorID)
	}
	return d.sessions.Handle(ctx, ev)
}

func (d *Dispatcher) handleUpload(ctx context.Context, ev events.Event) *events.Prompt {
	return d.imports.HandleUpload(ctx, ev.OperatorID, ev.Payload)
}
