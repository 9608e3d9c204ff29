// Package workflow drives one operator's identification cycle: raw input →
// lookup → disposition → commit. The workflow is deliberately linear per
// operator; all cross-operator contention is settled by the soft lock table,
// never here.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gatekeeper/internal/checkin/committer"
	"gatekeeper/internal/checkin/directory"
	"gatekeeper/internal/checkin/locker"
	"gatekeeper/internal/checkin/models"
	"gatekeeper/internal/events"
	sessionModel "gatekeeper/internal/session/models"
	sessionStore "gatekeeper/internal/session/store"
	"gatekeeper/pkg/platform/sentinel"
)

// Operator-facing prompt text. The external transport renders these as-is.
const (
	msgReady            = "Send a 10-digit national id, or a name to search."
	msgInvalidFormat    = "Input not recognized. Send a 10-digit national id, or at least 2 characters to search by name."
	msgNoResults        = "No matching participants. Try a different name or a national id."
	msgSelectPrompt     = "Select a participant:"
	msgSelectReprompt   = "Pick one of the listed participants, or cancel."
	msgDecideReprompt   = "Choose an action for the displayed participant, or cancel."
	msgLockBusy         = "Another operator is processing this participant right now. Try again shortly."
	msgRetry            = "Temporary storage problem. Please try again."
	msgCancelled        = "Operation cancelled."
	msgStaleAction      = "That button belongs to an earlier participant. Choose an action for the current one, or cancel."
	msgPaymentWarning   = "WARNING: payment status is UNPAID."
	msgPaymentOK        = "Payment status: paid."
	msgNotFoundEmergency = "No roster record for this national id. Admit as emergency, or cancel."
)

// Auditor accepts fire-and-forget audit entries.
type Auditor interface {
	Record(ctx context.Context, action, operatorID, nationalID, details string)
}

// Workflow handles one inbound event at a time per operator and replies with
// exactly one prompt. Store failures never advance state; every reply leaves
// the operator a path back to a known stage.
type Workflow struct {
	sessions  sessionStore.Store
	directory *directory.Directory
	locks     *locker.Manager
	committer *committer.Committer
	audit     Auditor
	logger    *slog.Logger
}

type Option func(*Workflow)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) { w.logger = logger }
}

func WithAuditor(a Auditor) Option {
	return func(w *Workflow) { w.audit = a }
}

func New(sessions sessionStore.Store, dir *directory.Directory, locks *locker.Manager, cmt *committer.Committer, opts ...Option) (*Workflow, error) {
	if sessions == nil || dir == nil || locks == nil || cmt == nil {
		return nil, fmt.Errorf("sessions, directory, locks and committer are required")
	}
	w := &Workflow{
		sessions:  sessions,
		directory: dir,
		locks:     locks,
		committer: cmt,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Handle processes one inbound event and returns the prompt to render.
// Events are processed at-least-once by the transport; every branch here is
// idempotent or re-prompts, so duplicates are harmless.
func (w *Workflow) Handle(ctx context.Context, ev events.Event) *events.Prompt {
	sess, err := w.sessions.Get(ctx, ev.OperatorID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			w.logger.ErrorContext(ctx, "load session failed", "operator_id", ev.OperatorID, "error", err)
			return w.prompt(ev.OperatorID, msgRetry)
		}
		sess = sessionModel.NewIdle(ev.OperatorID)
	}

	switch ev.Kind {
	case events.KindText:
		return w.handleText(ctx, sess, ev.Payload)
	case events.KindSelection:
		return w.handleSelection(ctx, sess, ev.Payload)
	case events.KindDisposition:
		return w.handleDisposition(ctx, sess, ev.Payload)
	case events.KindCancel:
		return w.handleCancel(ctx, sess)
	default:
		return w.reprompt(sess)
	}
}

func (w *Workflow) handleText(ctx context.Context, sess *sessionModel.Session, text string) *events.Prompt {
	if sess.State != sessionModel.StateIdle {
		// Free text while awaiting a button press: no state change.
		return w.reprompt(sess)
	}

	text = strings.TrimSpace(text)
	if models.ValidNationalID(text) {
		return w.resolve(ctx, sess, text)
	}
	if len([]rune(text)) >= models.MinSearchQueryLength {
		return w.search(ctx, sess, text)
	}
	return w.prompt(sess.OperatorID, msgInvalidFormat)
}

func (w *Workflow) search(ctx context.Context, sess *sessionModel.Session, query string) *events.Prompt {
	matches, err := w.directory.Search(ctx, query)
	if err != nil {
		w.logger.WarnContext(ctx, "directory search failed", "operator_id", sess.OperatorID, "error", err)
		return w.prompt(sess.OperatorID, msgRetry)
	}
	if len(matches) == 0 {
		return w.prompt(sess.OperatorID, msgNoResults)
	}

	opts := make([]events.Option, 0, len(matches)+1)
	for _, p := range matches {
		opts = append(opts, events.Option{
			Label:       fmt.Sprintf("%s (%s)", p.FullName, p.NationalID),
			ActionToken: events.Token(events.VerbSelect, p.NationalID),
		})
	}
	opts = append(opts, cancelOption())

	sess.State = sessionModel.StateAwaitingSelection
	sess.PendingNationalID = ""
	if !w.save(ctx, sess) {
		return w.prompt(sess.OperatorID, msgRetry)
	}
	return &events.Prompt{OperatorID: sess.OperatorID, Text: msgSelectPrompt, Options: opts}
}

// resolve runs identifier resolution: already-processed check, lock
// acquisition, then participant lookup. Entered from direct id input or a
// search selection.
func (w *Workflow) resolve(ctx context.Context, sess *sessionModel.Session, nationalID string) *events.Prompt {
	existing, err := w.committer.Existing(ctx, nationalID)
	if err != nil {
		w.logger.WarnContext(ctx, "record check failed", "operator_id", sess.OperatorID, "error", err)
		return w.prompt(sess.OperatorID, msgRetry)
	}
	if existing != nil {
		return w.finishIdle(ctx, sess, alreadyProcessedText(existing))
	}

	if err := w.locks.Acquire(ctx, nationalID, sess.OperatorID); err != nil {
		if errors.Is(err, sentinel.ErrLockActive) {
			return w.finishIdle(ctx, sess, msgLockBusy)
		}
		w.logger.WarnContext(ctx, "lock acquire failed", "operator_id", sess.OperatorID, "error", err)
		return w.prompt(sess.OperatorID, msgRetry)
	}

	participant, err := w.directory.Lookup(ctx, nationalID)
	if err != nil {
		// Lock stays held until TTL; the operator retries and the sweep
		// reclaims it if they walk away.
		w.logger.WarnContext(ctx, "participant lookup failed", "operator_id", sess.OperatorID, "error", err)
		return w.prompt(sess.OperatorID, msgRetry)
	}

	sess.State = sessionModel.StateAwaitingDisposition
	sess.PendingNationalID = nationalID
	if !w.save(ctx, sess) {
		return w.prompt(sess.OperatorID, msgRetry)
	}

	if participant == nil {
		return &events.Prompt{
			OperatorID: sess.OperatorID,
			Text:       fmt.Sprintf("%s\nNational id: %s", msgNotFoundEmergency, nationalID),
			Options: []events.Option{
				{Label: "Emergency admit", ActionToken: events.Token(events.VerbEmergency, nationalID)},
				cancelOption(),
			},
		}
	}

	return &events.Prompt{
		OperatorID: sess.OperatorID,
		Text:       participantDetails(participant),
		Options: []events.Option{
			{Label: "Confirm entry", ActionToken: events.Token(events.VerbConfirm, nationalID)},
			{Label: "Reject entry", ActionToken: events.Token(events.VerbReject, nationalID)},
			cancelOption(),
		},
	}
}

func (w *Workflow) handleSelection(ctx context.Context, sess *sessionModel.Session, token string) *events.Prompt {
	if sess.State != sessionModel.StateAwaitingSelection {
		return w.reprompt(sess)
	}
	verb, nationalID, ok := events.ParseToken(token)
	if !ok || verb != events.VerbSelect || !models.ValidNationalID(nationalID) {
		return w.reprompt(sess)
	}
	return w.resolve(ctx, sess, nationalID)
}

func (w *Workflow) handleDisposition(ctx context.Context, sess *sessionModel.Session, token string) *events.Prompt {
	if sess.State != sessionModel.StateAwaitingDisposition {
		return w.reprompt(sess)
	}
	verb, nationalID, ok := events.ParseToken(token)
	if !ok {
		return w.reprompt(sess)
	}
	disposition, ok := dispositionForVerb(verb)
	if !ok {
		return w.reprompt(sess)
	}
	// Stale button defense: the action must reference the identity this
	// session actually holds.
	if nationalID != sess.PendingNationalID {
		return w.prompt(sess.OperatorID, msgStaleAction)
	}

	rec, err := w.committer.Commit(ctx, nationalID, sess.OperatorID, disposition)
	switch {
	case err == nil:
		return w.finishIdle(ctx, sess, committedText(rec))
	case errors.Is(err, sentinel.ErrAlreadyCommitted):
		// Someone else finalized first; the outcome is still terminal.
		return w.finishIdle(ctx, sess, alreadyProcessedText(rec))
	default:
		w.logger.WarnContext(ctx, "commit failed", "operator_id", sess.OperatorID, "error", err)
		return w.prompt(sess.OperatorID, msgRetry)
	}
}

func (w *Workflow) handleCancel(ctx context.Context, sess *sessionModel.Session) *events.Prompt {
	if sess.State == sessionModel.StateIdle {
		return w.prompt(sess.OperatorID, msgReady)
	}
	if sess.PendingNationalID != "" {
		if err := w.locks.Release(ctx, sess.PendingNationalID, sess.OperatorID); err != nil {
			// Not fatal to the cancel; an unreleased lock ages out via TTL.
			w.logger.WarnContext(ctx, "cancel release failed",
				"operator_id", sess.OperatorID,
				"national_id", sess.PendingNationalID,
				"error", err,
			)
		}
	}
	if w.audit != nil {
		w.audit.Record(ctx, "checkin_cancelled", sess.OperatorID, sess.PendingNationalID, "")
	}
	return w.finishIdle(ctx, sess, msgCancelled)
}

// finishIdle resets the session and reports text plus the standing
// ready-for-input hint.
func (w *Workflow) finishIdle(ctx context.Context, sess *sessionModel.Session, text string) *events.Prompt {
	sess.Reset()
	if !w.save(ctx, sess) {
		// The reply still reads as terminal; a stale stored state only
		// causes a re-prompt on the next event.
		w.logger.WarnContext(ctx, "session reset not persisted", "operator_id", sess.OperatorID)
	}
	return w.prompt(sess.OperatorID, text+"\n\n"+msgReady)
}

func (w *Workflow) save(ctx context.Context, sess *sessionModel.Session) bool {
	if err := w.sessions.Put(ctx, sess); err != nil {
		w.logger.ErrorContext(ctx, "save session failed", "operator_id", sess.OperatorID, "error", err)
		return false
	}
	return true
}

// reprompt restates what the current stage expects, without touching state.
func (w *Workflow) reprompt(sess *sessionModel.Session) *events.Prompt {
	switch sess.State {
	case sessionModel.StateAwaitingSelection:
		return w.prompt(sess.OperatorID, msgSelectReprompt)
	case sessionModel.StateAwaitingDisposition:
		return w.prompt(sess.OperatorID, msgDecideReprompt)
	default:
		return w.prompt(sess.OperatorID, msgReady)
	}
}

func (w *Workflow) prompt(operatorID, text string) *events.Prompt {
	return &events.Prompt{OperatorID: operatorID, Text: text}
}

func cancelOption() events.Option {
	return events.Option{Label: "Cancel", ActionToken: events.TokenCancel}
}

func dispositionForVerb(verb string) (models.Disposition, bool) {
	switch verb {
	case events.VerbConfirm:
		return models.DispositionConfirmed, true
	case events.VerbReject:
		return models.DispositionRejected, true
	case events.VerbEmergency:
		return models.DispositionEmergency, true
	}
	return "", false
}

func participantDetails(p *models.Participant) string {
	payment := msgPaymentOK
	if p.PaymentStatus == models.PaymentUnpaid {
		payment = msgPaymentWarning
	}
	return fmt.Sprintf("Participant:\nName: %s\nFather's name: %s\nNational id: %s\n\n%s",
		p.FullName, p.FatherName, p.NationalID, payment)
}

func committedText(rec *models.CheckinRecord) string {
	switch rec.Disposition {
	case models.DispositionConfirmed:
		return fmt.Sprintf("Entry confirmed for %s.", rec.NationalID)
	case models.DispositionRejected:
		return fmt.Sprintf("Entry rejected for %s.", rec.NationalID)
	case models.DispositionEmergency:
		return fmt.Sprintf("Emergency admission recorded for %s.", rec.NationalID)
	}
	return fmt.Sprintf("Disposition recorded for %s.", rec.NationalID)
}

func alreadyProcessedText(rec *models.CheckinRecord) string {
	if rec == nil {
		return "Already processed."
	}
	return fmt.Sprintf("Already processed: %s at %s by %s (%s).",
		rec.NationalID, rec.RecordedAt.Format("15:04"), rec.OperatorID, rec.Disposition)
}
