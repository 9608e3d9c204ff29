package models

import "time"

// State sequences one operator's identification cycle.
type State string

const (
	StateIdle                State = "idle"
	StateAwaitingSelection   State = "awaiting_selection"
	StateAwaitingDisposition State = "awaiting_disposition"
)

// Session is the ephemeral per-operator workflow state. It is deliberately
// not durable: losing it on restart only orphans a lock until TTL expiry.
// The lock table, not the session, is the cross-operator correctness
// boundary.
type Session struct {
	OperatorID        string    `json:"operator_id"`
	State             State     `json:"state"`
	PendingNationalID string    `json:"pending_national_id,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// NewIdle returns a fresh idle session for an operator.
func NewIdle(operatorID string) *Session {
	return &Session{
		OperatorID: operatorID,
		State:      StateIdle,
		UpdatedAt:  time.Now(),
	}
}

// Reset clears the session back to idle, dropping any pending identity.
func (s *Session) Reset() {
	s.State = StateIdle
	s.PendingNationalID = ""
	s.UpdatedAt = time.Now()
}
