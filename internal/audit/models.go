package audit

import "time"

// Entry is one audit line emitted from domain logic. Keep it
// transport-agnostic so stores and publishers can fan out.
type Entry struct {
	Action     string    `json:"action"`
	OperatorID string    `json:"operator_id"`
	NationalID string    `json:"national_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Details    string    `json:"details,omitempty"`
}
