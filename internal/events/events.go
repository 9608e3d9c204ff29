// Package events defines the transport-agnostic inbound event and outbound
// prompt envelopes exchanged with the external chat transport.
package events

import "strings"

// Kind classifies an inbound event.
type Kind string

const (
	KindText        Kind = "text"
	KindSelection   Kind = "selection"
	KindDisposition Kind = "disposition_action"
	KindCancel      Kind = "cancel"
	KindUpload      Kind = "upload"
)

// IsValid reports whether k is a supported event kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindText, KindSelection, KindDisposition, KindCancel, KindUpload:
		return true
	}
	return false
}

// Event is one inbound operator action. Payload carries free text for
// KindText, an action token for KindSelection and KindDisposition, and the
// raw tabular body for KindUpload.
type Event struct {
	OperatorID string `json:"operator_id"`
	Kind       Kind   `json:"kind"`
	Payload    string `json:"payload,omitempty"`
}

// Option is one selectable choice attached to a prompt.
type Option struct {
	Label       string `json:"label"`
	ActionToken string `json:"action_token"`
}

// Prompt is the outbound reply rendered by the external transport.
type Prompt struct {
	OperatorID string   `json:"operator_id"`
	Text       string   `json:"text"`
	Options    []Option `json:"options,omitempty"`
}

// Action token verbs. Tokens have the shape "<verb>_<national_id>", except
// the bare cancel token.
const (
	VerbSelect    = "select"
	VerbConfirm   = "confirm"
	VerbReject    = "reject"
	VerbEmergency = "emergency"
	TokenCancel   = "cancel"
)

// Token builds an action token for a verb and identity.
func Token(verb, nationalID string) string {
	return verb + "_" + nationalID
}

// ParseToken splits an action token into verb and identity. The bare cancel
// token parses as (cancel, ""). Returns ok=false for anything malformed.
func ParseToken(token string) (verb, nationalID string, ok bool) {
	if token == TokenCancel {
		return TokenCancel, "", true
	}
	verb, nationalID, found := strings.Cut(token, "_")
	if !found || nationalID == "" {
		return "", "", false
	}
	switch verb {
	case VerbSelect, VerbConfirm, VerbReject, VerbEmergency:
		return verb, nationalID, true
	}
	return "", "", false
}
