package models

import "time"

// NationalIDLength is the fixed width of a participant identity. Raw text of
// exactly this many digits is treated as a direct identifier; anything else
// is a search query.
const NationalIDLength = 10

// MinSearchQueryLength is the shortest free-text input routed to directory
// search instead of being rejected as noise.
const MinSearchQueryLength = 2

// PaymentStatus of a participant, set at import time.
type PaymentStatus string

const (
	PaymentPaid   PaymentStatus = "paid"
	PaymentUnpaid PaymentStatus = "unpaid"
)

// Participant is one row of the imported roster. Rows are created and
// overwritten only by bulk import; check-in never mutates them.
type Participant struct {
	NationalID    string
	FullName      string
	FatherName    string
	PaymentStatus PaymentStatus
	ImportedAt    time.Time
}

// Disposition is the final outcome recorded for a check-in attempt.
type Disposition string

const (
	// DispositionConfirmed means normal entry was admitted.
	DispositionConfirmed Disposition = "confirmed"
	// DispositionRejected means entry was explicitly denied.
	DispositionRejected Disposition = "rejected"
	// DispositionEmergency means entry was admitted without a matching
	// participant record.
	DispositionEmergency Disposition = "emergency"
)

// IsValid reports whether d is one of the supported dispositions.
func (d Disposition) IsValid() bool {
	switch d {
	case DispositionConfirmed, DispositionRejected, DispositionEmergency:
		return true
	}
	return false
}

// CheckinRecord is the durable, final outcome for one participant identity.
// At most one exists per national id; it is never overwritten.
type CheckinRecord struct {
	NationalID  string
	OperatorID  string
	Disposition Disposition
	RecordedAt  time.Time
}

// SoftLock is a time-bounded claim granting one operator exclusive rights to
// finish processing a participant. At most one live lock exists per identity;
// the store's uniqueness constraint, not this struct, enforces that.
type SoftLock struct {
	NationalID string
	Holder     string
	AcquiredAt time.Time
	ExpiresAt  time.Time
}

// Expired reports whether the lock's TTL has elapsed at the given instant.
func (l SoftLock) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}

// ValidNationalID reports whether s has the fixed identifier shape: exactly
// NationalIDLength ASCII digits.
func ValidNationalID(s string) bool {
	if len(s) != NationalIDLength {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
