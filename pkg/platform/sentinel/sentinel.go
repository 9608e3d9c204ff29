package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors without string
// matching.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: uniqueness constraint rejected an insert
// - ErrLockActive: a live soft lock already covers the identity
// - ErrAlreadyCommitted: a check-in record already exists and is final
// - ErrNotHolder: release attempted by an operator that does not hold the lock
// - ErrUnavailable: store or downstream temporarily unreachable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrLockActive       = errors.New("lock active")
	ErrAlreadyCommitted = errors.New("already committed")
	ErrNotHolder        = errors.New("not lock holder")
	ErrUnavailable      = errors.New("unavailable")
)
