package sentinel

import "errors"

// Sentinel errors for infrastructure and registry facts. Stores and registry
// internals return these (optionally wrapped) so services can translate them
// into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store (unknown request or claim id)
// - ErrUnauthorized: caller's key lacks the purpose an operation requires
// - ErrLengthMismatch: batch arrays disagree in element count
// - ErrOutOfRange: byte-slice extraction past the end of a buffer
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrUnavailable: service or resource temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound       = errors.New("not found")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrConflict       = errors.New("conflict")
	ErrLengthMismatch = errors.New("length mismatch")
	ErrOutOfRange     = errors.New("out of range")
	ErrInvalidState   = errors.New("invalid state")
	ErrUnavailable    = errors.New("unavailable")
)
