package sentinel

import "errors"

// Sentinel errors for storage facts. Stores return these (optionally wrapped)
// and the voting service translates them into coded domain errors:
// - ErrNotFound: record does not exist
// - ErrAlreadyUsed: a one-shot transition (the voter flag) was already taken
// - ErrConflict: a write raced a concurrent writer or violated a uniqueness rule
// - ErrInvalidState: record in the wrong state for the requested mutation
// - ErrUnavailable: backend unreachable or timed out
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrAlreadyUsed  = errors.New("already used")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
