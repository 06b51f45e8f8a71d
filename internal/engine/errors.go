package engine

import "errors"

// Sentinel error kinds. Every failure returned by the engine wraps exactly
// one of these, so callers classify with errors.Is instead of matching
// message text.
var (
	// ErrValidation covers bad input: empty title, non-positive reward,
	// non-future deadline, unknown status value.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound covers lookups of unknown bounty or submission IDs.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized covers operations attempted by a principal other than
	// the one the operation requires.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidState covers operations not permitted in the entity's
	// current status, including submitting past the deadline.
	ErrInvalidState = errors.New("invalid state")

	// ErrTransfer covers reward payment failures.
	ErrTransfer = errors.New("transfer failed")
)
