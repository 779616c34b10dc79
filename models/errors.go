package models

import "errors"

// Error taxonomy for store and handler layers. Handlers translate these
// to HTTP status codes; everything here is recoverable by the caller.
var (
	// ErrValidation marks bad input; the store rejects it before any
	// state mutation.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks a missing batch or identity.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition marks a status change not permitted by the
	// lifecycle graph.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrPersistence marks a failed durable write. The in-memory state
	// already carries the mutation when this is returned.
	ErrPersistence = errors.New("persistence error")

	// ErrNoActiveSession marks a profile operation without an identity.
	ErrNoActiveSession = errors.New("no active session")

	// ErrClassificationUnavailable marks an image classifier outage; a
	// batch is stored without analysis in that case.
	ErrClassificationUnavailable = errors.New("classification unavailable")
)
