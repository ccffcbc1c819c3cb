package engine

import "errors"

// Error taxonomy surfaced to callers. Controllers map these to HTTP status
// codes with errors.Is; none are retried automatically by the engine.
var (
	// ErrValidation marks malformed definition or template input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a missing definition, instance or step execution.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState marks an action attempted on a step or instance not
	// in the required state.
	ErrInvalidState = errors.New("invalid state")
	// ErrForbidden marks an authorization failure; a fresh call with
	// correct authorization is required.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict marks a lost race on a concurrent transition; callers may
	// re-fetch state and retry deliberately.
	ErrConflict = errors.New("conflict")
)
