package engine

import "errors"

var (
	// ErrProtocolTimeout means an expected acknowledgment or response did
	// not arrive within its window.
	ErrProtocolTimeout = errors.New("protocol timeout")

	// ErrInactive means the operation was skipped because no heartbeat has
	// been seen yet.
	ErrInactive = errors.New("bus not active")

	// ErrNotClaimed is recorded when a zone is released without a claim.
	ErrNotClaimed = errors.New("zone not claimed")

	// ErrRunnerStopped is returned by Runner.Submit after Stop.
	ErrRunnerStopped = errors.New("runner stopped")

	// ErrEmptyPayload is returned when asked to send nothing.
	ErrEmptyPayload = errors.New("empty payload")
)
