package review

import "errors"

var (
	// ErrNotPending is returned for an id that is unknown or already decided.
	ErrNotPending = errors.New("item is not pending")

	// ErrInFlight is returned while another transition of the same item runs.
	ErrInFlight = errors.New("item has a transition in progress")

	// ErrRedact is returned when the image could not be fetched or redacted.
	ErrRedact = errors.New("failed to redact image")

	// ErrPersist is returned when the decision could not be stored.
	ErrPersist = errors.New("failed to store decision")

	// ErrUnknownSession is returned by Registry for an unknown scan id.
	ErrUnknownSession = errors.New("unknown review session")
)
