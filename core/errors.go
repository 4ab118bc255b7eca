package core

import "errors"

var (
	// ErrBusy is returned when a wait is started on a handle that already
	// has one in flight.
	ErrBusy = errors.New("resource already has a wait in flight")

	// ErrInvalidCore is returned when the executing core id is outside the
	// range the registries were sized for.
	ErrInvalidCore = errors.New("invalid core id")

	// ErrCancelled is the result of a future that was cancelled before it
	// completed.
	ErrCancelled = errors.New("wait cancelled")
)
