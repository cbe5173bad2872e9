package descent

import "errors"

var (
	// ErrUnknownObjective is returned when an objective name is not registered.
	ErrUnknownObjective = errors.New("descent: unknown objective")

	// ErrInvalidArgument is returned for a non-positive or NaN learning rate.
	ErrInvalidArgument = errors.New("descent: invalid argument")

	// ErrNotRunnable is returned by Step while the engine is stopped.
	ErrNotRunnable = errors.New("descent: engine is not running")
)
