package physics

import "errors"

var (
	// ErrMissingCollider is returned when a body is activated without a
	// collision binding. It is never recoverable at step time.
	ErrMissingCollider = errors.New("physics: body has no collider binding")
	ErrInvalidConfig   = errors.New("physics: invalid body config")
)
