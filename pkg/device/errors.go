package device

import "errors"

var (
	// ErrNotFound indicates an actor or group was not found
	ErrNotFound = errors.New("actor not found")

	// ErrTimeout indicates an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrNotConnected indicates the controller is not connected
	ErrNotConnected = errors.New("controller not connected")

	// ErrUnsupported indicates an operation is not supported by the actor
	ErrUnsupported = errors.New("operation not supported")

	// ErrValidation indicates a command payload failed schema validation
	ErrValidation = errors.New("validation error")

	// ErrInvalidPosition indicates a position outside 0–100
	ErrInvalidPosition = errors.New("position must be between 0 and 100")
)
