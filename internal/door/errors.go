package door

import "errors"

// Domain-specific errors for door operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotSafe is returned when the safety gate rejects an open or close
	// request. The system must be ready, out of the error state, with the
	// lock calibrated and the push actuator homed before the door moves.
	ErrNotSafe = errors.New("door: not safe to operate")

	// ErrHardwareFault is returned when an actuator operation fails during
	// an open, close, initialize or reset sequence. The controller enters
	// StateError and abandons the remaining sequence.
	ErrHardwareFault = errors.New("door: hardware fault")

	// ErrDoorNotFound is returned when a door ID does not exist in the registry.
	ErrDoorNotFound = errors.New("door: not found")

	// ErrDoorExists is returned when registering a door with a duplicate ID.
	ErrDoorExists = errors.New("door: already exists")
)
