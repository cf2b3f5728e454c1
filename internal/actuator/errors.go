package actuator

import "errors"

// Domain-specific errors for actuator operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrAngleOutOfRange is returned when a requested servo angle is outside
	// the configured [min, max] range. The angle is left unchanged.
	ErrAngleOutOfRange = errors.New("actuator: angle out of range")

	// ErrSpeedOutOfRange is returned when a requested ram speed is outside
	// the supported [1, 10] range. The speed is left unchanged.
	ErrSpeedOutOfRange = errors.New("actuator: speed out of range")

	// ErrNotInitialized is returned when extend or retract is attempted
	// before the ram has been homed via Initialize().
	ErrNotInitialized = errors.New("actuator: not initialized")
)
