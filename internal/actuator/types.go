package actuator

import "fmt"

// Logger defines the logging interface used by the drivers.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// MotionState is the discrete motion state of a linear ram.
//
// Transitions are sequential: Retracted and Extended are settled states,
// Extending and Retracting are in-flight, and the ram never jumps between
// settled states without passing through the in-flight state between them.
type MotionState uint8

const (
	// MotionRetracted means the ram is settled at position 0.
	MotionRetracted MotionState = iota

	// MotionExtending means the ram is moving towards position 100.
	MotionExtending

	// MotionExtended means the ram is settled at position 100.
	MotionExtended

	// MotionRetracting means the ram is moving towards position 0.
	MotionRetracting

	// MotionError means the ram has faulted and will not move.
	MotionError
)

// String returns the lowercase display name for the motion state.
// Unmapped values render as their numeric form rather than a placeholder,
// so a missing case is visible instead of silently reading as unknown.
func (s MotionState) String() string {
	switch s {
	case MotionRetracted:
		return "retracted"
	case MotionExtending:
		return "extending"
	case MotionExtended:
		return "extended"
	case MotionRetracting:
		return "retracting"
	case MotionError:
		return "error"
	default:
		return fmt.Sprintf("MotionState(%d)", uint8(s))
	}
}

// MarshalJSON encodes the motion state as its display name.
func (s MotionState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Settled returns true if the state is not mid-transition.
func (s MotionState) Settled() bool {
	return s == MotionRetracted || s == MotionExtended
}
