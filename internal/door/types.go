package door

import (
	"fmt"

	"github.com/nerrad567/door-core/internal/actuator"
)

// State represents the door controller's position in its lifecycle.
type State uint8

const (
	// StateClosedLocked is the resting state: ram retracted, lock engaged.
	StateClosedLocked State = iota

	// StateClosedUnlocked means the lock is released but the ram has not
	// yet extended. Also the landing state after an emergency stop below
	// the midpoint.
	StateClosedUnlocked

	// StateOpening is the transient state while an open sequence runs.
	StateOpening

	// StateOpen is the fully open state: ram extended, lock released.
	StateOpen

	// StateClosing is the transient state while a close sequence runs.
	StateClosing

	// StateError is entered on any hardware fault or after repeated safety
	// rejections. It is recoverable only via Reset, and Reset itself
	// requires the door to be safe to close first.
	StateError
)

// String returns the wire representation of the state.
func (s State) String() string {
	switch s {
	case StateClosedLocked:
		return "closed_locked"
	case StateClosedUnlocked:
		return "closed_unlocked"
	case StateOpening:
		return "opening"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// MarshalJSON encodes the state as its string form.
func (s State) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Settled reports whether the state is not mid-transition.
func (s State) Settled() bool {
	return s != StateOpening && s != StateClosing
}

// LockActuator is the rotary lock as seen by the controller.
// *actuator.Servo satisfies this interface.
type LockActuator interface {
	Calibrate() error
	SetAngle(angle int) error
	Angle() int
	Calibrated() bool
	Reset()
	Name() string
}

// PushActuator is the linear push ram as seen by the controller.
// *actuator.Ram satisfies this interface.
type PushActuator interface {
	Initialize() error
	Extend() error
	Retract() error
	Stop()
	SetSpeed(speed int) error
	State() actuator.MotionState
	Position() int
	Ready() bool
	Name() string
	Travel() int
}

// LockStatus is a read-only snapshot of the rotary lock actuator.
type LockStatus struct {
	Name       string `json:"name"`
	Angle      int    `json:"angle"`
	Calibrated bool   `json:"calibrated"`
}

// RamStatus is a read-only snapshot of the linear push actuator.
type RamStatus struct {
	Name     string               `json:"name"`
	State    actuator.MotionState `json:"state"`
	Position int                  `json:"position"`
	Travel   int                  `json:"travel"`
}

// StatusReport aggregates the controller and both sub-devices.
// It is a point-in-time snapshot with no live references; reading it has
// no side effects.
type StatusReport struct {
	DoorID       string     `json:"door_id"`
	Label        string     `json:"label,omitempty"`
	Location     string     `json:"location,omitempty"`
	State        State      `json:"state"`
	Ready        bool       `json:"ready"`
	OpenAttempts int        `json:"open_attempts"`
	Lock         LockStatus `json:"lock"`
	Ram          RamStatus  `json:"ram"`
}

// String renders the report as a human-readable diagnostic dump.
func (r StatusReport) String() string {
	return fmt.Sprintf(
		"=== Door %s ===\n"+
			"state: %s\n"+
			"ready: %t\n"+
			"open attempts: %d\n"+
			"lock: %s angle=%d calibrated=%t\n"+
			"ram: %s state=%s position=%d travel=%d\n",
		r.DoorID,
		r.State,
		r.Ready,
		r.OpenAttempts,
		r.Lock.Name, r.Lock.Angle, r.Lock.Calibrated,
		r.Ram.Name, r.Ram.State, r.Ram.Position, r.Ram.Travel,
	)
}
