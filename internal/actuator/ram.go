package actuator

import "fmt"

// Ram motion constants.
const (
	// retractedPosition and extendedPosition are the settled endpoints of
	// the position range, expressed as a percentage of travel.
	retractedPosition = 0
	extendedPosition  = 100

	// settleThreshold is the midpoint snap rule for Stop(): a ram caught
	// mid-motion above this position settles as Extended, otherwise
	// Retracted. The exact >50 comparison is load-bearing for behavioural
	// compatibility with the door controller's emergency stop.
	settleThreshold = 50

	// defaultSpeed is the motion speed a ram starts with.
	defaultSpeed = 5

	// minSpeed and maxSpeed bound SetSpeed.
	minSpeed = 1
	maxSpeed = 10

	// defaultTravel is the stroke length in millimetres used when the
	// caller does not specify one.
	defaultTravel = 200
)

// Ram is a linear push/pull actuator: it extends to open a door and
// retracts to close it. Position is a 0-100 percentage of travel; the
// travel length in millimetres is a descriptor only and never enters the
// motion maths.
//
// Motion is simulated synchronously — Extend and Retract pass through the
// in-flight state and settle before returning. In a real system these
// would be asynchronous operations bounded by speed, with Stop() as a
// cancellation signal capturing a partial position.
type Ram struct {
	name        string
	position    int
	state       MotionState
	speed       int
	travel      int
	initialized bool
	logger      Logger
}

// NewRam creates an uninitialized ram at position 0.
// A travel of zero or less falls back to the 200mm default.
func NewRam(name string, travel int) *Ram {
	if travel <= 0 {
		travel = defaultTravel
	}
	return &Ram{
		name:   name,
		state:  MotionRetracted,
		speed:  defaultSpeed,
		travel: travel,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for this ram.
func (r *Ram) SetLogger(logger Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// Initialize homes the ram: position 0, state Retracted, ready for motion.
// Idempotent — re-initialising an already homed ram repeats the homing.
// The concrete driver cannot fail; the error return exists for the
// door.PushActuator contract.
func (r *Ram) Initialize() error {
	r.state = MotionRetracting
	r.position = retractedPosition
	r.state = MotionRetracted
	r.initialized = true
	r.logger.Info("ram initialized", "ram", r.name, "travel_mm", r.travel)
	return nil
}

// Extend drives the ram to position 100.
//
// Returns ErrNotInitialized (state and position unchanged) before homing.
// Already Extended is a successful no-op. Otherwise the ram passes through
// Extending and settles Extended at position 100.
func (r *Ram) Extend() error {
	if !r.initialized {
		return fmt.Errorf("%w: %s", ErrNotInitialized, r.name)
	}
	if r.state == MotionExtended {
		return nil
	}

	r.state = MotionExtending
	r.logger.Debug("ram extending", "ram", r.name, "speed", r.speed)
	r.position = extendedPosition
	r.state = MotionExtended
	r.logger.Info("ram extended", "ram", r.name, "position", r.position)
	return nil
}

// Retract drives the ram to position 0. Symmetric to Extend.
func (r *Ram) Retract() error {
	if !r.initialized {
		return fmt.Errorf("%w: %s", ErrNotInitialized, r.name)
	}
	if r.state == MotionRetracted {
		return nil
	}

	r.state = MotionRetracting
	r.logger.Debug("ram retracting", "ram", r.name, "speed", r.speed)
	r.position = retractedPosition
	r.state = MotionRetracted
	r.logger.Info("ram retracted", "ram", r.name, "position", r.position)
	return nil
}

// Stop freezes in-flight motion and snaps the reported state to the
// nearer settled endpoint: position > 50 settles as Extended, otherwise
// Retracted. A settled ram is unaffected.
func (r *Ram) Stop() {
	if r.state != MotionExtending && r.state != MotionRetracting {
		return
	}

	if r.position > settleThreshold {
		r.state = MotionExtended
	} else {
		r.state = MotionRetracted
	}
	r.logger.Info("ram motion stopped", "ram", r.name, "position", r.position, "state", r.state.String())
}

// SetSpeed sets the motion speed. Returns ErrSpeedOutOfRange (speed
// unchanged) unless the value is within [1, 10].
func (r *Ram) SetSpeed(speed int) error {
	if speed < minSpeed || speed > maxSpeed {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrSpeedOutOfRange, speed, minSpeed, maxSpeed)
	}
	r.speed = speed
	return nil
}

// State returns the current motion state.
func (r *Ram) State() MotionState {
	return r.state
}

// Position returns the current position as a 0-100 percentage of travel.
func (r *Ram) Position() int {
	return r.position
}

// Speed returns the configured motion speed.
func (r *Ram) Speed() int {
	return r.speed
}

// Ready returns true once the ram is initialized and not faulted.
func (r *Ram) Ready() bool {
	return r.initialized && r.state != MotionError
}

// Name returns the ram's identifier.
func (r *Ram) Name() string {
	return r.name
}

// Travel returns the stroke length in millimetres.
func (r *Ram) Travel() int {
	return r.travel
}
