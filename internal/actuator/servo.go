package actuator

import "fmt"

// Servo angle constants, in degrees.
const (
	// defaultAngle is the mid-range angle a servo holds before calibration
	// and the angle Reset() returns it to.
	defaultAngle = 90

	// defaultMinAngle and defaultMaxAngle bound the servo's travel.
	defaultMinAngle = 0
	defaultMaxAngle = 180
)

// Servo is a rotary lock actuator: a clamped angle register with a
// calibration flag. It has no state machine beyond the angle value.
type Servo struct {
	name       string
	angle      int
	minAngle   int
	maxAngle   int
	calibrated bool
	logger     Logger
}

// NewServo creates a servo at the default mid angle, uncalibrated,
// with the default [0, 180] range.
func NewServo(name string) *Servo {
	return &Servo{
		name:     name,
		angle:    defaultAngle,
		minAngle: defaultMinAngle,
		maxAngle: defaultMaxAngle,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for this servo.
func (s *Servo) SetLogger(logger Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Calibrate homes the servo to angle 0 and marks it calibrated.
// Calibration is never cleared afterwards; Reset() keeps the flag.
// The concrete driver cannot fail; the error return exists for the
// door.LockActuator contract, where other implementations can.
func (s *Servo) Calibrate() error {
	s.angle = s.minAngle
	s.calibrated = true
	s.logger.Info("servo calibrated", "servo", s.name, "angle", s.angle)
	return nil
}

// SetAngle moves the servo to the requested angle.
//
// Returns ErrAngleOutOfRange (angle unchanged) if the target is outside
// the configured range. Setting an angle before calibration is permitted
// but logged as a warning — the position cannot be trusted until homed.
func (s *Servo) SetAngle(angle int) error {
	if angle < s.minAngle || angle > s.maxAngle {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrAngleOutOfRange, angle, s.minAngle, s.maxAngle)
	}

	if !s.calibrated {
		s.logger.Warn("servo not calibrated, angle may be inaccurate", "servo", s.name, "angle", angle)
	}

	s.angle = angle
	s.logger.Debug("servo angle set", "servo", s.name, "angle", angle)
	return nil
}

// Reset returns the servo to the default mid angle.
// The calibration flag is deliberately untouched.
func (s *Servo) Reset() {
	s.angle = defaultAngle
	s.logger.Debug("servo reset", "servo", s.name, "angle", s.angle)
}

// Angle returns the current angle in degrees.
func (s *Servo) Angle() int {
	return s.angle
}

// Calibrated returns true once Calibrate() has run.
func (s *Servo) Calibrated() bool {
	return s.calibrated
}

// Name returns the servo's identifier.
func (s *Servo) Name() string {
	return s.name
}
