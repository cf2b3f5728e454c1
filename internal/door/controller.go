package door

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nerrad567/door-core/internal/actuator"
)

const (
	// lockedAngle and unlockedAngle are the servo positions for the two
	// lock states.
	lockedAngle   = 0
	unlockedAngle = 90

	// openThreshold mirrors the ram's midpoint rule: after an emergency
	// stop the controller reports Open when the ram position is strictly
	// above this value, ClosedUnlocked otherwise. The exact comparison is
	// load-bearing; the ram applies the same rule to its own motion state.
	openThreshold = 50

	// maxOpenAttempts is the number of safety-gate rejections of Open
	// tolerated before the controller forces StateError.
	maxOpenAttempts = 3
)

// Config identifies a door and its placement.
type Config struct {
	ID       string
	Label    string
	Location string
}

// Controller drives one door: a rotary lock actuator and a linear push
// ram, sequenced through the door state machine.
//
// The controller exclusively owns its actuators; nothing else may touch
// them. All operations are serialised behind a single mutex, so each
// operation is atomic and strictly ordered even under concurrent callers.
// The core performs no logging; observers attach via AddSink.
type Controller struct {
	id       string
	label    string
	location string

	lock LockActuator
	ram  PushActuator

	mu           sync.Mutex
	state        State
	ready        bool
	openAttempts int
	sinks        []Sink
}

// New creates a controller owning the given actuators. The door starts
// in StateClosedLocked and is not operable until Initialize succeeds.
func New(cfg Config, lock LockActuator, ram PushActuator) *Controller {
	return &Controller{
		id:       cfg.ID,
		label:    cfg.Label,
		location: cfg.Location,
		lock:     lock,
		ram:      ram,
		state:    StateClosedLocked,
	}
}

// AddSink attaches an event sink. Sinks receive events synchronously and
// in order, after the mutation each event describes.
func (c *Controller) AddSink(s Sink) {
	if s == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sinks = append(c.sinks, s)
}

// ID returns the door identifier.
func (c *Controller) ID() string { return c.id }

// Initialize calibrates the lock, homes the ram and engages the lock.
// On success the door is ready in StateClosedLocked with the attempt
// counter cleared. Any sub-step failure forces StateError and is
// returned wrapped in ErrHardwareFault; no rollback is attempted.
// Idempotent when already initialized.
func (c *Controller) Initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initializeLocked(OpInitialize)
}

// Open unlocks the door and extends the ram.
//
// The safety gate is checked first: on rejection the attempt counter is
// incremented and ErrNotSafe returned without touching hardware; the
// third consecutive rejection forces StateError. An already open door is
// a no-op success. Otherwise the sequence is Opening, unlock, then
// ClosedUnlocked, extend, then Open, clearing the attempt counter. A
// hardware failure at any step forces StateError and abandons the rest
// of the sequence with no compensating retract or relock.
func (c *Controller) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isSafeToOperate() {
		c.openAttempts++
		if c.openAttempts >= maxOpenAttempts {
			from := c.state
			c.state = StateError
			c.emit(Event{Type: EventFault, Op: OpOpen, From: from, To: StateError, Err: ErrNotSafe.Error()})
		} else {
			c.emit(Event{Type: EventWarning, Op: OpOpen, From: c.state, To: c.state, Err: ErrNotSafe.Error()})
		}
		return ErrNotSafe
	}

	if c.state == StateOpen {
		return nil
	}

	c.setState(StateOpening, OpOpen)

	if err := c.lock.SetAngle(unlockedAngle); err != nil {
		return c.fault(OpOpen, fmt.Errorf("%w: unlock: %w", ErrHardwareFault, err))
	}
	c.setState(StateClosedUnlocked, OpOpen)

	if err := c.ram.Extend(); err != nil {
		return c.fault(OpOpen, fmt.Errorf("%w: extend: %w", ErrHardwareFault, err))
	}
	c.setState(StateOpen, OpOpen)
	c.openAttempts = 0

	return nil
}

// Close retracts the ram and engages the lock, the reverse ordering of
// Open. The same safety gate applies but rejections do not increment the
// attempt counter. An already closed-and-locked door is a no-op success.
// A hardware failure at any step forces StateError.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked(OpClose)
}

// EmergencyStop halts ram motion unconditionally, from any state. The
// ram applies its midpoint snap, then the controller lands in StateOpen
// if the position is above the midpoint, StateClosedUnlocked otherwise.
// It never re-locks and never raises a fault; the door is left in a
// safely inspectable intermediate state.
func (c *Controller) EmergencyStop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ram.Stop()

	from := c.state
	to := StateClosedUnlocked
	if c.ram.Position() > openThreshold {
		to = StateOpen
	}
	c.state = to
	c.emit(Event{Type: EventTransition, Op: OpEmergencyStop, From: from, To: to})
}

// Reset drives the door back to a freshly initialized state: close it if
// not already closed and locked, clear readiness, then re-run the
// initialize sequence. The close step is gated by the same safety check
// as Close, so a door in StateError cannot reset until safety is
// restored (an EmergencyStop leaves StateError and makes reset possible).
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateClosedLocked {
		if err := c.closeLocked(OpReset); err != nil {
			return err
		}
	}

	c.ready = false
	return c.initializeLocked(OpReset)
}

// Shutdown brings the door to rest before the service exits: a
// best-effort close, falling back to retracting the ram directly when
// the close is rejected, so hardware is not left extended.
func (c *Controller) Shutdown() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosedLocked {
		return nil
	}

	err := c.closeLocked(OpShutdown)
	if err == nil {
		return nil
	}

	if c.ram.State() != actuator.MotionRetracted {
		if rerr := c.ram.Retract(); rerr == nil {
			c.emit(Event{Type: EventWarning, Op: OpShutdown, From: c.state, To: c.state, Err: "close rejected, ram retracted directly"})
		}
	}
	return err
}

// State returns the current door state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Ready reports whether the door would pass its safety gate right now.
func (c *Controller) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isSafeToOperate()
}

// Status returns a point-in-time snapshot of the controller and both
// actuators. Read-only; no side effects.
func (c *Controller) Status() StatusReport {
	c.mu.Lock()
	defer c.mu.Unlock()

	return StatusReport{
		DoorID:       c.id,
		Label:        c.label,
		Location:     c.location,
		State:        c.state,
		Ready:        c.isSafeToOperate(),
		OpenAttempts: c.openAttempts,
		Lock: LockStatus{
			Name:       c.lock.Name(),
			Angle:      c.lock.Angle(),
			Calibrated: c.lock.Calibrated(),
		},
		Ram: RamStatus{
			Name:     c.ram.Name(),
			State:    c.ram.State(),
			Position: c.ram.Position(),
			Travel:   c.ram.Travel(),
		},
	}
}

// initializeLocked runs the initialize sequence. Callers hold c.mu.
func (c *Controller) initializeLocked(op string) error {
	if err := c.lock.Calibrate(); err != nil {
		return c.fault(op, fmt.Errorf("%w: calibrate: %w", ErrHardwareFault, err))
	}
	if err := c.ram.Initialize(); err != nil {
		return c.fault(op, fmt.Errorf("%w: initialize ram: %w", ErrHardwareFault, err))
	}
	if err := c.lock.SetAngle(lockedAngle); err != nil {
		return c.fault(op, fmt.Errorf("%w: lock: %w", ErrHardwareFault, err))
	}

	from := c.state
	c.state = StateClosedLocked
	c.ready = true
	c.openAttempts = 0
	c.emit(Event{Type: EventTransition, Op: op, From: from, To: StateClosedLocked})

	return nil
}

// closeLocked runs the close sequence. Callers hold c.mu.
func (c *Controller) closeLocked(op string) error {
	if !c.isSafeToOperate() {
		c.emit(Event{Type: EventWarning, Op: op, From: c.state, To: c.state, Err: ErrNotSafe.Error()})
		return ErrNotSafe
	}

	if c.state == StateClosedLocked {
		return nil
	}

	c.setState(StateClosing, op)

	if err := c.ram.Retract(); err != nil {
		return c.fault(op, fmt.Errorf("%w: retract: %w", ErrHardwareFault, err))
	}
	c.setState(StateClosedUnlocked, op)

	if err := c.lock.SetAngle(lockedAngle); err != nil {
		return c.fault(op, fmt.Errorf("%w: lock: %w", ErrHardwareFault, err))
	}
	c.setState(StateClosedLocked, op)

	return nil
}

// isSafeToOperate is the safety gate checked before any open or close
// sequence: system ready, not in StateError, lock calibrated, ram homed.
// Callers hold c.mu.
func (c *Controller) isSafeToOperate() bool {
	return c.ready && c.state != StateError && c.lock.Calibrated() && c.ram.Ready()
}

// setState transitions to a new state and emits the change. No-op when
// the state is unchanged. Callers hold c.mu.
func (c *Controller) setState(to State, op string) {
	from := c.state
	if from == to {
		return
	}
	c.state = to
	c.emit(Event{Type: EventTransition, Op: op, From: from, To: to})
}

// fault escalates to StateError and emits the fault. Callers hold c.mu.
func (c *Controller) fault(op string, err error) error {
	from := c.state
	c.state = StateError
	c.emit(Event{Type: EventFault, Op: op, From: from, To: StateError, Err: err.Error()})
	return err
}

// emit stamps and delivers an event to every sink. Callers hold c.mu.
func (c *Controller) emit(ev Event) {
	ev.ID = uuid.NewString()
	ev.DoorID = c.id
	ev.Position = c.ram.Position()
	ev.Angle = c.lock.Angle()
	ev.Ready = c.isSafeToOperate()
	ev.Attempts = c.openAttempts
	ev.At = time.Now().UTC()

	for _, s := range c.sinks {
		s.Emit(ev)
	}
}
