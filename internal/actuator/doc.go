// Package actuator provides the leaf device drivers for a door mechanism:
// a rotary lock servo and a linear push/pull ram.
//
// # Architecture
//
//	┌────────────────────────────┐
//	│      door.Controller       │
//	│  (sequencing, safety gate) │
//	└──────┬──────────────┬──────┘
//	       │              │
//	┌──────▼─────┐ ┌──────▼─────┐
//	│   Servo    │ │    Ram     │
//	│ angle 0-180│ │ pos 0-100  │
//	│ calibrated │ │ motion FSM │
//	└────────────┘ └────────────┘
//
// Both drivers are bounded-value holders with no cross-device knowledge.
// The Servo holds a clamped angle and a calibration flag. The Ram holds a
// position percentage and a five-state motion machine (Retracted, Extending,
// Extended, Retracting, Error). Motion is simulated synchronously: extend
// and retract complete before returning. Stop applies a midpoint snap rule
// when caught mid-motion: position above 50 settles as Extended, otherwise
// Retracted.
//
// # Usage
//
//	servo := actuator.NewServo("LockServo_front")
//	if err := servo.Calibrate(); err != nil { ... }
//	if err := servo.SetAngle(90); err != nil { ... }
//
//	ram := actuator.NewRam("DoorActuator_front", 250)
//	if err := ram.Initialize(); err != nil { ... }
//	if err := ram.Extend(); err != nil { ... }
//
// # Thread Safety
//
// Drivers are NOT safe for concurrent use. Each instance is exclusively
// owned by a single door controller, which serialises all access behind its
// own mutex. Nothing else may hold a reference to an owned driver.
package actuator
