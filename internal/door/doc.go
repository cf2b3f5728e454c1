// Package door implements the door controller state machine for Door Core.
//
// A Controller sequences one rotary lock actuator and one linear push ram
// through the door lifecycle: unlock before extend when opening, retract
// before lock when closing. Every open and close is preconditioned by a
// safety gate; repeated rejected opens and any hardware failure escalate
// to StateError, which only an explicit Reset can leave.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────────────┐
//	│                        Door Controller                           │
//	│                                                                  │
//	│  ┌────────────────┐   ┌────────────────┐   ┌─────────────────┐  │
//	│  │   Controller   │   │    Registry    │   │     History     │  │
//	│  │ (controller.go)│◀──│  (registry.go) │   │  (history.go)   │  │
//	│  │                │   │                │   │                 │  │
//	│  │ • State machine│   │ • Doors by ID  │   │ • Audit trail   │  │
//	│  │ • Safety gate  │   │ • Sorted lists │   │ • SQLite repo   │  │
//	│  │ • Single mutex │   │ • ShutdownAll  │   │ • Prune         │  │
//	│  └────────┬───────┘   └────────────────┘   └─────────────────┘  │
//	│           │ emits                                               │
//	│           ▼                                                     │
//	│  ┌────────────────┐                                             │
//	│  │     Sinks      │  log lines / audit rows / telemetry /       │
//	│  │  (events.go)   │  MQTT publications                          │
//	│  └────────────────┘                                             │
//	└──────────────────────────────────────────────────────────────────┘
//
// # State Machine
//
//	ClosedLocked ──open()──▶ Opening ▶ ClosedUnlocked ▶ Open
//	Open ──close()──▶ Closing ▶ ClosedUnlocked ▶ ClosedLocked
//	any state ──emergencyStop()──▶ Open | ClosedUnlocked  (midpoint rule)
//	any failure mid-sequence ──▶ StateError  (recoverable via Reset only)
//
// # Usage
//
//	lock := actuator.NewServo("LockServo_front")
//	ram := actuator.NewRam("DoorActuator_front", 250)
//
//	ctrl := door.New(door.Config{ID: "front", Label: "Front Door"}, lock, ram)
//	ctrl.AddSink(door.NewLogSink(log))
//
//	if err := ctrl.Initialize(); err != nil {
//	    return err
//	}
//	if err := ctrl.Open(); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// Controller and Registry are safe for concurrent use. Each controller
// serialises its operations behind a single mutex, so every operation is
// atomic and strictly ordered; the original single-threaded semantics
// hold under concurrent callers. Sinks run synchronously on the
// operation's goroutine and must not call back into the controller.
package door
