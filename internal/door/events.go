package door

import "time"

// Logger defines the logging interface used by door adapters.
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

// EventType classifies controller events.
type EventType string

const (
	// EventTransition marks a completed state change.
	EventTransition EventType = "transition"

	// EventWarning marks a rejected or degraded operation that did not
	// change state (safety-gate rejection, forced retract).
	EventWarning EventType = "warning"

	// EventFault marks an escalation into StateError.
	EventFault EventType = "fault"
)

// Operation names carried on events and audit records.
const (
	OpInitialize    = "initialize"
	OpOpen          = "open"
	OpClose         = "close"
	OpEmergencyStop = "emergency_stop"
	OpReset         = "reset"
	OpShutdown      = "shutdown"
)

// Event describes one observable controller occurrence. The controller
// core performs no logging; it emits events and attached sinks render
// them (log lines, audit rows, telemetry points, MQTT publications).
//
// Position, Angle, Ready and Attempts are sampled when the event is
// emitted, after the mutation it describes, so sinks can build full
// state snapshots without calling back into the controller.
type Event struct {
	ID       string    `json:"id"`
	DoorID   string    `json:"door_id"`
	Type     EventType `json:"type"`
	Op       string    `json:"op"`
	From     State     `json:"from"`
	To       State     `json:"to"`
	Position int       `json:"position"`
	Angle    int       `json:"angle"`
	Ready    bool      `json:"ready"`
	Attempts int       `json:"attempts"`
	Err      string    `json:"error,omitempty"`
	At       time.Time `json:"at"`
}

// Sink consumes controller events. Emit is called synchronously on the
// operation's goroutine with the controller lock held, so implementations
// must not call back into the controller and should return quickly.
type Sink interface {
	Emit(ev Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ev Event)

// Emit calls f(ev).
func (f SinkFunc) Emit(ev Event) { f(ev) }

// LogSink renders events as structured log lines. It is the thin adapter
// that replaces in-core logging.
type LogSink struct {
	logger Logger
}

// NewLogSink creates a log sink writing to the given logger.
func NewLogSink(logger Logger) *LogSink {
	if logger == nil {
		logger = noopLogger{}
	}
	return &LogSink{logger: logger}
}

// Emit writes one line per event at a level matching its type.
func (s *LogSink) Emit(ev Event) {
	switch ev.Type {
	case EventFault:
		s.logger.Error("door fault",
			"door_id", ev.DoorID,
			"op", ev.Op,
			"from", ev.From.String(),
			"to", ev.To.String(),
			"error", ev.Err,
		)
	case EventWarning:
		s.logger.Warn("door warning",
			"door_id", ev.DoorID,
			"op", ev.Op,
			"state", ev.From.String(),
			"error", ev.Err,
		)
	default:
		s.logger.Info("door state changed",
			"door_id", ev.DoorID,
			"op", ev.Op,
			"from", ev.From.String(),
			"to", ev.To.String(),
			"position", ev.Position,
			"angle", ev.Angle,
		)
	}
}
