package bridge

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/door-core/internal/door"
)

// Wire types for the MQTT surface: commands in; acks, state and health
// out. Building controllers, wall panels and dashboards speak these
// shapes. Topic construction lives in internal/infrastructure/mqtt.

// Command names accepted on the command topic.
const (
	// CommandInitialize calibrates the lock and homes the ram.
	CommandInitialize = "initialize"

	// CommandOpen runs the unlock-then-extend open sequence.
	CommandOpen = "open"

	// CommandClose runs the retract-then-lock close sequence.
	CommandClose = "close"

	// CommandStop halts the ram immediately and snaps to the nearer end.
	CommandStop = "stop"

	// CommandReset recovers a door from the error state.
	CommandReset = "reset"
)

// CommandMessage asks one door to run one command.
// Topic: doorcore/command/door/{door_id}
type CommandMessage struct {
	ID        string    `json:"id"`        // correlates the eventual ack
	Timestamp time.Time `json:"timestamp"` // UTC RFC3339; senders may omit it
	DoorID    string    `json:"door_id"`   // authoritative over the topic segment
	Command   string    `json:"command"`   // one of the Command* constants
	Source    string    `json:"source"`    // "api", "panel", "schedule" or "test"
	UserID    string    `json:"user_id,omitempty"`
}

// AckStatus is the outcome reported for a command.
type AckStatus string

const (
	// AckAccepted means the controller executed the command.
	AckAccepted AckStatus = "accepted"

	// AckFailed means the command was refused or the hardware faulted.
	AckFailed AckStatus = "failed"
)

// Ack error codes, stable for machine consumption.
const (
	ErrCodeUnknownDoor    = "UNKNOWN_DOOR"
	ErrCodeInvalidCommand = "INVALID_COMMAND"
	ErrCodeNotSafe        = "NOT_SAFE"
	ErrCodeHardwareFault  = "HARDWARE_FAULT"
	ErrCodeBridgeError    = "BRIDGE_ERROR"
)

// AckMessage reports the outcome of one command.
// Topic: doorcore/ack/door/{door_id}
type AckMessage struct {
	CommandID string    `json:"command_id"`
	Timestamp time.Time `json:"timestamp"`
	DoorID    string    `json:"door_id"`
	Status    AckStatus `json:"status"`
	Error     *AckError `json:"error,omitempty"` // set when Status is "failed"
}

// AckError explains a failed command.
type AckError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StateMessage is the retained snapshot of one door.
// Topic: doorcore/state/door/{door_id} (QoS 1, retained)
type StateMessage struct {
	DoorID    string    `json:"door_id"`
	Timestamp time.Time `json:"timestamp"`
	State     string    `json:"state"`    // "closed_locked", "open", "error", ...
	Position  int       `json:"position"` // ram extension, percent
	Angle     int       `json:"angle"`    // lock servo, degrees
	Ready     bool      `json:"ready"`    // would pass the safety gate
	Attempts  int       `json:"attempts"` // consecutive rejected opens
}

// HealthStatus is the service's self-reported condition on the health
// topic.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthDegraded HealthStatus = "degraded" // running, but a dependency is not right
	HealthStarting HealthStatus = "starting"
	HealthStopping HealthStatus = "stopping"

	// HealthOffline is part of the vocabulary for consumers but never
	// published by the service itself; unexpected drops surface through
	// the broker's last-will on the system status topic.
	HealthOffline HealthStatus = "offline"
)

// HealthMessage is the retained service heartbeat.
// Topic: doorcore/health/door (QoS 1, retained, every 30s by default)
type HealthMessage struct {
	Service       string       `json:"service"`
	Timestamp     time.Time    `json:"timestamp"`
	Status        HealthStatus `json:"status"`
	Version       string       `json:"version"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	Statistics    *Statistics  `json:"statistics,omitempty"`
	DoorsManaged  int          `json:"doors_managed"`
	Reason        string       `json:"reason,omitempty"` // explains degraded/stopping
}

// Statistics carries the bridge's lifetime counters.
type Statistics struct {
	CommandsHandled uint64 `json:"commands_handled"`
	CommandsFailed  uint64 `json:"commands_failed"`
	FaultsObserved  uint64 `json:"faults_observed"`
}

// commandWire mirrors CommandMessage with the timestamp as a raw string.
// Senders may omit the timestamp, which a bare time.Time field would
// reject, and outbound encoding pins seconds-precision UTC.
type commandWire struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	DoorID    string `json:"door_id"`
	Command   string `json:"command"`
	Source    string `json:"source"`
	UserID    string `json:"user_id,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (m *CommandMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(commandWire{
		ID:        m.ID,
		Timestamp: m.Timestamp.UTC().Format(time.RFC3339),
		DoorID:    m.DoorID,
		Command:   m.Command,
		Source:    m.Source,
		UserID:    m.UserID,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *CommandMessage) UnmarshalJSON(data []byte) error {
	var w commandWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("unmarshal command message: %w", err)
	}

	*m = CommandMessage{
		ID:      w.ID,
		DoorID:  w.DoorID,
		Command: w.Command,
		Source:  w.Source,
		UserID:  w.UserID,
	}
	if w.Timestamp == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, w.Timestamp)
	if err != nil {
		return fmt.Errorf("parse timestamp: %w", err)
	}
	m.Timestamp = t
	return nil
}

// NewAckMessage builds an ack for cmd with the given status.
func NewAckMessage(cmd CommandMessage, doorID string, status AckStatus) AckMessage {
	return AckMessage{
		CommandID: cmd.ID,
		Timestamp: time.Now().UTC(),
		DoorID:    doorID,
		Status:    status,
	}
}

// NewAckError builds a failed ack carrying a code and message.
func NewAckError(cmd CommandMessage, doorID, code, message string) AckMessage {
	ack := NewAckMessage(cmd, doorID, AckFailed)
	ack.Error = &AckError{Code: code, Message: message}
	return ack
}

// NewStateMessage derives a state snapshot from a controller event.
// Events carry the full post-mutation picture, so nothing is read back
// through the controller.
func NewStateMessage(ev door.Event) StateMessage {
	return StateMessage{
		DoorID:    ev.DoorID,
		Timestamp: ev.At,
		State:     ev.To.String(),
		Position:  ev.Position,
		Angle:     ev.Angle,
		Ready:     ev.Ready,
		Attempts:  ev.Attempts,
	}
}

// NewStateMessageFromReport derives a state snapshot from a status
// report. Used to seed the retained topics when the bridge starts.
func NewStateMessageFromReport(report door.StatusReport) StateMessage {
	return StateMessage{
		DoorID:    report.DoorID,
		Timestamp: time.Now().UTC(),
		State:     report.State.String(),
		Position:  report.Ram.Position,
		Angle:     report.Lock.Angle,
		Ready:     report.Ready,
		Attempts:  report.OpenAttempts,
	}
}

// NewHealthMessage assembles a heartbeat with uptime measured from
// startTime.
func NewHealthMessage(serviceID, version string, status HealthStatus, stats Statistics, doorCount int, startTime time.Time) HealthMessage {
	return HealthMessage{
		Service:       serviceID,
		Timestamp:     time.Now().UTC(),
		Status:        status,
		Version:       version,
		UptimeSeconds: int64(time.Since(startTime).Seconds()),
		Statistics:    &stats,
		DoorsManaged:  doorCount,
	}
}
