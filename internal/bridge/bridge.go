package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/door-core/internal/door"
	"github.com/nerrad567/door-core/internal/infrastructure/mqtt"
)

const (
	// messageQoS is the QoS level for all bridge publications and the
	// command subscription: at-least-once.
	messageQoS = 1

	// commandTopicParts is the segment count of a door command topic
	// (doorcore/command/door/{door_id}).
	commandTopicParts = 4
)

// MQTTClient is the MQTT surface the bridge depends on.
// *mqtt.Client satisfies this interface.
type MQTTClient interface {
	// Publish sends a message to a topic with the specified QoS and retention.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for messages matching a topic filter.
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error

	// IsConnected returns true if the client is connected to the broker.
	IsConnected() bool
}

// Bridge connects the door registry to MQTT. It subscribes to the
// command topic, dispatches commands to door controllers and publishes
// acknowledgments. Attached to controllers as an event sink, it also
// publishes every controller event and keeps the retained state topic
// of each door current.
type Bridge struct {
	serviceID string
	version   string

	mqtt     MQTTClient
	registry *door.Registry
	health   *HealthReporter

	// Statistics (atomic)
	commandsHandled atomic.Uint64
	commandsFailed  atomic.Uint64
	faultsObserved  atomic.Uint64

	stopOnce sync.Once

	logger door.Logger
	logMu  sync.RWMutex
}

// Options holds configuration for creating a bridge.
type Options struct {
	// ServiceID identifies this service in health messages.
	// Default: "doorcore".
	ServiceID string

	// Version is the service software version reported in health messages.
	Version string

	// MQTT is the broker client. Required.
	MQTT MQTTClient

	// Registry holds the door controllers commands are dispatched to. Required.
	Registry *door.Registry

	// HealthInterval is how often health status is published.
	// Default: 30 seconds.
	HealthInterval time.Duration

	// Logger receives bridge log output. Optional.
	Logger door.Logger
}

// New creates a bridge from the given options.
func New(opts Options) (*Bridge, error) {
	if opts.MQTT == nil {
		return nil, fmt.Errorf("mqtt client is required")
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("door registry is required")
	}

	serviceID := opts.ServiceID
	if serviceID == "" {
		serviceID = "doorcore"
	}

	b := &Bridge{
		serviceID: serviceID,
		version:   opts.Version,
		mqtt:      opts.MQTT,
		registry:  opts.Registry,
		logger:    opts.Logger,
	}

	b.health = NewHealthReporter(HealthReporterConfig{
		ServiceID: serviceID,
		Version:   opts.Version,
		Interval:  opts.HealthInterval,
		Publisher: opts.MQTT,
		Registry:  opts.Registry,
		Stats:     b,
	})
	b.health.SetLogger(opts.Logger)

	return b, nil
}

// Start subscribes to the command topic, publishes the retained state of
// every registered door and begins periodic health reporting. The
// context cancels health reporting; command handling runs until the MQTT
// client disconnects or Stop is called.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.health.PublishStarting(); err != nil {
		b.logDebug("starting status not published", "error", err)
	}

	commandFilter := mqtt.Topics{}.DoorCommands()
	if err := b.mqtt.Subscribe(commandFilter, messageQoS, b.handleCommandMessage); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}

	// Seed the retained state topics so late subscribers see every door
	// before its first transition.
	for _, ctrl := range b.registry.List() {
		b.publishState(NewStateMessageFromReport(ctrl.Status()))
	}

	b.health.Start(ctx)
	if err := b.health.PublishNow(); err != nil {
		b.logDebug("initial health not published", "error", err)
	}

	b.logInfo("bridge started",
		"service_id", b.serviceID,
		"doors", b.registry.Count(),
		"command_topic", commandFilter,
	)
	return nil
}

// Stop halts health reporting and publishes a final stopping status.
// Safe to call multiple times. The MQTT subscription is torn down by the
// client's own disconnect.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		b.health.Stop()
		b.logInfo("bridge stopped", "service_id", b.serviceID)
	})
}

// Stats returns a snapshot of the bridge's operational counters.
// Implements StatsSource for the health reporter.
func (b *Bridge) Stats() Statistics {
	return Statistics{
		CommandsHandled: b.commandsHandled.Load(),
		CommandsFailed:  b.commandsFailed.Load(),
		FaultsObserved:  b.faultsObserved.Load(),
	}
}

// SetLogger sets the logger for the bridge and its health reporter.
func (b *Bridge) SetLogger(logger door.Logger) {
	b.logMu.Lock()
	b.logger = logger
	b.logMu.Unlock()
	b.health.SetLogger(logger)
}

// handleCommandMessage processes a message from the command topic.
// Registered as the MQTT subscription handler; errors are handled here
// (logged, counted and acknowledged), so it always returns nil.
func (b *Bridge) handleCommandMessage(topic string, payload []byte) error {
	var cmd CommandMessage
	if err := json.Unmarshal(payload, &cmd); err != nil {
		b.commandsFailed.Add(1)
		b.logFailure("failed to parse command message", "topic", topic, "error", err)
		return nil
	}

	// The payload door_id is authoritative; the topic segment is the
	// fallback for senders that omit it.
	doorID := cmd.DoorID
	if doorID == "" {
		doorID = doorIDFromTopic(topic)
	}

	b.logInfo("received command",
		"command_id", cmd.ID,
		"door_id", doorID,
		"command", cmd.Command,
		"source", cmd.Source,
	)

	ctrl, err := b.registry.Get(doorID)
	if err != nil {
		b.commandsFailed.Add(1)
		b.publishAck(NewAckError(cmd, doorID, ErrCodeUnknownDoor, fmt.Sprintf("door %q is not registered", doorID)))
		return nil
	}

	if err := b.executeCommand(ctrl, cmd); err != nil {
		b.commandsFailed.Add(1)
		b.publishAck(NewAckError(cmd, doorID, ackCode(err), err.Error()))
		return nil
	}

	b.commandsHandled.Add(1)
	b.publishAck(NewAckMessage(cmd, doorID, AckAccepted))
	return nil
}

// executeCommand dispatches a command to the door controller.
func (b *Bridge) executeCommand(ctrl *door.Controller, cmd CommandMessage) error {
	switch cmd.Command {
	case CommandInitialize:
		return ctrl.Initialize()
	case CommandOpen:
		return ctrl.Open()
	case CommandClose:
		return ctrl.Close()
	case CommandStop:
		ctrl.EmergencyStop()
		return nil
	case CommandReset:
		return ctrl.Reset()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Command)
	}
}

// ackCode maps a dispatch error to its wire error code.
func ackCode(err error) string {
	switch {
	case errors.Is(err, ErrUnknownCommand):
		return ErrCodeInvalidCommand
	case errors.Is(err, door.ErrNotSafe):
		return ErrCodeNotSafe
	case errors.Is(err, door.ErrHardwareFault):
		return ErrCodeHardwareFault
	default:
		return ErrCodeBridgeError
	}
}

// Emit implements door.Sink. Every event is published to the door's
// event topic; state-changing events (transitions and faults) also
// refresh the door's retained state topic. Emit runs with the
// controller lock held, so it never reads back through the controller;
// everything published is taken from the event snapshot.
func (b *Bridge) Emit(ev door.Event) {
	if ev.Type == door.EventFault {
		b.faultsObserved.Add(1)
	}

	b.publishEvent(ev)

	if ev.Type == door.EventWarning {
		return
	}
	b.publishState(NewStateMessage(ev))
}

// publishEvent publishes a controller event to the door's event topic.
func (b *Bridge) publishEvent(ev door.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		b.logFailure("failed to marshal event", "door_id", ev.DoorID, "error", err)
		return
	}

	topic := mqtt.Topics{}.DoorEvent(ev.DoorID)
	if err := b.mqtt.Publish(topic, payload, messageQoS, false); err != nil {
		b.logFailure("failed to publish event", "topic", topic, "error", err)
	}
}

// publishState publishes a state message to the door's retained state topic.
func (b *Bridge) publishState(msg StateMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		b.logFailure("failed to marshal state", "door_id", msg.DoorID, "error", err)
		return
	}

	topic := mqtt.Topics{}.DoorState(msg.DoorID)
	if err := b.mqtt.Publish(topic, payload, messageQoS, true); err != nil {
		b.logFailure("failed to publish state", "topic", topic, "error", err)
	}
}

// publishAck publishes a command acknowledgment to the door's ack topic.
func (b *Bridge) publishAck(ack AckMessage) {
	payload, err := json.Marshal(ack)
	if err != nil {
		b.logFailure("failed to marshal ack", "command_id", ack.CommandID, "error", err)
		return
	}

	topic := mqtt.Topics{}.DoorAck(ack.DoorID)
	if err := b.mqtt.Publish(topic, payload, messageQoS, false); err != nil {
		b.logFailure("failed to publish ack", "topic", topic, "error", err)
	}
}

// doorIDFromTopic extracts the door ID segment from a command topic.
// Returns "" when the topic does not match the expected shape.
func doorIDFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) != commandTopicParts {
		return ""
	}
	return parts[commandTopicParts-1]
}

// log returns the current logger, which may be nil.
func (b *Bridge) log() door.Logger {
	b.logMu.RLock()
	defer b.logMu.RUnlock()
	return b.logger
}

func (b *Bridge) logInfo(msg string, args ...any) {
	if l := b.log(); l != nil {
		l.Info(msg, args...)
	}
}

func (b *Bridge) logFailure(msg string, args ...any) {
	if l := b.log(); l != nil {
		l.Error(msg, args...)
	}
}

func (b *Bridge) logDebug(msg string, args ...any) {
	if l := b.log(); l != nil {
		l.Debug(msg, args...)
	}
}
