package mqtt

import "fmt"

// Topic prefixes for the Door Core MQTT surface.
//
// All door topics use the flat scheme: doorcore/{category}/door/{door_id}
// This matches the bridge's messages.go and all runtime subscribers.
const (
	// TopicPrefix is the base for all Door Core topics.
	// Flat scheme: doorcore/{category}/door/{door_id}
	TopicPrefix = "doorcore"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "doorcore/system"
)

// Topics provides builders for Door Core MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.DoorState("front")
//	// Returns: "doorcore/state/door/front"
type Topics struct{}

// =============================================================================
// Door Topics
// =============================================================================

// DoorCommand returns the topic for commands to a single door.
//
// Example: doorcore/command/door/front
func (Topics) DoorCommand(doorID string) string {
	return fmt.Sprintf("%s/command/door/%s", TopicPrefix, doorID)
}

// DoorAck returns the topic for command acknowledgements for a door.
//
// Example: doorcore/ack/door/front
func (Topics) DoorAck(doorID string) string {
	return fmt.Sprintf("%s/ack/door/%s", TopicPrefix, doorID)
}

// DoorState returns the topic for a door's canonical state.
// Published retained so new subscribers immediately see the current state.
//
// Example: doorcore/state/door/front
func (Topics) DoorState(doorID string) string {
	return fmt.Sprintf("%s/state/door/%s", TopicPrefix, doorID)
}

// DoorEvent returns the topic for transition and fault events from a door.
// Events are not retained; subscribers see only live traffic.
//
// Example: doorcore/event/door/front
func (Topics) DoorEvent(doorID string) string {
	return fmt.Sprintf("%s/event/door/%s", TopicPrefix, doorID)
}

// DoorHealth returns the topic for controller health status.
// Covers all managed doors in a single retained message.
//
// Example: doorcore/health/door
func (Topics) DoorHealth() string {
	return fmt.Sprintf("%s/health/door", TopicPrefix)
}

// =============================================================================
// System Topics
// =============================================================================

// SystemStatus returns the system status topic.
// Carries the online/offline payload and the broker-published LWT.
//
// Example: doorcore/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// =============================================================================
// Wildcard Patterns for Subscriptions
// =============================================================================

// DoorCommands returns a pattern matching commands for every door.
//
// Pattern: doorcore/command/door/+
func (Topics) DoorCommands() string {
	return fmt.Sprintf("%s/command/door/+", TopicPrefix)
}

// AllDoorAcks returns a pattern matching all command acknowledgements.
//
// Pattern: doorcore/ack/door/+
func (Topics) AllDoorAcks() string {
	return fmt.Sprintf("%s/ack/door/+", TopicPrefix)
}

// AllDoorStates returns a pattern matching all door state topics.
//
// Pattern: doorcore/state/door/+
func (Topics) AllDoorStates() string {
	return fmt.Sprintf("%s/state/door/+", TopicPrefix)
}

// AllDoorEvents returns a pattern matching all door event topics.
//
// Pattern: doorcore/event/door/+
func (Topics) AllDoorEvents() string {
	return fmt.Sprintf("%s/event/door/+", TopicPrefix)
}

// AllTopics returns a pattern matching all Door Core topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: doorcore/#
func (Topics) AllTopics() string {
	return "doorcore/#"
}
