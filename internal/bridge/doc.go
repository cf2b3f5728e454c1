// Package bridge connects the door registry to MQTT.
//
// This package exposes door control to external systems (building
// controllers, wall panels, supervision dashboards) over the broker. It
// translates between MQTT messages and door controller operations.
//
// # Architecture
//
// The bridge sits between the broker and the door controllers:
//
//	┌─────────────────┐          ┌─────────────────┐
//	│    Building     │   MQTT   │   Door Core     │
//	│   Controller    │◄────────►│   (this pkg)    │──► door.Registry
//	└─────────────────┘          └─────────────────┘
//
// # Responsibilities
//
//   - Subscribe to the command topic and dispatch commands to controllers
//   - Acknowledge every command with accepted/failed and an error code
//   - Publish controller events to the per-door event topic
//   - Keep the per-door retained state topic current on every transition
//   - Publish periodic health status with operational statistics
//
// # Message Flow
//
// Commands arrive on doorcore/command/door/{door_id} as JSON
// CommandMessage payloads. The payload door_id is authoritative; the
// topic segment is a fallback. Each command is acknowledged on
// doorcore/ack/door/{door_id}:
//
//	cmd := bridge.CommandMessage{
//	    ID:      uuid.NewString(),
//	    DoorID:  "front",
//	    Command: bridge.CommandOpen,
//	    Source:  "panel",
//	}
//
// The bridge is also a door.Sink: attach it to each controller with
// AddSink so transitions, warnings and faults reach the event topic and
// the retained state stays fresh.
//
// # Concurrency
//
// Every exported type is safe for concurrent use.
package bridge
