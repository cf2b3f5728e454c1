// Package api implements the HTTP REST API and WebSocket server for Door Core.
//
// This package provides:
//   - REST endpoints for door status, commands, transition history, and metrics
//   - WebSocket hub for real-time state change and event broadcasts
//   - JWT authentication with ticket-based WebSocket auth
//   - Middleware stack (request ID, logging, recovery, CORS)
//   - TLS support for production deployments
//
// # Architecture
//
// The API server sits between user interfaces (panels, dashboards, building
// management frontends) and the in-process door controllers. Commands execute
// synchronously on the controller and return the resulting status. State
// changes and events are relayed from the MQTT state/event topics to
// WebSocket clients.
//
// # Security
//
// Authentication uses JWT access tokens issued against config-backed
// accounts. WebSocket connections use single-use tickets to prevent token
// leakage in URLs. Commands are gated per verb: initialization requires the
// admin role.
//
// # Graceful Degradation
//
// The server operates without MQTT, transition history, or telemetry — the
// endpoints they back return 503 (history, metrics) or fall silent
// (WebSocket relay), while door reads and commands keep working.
package api
