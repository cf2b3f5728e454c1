// Package auth provides authentication and authorisation for Door Core.
//
// It implements a 2-tier role model (operator → admin) with:
//   - Argon2id password hashing (OWASP 2025 recommendation)
//   - JWT access tokens (HS256, short-lived, stateless validation)
//   - Single-use tickets for WebSocket handshakes
//   - Config-backed user accounts (no database, immutable at runtime)
//
// Operators can command doors and read state, history and metrics.
// Admins can additionally trigger initialization and view system
// internals. There is no self-registration: accounts are provisioned in
// the config file with pre-hashed passwords.
package auth
