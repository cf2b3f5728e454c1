// Package config loads and validates Door Core's configuration.
//
// Configuration comes from a YAML file layered over built-in defaults,
// with DOORCORE_* environment variables applied last so deployments can
// inject secrets without touching the file. Load resolves the layers,
// validates the result and returns it; nothing is re-read at runtime.
//
// The doors section is the heart of the file: one entry per controlled
// door, each with its ram travel and speed. Validation rejects configs
// with no doors, duplicate door IDs, out-of-range actuator settings, a
// short JWT secret, or users with unknown roles, so a misconfigured
// service refuses to start rather than running half-wired.
//
// Usage:
//
//	cfg, err := config.Load("configs/doorcore.yaml")
//	if err != nil {
//	    return err
//	}
//	for _, door := range cfg.Doors {
//	    // build actuators per door
//	}
//
// Keep JWT secrets and broker credentials in the environment, not in a
// config file checked into a repo, and restrict the file to 0600.
package config
