package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/door-core/internal/infrastructure/database"
)

// writeTestConfig writes a config file into a temp dir and points
// DOORCORE_CONFIG at it for the duration of the test.
func writeTestConfig(t *testing.T, content string) {
	t.Helper()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	original := os.Getenv("DOORCORE_CONFIG")
	t.Cleanup(func() { os.Setenv("DOORCORE_CONFIG", original) })
	os.Setenv("DOORCORE_CONFIG", configPath)
}

// TestRun_InvalidConfig verifies run refuses a config path that does not exist.
func TestRun_InvalidConfig(t *testing.T) {
	original := os.Getenv("DOORCORE_CONFIG")
	defer os.Setenv("DOORCORE_CONFIG", original)

	os.Setenv("DOORCORE_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run succeeded with a nonexistent config path")
	}
}

// TestRun_MissingJWTSecret verifies run fails validation without a JWT
// secret configured.
func TestRun_MissingJWTSecret(t *testing.T) {
	// A secret in the environment would satisfy validation
	originalSecret := os.Getenv("DOORCORE_JWT_SECRET")
	defer os.Setenv("DOORCORE_JWT_SECRET", originalSecret)
	os.Unsetenv("DOORCORE_JWT_SECRET")

	writeTestConfig(t, `
database:
  path: "`+filepath.Join(t.TempDir(), "test.db")+`"

logging:
  level: error
  format: text
  output: stdout

doors:
  - id: front
    label: "Front Door"
`)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run succeeded without a JWT secret")
	}
	if !strings.Contains(err.Error(), "jwt.secret") {
		t.Errorf("error does not mention jwt.secret: %v", err)
	}
}

// TestRun_NoDoors verifies run fails validation with an empty door list.
func TestRun_NoDoors(t *testing.T) {
	writeTestConfig(t, `
database:
  path: "`+filepath.Join(t.TempDir(), "test.db")+`"

logging:
  level: error
  format: text
  output: stdout

security:
  jwt:
    secret: "test-secret-key-at-least-32-characters-long"
`)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run succeeded with no doors configured")
	}
	if !strings.Contains(err.Error(), "door") {
		t.Errorf("error does not mention the door list: %v", err)
	}
}

// TestRun_CleanStartupAndShutdown boots the full service with MQTT and
// InfluxDB disabled and verifies it shuts down cleanly on context
// cancellation.
func TestRun_CleanStartupAndShutdown(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "doorcore.db")

	writeTestConfig(t, `
database:
  path: "`+dbPath+`"
  wal_mode: true
  busy_timeout: 5
  history_retention_days: 30

logging:
  level: error
  format: text
  output: stdout

api:
  host: "127.0.0.1"
  port: 19090
  timeouts:
    read: 5
    write: 5
    idle: 10

security:
  jwt:
    secret: "test-secret-key-at-least-32-characters-long"

doors:
  - id: front
    label: "Front Door"
  - id: rear
    label: "Rear Door"
    travel: 300
    speed: 7
`)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	// Migrations ran against a real file
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

// TestResolveConfigPath_Default verifies default config path.
func TestResolveConfigPath_Default(t *testing.T) {
	original := os.Getenv("DOORCORE_CONFIG")
	defer os.Setenv("DOORCORE_CONFIG", original)

	os.Unsetenv("DOORCORE_CONFIG")

	if path := resolveConfigPath(); path != defaultConfigPath {
		t.Errorf("resolveConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestResolveConfigPath_EnvOverride verifies environment variable override.
func TestResolveConfigPath_EnvOverride(t *testing.T) {
	original := os.Getenv("DOORCORE_CONFIG")
	defer os.Setenv("DOORCORE_CONFIG", original)

	expected := "/custom/path/config.yaml"
	os.Setenv("DOORCORE_CONFIG", expected)

	if path := resolveConfigPath(); path != expected {
		t.Errorf("resolveConfigPath() = %q, want %q", path, expected)
	}
}

// TestResolveConfigPath_FlagOverride verifies the --config flag wins over
// the environment variable.
func TestResolveConfigPath_FlagOverride(t *testing.T) {
	original := os.Getenv("DOORCORE_CONFIG")
	defer os.Setenv("DOORCORE_CONFIG", original)
	os.Setenv("DOORCORE_CONFIG", "/env/path/config.yaml")

	originalFlag := *configFlag
	defer func() { *configFlag = originalFlag }()
	*configFlag = "/flag/path/config.yaml"

	if path := resolveConfigPath(); path != "/flag/path/config.yaml" {
		t.Errorf("resolveConfigPath() = %q, want flag value", path)
	}
}

// TestHealthCheck_OptionalClientsNil verifies the health check passes
// with only the database when MQTT and InfluxDB are disabled.
func TestHealthCheck_OptionalClientsNil(t *testing.T) {
	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "health.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := healthCheck(ctx, db, nil, nil); err != nil {
		t.Errorf("healthCheck: %v", err)
	}
}
