package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for Door Core. Values come from
// three layers: built-in defaults, then the YAML file, then DOORCORE_*
// environment variables.
type Config struct {
	Core      CoreConfig      `yaml:"core"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
	Doors     []DoorConfig    `yaml:"doors"`
}

// CoreConfig identifies this controller instance in logs and payloads.
type CoreConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// DatabaseConfig holds the SQLite settings. BusyTimeout is in seconds.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`

	// HistoryRetentionDays prunes door transition history older than
	// this many days. 0 disables pruning.
	HistoryRetentionDays int `yaml:"history_retention_days"`
}

// HistoryRetention returns the transition history retention as a
// Duration. Zero means pruning is disabled.
func (c DatabaseConfig) HistoryRetention() time.Duration {
	return time.Duration(c.HistoryRetentionDays) * 24 * time.Hour
}

// MQTTConfig holds the broker connection settings. Disabled by
// default; the REST API works standalone.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig shapes the backoff between reconnect attempts.
// Delays are in seconds; MaxAttempts 0 retries forever.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig holds the HTTP listener settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// ReadTimeout returns the HTTP read timeout as a Duration.
func (c APIConfig) ReadTimeout() time.Duration {
	return time.Duration(c.Timeouts.Read) * time.Second
}

// WriteTimeout returns the HTTP write timeout as a Duration.
func (c APIConfig) WriteTimeout() time.Duration {
	return time.Duration(c.Timeouts.Write) * time.Second
}

// IdleTimeout returns the HTTP idle timeout as a Duration.
func (c APIConfig) IdleTimeout() time.Duration {
	return time.Duration(c.Timeouts.Idle) * time.Second
}

type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig holds the HTTP timeouts in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig lists what browsers may do cross-origin. Empty origins
// means development mode: everything allowed.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig holds the live-update socket settings. Intervals are
// in seconds, MaxMessageSize in bytes.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig holds the telemetry sink settings. Disabled leaves
// the metrics endpoints returning 503.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig selects level (debug/info/warn/error), format
// (json/text) and output (stdout/stderr).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig holds the JWT settings and the API accounts.
type SecurityConfig struct {
	JWT   JWTConfig    `yaml:"jwt"`
	Users []UserConfig `yaml:"users"`
}

// JWTConfig holds the token signing secret and TTL in minutes.
type JWTConfig struct {
	Secret         string `yaml:"secret"`
	AccessTokenTTL int    `yaml:"access_token_ttl"`
}

// UserConfig contains one API user. Passwords are stored as argon2id
// PHC hashes, never in clear text.
type UserConfig struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
	Role         string `yaml:"role"`
}

// DoorConfig describes one controlled door.
type DoorConfig struct {
	ID       string `yaml:"id"`
	Label    string `yaml:"label"`
	Location string `yaml:"location"`

	// Travel is the ram stroke length in millimetres. Defaults to 250.
	Travel int `yaml:"travel"`

	// Speed is the ram speed setting in [1,10]. Defaults to 5.
	Speed int `yaml:"speed"`
}

// Load reads the YAML file at path over the built-in defaults, applies
// DOORCORE_* environment overrides, fills per-door defaults and
// validates the result. Environment variables win over the file so
// secrets never need to live on disk.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDoorDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Core: CoreConfig{
			ID:       "doorcore-001",
			Name:     "Door Core",
			Timezone: "UTC",
		},
		Database: DatabaseConfig{
			Path:        "./data/doorcore.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Enabled: false,
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "doorcore",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				AccessTokenTTL: 15,
			},
		},
	}
}

const (
	defaultDoorTravel = 250
	defaultDoorSpeed  = 5
)

// applyDoorDefaults fills zero-valued per-door settings.
func applyDoorDefaults(cfg *Config) {
	for i := range cfg.Doors {
		if cfg.Doors[i].Travel == 0 {
			cfg.Doors[i].Travel = defaultDoorTravel
		}
		if cfg.Doors[i].Speed == 0 {
			cfg.Doors[i].Speed = defaultDoorSpeed
		}
	}
}

// applyEnvOverrides lets the environment override the file. The set is
// kept small: deployment-specific paths and hosts, plus every
// credential, so secrets can stay out of the YAML.
func applyEnvOverrides(cfg *Config) {
	overrides := []struct {
		env string
		dst *string
	}{
		{"DOORCORE_DATABASE_PATH", &cfg.Database.Path},
		{"DOORCORE_MQTT_HOST", &cfg.MQTT.Broker.Host},
		{"DOORCORE_MQTT_USERNAME", &cfg.MQTT.Auth.Username},
		{"DOORCORE_MQTT_PASSWORD", &cfg.MQTT.Auth.Password},
		{"DOORCORE_API_HOST", &cfg.API.Host},
		{"DOORCORE_INFLUXDB_TOKEN", &cfg.InfluxDB.Token},
		{"DOORCORE_JWT_SECRET", &cfg.Security.JWT.Secret},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.dst = v
		}
	}
}

// Validate collects every problem in the configuration rather than
// stopping at the first, so a broken deployment gets one complete
// error to fix from.
func (c *Config) Validate() error {
	var problems []string

	if c.Core.ID == "" {
		problems = append(problems, "core.id is required")
	}

	if c.Database.Path == "" {
		problems = append(problems, "database.path is required")
	}
	if c.Database.HistoryRetentionDays < 0 {
		problems = append(problems, "database.history_retention_days must not be negative")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		problems = append(problems, "mqtt.qos must be between 0 and 2")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		problems = append(problems, "api.port must be a valid TCP port (1-65535)")
	}

	problems = append(problems, c.validateSecurity()...)
	problems = append(problems, c.validateDoors()...)

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}

	return nil
}

// validateSecurity checks the JWT secret and the account list. The
// secret has a hard minimum length: a door controller with a guessable
// signing key is a door anyone can open.
func (c *Config) validateSecurity() []string {
	var problems []string

	const minJWTSecretLength = 32
	if c.Security.JWT.Secret == "" {
		problems = append(problems, "security.jwt.secret is required (set DOORCORE_JWT_SECRET environment variable)")
	} else if len(c.Security.JWT.Secret) < minJWTSecretLength {
		problems = append(problems, "security.jwt.secret must be at least 32 characters for adequate security")
	}

	for i, u := range c.Security.Users {
		if u.Username == "" {
			problems = append(problems, fmt.Sprintf("security.users[%d].username is required", i))
		}
		if u.PasswordHash == "" {
			problems = append(problems, fmt.Sprintf("security.users[%d].password_hash is required", i))
		}
		if u.Role != "operator" && u.Role != "admin" {
			problems = append(problems, fmt.Sprintf("security.users[%d].role must be operator or admin", i))
		}
	}

	return problems
}

// validateDoors checks the door list: at least one door, unique IDs,
// travel and speed within the ranges the actuators accept.
func (c *Config) validateDoors() []string {
	var problems []string

	if len(c.Doors) == 0 {
		problems = append(problems, "at least one door must be configured")
	}

	seen := make(map[string]bool, len(c.Doors))
	for i, d := range c.Doors {
		if d.ID == "" {
			problems = append(problems, fmt.Sprintf("doors[%d].id is required", i))
			continue
		}
		if seen[d.ID] {
			problems = append(problems, fmt.Sprintf("doors[%d].id %q is duplicated", i, d.ID))
		}
		seen[d.ID] = true
		if d.Travel <= 0 {
			problems = append(problems, fmt.Sprintf("doors[%d].travel must be positive", i))
		}
		if d.Speed < 1 || d.Speed > 10 {
			problems = append(problems, fmt.Sprintf("doors[%d].speed must be between 1 and 10", i))
		}
	}

	return problems
}
