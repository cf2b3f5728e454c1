// Door Core - Door Mechanism Control Service
//
// This is the main entry point for the Door Core application.
// Door Core drives motorised door mechanisms (rotary lock servo plus
// linear push ram) behind a safety-interlocked state machine, exposed
// over a REST/WebSocket API and an MQTT bridge:
//   - Deterministic open/close/lock sequencing with fault escalation
//   - Offline-first operation (MQTT and InfluxDB are optional)
//   - Append-only transition audit trail in SQLite
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/door-core/migrations"

	"github.com/nerrad567/door-core/internal/actuator"
	"github.com/nerrad567/door-core/internal/api"
	"github.com/nerrad567/door-core/internal/bridge"
	"github.com/nerrad567/door-core/internal/door"
	"github.com/nerrad567/door-core/internal/infrastructure/config"
	"github.com/nerrad567/door-core/internal/infrastructure/database"
	"github.com/nerrad567/door-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/door-core/internal/infrastructure/logging"
	"github.com/nerrad567/door-core/internal/infrastructure/mqtt"
)

// Build metadata, overridden at release time with
// -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/doorcore.yaml"

// Periodic background work intervals.
const (
	healthCheckInterval = time.Minute
	prunePollInterval   = 6 * time.Hour
	pruneTimeout        = time.Minute
)

var (
	configFlag  = flag.String("config", "", "path to the configuration file")
	versionFlag = flag.Bool("version", false, "print version information and exit")
)

func main() {
	flag.Parse()

	if *versionFlag {
		fmt.Printf("doorcore %s (commit %s, built %s)\n", version, commit, date)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "doorcore: %v\n", err)
		os.Exit(1)
	}
}

// run assembles the service and blocks until ctx is cancelled. Every
// component it starts is torn down on its defer stack, so an error at
// any stage leaves nothing running.
func run(ctx context.Context) error {
	// Bootstrap logger; replaced once the config says how to log.
	logger := logging.Default()
	logger.Info("starting Door Core", "version", version, "commit", commit, "built", date)

	configPath := resolveConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Info("config loaded", "path", configPath)

	logger = logging.New(cfg.Logging, version)
	logger.Info("logging configured", "level", cfg.Logging.Level, "format", cfg.Logging.Format)

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer closeOnExit(logger, "database", db.Close)
	logger.Info("database open", "path", cfg.Database.Path)

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	logger.Info("migrations applied")

	historyRepo := door.NewSQLiteHistoryRepository(db.DB)

	// MQTT and InfluxDB are optional. A disabled broker leaves the
	// service API-only; a disabled Influx leaves metrics endpoints 503.
	var broker *mqtt.Client
	if cfg.MQTT.Enabled {
		broker, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connect to MQTT broker: %w", err)
		}
		defer closeOnExit(logger, "MQTT client", broker.Close)
		broker.SetLogger(logger)
		broker.SetOnConnect(func() {
			logger.Info("MQTT session re-established")
		})
		broker.SetOnDisconnect(func(err error) {
			logger.Warn("MQTT connection lost", "error", err)
		})
		logger.Info("connected to MQTT broker",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		logger.Info("MQTT disabled in config")
	}

	var influx *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influx, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connect to InfluxDB: %w", err)
		}
		defer closeOnExit(logger, "InfluxDB client", influx.Close)
		influx.SetOnError(func(err error) {
			logger.Error("InfluxDB write failed", "error", err)
		})
		logger.Info("connected to InfluxDB",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		logger.Info("InfluxDB disabled in config")
	}

	registry := door.NewRegistry()
	registry.SetLogger(logger)

	// MQTT bridge is created before the doors so it can be attached as
	// an event sink, but started only after the doors are initialised
	// so the retained state it publishes is the homed state.
	var doorBridge *bridge.Bridge
	if broker != nil {
		doorBridge, err = bridge.New(bridge.Options{
			ServiceID: cfg.Core.ID,
			Version:   version,
			MQTT:      broker,
			Registry:  registry,
			Logger:    logger,
		})
		if err != nil {
			return fmt.Errorf("build MQTT bridge: %w", err)
		}
	}

	sinks := buildSinks(logger, historyRepo, influx, doorBridge)
	if err := buildDoors(cfg, registry, sinks, logger); err != nil {
		return fmt.Errorf("build doors: %w", err)
	}

	initializeDoors(registry, logger)

	// Doors lock on the way out, after the API and bridge stop feeding
	// them commands but while MQTT and the database are still up so the
	// final transitions are published and audited.
	defer registry.ShutdownAll()

	if doorBridge != nil {
		if startErr := doorBridge.Start(ctx); startErr != nil {
			return fmt.Errorf("start MQTT bridge: %w", startErr)
		}
		defer func() {
			logger.Info("stopping MQTT bridge")
			doorBridge.Stop()
		}()
		logger.Info("MQTT bridge started")
	}

	apiServer, err := api.New(api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Security: cfg.Security,
		Logger:   logger,
		Registry: registry,
		History:  historyRepo,
		Influx:   influx,
		MQTT:     broker,
		DB:       db,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("build API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("start API server: %w", err)
	}
	defer closeOnExit(logger, "API server", apiServer.Close)
	logger.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	// One full health pass before declaring the service up; a broker or
	// database that died between connect and here fails startup.
	if err := healthCheck(ctx, db, broker, influx); err != nil {
		return fmt.Errorf("startup health check: %w", err)
	}
	logger.Info("startup health checks passed")

	if retention := cfg.Database.HistoryRetention(); retention > 0 {
		go pruneHistoryLoop(ctx, historyRepo, retention, logger)
	}
	go healthLoop(ctx, db, broker, influx, logger)

	logger.Info("startup complete, awaiting shutdown signal")

	<-ctx.Done()

	logger.Info("shutdown signal received, stopping service")

	// The defer stack unwinds in reverse: API server, bridge, door
	// shutdown (close and lock), InfluxDB, MQTT, database.

	logger.Info("Door Core stopped")
	return nil
}

// resolveConfigPath resolves the config file location. The --config flag
// wins, then the DOORCORE_CONFIG environment variable, then the
// built-in default.
func resolveConfigPath() string {
	if *configFlag != "" {
		return *configFlag
	}
	if path := os.Getenv("DOORCORE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// closeOnExit closes one component during the shutdown unwind and
// logs the outcome.
func closeOnExit(logger *logging.Logger, component string, closeFn func() error) {
	logger.Info("closing " + component)
	if err := closeFn(); err != nil {
		logger.Error("close failed", "component", component, "error", err)
	}
}

// buildSinks assembles the event sinks attached to every door controller:
// structured log lines, the SQLite audit trail, InfluxDB telemetry and
// the MQTT bridge. Optional sinks are skipped when their client is nil.
func buildSinks(logger *logging.Logger, repo door.HistoryRepository, influx *influxdb.Client, doorBridge *bridge.Bridge) []door.Sink {
	historySink := door.NewHistorySink(repo)
	historySink.SetLogger(logger)

	sinks := []door.Sink{
		door.NewLogSink(logger),
		historySink,
	}
	if influx != nil {
		sinks = append(sinks, &telemetrySink{influx: influx})
	}
	if doorBridge != nil {
		sinks = append(sinks, doorBridge)
	}
	return sinks
}

// buildDoors constructs one controller per configured door with its own
// servo and ram, attaches the sinks and registers it. Actuator names
// carry the door ID so hardware log lines are attributable.
func buildDoors(cfg *config.Config, registry *door.Registry, sinks []door.Sink, logger *logging.Logger) error {
	for _, dc := range cfg.Doors {
		servo := actuator.NewServo("LockServo_" + dc.ID)
		servo.SetLogger(logger)

		ram := actuator.NewRam("DoorActuator_"+dc.ID, dc.Travel)
		ram.SetLogger(logger)
		if err := ram.SetSpeed(dc.Speed); err != nil {
			return fmt.Errorf("door %s: %w", dc.ID, err)
		}

		ctrl := door.New(door.Config{
			ID:       dc.ID,
			Label:    dc.Label,
			Location: dc.Location,
		}, servo, ram)
		for _, s := range sinks {
			ctrl.AddSink(s)
		}

		if err := registry.Add(ctrl); err != nil {
			return fmt.Errorf("register door %s: %w", dc.ID, err)
		}
	}
	return nil
}

// initializeDoors homes every registered door. A door whose hardware
// faults during homing stays registered in its error state so it can be
// diagnosed and recovered over the API; startup continues.
func initializeDoors(registry *door.Registry, logger *logging.Logger) {
	doors := registry.List()
	ready := 0
	for _, ctrl := range doors {
		if err := ctrl.Initialize(); err != nil {
			logger.Error("door initialization failed", "door_id", ctrl.ID(), "error", err)
			continue
		}
		ready++
	}
	logger.Info("doors initialised", "total", len(doors), "ready", ready)
}

// healthCheck runs every infrastructure health probe, skipping clients
// that are disabled (nil). Returns the first failure.
func healthCheck(ctx context.Context, db *database.DB, broker *mqtt.Client, influx *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if broker != nil {
		if err := broker.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influx != nil {
		if err := influx.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// healthLoop re-runs the infrastructure health check periodically and
// logs degradation. The MQTT and InfluxDB clients reconnect on their
// own; this loop only surfaces the condition.
func healthLoop(ctx context.Context, db *database.DB, broker *mqtt.Client, influx *influxdb.Client, logger *logging.Logger) {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := healthCheck(ctx, db, broker, influx); err != nil {
				logger.Warn("periodic health check failed", "error", err)
			}
		}
	}
}

// pruneHistoryLoop deletes transition records older than the retention
// window, once at startup and then periodically.
func pruneHistoryLoop(ctx context.Context, repo door.HistoryRepository, retention time.Duration, logger *logging.Logger) {
	prune := func() {
		pruneCtx, cancel := context.WithTimeout(ctx, pruneTimeout)
		defer cancel()

		removed, err := repo.Prune(pruneCtx, retention)
		if err != nil {
			logger.Error("pruning door history", "error", err)
			return
		}
		if removed > 0 {
			logger.Info("pruned door history", "removed", removed, "retention", retention.String())
		}
	}

	prune()

	ticker := time.NewTicker(prunePollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune()
		}
	}
}

// telemetrySink forwards controller events to InfluxDB. The client
// batches writes asynchronously, so Emit returns immediately and never
// blocks a door operation.
type telemetrySink struct {
	influx *influxdb.Client
}

// Emit implements door.Sink.
func (s *telemetrySink) Emit(ev door.Event) {
	s.influx.WriteDoorMetric(ev.DoorID, "position", float64(ev.Position))
	s.influx.WriteDoorMetric(ev.DoorID, "angle", float64(ev.Angle))

	// Warnings are rejected commands, not movements
	if ev.Type != door.EventWarning {
		s.influx.WriteTransition(ev.DoorID, ev.From.String(), ev.To.String(), ev.Op)
	}
}
