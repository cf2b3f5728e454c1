package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/door-core/internal/door"
	"github.com/nerrad567/door-core/internal/infrastructure/mqtt"
)

// defaultHealthInterval applies when no reporting interval is configured.
const defaultHealthInterval = 30 * time.Second

// HealthPublisher is the slice of the MQTT client the reporter needs.
type HealthPublisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// StatsSource supplies the operational counters embedded in every health
// message. The bridge implements it.
type StatsSource interface {
	Stats() Statistics
}

// HealthReporterConfig configures a HealthReporter.
type HealthReporterConfig struct {
	// ServiceID identifies the reporting service.
	ServiceID string

	// Version is echoed verbatim in every message.
	Version string

	// Interval between reports. Zero means defaultHealthInterval.
	Interval time.Duration

	// Publisher carries reports to the broker.
	Publisher HealthPublisher

	// Registry is scanned for doors stuck in the error state.
	Registry *door.Registry

	// Stats supplies command and fault counters.
	Stats StatsSource
}

// HealthReporter keeps a retained health message current on the health
// topic, so MQTT consumers can watch the service without polling the
// REST API. Status degrades while the broker link is down or any door
// sits in the error state.
type HealthReporter struct {
	serviceID string
	version   string
	startTime time.Time
	interval  time.Duration

	publisher HealthPublisher
	registry  *door.Registry
	stats     StatsSource

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	logger door.Logger
	logMu  sync.RWMutex
}

// NewHealthReporter builds a reporter. Nothing is published until Start.
func NewHealthReporter(cfg HealthReporterConfig) *HealthReporter {
	interval := cfg.Interval
	if interval == 0 {
		interval = defaultHealthInterval
	}
	return &HealthReporter{
		serviceID: cfg.ServiceID,
		version:   cfg.Version,
		startTime: time.Now(),
		interval:  interval,
		publisher: cfg.Publisher,
		registry:  cfg.Registry,
		stats:     cfg.Stats,
		stop:      make(chan struct{}),
	}
}

// Start launches the reporting loop: one message immediately, then one
// per interval until ctx is cancelled or Stop is called.
func (h *HealthReporter) Start(ctx context.Context) {
	h.wg.Add(1)
	go h.loop(ctx)
}

// Stop ends periodic reporting, waits for the loop to exit, and
// publishes a final "stopping" status. Safe to call more than once.
func (h *HealthReporter) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
		h.wg.Wait()
		h.publish(HealthStopping, "") //nolint:errcheck // broker may already be gone
	})
}

// SetLogger sets the logger for publish-failure reporting.
func (h *HealthReporter) SetLogger(logger door.Logger) {
	h.logMu.Lock()
	defer h.logMu.Unlock()
	h.logger = logger
}

// PublishStarting announces the service before any door is ready.
func (h *HealthReporter) PublishStarting() error {
	return h.publish(HealthStarting, "service starting")
}

// PublishNow evaluates and publishes outside the normal cadence. Used
// after events that change the picture, such as a door fault.
func (h *HealthReporter) PublishNow() error {
	status, reason := h.evaluate()
	return h.publish(status, reason)
}

func (h *HealthReporter) loop(ctx context.Context) {
	defer h.wg.Done()

	if err := h.PublishNow(); err != nil {
		h.logFailure("initial health publish failed", err)
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.stop:
			return
		case <-ticker.C:
			if err := h.PublishNow(); err != nil {
				h.logFailure("health publish failed", err)
			}
		}
	}
}

// evaluate decides the current status. Degraded means the service runs
// but something it depends on is not right.
func (h *HealthReporter) evaluate() (HealthStatus, string) {
	if h.publisher == nil || !h.publisher.IsConnected() {
		return HealthDegraded, "broker disconnected"
	}
	if n := h.erroredDoors(); n > 0 {
		return HealthDegraded, fmt.Sprintf("%d door(s) in error state", n)
	}
	return HealthHealthy, ""
}

// erroredDoors counts doors currently stuck in the error state.
func (h *HealthReporter) erroredDoors() int {
	if h.registry == nil {
		return 0
	}
	n := 0
	for _, ctrl := range h.registry.List() {
		if ctrl.State() == door.StateError {
			n++
		}
	}
	return n
}

// publish assembles one health message and sends it retained at QoS 1.
func (h *HealthReporter) publish(status HealthStatus, reason string) error {
	if h.publisher == nil {
		return nil
	}

	var stats Statistics
	if h.stats != nil {
		stats = h.stats.Stats()
	}
	doors := 0
	if h.registry != nil {
		doors = h.registry.Count()
	}

	msg := NewHealthMessage(h.serviceID, h.version, status, stats, doors, h.startTime)
	msg.Reason = reason

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return h.publisher.Publish(mqtt.Topics{}.DoorHealth(), body, messageQoS, true)
}

func (h *HealthReporter) logFailure(msg string, err error) {
	h.logMu.RLock()
	defer h.logMu.RUnlock()
	if h.logger != nil {
		h.logger.Error(msg, "error", err)
	}
}
