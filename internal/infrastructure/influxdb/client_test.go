package influxdb_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/door-core/internal/infrastructure/config"
	"github.com/nerrad567/door-core/internal/infrastructure/influxdb"
)

// devServerConfig points at a local dev InfluxDB, with a short flush
// interval so writes land quickly.
func devServerConfig() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           "http://127.0.0.1:8086",
		Token:         "doorcore-dev-token",
		Org:           "doorcore",
		Bucket:        "door-metrics",
		BatchSize:     50,
		FlushInterval: 1,
	}
}

// skipWithoutServer bails out unless a server is reachable or the run
// was explicitly requested via RUN_INTEGRATION.
func skipWithoutServer(t *testing.T) {
	t.Helper()
	if os.Getenv("RUN_INTEGRATION") != "" {
		return
	}
	client, err := influxdb.Connect(devServerConfig())
	if err != nil {
		t.Skip("no InfluxDB on 127.0.0.1:8086")
	}
	client.Close()
}

// connectTestClient connects to the dev server and closes on cleanup.
func connectTestClient(t *testing.T) *influxdb.Client {
	t.Helper()

	client, err := influxdb.Connect(devServerConfig())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

// captureWriteErrors registers an error callback and returns a getter
// for the first asynchronous write error seen.
func captureWriteErrors(client *influxdb.Client) func() error {
	var mu sync.Mutex
	var first error
	client.SetOnError(func(err error) {
		mu.Lock()
		if first == nil {
			first = err
		}
		mu.Unlock()
	})
	return func() error {
		mu.Lock()
		defer mu.Unlock()
		return first
	}
}

// flushAndSettle forces a batch flush and gives the async error channel
// a beat to deliver.
func flushAndSettle(client *influxdb.Client) {
	client.Flush()
	time.Sleep(100 * time.Millisecond)
}

// ─── Connection ────────────────────────────────────────────────────

func TestConnect(t *testing.T) {
	skipWithoutServer(t)

	client := connectTestClient(t)
	if !client.IsConnected() {
		t.Error("client reports disconnected after a successful Connect")
	}
}

func TestConnect_Disabled(t *testing.T) {
	cfg := devServerConfig()
	cfg.Enabled = false

	_, err := influxdb.Connect(cfg)
	if !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	cfg := devServerConfig()
	cfg.URL = "http://127.0.0.1:59999" // nothing listens here

	if _, err := influxdb.Connect(cfg); err == nil {
		t.Fatal("Connect succeeded against a dead port")
	}
}

func TestConnect_DefaultBatchSettings(t *testing.T) {
	skipWithoutServer(t)

	cfg := devServerConfig()
	cfg.BatchSize = 0
	cfg.FlushInterval = 0

	client, err := influxdb.Connect(cfg)
	if err != nil {
		t.Fatalf("Connect with zero batch settings: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	if !client.IsConnected() {
		t.Error("client reports disconnected")
	}
}

// ─── Health ────────────────────────────────────────────────────────

func TestHealthCheck(t *testing.T) {
	skipWithoutServer(t)

	client := connectTestClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck: %v", err)
	}
}

func TestHealthCheck_Cancelled(t *testing.T) {
	skipWithoutServer(t)

	client := connectTestClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := client.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck passed with a cancelled context")
	}
}

// ─── Writes ────────────────────────────────────────────────────────

func TestWriteDoorMetric(t *testing.T) {
	skipWithoutServer(t)

	client := connectTestClient(t)
	firstErr := captureWriteErrors(client)

	client.WriteDoorMetric("test-door-001", "position", 100)
	client.WriteDoorMetric("test-door-001", "angle", 90)
	flushAndSettle(client)

	if err := firstErr(); err != nil {
		t.Errorf("async write error = %v", err)
	}
}

func TestWriteTransition(t *testing.T) {
	skipWithoutServer(t)

	client := connectTestClient(t)
	firstErr := captureWriteErrors(client)

	client.WriteTransition("test-door-002", "opening", "open", "open")
	flushAndSettle(client)

	if err := firstErr(); err != nil {
		t.Errorf("async write error = %v", err)
	}
}

func TestWritePoint(t *testing.T) {
	skipWithoutServer(t)

	client := connectTestClient(t)
	firstErr := captureWriteErrors(client)

	t.Run("current time", func(t *testing.T) {
		client.WritePoint(
			"scratch_metrics",
			map[string]string{"source": "unit-test"},
			map[string]interface{}{"value": 12.5, "count": 3},
		)
	})

	t.Run("explicit time", func(t *testing.T) {
		client.WritePointWithTime(
			"scratch_metrics",
			map[string]string{"source": "unit-test-backdated"},
			map[string]interface{}{"value": 7.25},
			time.Now().Add(-1*time.Hour),
		)
	})

	flushAndSettle(client)

	if err := firstErr(); err != nil {
		t.Errorf("async write error = %v", err)
	}
}

// ─── Queries ───────────────────────────────────────────────────────

func TestQueryDoorMetric_NotConnected(t *testing.T) {
	var client influxdb.Client

	_, err := client.QueryDoorMetric(context.Background(), "front", "position",
		time.Now().Add(-time.Hour), time.Minute)
	if !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("error = %v, want ErrNotConnected", err)
	}
}

func TestQueryDoorMetric_Validation(t *testing.T) {
	skipWithoutServer(t)

	client := connectTestClient(t)
	since := time.Now().Add(-time.Hour)

	tests := []struct {
		name   string
		doorID string
		field  string
		since  time.Time
		window time.Duration
	}{
		{"empty door id", "", "position", since, time.Minute},
		{"empty field", "front", "", since, time.Minute},
		{"quoted door id", `front"`, "position", since, time.Minute},
		{"zero window", "front", "position", since, 0},
		{"negative window", "front", "position", since, -time.Second},
		{"zero since", "front", "position", time.Time{}, time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.QueryDoorMetric(context.Background(), tt.doorID, tt.field, tt.since, tt.window)
			if err == nil {
				t.Error("QueryDoorMetric accepted bad input")
			}
		})
	}
}

func TestQueryDoorMetric_WriteThenRead(t *testing.T) {
	skipWithoutServer(t)

	client := connectTestClient(t)

	client.WriteDoorMetric("query-test-door", "position", 42)
	client.Flush()
	time.Sleep(500 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	points, err := client.QueryDoorMetric(ctx, "query-test-door", "position",
		time.Now().Add(-time.Hour), time.Minute)
	if err != nil {
		t.Fatalf("QueryDoorMetric: %v", err)
	}

	for _, p := range points {
		if p.Time.IsZero() {
			t.Error("point has zero timestamp")
		}
	}
}

// ─── Shutdown ──────────────────────────────────────────────────────

func TestClose(t *testing.T) {
	skipWithoutServer(t)

	client, err := influxdb.Connect(devServerConfig())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	// Buffered points must survive the shutdown flush.
	client.WriteDoorMetric("close-test", "position", 1.0)

	if err := client.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if client.IsConnected() {
		t.Error("client still reports connected after Close")
	}
}
