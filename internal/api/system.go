package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemInfo represents the complete system information response.
type SystemInfo struct {
	Timestamp     string          `json:"timestamp"`
	Version       string          `json:"version"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Runtime       RuntimeMetrics  `json:"runtime"`
	WebSocket     WSMetrics       `json:"websocket"`
	MQTT          MQTTMetrics     `json:"mqtt"`
	InfluxDB      InfluxMetrics   `json:"influxdb"`
	Doors         DoorMetrics     `json:"doors"`
	Database      DatabaseMetrics `json:"database"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// MQTTMetrics contains MQTT client statistics.
type MQTTMetrics struct {
	Connected bool `json:"connected"`
}

// InfluxMetrics contains telemetry client statistics.
type InfluxMetrics struct {
	Connected bool `json:"connected"`
}

// DoorMetrics contains door registry statistics.
type DoorMetrics struct {
	Total   int            `json:"total"`
	Ready   int            `json:"ready"`
	ByState map[string]int `json:"by_state"`
}

// DatabaseMetrics contains database connection pool statistics.
type DatabaseMetrics struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

// handleSystemInfo returns runtime, door, and component statistics.
// Admin only: pool stats and goroutine counts are internals.
func (s *Server) handleSystemInfo(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	info := SystemInfo{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		WebSocket: WSMetrics{
			ConnectedClients: s.hub.ClientCount(),
		},
	}

	if s.mqtt != nil {
		info.MQTT = MQTTMetrics{Connected: s.mqtt.IsConnected()}
	}
	if s.influx != nil {
		info.InfluxDB = InfluxMetrics{Connected: s.influx.IsConnected()}
	}

	ctrls := s.registry.List()
	info.Doors = DoorMetrics{
		Total:   len(ctrls),
		ByState: make(map[string]int),
	}
	for _, ctrl := range ctrls {
		info.Doors.ByState[ctrl.State().String()]++
		if ctrl.Ready() {
			info.Doors.Ready++
		}
	}

	if s.db != nil {
		dbStats := s.db.Stats()
		info.Database = DatabaseMetrics{
			OpenConnections: dbStats.OpenConnections,
			InUse:           dbStats.InUse,
			Idle:            dbStats.Idle,
			WaitCount:       dbStats.WaitCount,
		}
	}

	respondJSON(w, http.StatusOK, info)
}
