package influxdb

import "errors"

// Sentinel errors for telemetry operations; match with errors.Is.
var (
	// ErrNotConnected: operation on a closed or never-connected client.
	ErrNotConnected = errors.New("influxdb: client not connected")

	// ErrConnectionFailed: the ping during Connect did not succeed.
	ErrConnectionFailed = errors.New("influxdb: cannot reach server")

	// ErrWriteFailed: a synchronous write path failed. Batched writes
	// report asynchronously through the SetOnError callback instead.
	ErrWriteFailed = errors.New("influxdb: point write failed")

	// ErrQueryFailed: a Flux query could not be executed or parsed.
	ErrQueryFailed = errors.New("influxdb: query failed")

	// ErrDisabled: the influxdb section of config.yaml is switched off.
	ErrDisabled = errors.New("influxdb: telemetry disabled by config")
)
