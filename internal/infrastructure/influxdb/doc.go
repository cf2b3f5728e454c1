// Package influxdb stores Door Core telemetry in InfluxDB v2.
//
// Two measurement families are written: door_metrics carries one sample
// per ram position or lock angle report, tagged by door and metric
// name; door_transitions carries one counted row per state change. The
// event sink in cmd/doorcore feeds both, and the API's metrics endpoint
// reads door_metrics back through QueryDoorMetric as windowed means.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry switched off; the service runs without it
//	}
//	defer client.Close()
//
//	client.WriteDoorMetric("front", "position", 100)
//
//	points, err := client.QueryDoorMetric(ctx, "front", "position",
//	    time.Now().Add(-time.Hour), time.Minute)
//
// # Write path
//
// Writes ride the client library's batched, non-blocking API, sized by
// batch_size and flush_interval in config.yaml, so recording a sample
// never stalls a door operation. A failed batch is reported through the
// SetOnError callback rather than a return value. Queries and health
// checks are synchronous. All methods are safe for concurrent use.
package influxdb
