package influxdb

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// MetricPoint is one aggregated sample returned by QueryDoorMetric.
type MetricPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// QueryDoorMetric runs an aggregate-window query over a door metric field.
//
// It returns the per-window mean of the field's raw samples, oldest first,
// covering the range from since until now. Windows without data are omitted.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - doorID: Door identifier tag to filter on
//   - field: Metric field tag (e.g., "position", "angle")
//   - since: Start of the query range
//   - window: Aggregation window (e.g., time.Minute)
//
// Returns:
//   - []MetricPoint: Aggregated samples, empty when no data in range
//   - error: nil on success, otherwise the query error
func (c *Client) QueryDoorMetric(ctx context.Context, doorID, field string, since time.Time, window time.Duration) ([]MetricPoint, error) {
	if c == nil || !c.IsConnected() {
		return nil, ErrNotConnected
	}
	if err := validateFluxString("door_id", doorID); err != nil {
		return nil, err
	}
	if err := validateFluxString("field", field); err != nil {
		return nil, err
	}
	if window <= 0 {
		return nil, fmt.Errorf("influxdb: window must be positive")
	}
	if since.IsZero() {
		return nil, fmt.Errorf("influxdb: since is required")
	}

	flux := fmt.Sprintf(`from(bucket: %q)
  |> range(start: %s)
  |> filter(fn: (r) => r._measurement == %q)
  |> filter(fn: (r) => r.door_id == %q)
  |> filter(fn: (r) => r.field == %q)
  |> filter(fn: (r) => r._field == "value")
  |> aggregateWindow(every: %ds, fn: mean, createEmpty: false)`,
		c.cfg.Bucket,
		since.UTC().Format(time.RFC3339),
		measurementDoorMetrics,
		doorID,
		field,
		int64(window.Seconds()),
	)

	result, err := c.queries.Query(ctx, flux)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	defer result.Close()

	var points []MetricPoint
	for result.Next() {
		value, ok := result.Record().Value().(float64)
		if !ok {
			continue
		}
		points = append(points, MetricPoint{
			Time:  result.Record().Time(),
			Value: value,
		})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	return points, nil
}

// validateFluxString rejects values that cannot be embedded safely in a
// Flux string literal.
func validateFluxString(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("influxdb: %s is required", name)
	}
	if strings.ContainsAny(value, "\"\\\n") {
		return fmt.Errorf("influxdb: %s contains invalid characters", name)
	}
	return nil
}
