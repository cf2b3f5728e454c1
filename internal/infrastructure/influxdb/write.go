package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names. QueryDoorMetric builds Flux against the
// door_metrics schema, so renames must be mirrored there.
const (
	measurementDoorMetrics = "door_metrics"
	measurementTransitions = "door_transitions"
)

// submit hands one point to the non-blocking write API. Points are
// dropped silently on a closed client; delivery failures surface later
// through the SetOnError callback.
func (c *Client) submit(measurement string, tags map[string]string, fields map[string]interface{}, at time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writes.WritePoint(write.NewPoint(measurement, tags, fields, at))
}

// WriteDoorMetric records one numeric sample for a door. The door and
// metric name travel as tags so Flux filters stay indexed.
//
//	client.WriteDoorMetric("front", "position", 100)
//	client.WriteDoorMetric("front", "angle", 90)
func (c *Client) WriteDoorMetric(doorID string, field string, value float64) {
	c.submit(measurementDoorMetrics,
		map[string]string{"door_id": doorID, "field": field},
		map[string]interface{}{"value": value},
		time.Now(),
	)
}

// WriteTransition records one state transition for rate and count
// queries. Low-cardinality dimensions (door, operation, resulting
// state) are tags; the originating state rides along as a field.
func (c *Client) WriteTransition(doorID string, from, to, op string) {
	c.submit(measurementTransitions,
		map[string]string{"door_id": doorID, "op": op, "to_state": to},
		map[string]interface{}{"from_state": from, "count": int64(1)},
		time.Now(),
	)
}

// WritePoint records an arbitrary measurement stamped with the current
// time. For shapes the door helpers above don't cover.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	c.submit(measurement, tags, fields, time.Now())
}

// WritePointWithTime is WritePoint with an explicit timestamp, for
// backfill and replayed data.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	c.submit(measurement, tags, fields, timestamp)
}
