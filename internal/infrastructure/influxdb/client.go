package influxdb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/nerrad567/door-core/internal/infrastructure/config"
)

const (
	connectTimeout = 10 * time.Second
	pingTimeout    = 5 * time.Second

	// Fallbacks when config leaves batching unset.
	defaultBatchSize    = 100
	defaultFlushSeconds = 10

	// The client API takes the flush interval in milliseconds.
	msPerSecond = 1000
)

// Client wraps the InfluxDB v2 client for Door Core telemetry: ram
// positions, lock angles and transition counts.
//
// Writes go through the non-blocking batched API so the door control
// path never waits on the network; write failures surface through the
// SetOnError callback instead of a return value. Queries are
// synchronous. All methods are safe for concurrent use.
type Client struct {
	raw     influxdb2.Client
	writes  api.WriteAPI
	queries api.QueryAPI
	cfg     config.InfluxDBConfig

	mu    sync.RWMutex
	up    bool
	errFn func(err error)
}

// batchOptions translates the YAML batching knobs into client options,
// substituting defaults for unset values.
func batchOptions(cfg config.InfluxDBConfig) *influxdb2.Options {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	flush := cfg.FlushInterval
	if flush <= 0 {
		flush = defaultFlushSeconds
	}

	// #nosec G115 -- both values forced positive above
	return influxdb2.DefaultOptions().
		SetBatchSize(uint(batch)).
		SetFlushInterval(uint(flush) * msPerSecond)
}

// ping checks that the server answers and reports healthy within
// limit, regardless of any deadline already on ctx.
func ping(ctx context.Context, client influxdb2.Client, limit time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	ok, err := client.Ping(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("server not healthy")
	}
	return nil
}

// Connect builds a client for the configured InfluxDB server and
// verifies it with a ping. Returns ErrDisabled when the influxdb
// section of config.yaml is switched off, which callers treat as "run
// without telemetry".
func Connect(cfg config.InfluxDBConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, batchOptions(cfg))
	if err := ping(context.Background(), client, connectTimeout); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	c := &Client{
		raw:     client,
		writes:  client.WriteAPI(cfg.Org, cfg.Bucket),
		queries: client.QueryAPI(cfg.Org),
		cfg:     cfg,
		up:      true,
	}

	go c.forwardWriteErrors(c.writes.Errors())

	return c, nil
}

// forwardWriteErrors drains the async write error channel into the
// registered callback. The channel closes with the client.
func (c *Client) forwardWriteErrors(errs <-chan error) {
	for err := range errs {
		c.mu.RLock()
		cb := c.errFn
		c.mu.RUnlock()

		if cb != nil {
			cb(err)
		}
	}
}

// Close flushes buffered points and shuts the client down. Safe on a
// client that never connected.
func (c *Client) Close() error {
	if c.raw == nil {
		return nil
	}

	c.mu.Lock()
	c.up = false
	c.mu.Unlock()

	c.writes.Flush()
	c.raw.Close()

	return nil
}

// HealthCheck actively pings the server, bounding the wait even when
// the caller passes an open-ended context.
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	if err := ping(ctx, c.raw, pingTimeout); err != nil {
		return fmt.Errorf("influxdb health check: %w", err)
	}
	return nil
}

// IsConnected returns the last known connection state. HealthCheck does
// an active ping.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.up
}

// SetOnError registers a callback for asynchronous write failures.
// Without one, failed batches are dropped silently.
func (c *Client) SetOnError(fn func(err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errFn = fn
}

// Flush blocks until buffered points are written. Used before shutdown
// and in tests; a no-op once the client is closed.
func (c *Client) Flush() {
	if c.writes == nil || !c.IsConnected() {
		return
	}
	c.writes.Flush()
}
