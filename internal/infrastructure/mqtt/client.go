package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/door-core/internal/infrastructure/config"
)

// Client wraps paho.mqtt.golang for Door Core's broker traffic: door
// commands in, state/event/ack publications out, plus the retained
// online/offline status other services key off.
//
// All methods are safe for concurrent use. Subscriptions are tracked so
// they survive the broker connection dropping and coming back.
type Client struct {
	conn paho.Client
	cfg  config.MQTTConfig

	// mu guards connected, the connection callbacks and the logger.
	mu           sync.RWMutex
	connected    bool
	onConnect    func()
	onDisconnect func(err error)
	logger       Logger

	// subsMu guards subs, the topics to restore on reconnect.
	subsMu sync.RWMutex
	subs   map[string]sub
}

// Logger is the slice of logging.Logger the client needs for handler
// failures. Satisfied by *logging.Logger and *slog.Logger alike.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// sub remembers enough to re-subscribe after a reconnect.
type sub struct {
	topic   string
	qos     byte
	handler MessageHandler
}

// MessageHandler receives inbound messages. Paho invokes handlers on
// its own goroutines; a returned error is logged but never nacks the
// message. Handlers must not block for long.
type MessageHandler func(topic string, payload []byte) error

// Connect dials the broker described by cfg and returns a ready client.
//
// The connection carries a retained Last Will on the system status
// topic so subscribers learn about a crash, auto-reconnects with
// backoff, and announces itself as online once up. Connect fails if the
// broker cannot be reached within the connect timeout.
func Connect(cfg config.MQTTConfig) (*Client, error) {
	opts := newClientOptions(cfg)
	setLastWill(opts, cfg.Broker.ClientID)

	c := &Client{
		cfg:  cfg,
		subs: make(map[string]sub),
	}

	opts.SetOnConnectHandler(func(_ paho.Client) {
		c.brokerConnected()
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		c.brokerLost(err)
	})

	c.conn = paho.NewClient(opts)
	if err := await(c.conn.Connect(), connectTimeout, ErrConnectionFailed); err != nil {
		return nil, err
	}

	// Paho fires the OnConnect handler asynchronously; mark connected
	// here too so IsConnected is true the moment Connect returns.
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()

	return c, nil
}

// await blocks until the broker acknowledges token or limit elapses,
// wrapping any failure in sentinel.
func await(token paho.Token, limit time.Duration, sentinel error) error {
	if !token.WaitTimeout(limit) {
		return fmt.Errorf("%w: timeout after %v", sentinel, limit)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	return nil
}

// brokerConnected runs on every (re)connect: restore subscriptions,
// announce online, then hand off to the registered callback.
func (c *Client) brokerConnected() {
	c.mu.Lock()
	c.connected = true
	cb := c.onConnect
	c.mu.Unlock()

	c.resubscribeAll()
	c.announceOnline()

	if cb != nil {
		cb()
	}
}

func (c *Client) brokerLost(err error) {
	c.mu.Lock()
	c.connected = false
	cb := c.onDisconnect
	c.mu.Unlock()

	if cb != nil {
		cb(err)
	}
}

// resubscribeAll replays the tracked subscriptions against the fresh
// session. Errors are swallowed; paho retries the connection and we
// will be called again.
func (c *Client) resubscribeAll() {
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()

	for _, s := range c.subs {
		c.conn.Subscribe(s.topic, s.qos, c.wrapHandler(s.handler))
	}
}

// announceOnline publishes the retained online status, replacing
// whatever the previous will or shutdown left on the topic.
func (c *Client) announceOnline() {
	payload := statusPayload(c.cfg.Broker.ClientID, "online", "")
	c.conn.Publish(Topics{}.SystemStatus(), byte(c.cfg.QoS), true, payload)
}

// Close publishes a graceful offline status, waits briefly for
// in-flight messages and disconnects. Closing a client that never
// connected is a no-op.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}

	if c.IsConnected() {
		// Distinguishable from the LWT, which says unexpected_disconnect.
		payload := statusPayload(c.cfg.Broker.ClientID, "offline", "graceful_shutdown")
		tok := c.conn.Publish(Topics{}.SystemStatus(), byte(c.cfg.QoS), true, payload)
		tok.WaitTimeout(ackTimeout)
	}

	c.conn.Disconnect(disconnectQuiesce)

	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()

	return nil
}

// HealthCheck reports whether the broker connection is up.
func (c *Client) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("mqtt health check cancelled: %w", ctx.Err())
	default:
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// IsConnected returns the last known connection state, cross-checked
// against paho's own view.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected && c.conn.IsConnected()
}

// SetOnConnect registers a callback for initial connect and every
// reconnect.
func (c *Client) SetOnConnect(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onConnect = fn
}

// SetOnDisconnect registers a callback for lost connections. The error
// describes why the connection dropped.
func (c *Client) SetOnDisconnect(fn func(err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDisconnect = fn
}

// SetLogger wires a logger for handler errors and recovered panics.
// Without one those failures are dropped silently.
func (c *Client) SetLogger(logger Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = logger
}

func (c *Client) currentLogger() Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.logger
}

// wrapHandler adapts a MessageHandler to paho's signature, containing
// panics so one bad payload cannot take down the message pump.
func (c *Client) wrapHandler(handler MessageHandler) paho.MessageHandler {
	return func(_ paho.Client, msg paho.Message) {
		logger := c.currentLogger()

		defer func() {
			if r := recover(); r != nil && logger != nil {
				logger.Error("mqtt handler panicked", "topic", msg.Topic(), "panic", r)
			}
		}()

		if err := handler(msg.Topic(), msg.Payload()); err != nil && logger != nil {
			logger.Warn("mqtt handler error", "topic", msg.Topic(), "error", err)
		}
	}
}
