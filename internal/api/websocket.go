package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/door-core/internal/auth"
	"github.com/nerrad567/door-core/internal/infrastructure/config"
	"github.com/nerrad567/door-core/internal/infrastructure/logging"
	"github.com/nerrad567/door-core/internal/infrastructure/mqtt"
)

// WebSocket message types and channels.
const (
	WSTypeSubscribe   = "subscribe"
	WSTypeUnsubscribe = "unsubscribe"
	WSTypePing        = "ping"
	WSTypePong        = "pong"
	WSTypeEvent       = "event"
	WSTypeResponse    = "response"
	WSTypeError       = "error"

	// Channels a client can subscribe to. State carries the retained
	// door snapshots, events the transition/fault stream.
	WSChannelDoorState = "door.state_changed"
	WSChannelDoorEvent = "door.event"

	// wsSendBufferSize is the per-client outbound queue. A client that
	// falls this far behind starts losing messages rather than stalling
	// the broadcast path.
	wsSendBufferSize = 128

	// wsIOBufferSize sizes the upgrader's read and write buffers.
	wsIOBufferSize = 1024
)

// WSMessage is the frame format in both directions.
type WSMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// WSSubscribePayload lists channels for subscribe/unsubscribe requests.
type WSSubscribePayload struct {
	Channels []string `json:"channels"`
}

// Hub tracks connected WebSocket clients and fans broadcasts out to
// the subscribed ones.
type Hub struct {
	cfg    config.WebSocketConfig
	logger *logging.Logger

	mu    sync.RWMutex
	conns map[*WSClient]struct{}
}

// WSClient is one WebSocket connection with its subscription set and
// the identity its ticket carried.
type WSClient struct {
	hub           *Hub
	conn          *websocket.Conn
	send          chan []byte
	subscriptions map[string]struct{}
	mu            sync.RWMutex
	username      string
	role          auth.Role
}

// errInvalidPayload is sent back to a client whose subscription frame
// carries a payload that does not decode into a channel list.
var errInvalidPayload = errors.New("invalid payload format")

// Origin enforcement happens in the CORS middleware, so the upgrader
// accepts any origin here.
var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  wsIOBufferSize,
	WriteBufferSize: wsIOBufferSize,
	CheckOrigin:     func(_ *http.Request) bool { return true },
}

// wsTimestamp renders frame timestamps in seconds-precision UTC.
func wsTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// NewHub creates an empty hub. cfg tunes the ping cadence and frame
// limits of every connection the hub accepts.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:    cfg,
		logger: logger,
		conns:  make(map[*WSClient]struct{}),
	}
}

// Run blocks until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.disconnectAll()
}

// Register adds a client to the broadcast set.
func (h *Hub) Register(ws *WSClient) {
	h.mu.Lock()
	h.conns[ws] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("websocket client connected",
		"username", ws.username,
		"clients", h.ClientCount(),
	)
}

// Unregister drops a client. Whichever goroutine actually removes the
// client from the map is the one that closes its send channel; both
// the read pump and shutdown can race here.
func (h *Hub) Unregister(ws *WSClient) {
	h.mu.Lock()
	_, tracked := h.conns[ws]
	delete(h.conns, ws)
	h.mu.Unlock()

	if tracked {
		close(ws.send)
	}
	h.logger.Debug("websocket client disconnected",
		"username", ws.username,
		"clients", h.ClientCount(),
	)
}

// Broadcast delivers payload to every client subscribed to channel.
func (h *Hub) Broadcast(channel string, payload any) {
	frame, err := json.Marshal(WSMessage{
		Type:      WSTypeEvent,
		EventType: channel,
		Timestamp: wsTimestamp(),
		Payload:   payload,
	})
	if err != nil {
		h.logger.Error("broadcast marshal failed", "error", err)
		return
	}

	if n := h.deliver(channel, frame); n > 0 {
		h.logger.Debug("broadcast sent", "channel", channel, "recipients", n)
	}
}

// deliver snapshots the client set under the read lock, then fans data
// out to subscribers without holding it, so one slow client cannot
// stall the hub. Returns the number of recipients.
func (h *Hub) deliver(channel string, frame []byte) int {
	h.mu.RLock()
	targets := make([]*WSClient, 0, len(h.conns))
	for ws := range h.conns {
		targets = append(targets, ws)
	}
	h.mu.RUnlock()

	n := 0
	for _, ws := range targets {
		if ws.isSubscribed(channel) {
			ws.trySend(frame)
			n++
		}
	}
	return n
}

// ClientCount reports how many clients are connected.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// disconnectAll closes every client's send channel and connection so
// the write pumps drain out during shutdown.
func (h *Hub) disconnectAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ws := range h.conns {
		close(ws.send)
		if ws.conn != nil {
			ws.conn.Close()
		}
		delete(h.conns, ws)
	}
}

// subscribeDoorTopics relays the bridge's MQTT door topics onto the
// WebSocket channels.
//
// The bridge publishes canonical state to doorcore/state/door/{id} and
// events to doorcore/event/door/{id}; relaying them here means a
// dashboard holds one WebSocket instead of an MQTT session per browser.
// Without MQTT the hub still accepts connections but carries no live
// traffic.
func (s *Server) subscribeDoorTopics() error {
	if s.mqtt == nil {
		return nil
	}

	topics := mqtt.Topics{}

	relay := func(channel string) mqtt.MessageHandler {
		return func(topic string, payload []byte) error {
			if s.hub == nil {
				return nil
			}

			var msg map[string]any
			if err := json.Unmarshal(payload, &msg); err != nil {
				s.logger.Warn("failed to parse message for WebSocket broadcast",
					"topic", topic,
					"error", err,
				)
				return nil
			}

			s.hub.Broadcast(channel, msg)
			return nil
		}
	}

	s.logger.Info("subscribing to door topics for WebSocket relay",
		"state_topic", topics.AllDoorStates(),
		"event_topic", topics.AllDoorEvents(),
	)

	if err := s.mqtt.Subscribe(topics.AllDoorStates(), 1, relay(WSChannelDoorState)); err != nil {
		return err
	}
	return s.mqtt.Subscribe(topics.AllDoorEvents(), 1, relay(WSChannelDoorEvent))
}

// handleWebSocket upgrades the connection. Browsers cannot set an
// Authorization header on an upgrade request, so authentication rides
// in a single-use ticket minted by POST /auth/ws-ticket.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ticket := r.URL.Query().Get("ticket")
	if ticket == "" {
		respondUnauthorized(w, "missing ticket query parameter")
		return
	}
	grant, ok := s.tickets.consume(ticket)
	if !ok {
		respondUnauthorized(w, "unknown or expired ticket")
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket handshake failed", "error", err)
		return
	}

	ws := &WSClient{
		hub:           s.hub,
		conn:          conn,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: make(map[string]struct{}),
		username:      grant.username,
		role:          grant.role,
	}

	s.hub.Register(ws)

	go ws.writePump()
	go ws.readPump()
}

// keepAliveWindow is how long the connection may stay silent before the
// read side gives up on it: one ping interval plus the pong grace.
func (c *WSClient) keepAliveWindow() time.Duration {
	cfg := c.hub.cfg
	return time.Duration(cfg.PingInterval+cfg.PongTimeout) * time.Second
}

// readPump consumes inbound frames until the connection dies, then
// unregisters the client.
func (c *WSClient) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	window := c.keepAliveWindow()
	c.conn.SetReadLimit(int64(c.hub.cfg.MaxMessageSize))
	//nolint:errcheck // best-effort deadline on connection setup
	c.conn.SetReadDeadline(time.Now().Add(window))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(window))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			c.logDisconnect(err)
			return
		}
		// Application traffic also refreshes the deadline; some browsers
		// never answer protocol pings.
		//nolint:errcheck // best-effort deadline reset
		c.conn.SetReadDeadline(time.Now().Add(window))
		c.handleMessage(frame)
	}
}

// logDisconnect records why the read loop ended, at warn level only
// for abnormal closures.
func (c *WSClient) logDisconnect(err error) {
	if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
		c.hub.logger.Warn("websocket read error", "error", err)
		return
	}
	c.hub.logger.Debug("websocket closed", "error", err)
}

// writePump drains the send queue and keeps the connection alive with
// protocol pings.
func (c *WSClient) writePump() {
	ticker := time.NewTicker(time.Duration(c.hub.cfg.PingInterval) * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	limit := time.Duration(c.hub.cfg.PongTimeout) * time.Second

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				// Hub closed the channel during shutdown or unregister.
				//nolint:errcheck // best-effort close frame
				c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), limit)
				return
			}
			if c.write(websocket.TextMessage, frame, limit) != nil {
				return
			}
		case <-ticker.C:
			if c.write(websocket.PingMessage, nil, limit) != nil {
				return
			}
		}
	}
}

// write sends one frame under a deadline.
func (c *WSClient) write(msgType int, frame []byte, limit time.Duration) error {
	//nolint:errcheck // a failed deadline surfaces as a write error anyway
	c.conn.SetWriteDeadline(time.Now().Add(limit))
	return c.conn.WriteMessage(msgType, frame)
}

// handleMessage dispatches one inbound frame.
func (c *WSClient) handleMessage(frame []byte) {
	var msg WSMessage
	if err := json.Unmarshal(frame, &msg); err != nil {
		c.sendError("", "malformed JSON frame")
		return
	}

	switch msg.Type {
	case WSTypeSubscribe:
		c.updateSubscriptions(msg, true)
	case WSTypeUnsubscribe:
		c.updateSubscriptions(msg, false)
	case WSTypePing:
		c.sendResponse(msg.ID, WSTypePong, nil)
	default:
		c.sendError(msg.ID, "unsupported message type: "+msg.Type)
	}
}

// updateSubscriptions applies a subscribe or unsubscribe request and
// acknowledges it with the affected channel list.
func (c *WSClient) updateSubscriptions(msg WSMessage, subscribe bool) {
	channels, err := channelsFrom(msg)
	if err != nil {
		c.sendError(msg.ID, err.Error())
		return
	}

	c.mu.Lock()
	for _, ch := range channels {
		if subscribe {
			c.subscriptions[ch] = struct{}{}
		} else {
			delete(c.subscriptions, ch)
		}
	}
	c.mu.Unlock()

	if subscribe {
		c.hub.logger.Info("websocket client subscribed",
			"username", c.username,
			"channels", channels,
		)
		c.sendResponse(msg.ID, WSTypeResponse, map[string]any{"subscribed": channels})
		return
	}
	c.sendResponse(msg.ID, WSTypeResponse, map[string]any{"unsubscribed": channels})
}

// channelsFrom re-decodes the loosely-typed payload of a subscription
// frame into its channel list.
func channelsFrom(msg WSMessage) ([]string, error) {
	raw, err := json.Marshal(msg.Payload)
	if err != nil {
		return nil, errInvalidPayload
	}

	var req WSSubscribePayload
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, errInvalidPayload
	}
	return req.Channels, nil
}

// trySend queues data for the client without ever blocking.
func (c *WSClient) trySend(frame []byte) {
	// Send on a just-closed channel panics; the client is gone, absorb it.
	defer func() { _ = recover() }()

	select {
	case c.send <- frame:
	default:
		// backlogged client loses this frame
	}
}

func (c *WSClient) isSubscribed(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subscriptions[channel]
	return ok
}

// sendResponse queues a control-channel reply via trySend, so replies
// are safe during shutdown too.
func (c *WSClient) sendResponse(id, msgType string, payload any) {
	frame, err := json.Marshal(WSMessage{
		Type:      msgType,
		ID:        id,
		Timestamp: wsTimestamp(),
		Payload:   payload,
	})
	if err != nil {
		return
	}
	c.trySend(frame)
}

func (c *WSClient) sendError(id, text string) {
	c.sendResponse(id, WSTypeError, map[string]string{"message": text})
}
