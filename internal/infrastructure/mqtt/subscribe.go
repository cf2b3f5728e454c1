package mqtt

import (
	"fmt"
)

// Subscribe registers handler for messages matching topic and waits for
// the broker to confirm the subscription.
//
// topic may use MQTT wildcards: "doorcore/command/door/+" catches the
// command topic of every door, "doorcore/#" everything Door Core. The
// handler runs on paho's goroutines with panic recovery; see
// MessageHandler for its obligations.
//
// The subscription is tracked and silently re-established whenever the
// broker connection comes back, so callers subscribe exactly once.
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if handler == nil {
		return fmt.Errorf("%w: nil handler", ErrSubscribeFailed)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	// Track first so a reconnect racing this call still restores the
	// subscription. Untracked again if the broker refuses it.
	c.subsMu.Lock()
	c.subs[topic] = sub{topic: topic, qos: qos, handler: handler}
	c.subsMu.Unlock()

	tok := c.conn.Subscribe(topic, qos, c.wrapHandler(handler))
	if err := await(tok, ackTimeout, ErrSubscribeFailed); err != nil {
		c.forget(topic)
		return err
	}

	return nil
}

// Unsubscribe stops delivery for topic and drops it from reconnect
// tracking. Messages already in flight may still reach the handler.
func (c *Client) Unsubscribe(topic string) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.forget(topic)

	return await(c.conn.Unsubscribe(topic), ackTimeout, ErrUnsubscribeFailed)
}

// forget removes topic from reconnect tracking.
func (c *Client) forget(topic string) {
	c.subsMu.Lock()
	delete(c.subs, topic)
	c.subsMu.Unlock()
}

// SubscriptionCount returns the number of tracked subscriptions.
func (c *Client) SubscriptionCount() int {
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	return len(c.subs)
}

// HasSubscription reports whether topic is tracked. Exact string match
// only; no wildcard expansion.
func (c *Client) HasSubscription(topic string) bool {
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	_, ok := c.subs[topic]
	return ok
}
