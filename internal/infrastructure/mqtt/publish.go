package mqtt

import (
	"fmt"
)

// maxPayloadBytes caps outbound messages at 1MB, in line with common
// broker defaults. Door Core payloads are a few hundred bytes; anything
// near this limit is a bug upstream.
const maxPayloadBytes = 1 << 20

// Publish sends payload to topic and waits for broker acknowledgement.
//
// retained should be true for state topics, where a late subscriber
// wants the current value immediately, and false for commands, events
// and acks, which are only meaningful at the moment they happen.
//
// Returns ErrInvalidTopic, ErrInvalidQoS or ErrNotConnected for bad
// inputs, and an error wrapping ErrPublishFailed when the broker does
// not acknowledge in time.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadBytes {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes",
			ErrPublishFailed, len(payload), maxPayloadBytes)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	tok := c.conn.Publish(topic, qos, retained, payload)
	return await(tok, ackTimeout, ErrPublishFailed)
}

// PublishString publishes a string payload.
func (c *Client) PublishString(topic string, payload string, qos byte, retained bool) error {
	return c.Publish(topic, []byte(payload), qos, retained)
}

// PublishRetained publishes a retained message at the configured
// default QoS. Meant for state topics.
func (c *Client) PublishRetained(topic string, payload []byte) error {
	return c.Publish(topic, payload, byte(c.cfg.QoS), true)
}
