package mqtt

import "errors"

// Sentinel errors for broker operations. Wrapped errors carry detail;
// match with errors.Is.
var (
	// ErrNotConnected: operation attempted while the broker link is down.
	ErrNotConnected = errors.New("mqtt: not connected to broker")

	// ErrConnectionFailed: the initial dial in Connect did not succeed.
	ErrConnectionFailed = errors.New("mqtt: failed to connect to broker")

	// ErrPublishFailed: the broker did not accept a publish.
	ErrPublishFailed = errors.New("mqtt: failed to publish message")

	// ErrSubscribeFailed: the broker did not accept a subscription.
	ErrSubscribeFailed = errors.New("mqtt: failed to subscribe")

	// ErrUnsubscribeFailed: the broker did not accept an unsubscribe.
	ErrUnsubscribeFailed = errors.New("mqtt: failed to unsubscribe")

	// ErrInvalidQoS: QoS outside 0..2.
	ErrInvalidQoS = errors.New("mqtt: QoS must be 0, 1, or 2")

	// ErrInvalidTopic: empty topic string.
	ErrInvalidTopic = errors.New("mqtt: empty topic")
)
