package mqtt

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/door-core/internal/infrastructure/config"
)

const (
	// connectTimeout bounds the initial broker dial.
	connectTimeout = 10 * time.Second

	// ackTimeout bounds waits for publish, subscribe and unsubscribe
	// acknowledgements.
	ackTimeout = 5 * time.Second

	// disconnectQuiesce is the grace period for in-flight messages on
	// disconnect, in milliseconds (paho's unit).
	disconnectQuiesce = 1000

	// keepAliveInterval is the PING interval for dead-link detection.
	keepAliveInterval = 60 * time.Second

	// maxQoS is the highest QoS level MQTT defines.
	maxQoS = 2

	// minTLSVersion floors broker TLS at 1.2.
	minTLSVersion = tls.VersionTLS12
)

// newClientOptions maps the mqtt section of config.yaml onto paho
// options: broker URL, credentials, clean session, auto-reconnect with
// backoff, and TLS when enabled.
func newClientOptions(cfg config.MQTTConfig) *paho.ClientOptions {
	opts := paho.NewClientOptions()

	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port))
	opts.SetClientID(cfg.Broker.ClientID)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	// Clean session: subscriptions are restored from our own tracking,
	// not from broker session state.
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(time.Duration(cfg.Reconnect.InitialDelay) * time.Second)
	opts.SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second)

	opts.SetConnectTimeout(connectTimeout)
	opts.SetKeepAlive(keepAliveInterval)

	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: minTLSVersion})
	}

	return opts
}

// setLastWill registers the Last Will: a retained offline status the
// broker publishes on our behalf if the connection dies without a
// graceful Close. Wall panels and dashboards grey their doors out on
// it. The timestamp is necessarily the connect time, since the broker
// stores the will verbatim.
func setLastWill(opts *paho.ClientOptions, clientID string) {
	opts.SetWill(
		Topics{}.SystemStatus(),
		statusPayload(clientID, "offline", "unexpected_disconnect"),
		1,    // QoS 1: the will must arrive
		true, // retained: late subscribers see it too
	)
}

// statusPayload renders the system status JSON. reason is omitted when
// empty, so online announcements carry no reason field.
func statusPayload(clientID, status, reason string) string {
	p := struct {
		Status    string `json:"status"`
		ClientID  string `json:"client_id"`
		Reason    string `json:"reason,omitempty"`
		Timestamp string `json:"timestamp"`
	}{
		Status:    status,
		ClientID:  clientID,
		Reason:    reason,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	b, err := json.Marshal(p)
	if err != nil {
		// Fixed string fields cannot fail to marshal.
		return `{"status":"` + status + `"}`
	}
	return string(b)
}
