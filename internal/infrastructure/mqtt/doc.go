// Package mqtt connects Door Core to the Mosquitto broker.
//
// The broker is Door Core's integration bus. Building controllers, wall
// panels and dashboards publish door commands and get acknowledgements,
// retained state and live events back, without ever talking to the
// service directly:
//
//	Building Controller ↔ MQTT Broker ↔ Door Core
//
// The client wraps paho.mqtt.golang with the behavior the service
// needs: a connect-time Last Will so an unexpected death flips the
// retained system status to offline, automatic reconnect with
// exponential backoff between the configured delays, subscriptions that
// are tracked and silently re-established on every reconnect, and panic
// containment around message handlers.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Commands for every door
//	err = client.Subscribe(mqtt.Topics{}.DoorCommands(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Retained state for one door
//	client.PublishRetained(mqtt.Topics{}.DoorState("front"), payload)
//
// # Security
//
// Production deployments run with TLS and broker credentials
// (cfg.Broker.TLS plus username/password checked against the broker
// ACL); anonymous plaintext is for local development only. Payloads
// carry no encryption of their own beyond the transport.
package mqtt
