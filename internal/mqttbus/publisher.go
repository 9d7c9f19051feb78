// Package mqttbus connects the alert engine to the vehicle-facing MQTT
// broker: detections arrive from the ML inference process, alert broadcasts
// go out to live dashboards.
package mqttbus

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Options configures the MQTT connection.
type Options struct {
	Broker   string
	ClientID string
	Username string
	Password string
}

// newClient builds a connected paho client with auto-reconnect.
func newClient(opts Options, suffix string) (mqtt.Client, error) {
	clientOpts := mqtt.NewClientOptions()
	clientOpts.AddBroker(opts.Broker)
	clientOpts.SetClientID(opts.ClientID + suffix)
	clientOpts.SetUsername(opts.Username)
	clientOpts.SetPassword(opts.Password)
	clientOpts.SetAutoReconnect(true)
	clientOpts.SetKeepAlive(60 * time.Second)
	clientOpts.SetPingTimeout(10 * time.Second)
	clientOpts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Printf("MQTT connection lost: %v", err)
	})

	client := mqtt.NewClient(clientOpts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	log.Printf("Connected to MQTT broker: %s", opts.Broker)
	return client, nil
}

// Publisher publishes alert broadcasts over MQTT.
type Publisher struct {
	client mqtt.Client
}

// NewPublisher connects a publish-only MQTT client.
func NewPublisher(opts Options) (*Publisher, error) {
	client, err := newClient(opts, "-pub")
	if err != nil {
		return nil, err
	}
	return &Publisher{client: client}, nil
}

// Publish marshals the payload as JSON and publishes it at QoS 1.
func (p *Publisher) Publish(topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for %s: %w", topic, err)
	}

	token := p.client.Publish(topic, 1, false, data)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, token.Error())
	}

	log.Printf("Published alert broadcast to topic: %s", topic)
	return nil
}

// Close disconnects the MQTT client.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
	log.Printf("MQTT publisher disconnected")
}
