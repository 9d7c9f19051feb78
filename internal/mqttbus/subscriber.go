package mqttbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/janiceparkk/281-SmartCar-sub000/internal/models"
)

// DetectionProcessor handles an arbitrated detection message end to end.
type DetectionProcessor interface {
	HandleDetection(ctx context.Context, msg *models.DetectionMessage) (*models.AlertRecord, error)
}

// Subscriber consumes detection messages published by the ML inference
// process on carAlert/<carID>/detection topics.
type Subscriber struct {
	client         mqtt.Client
	detectionTopic string
	processor      DetectionProcessor
}

// NewSubscriber connects a subscribe-only MQTT client. detectionTopic is a
// wildcard pattern like "carAlert/+/detection".
func NewSubscriber(opts Options, detectionTopic string, processor DetectionProcessor) (*Subscriber, error) {
	client, err := newClient(opts, "-sub")
	if err != nil {
		return nil, err
	}

	return &Subscriber{
		client:         client,
		detectionTopic: detectionTopic,
		processor:      processor,
	}, nil
}

// Start subscribes to the detection topic.
func (s *Subscriber) Start() error {
	token := s.client.Subscribe(s.detectionTopic, 1, s.handleDetectionMessage)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", s.detectionTopic, token.Error())
	}

	log.Printf("Subscribed to detection topic: %s", s.detectionTopic)
	return nil
}

func (s *Subscriber) handleDetectionMessage(_ mqtt.Client, msg mqtt.Message) {
	log.Printf("Received detection on %s (%d bytes)", msg.Topic(), len(msg.Payload()))

	var detection models.DetectionMessage
	if err := json.Unmarshal(msg.Payload(), &detection); err != nil {
		log.Printf("Failed to unmarshal detection: %v", err)
		return
	}

	if detection.CarID == "" {
		detection.CarID = carIDFromTopic(msg.Topic())
	}
	if detection.CarID == "" {
		log.Printf("Dropping detection with no car ID (topic: %s)", msg.Topic())
		return
	}

	record, err := s.processor.HandleDetection(context.Background(), &detection)
	if err != nil {
		log.Printf("Failed to process detection for car %s: %v", detection.CarID, err)
		return
	}

	log.Printf("Detection processed (alert: %s, severity: %s)", record.AlertID, record.Severity)
}

// carIDFromTopic extracts the car ID from a carAlert/<carID>/detection topic.
func carIDFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 {
		return ""
	}
	return parts[1]
}

// Close unsubscribes and disconnects.
func (s *Subscriber) Close() {
	if token := s.client.Unsubscribe(s.detectionTopic); token.Wait() && token.Error() != nil {
		log.Printf("Failed to unsubscribe from %s: %v", s.detectionTopic, token.Error())
	}
	s.client.Disconnect(250)
	log.Printf("MQTT subscriber disconnected")
}
