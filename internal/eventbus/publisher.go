// Package eventbus publishes alert lifecycle events to NATS for the other
// backend services (dashboard feed, analytics).
package eventbus

import (
	"encoding/json"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/janiceparkk/281-SmartCar-sub000/internal/models"
)

// AlertCreatedEvent is published on alerts.created for every stored alert.
type AlertCreatedEvent struct {
	AlertID    string  `json:"alert_id"`
	CarID      string  `json:"car_id"`
	AlertType  string  `json:"alert_type"`
	Severity   string  `json:"severity"`
	Confidence float64 `json:"confidence"`
	Timestamp  int64   `json:"timestamp"`
}

// AlertEscalatedEvent is published on alerts.escalated when an alert fans
// out beyond storage.
type AlertEscalatedEvent struct {
	AlertID     string `json:"alert_id"`
	CarID       string `json:"car_id"`
	Severity    string `json:"severity"`
	ActionCount int    `json:"action_count"`
	Timestamp   int64  `json:"timestamp"`
}

// Publisher pushes alert lifecycle events onto the NATS event bus.
type Publisher struct {
	conn *nats.Conn
}

// NewPublisher connects to NATS with retry-on-failure.
func NewPublisher(natsURL string) (*Publisher, error) {
	conn, err := nats.Connect(natsURL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second))

	if err != nil {
		return nil, err
	}

	log.Printf("Alert engine connected to NATS: %s", natsURL)

	return &Publisher{conn: conn}, nil
}

// AlertCreated publishes an alerts.created event. Publish failure is logged
// only; lifecycle events are best-effort.
func (p *Publisher) AlertCreated(record *models.AlertRecord) {
	event := AlertCreatedEvent{
		AlertID:    record.AlertID,
		CarID:      record.CarID,
		AlertType:  string(record.AlertType),
		Severity:   string(record.Severity),
		Confidence: record.ConfidenceScore,
		Timestamp:  time.Now().Unix(),
	}

	p.publish("alerts.created", event)
}

// AlertEscalated publishes an alerts.escalated event.
func (p *Publisher) AlertEscalated(record *models.AlertRecord, actionCount int) {
	event := AlertEscalatedEvent{
		AlertID:     record.AlertID,
		CarID:       record.CarID,
		Severity:    string(record.Severity),
		ActionCount: actionCount,
		Timestamp:   time.Now().Unix(),
	}

	p.publish("alerts.escalated", event)
}

func (p *Publisher) publish(subject string, event interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", subject, err)
		return
	}

	if err := p.conn.Publish(subject, data); err != nil {
		log.Printf("Failed to publish %s event: %v", subject, err)
		return
	}

	log.Printf("Published event to %s", subject)
}

// IsConnected reports whether the NATS connection is live.
func (p *Publisher) IsConnected() bool {
	return p.conn != nil && p.conn.IsConnected()
}

// Close disconnects from NATS.
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
		log.Printf("Alert engine disconnected from NATS")
	}
}
