// Package orchestrator manages the alert engine service lifecycle and wires
// the decision pipeline to its transport and persistence collaborators.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/janiceparkk/281-SmartCar-sub000/internal/config"
	"github.com/janiceparkk/281-SmartCar-sub000/internal/engine"
	"github.com/janiceparkk/281-SmartCar-sub000/internal/escalation"
	"github.com/janiceparkk/281-SmartCar-sub000/internal/eventbus"
	"github.com/janiceparkk/281-SmartCar-sub000/internal/httpapi"
	"github.com/janiceparkk/281-SmartCar-sub000/internal/models"
	"github.com/janiceparkk/281-SmartCar-sub000/internal/mqttbus"
	"github.com/janiceparkk/281-SmartCar-sub000/internal/notify"
	"github.com/janiceparkk/281-SmartCar-sub000/internal/store"
	"github.com/janiceparkk/281-SmartCar-sub000/internal/ws"
)

// Orchestrator owns service startup, wiring, and shutdown.
//
// Lifecycle:
//  1. Start() - connects stores and buses, builds the engine and servers
//  2. Run()   - serves until the context is cancelled
//  3. Stop()  - closes all connections
//
// Graceful degradation:
//   - Mongo failure: service cannot run (alerts must persist)
//   - Postgres failure: alerts created without owner notification
//   - Redis failure: no notification throttling, no live alert state
//   - NATS failure: no lifecycle events for other backend services
//   - MQTT failure: no broker broadcast (WebSocket feed still works)
type Orchestrator struct {
	config *config.Config

	alertStore  *store.AlertStore
	ownerStore  *store.OwnerStore
	redisStore  *store.RedisStore
	natsEvents  *eventbus.Publisher
	mqttPub     *mqttbus.Publisher
	mqttSub     *mqttbus.Subscriber
	hub         *ws.Hub
	alertEngine *engine.Engine
	httpServer  *httpapi.Server
}

// NewOrchestrator creates an orchestrator; nothing connects until Start.
func NewOrchestrator(cfg *config.Config) *Orchestrator {
	return &Orchestrator{config: cfg}
}

// Start connects all collaborators and assembles the engine. Only the alert
// store is required; every optional connection logs a warning on failure.
func (o *Orchestrator) Start(ctx context.Context) error {
	log.Printf("Starting alert engine orchestrator...")

	alertStore, err := store.NewAlertStore(ctx, o.config.MongoURI, o.config.MongoDatabase)
	if err != nil {
		return fmt.Errorf("failed to connect alert store (required): %w", err)
	}
	o.alertStore = alertStore

	o.connectOwnerStore(ctx)
	o.connectRedis(ctx)
	o.connectNATS()
	o.connectMQTTPublisher()

	o.hub = ws.NewHub()

	policy := escalation.NewPolicy(o.config.BroadcastTopicBase, o.config.GlobalAlertTopic)
	o.alertEngine = engine.NewEngine(
		o.alertStore,
		o.ownerLookup(),
		o.broadcastPublisher(),
		o.notifier(),
		policy,
	)

	if o.redisStore != nil {
		o.alertEngine.SetThrottle(o.redisStore)
	}
	o.alertEngine.SetEventSink(&lifecycleSink{nats: o.natsEvents, redis: o.redisStore})

	if err := o.startMQTTSubscriber(); err != nil {
		log.Printf("Warning: MQTT detection intake unavailable: %v", err)
		log.Printf("Detections can still be ingested via POST /api/detections")
	}

	o.httpServer = httpapi.NewServer(o.alertEngine, o.alertManager(), o.hub)
	if o.redisStore != nil {
		o.httpServer.SetActiveAlerts(o.redisStore)
	}
	o.httpServer.AddHealthCheck("mongo", o.alertStore.Ping)
	if o.ownerStore != nil {
		o.httpServer.AddHealthCheck("postgres", o.ownerStore.Ping)
	}
	if o.redisStore != nil {
		o.httpServer.AddHealthCheck("redis", o.redisStore.Ping)
	}

	log.Printf("Alert engine orchestrator started")
	return nil
}

func (o *Orchestrator) connectOwnerStore(ctx context.Context) {
	ownerStore, err := store.NewOwnerStore(ctx, o.config.PostgresURL)
	if err != nil {
		log.Printf("Warning: failed to connect to Postgres: %v", err)
		log.Printf("Owner notifications will be skipped")
		return
	}
	o.ownerStore = ownerStore
}

func (o *Orchestrator) connectRedis(ctx context.Context) {
	ttl := time.Duration(o.config.NotifyThrottleSeconds) * time.Second
	redisStore, err := store.NewRedisStore(ctx, o.config.RedisAddr, o.config.RedisPassword, o.config.RedisDB, ttl)
	if err != nil {
		log.Printf("Warning: failed to connect to Redis: %v", err)
		log.Printf("Notification throttling and live alert state disabled")
		return
	}
	o.redisStore = redisStore
}

func (o *Orchestrator) connectNATS() {
	publisher, err := eventbus.NewPublisher(o.config.NatsURL)
	if err != nil {
		log.Printf("Warning: failed to connect to NATS: %v", err)
		log.Printf("Alert lifecycle events will not be published")
		return
	}
	o.natsEvents = publisher
}

func (o *Orchestrator) connectMQTTPublisher() {
	publisher, err := mqttbus.NewPublisher(o.mqttOptions())
	if err != nil {
		log.Printf("Warning: failed to connect MQTT publisher: %v", err)
		log.Printf("Broker broadcasts disabled, WebSocket feed only")
		return
	}
	o.mqttPub = publisher
}

func (o *Orchestrator) startMQTTSubscriber() error {
	subscriber, err := mqttbus.NewSubscriber(o.mqttOptions(), o.config.DetectionTopic, o.alertEngine)
	if err != nil {
		return err
	}

	if err := subscriber.Start(); err != nil {
		subscriber.Close()
		return err
	}

	o.mqttSub = subscriber
	return nil
}

func (o *Orchestrator) mqttOptions() mqttbus.Options {
	return mqttbus.Options{
		Broker:   o.config.MQTTBroker,
		ClientID: o.config.MQTTClientID,
		Username: o.config.MQTTUsername,
		Password: o.config.MQTTPassword,
	}
}

// ownerLookup returns the engine's owner collaborator, nil when Postgres is
// down so the engine skips owner channels.
func (o *Orchestrator) ownerLookup() engine.OwnerLookup {
	if o.ownerStore == nil {
		return nil
	}
	return o.ownerStore
}

// broadcastPublisher fans each broadcast out to the MQTT broker and the
// WebSocket hub.
func (o *Orchestrator) broadcastPublisher() engine.Publisher {
	fanout := &fanoutPublisher{}
	if o.mqttPub != nil {
		fanout.targets = append(fanout.targets, o.mqttPub)
	}
	fanout.targets = append(fanout.targets, o.hub)
	return fanout
}

func (o *Orchestrator) notifier() engine.Notifier {
	if !o.config.EnableNotifications {
		log.Printf("Notifications disabled by configuration")
		return nil
	}

	return notify.NewService(
		notify.SMTPConfig{
			Host:     o.config.SMTPHost,
			Port:     o.config.SMTPPort,
			Username: o.config.SMTPUsername,
			Password: o.config.SMTPPassword,
			From:     o.config.SMTPFrom,
		},
		notify.TwilioConfig{
			AccountSID: o.config.TwilioSID,
			AuthToken:  o.config.TwilioToken,
			From:       o.config.TwilioFrom,
		},
	)
}

// alertManager wraps the alert store so resolving an alert also clears the
// car's live active-alert state.
func (o *Orchestrator) alertManager() httpapi.AlertReader {
	return &managedAlerts{store: o.alertStore, redis: o.redisStore}
}

// Run serves HTTP and the WebSocket hub until the context is cancelled.
func (o *Orchestrator) Run(ctx context.Context) error {
	go o.hub.Run(ctx)

	httpErrChan := make(chan error, 1)
	go func() {
		addr := ":" + o.config.HTTPPort
		if err := o.httpServer.Start(addr); err != nil {
			httpErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	log.Printf("Alert engine ready - listening for detections")

	select {
	case <-ctx.Done():
		log.Printf("Shutdown signal received")
		return ctx.Err()
	case err := <-httpErrChan:
		return err
	}
}

// Stop closes all connections.
func (o *Orchestrator) Stop() error {
	log.Printf("Stopping orchestrator...")

	if o.httpServer != nil {
		if err := o.httpServer.Stop(); err != nil {
			log.Printf("Error stopping HTTP server: %v", err)
		}
	}

	if o.mqttSub != nil {
		o.mqttSub.Close()
	}
	if o.mqttPub != nil {
		o.mqttPub.Close()
	}
	if o.natsEvents != nil {
		o.natsEvents.Close()
	}
	if o.redisStore != nil {
		if err := o.redisStore.Close(); err != nil {
			log.Printf("Error closing Redis: %v", err)
		}
	}
	if o.ownerStore != nil {
		o.ownerStore.Close()
	}
	if o.alertStore != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := o.alertStore.Close(ctx); err != nil {
			log.Printf("Error closing Mongo: %v", err)
		}
	}

	log.Printf("Orchestrator stopped")
	return nil
}

// fanoutPublisher publishes to every target, reporting the first error after
// attempting all of them.
type fanoutPublisher struct {
	targets []engine.Publisher
}

func (f *fanoutPublisher) Publish(topic string, payload interface{}) error {
	var firstErr error
	for _, target := range f.targets {
		if err := target.Publish(topic, payload); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// lifecycleSink forwards alert lifecycle events to NATS and mirrors active
// alerts into Redis. Both sides are optional.
type lifecycleSink struct {
	nats  *eventbus.Publisher
	redis *store.RedisStore
}

func (s *lifecycleSink) AlertCreated(record *models.AlertRecord) {
	if s.nats != nil {
		s.nats.AlertCreated(record)
	}
	if s.redis != nil {
		if err := s.redis.MarkActive(context.Background(), record.CarID, record.AlertID); err != nil {
			log.Printf("Failed to mark alert %s active: %v", record.AlertID, err)
		}
	}
}

func (s *lifecycleSink) AlertEscalated(record *models.AlertRecord, actionCount int) {
	if s.nats != nil {
		s.nats.AlertEscalated(record, actionCount)
	}
}

// managedAlerts decorates the alert store: terminal status transitions also
// clear the live active-alert set.
type managedAlerts struct {
	store *store.AlertStore
	redis *store.RedisStore
}

func (m *managedAlerts) GetByID(ctx context.Context, alertID string) (*models.AlertRecord, error) {
	return m.store.GetByID(ctx, alertID)
}

func (m *managedAlerts) List(ctx context.Context, filter store.AlertFilter) ([]*models.AlertRecord, error) {
	return m.store.List(ctx, filter)
}

func (m *managedAlerts) Acknowledge(ctx context.Context, alertID, assignedTo string) (*models.AlertRecord, error) {
	return m.store.Acknowledge(ctx, alertID, assignedTo)
}

func (m *managedAlerts) Resolve(ctx context.Context, alertID, notes string, falsePositive bool) (*models.AlertRecord, error) {
	record, err := m.store.Resolve(ctx, alertID, notes, falsePositive)
	if err != nil {
		return nil, err
	}

	if m.redis != nil {
		if err := m.redis.ClearActive(ctx, record.CarID, record.AlertID); err != nil {
			log.Printf("Failed to clear active alert %s: %v", record.AlertID, err)
		}
	}

	return record, nil
}
