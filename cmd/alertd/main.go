package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/janiceparkk/281-SmartCar-sub000/internal/config"
	"github.com/janiceparkk/281-SmartCar-sub000/internal/orchestrator"
)

// main is the entry point for the alert engine service.
//
// The service is responsible for:
//   - Consuming audio detection events from MQTT (published by the ML
//     inference process) and via POST /api/detections
//   - Arbitrating model outputs and classifying alert severity
//   - Persisting alert records to MongoDB
//   - Broadcasting qualifying alerts to dashboards over MQTT and WebSocket
//   - Notifying vehicle owners of critical alerts by email and SMS
//   - Publishing alert lifecycle events to NATS for other backend services
//   - Serving the alert-management API (list, acknowledge, resolve)
func main() {
	log.Printf("SmartCar alert engine starting...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Configuration loaded")
	log.Printf("  HTTP Port: %s", cfg.HTTPPort)
	log.Printf("  Mongo: %s (db: %s)", cfg.MongoURI, cfg.MongoDatabase)
	log.Printf("  MQTT Broker: %s", cfg.MQTTBroker)
	log.Printf("  Detection Topic: %s", cfg.DetectionTopic)
	log.Printf("  NATS URL: %s", cfg.NatsURL)
	log.Printf("  Notifications Enabled: %v", cfg.EnableNotifications)
	log.Printf("  Notify Throttle: %ds", cfg.NotifyThrottleSeconds)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orch := orchestrator.NewOrchestrator(cfg)
	if err := orch.Start(ctx); err != nil {
		log.Fatalf("Failed to start orchestrator: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := orch.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("Orchestrator error: %v", err)
		}
	}()

	<-sigChan
	log.Printf("Shutdown signal received, initiating graceful shutdown...")

	cancel()

	if err := orch.Stop(); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Printf("Alert engine stopped")
}
