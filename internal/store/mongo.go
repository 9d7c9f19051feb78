// Package store holds the persistence collaborators: Mongo for alert
// records, Postgres for car/owner lookup, Redis for notification throttling
// and live alert state.
package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/janiceparkk/281-SmartCar-sub000/internal/models"
)

const alertsCollection = "alerts"

// AlertStore persists alert records in MongoDB.
type AlertStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// AlertFilter narrows List results. Zero values mean "no constraint".
type AlertFilter struct {
	CarID    string
	Status   models.AlertStatus
	Severity models.Severity
	Limit    int64
}

// NewAlertStore connects to MongoDB and prepares the alerts collection.
func NewAlertStore(ctx context.Context, uri, database string) (*AlertStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	log.Printf("Connected to MongoDB (database: %s)", database)

	return &AlertStore{
		client:     client,
		collection: client.Database(database).Collection(alertsCollection),
	}, nil
}

// Insert stores a new alert record.
func (s *AlertStore) Insert(ctx context.Context, record *models.AlertRecord) error {
	if _, err := s.collection.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to insert alert %s: %w", record.AlertID, err)
	}
	return nil
}

// GetByID fetches a single alert record.
func (s *AlertStore) GetByID(ctx context.Context, alertID string) (*models.AlertRecord, error) {
	var record models.AlertRecord
	err := s.collection.FindOne(ctx, bson.M{"alert_id": alertID}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, alertID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert %s: %w", alertID, err)
	}
	return &record, nil
}

// List returns alerts matching the filter, newest first.
func (s *AlertStore) List(ctx context.Context, filter AlertFilter) ([]*models.AlertRecord, error) {
	query := bson.M{}
	if filter.CarID != "" {
		query["car_id"] = filter.CarID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Severity != "" {
		query["severity"] = filter.Severity
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*models.AlertRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode alerts: %w", err)
	}

	return records, nil
}

// Acknowledge moves an Active alert to Acknowledged and records the assignee.
func (s *AlertStore) Acknowledge(ctx context.Context, alertID, assignedTo string) (*models.AlertRecord, error) {
	return s.transition(ctx, alertID, models.StatusAcknowledged, bson.M{
		"status":      models.StatusAcknowledged,
		"assigned_to": assignedTo,
	})
}

// Resolve closes an alert with resolution notes. Pass falsePositive to mark
// the alert as a bad detection instead of a resolved incident.
func (s *AlertStore) Resolve(ctx context.Context, alertID, notes string, falsePositive bool) (*models.AlertRecord, error) {
	status := models.StatusResolved
	if falsePositive {
		status = models.StatusFalsePositive
	}

	now := time.Now().UTC()
	return s.transition(ctx, alertID, status, bson.M{
		"status":           status,
		"resolution_notes": notes,
		"resolved_at":      now,
	})
}

// transition applies a status change after checking the lifecycle rules. The
// update filter includes the status the check was made against, so a
// concurrent transition makes this one fail instead of silently overwriting.
func (s *AlertStore) transition(ctx context.Context, alertID string, to models.AlertStatus, update bson.M) (*models.AlertRecord, error) {
	record, err := s.GetByID(ctx, alertID)
	if err != nil {
		return nil, err
	}

	if !record.Status.CanTransition(to) {
		return nil, fmt.Errorf("%w: alert %s: %s -> %s", ErrInvalidTransition, alertID, record.Status, to)
	}

	result, err := s.collection.UpdateOne(ctx,
		bson.M{"alert_id": alertID, "status": record.Status},
		bson.M{"$set": update})
	if err != nil {
		return nil, fmt.Errorf("failed to update alert %s: %w", alertID, err)
	}
	if result.MatchedCount == 0 {
		return nil, fmt.Errorf("%w: alert %s changed status during update", ErrInvalidTransition, alertID)
	}

	return s.GetByID(ctx, alertID)
}

// Ping verifies the Mongo connection.
func (s *AlertStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects from MongoDB.
func (s *AlertStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
