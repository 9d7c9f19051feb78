// Package engine sequences the alert pipeline: normalize, classify,
// persist, then fan out escalation actions to the transport collaborators.
package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/janiceparkk/281-SmartCar-sub000/internal/arbiter"
	"github.com/janiceparkk/281-SmartCar-sub000/internal/classifier"
	"github.com/janiceparkk/281-SmartCar-sub000/internal/escalation"
	"github.com/janiceparkk/281-SmartCar-sub000/internal/models"
)

// AlertStore persists alert records. Insert failure is the only error fatal
// to a logDetectionEvent call.
type AlertStore interface {
	Insert(ctx context.Context, record *models.AlertRecord) error
}

// OwnerLookup resolves a car's owner contact info.
type OwnerLookup interface {
	GetContact(ctx context.Context, carID string) (*models.OwnerContact, error)
}

// Publisher delivers broadcast payloads to live dashboards. Fire and forget;
// the engine assumes no delivery guarantee.
type Publisher interface {
	Publish(topic string, payload interface{}) error
}

// Notifier sends owner notifications.
type Notifier interface {
	SendEmail(to, subject, body string) error
	SendSMS(to, body string) error
}

// Throttle rate-limits owner notifications per (car, alert type). Allow
// returns false when a notification for the same pair fired recently.
type Throttle interface {
	Allow(ctx context.Context, carID string, alertType models.AlertType) (bool, error)
}

// EventSink receives alert lifecycle events for other backend services.
type EventSink interface {
	AlertCreated(record *models.AlertRecord)
	AlertEscalated(record *models.AlertRecord, actionCount int)
}

// Engine is the alert orchestrator. The store is required; every other
// collaborator may be nil, in which case its channel is skipped.
type Engine struct {
	store    AlertStore
	owners   OwnerLookup
	pubsub   Publisher
	notifier Notifier
	throttle Throttle
	events   EventSink

	policy *escalation.Policy
}

// NewEngine creates an alert engine around the given collaborators.
func NewEngine(store AlertStore, owners OwnerLookup, pubsub Publisher, notifier Notifier, policy *escalation.Policy) *Engine {
	return &Engine{
		store:    store,
		owners:   owners,
		pubsub:   pubsub,
		notifier: notifier,
		policy:   policy,
	}
}

// SetThrottle installs an optional notification throttle.
func (e *Engine) SetThrottle(t Throttle) {
	e.throttle = t
}

// SetEventSink installs an optional lifecycle event sink.
func (e *Engine) SetEventSink(s EventSink) {
	e.events = s
}

// HandleDetection arbitrates the two model outputs in a detection message
// and logs the winning prediction as an alert.
func (e *Engine) HandleDetection(ctx context.Context, msg *models.DetectionMessage) (*models.AlertRecord, error) {
	pred := arbiter.Arbitrate(msg.Primary, msg.Secondary)
	log.Printf("Arbitrated detection for car %s: %s (%.2f, source: %s)",
		msg.CarID, pred.Label, pred.Confidence, pred.SourceModel)

	return e.LogDetectionEvent(ctx, msg.CarID, pred.Label, pred.Label, pred.Confidence)
}

// LogDetectionEvent creates and persists an alert for a detection event,
// then executes any escalation the severity calls for.
//
// Only persistence failure propagates. Owner lookup, broadcast, and
// notification failures are logged and isolated: the alert always exists
// even if every downstream action fails. Dispatch begins strictly after
// the record is stored.
func (e *Engine) LogDetectionEvent(ctx context.Context, carID, rawType, rawClassification string, confidence float64) (*models.AlertRecord, error) {
	alertType := models.NormalizeAlertType(rawType)
	conf := clampConfidence(confidence)
	severity := classifier.Classify(alertType, conf)

	record := &models.AlertRecord{
		AlertID:         newAlertID(),
		CarID:           carID,
		AlertType:       alertType,
		Classification:  rawClassification,
		ConfidenceScore: conf,
		Severity:        severity,
		Status:          models.StatusActive,
		CreatedAt:       time.Now().UTC(),
	}

	if err := e.store.Insert(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist alert for car %s: %w", carID, err)
	}

	log.Printf("Alert created: [%s] %s %s (car: %s, confidence: %.2f)",
		record.Severity, record.AlertID, record.AlertType, record.CarID, record.ConfidenceScore)

	if e.events != nil {
		e.events.AlertCreated(record)
	}

	owner := e.lookupOwner(ctx, carID, record.AlertID)
	actions := e.policy.PlanDispatch(record, owner)
	if len(actions) > 0 {
		// The throttle is consulted once per alert, not per action: one
		// window slot must cover the whole OwnerNotify set, otherwise the
		// email and SMS of a single alert would race for the same slot.
		notifyAllowed := true
		if hasOwnerNotify(actions) {
			notifyAllowed = e.allowNotify(ctx, record)
			if !notifyAllowed {
				log.Printf("Owner notifications throttled (alert %s, car %s, type %s)",
					record.AlertID, record.CarID, record.AlertType)
			}
		}

		e.dispatch(record, actions, notifyAllowed)
		if e.events != nil {
			e.events.AlertEscalated(record, len(actions))
		}
	}

	return record, nil
}

func hasOwnerNotify(actions []models.DispatchAction) bool {
	for _, a := range actions {
		if a.Channel == models.ChannelOwnerNotify {
			return true
		}
	}
	return false
}

// lookupOwner resolves contact info for notification. Failure is not fatal:
// alert persistence outranks notification, so errors degrade to a nil owner.
func (e *Engine) lookupOwner(ctx context.Context, carID, alertID string) *models.OwnerContact {
	if e.owners == nil {
		return nil
	}

	owner, err := e.owners.GetContact(ctx, carID)
	if err != nil {
		log.Printf("Owner lookup failed for car %s (alert %s): %v", carID, alertID, err)
		return nil
	}
	return owner
}

// dispatch executes escalation actions concurrently. Actions are independent
// and side-effect isolated, so one failure never blocks another.
func (e *Engine) dispatch(record *models.AlertRecord, actions []models.DispatchAction, notifyAllowed bool) {
	var wg sync.WaitGroup

	for _, action := range actions {
		wg.Add(1)
		go func(a models.DispatchAction) {
			defer wg.Done()
			e.executeAction(record, a, notifyAllowed)
		}(action)
	}

	wg.Wait()
}

func (e *Engine) executeAction(record *models.AlertRecord, action models.DispatchAction, notifyAllowed bool) {
	switch action.Channel {
	case models.ChannelBroadcast:
		if e.pubsub == nil {
			return
		}
		if err := e.pubsub.Publish(action.Topic, action.Payload); err != nil {
			log.Printf("Broadcast failed (alert %s, topic %s): %v", record.AlertID, action.Topic, err)
		}

	case models.ChannelOwnerNotify:
		if e.notifier == nil || !notifyAllowed {
			return
		}
		e.notify(record, action)

	case models.ChannelPaging:
		// Paging stays a log line until real on-call tooling is wired in.
		log.Printf("%s", action.Message)
	}
}

func (e *Engine) notify(record *models.AlertRecord, action models.DispatchAction) {
	var err error
	switch action.Medium {
	case models.MediumEmail:
		err = e.notifier.SendEmail(action.Recipient, action.Subject, action.Body)
	case models.MediumSMS:
		err = e.notifier.SendSMS(action.Recipient, action.Body)
	}

	if err != nil {
		log.Printf("Owner notification failed (alert %s, %s to %s): %v",
			record.AlertID, action.Medium, action.Recipient, err)
	}
}

// allowNotify consults the throttle. Throttle errors fail open: a broken
// rate limiter must not silence a critical notification.
func (e *Engine) allowNotify(ctx context.Context, record *models.AlertRecord) bool {
	if e.throttle == nil {
		return true
	}

	ok, err := e.throttle.Allow(ctx, record.CarID, record.AlertType)
	if err != nil {
		log.Printf("Throttle check failed (alert %s): %v", record.AlertID, err)
		return true
	}
	return ok
}

// newAlertID generates a collision-safe alert ID. UUIDs keep IDs unique
// under concurrent calls without any shared counter.
func newAlertID() string {
	return "alert-" + uuid.NewString()
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
