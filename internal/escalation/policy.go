// Package escalation decides which channels fire for an alert and builds
// their payloads. The policy is pure: owner lookup and all transport calls
// belong to the caller.
package escalation

import (
	"fmt"
	"strings"

	"github.com/janiceparkk/281-SmartCar-sub000/internal/models"
)

// Policy plans dispatch actions for newly created alerts.
type Policy struct {
	carTopicPrefix string
	globalTopic    string
}

// NewPolicy creates a policy using the given broadcast topics. The per-car
// topic is carTopicPrefix + "/" + carID.
func NewPolicy(carTopicPrefix, globalTopic string) *Policy {
	return &Policy{
		carTopicPrefix: carTopicPrefix,
		globalTopic:    globalTopic,
	}
}

// PlanDispatch returns the escalation actions for an alert.
//
//   - Low severity: no escalation at all.
//   - High and Critical: broadcast to the per-car topic and the global topic.
//   - Critical only: owner email and SMS (each skipped silently when the
//     contact field is missing or the owner is unknown), plus one paging
//     simulation entry.
func (p *Policy) PlanDispatch(alert *models.AlertRecord, owner *models.OwnerContact) []models.DispatchAction {
	if alert.Severity == models.SeverityLow {
		return nil
	}

	payload := broadcastPayload(alert)
	actions := []models.DispatchAction{
		{
			Channel: models.ChannelBroadcast,
			Topic:   fmt.Sprintf("%s/%s", p.carTopicPrefix, alert.CarID),
			Payload: payload,
		},
		{
			Channel: models.ChannelBroadcast,
			Topic:   p.globalTopic,
			Payload: payload,
		},
	}

	if alert.Severity != models.SeverityCritical {
		return actions
	}

	if owner != nil && owner.Email != "" {
		actions = append(actions, models.DispatchAction{
			Channel:   models.ChannelOwnerNotify,
			Medium:    models.MediumEmail,
			Recipient: owner.Email,
			Subject:   fmt.Sprintf("Critical alert for your %s", carModelOrDefault(owner)),
			Body: fmt.Sprintf(
				"A %s was detected on your vehicle (confidence %.0f%%). "+
					"Please check the dashboard for details and current status.",
				describeEvent(alert.AlertType), alert.ConfidenceScore*100,
			),
		})
	}

	if owner != nil && owner.Phone != "" {
		actions = append(actions, models.DispatchAction{
			Channel:   models.ChannelOwnerNotify,
			Medium:    models.MediumSMS,
			Recipient: owner.Phone,
			Body: fmt.Sprintf(
				"ALERT: %s detected on your %s. Check the dashboard.",
				describeEvent(alert.AlertType), carModelOrDefault(owner),
			),
		})
	}

	actions = append(actions, models.DispatchAction{
		Channel: models.ChannelPaging,
		Message: fmt.Sprintf(
			"PAGE on-call: critical %s alert %s (car %s, confidence %.2f)",
			alert.AlertType, alert.AlertID, alert.CarID, alert.ConfidenceScore,
		),
	})

	return actions
}

func broadcastPayload(alert *models.AlertRecord) map[string]interface{} {
	return map[string]interface{}{
		"alert_id":      alert.AlertID,
		"alert_type":    string(alert.AlertType),
		"severity":      string(alert.Severity),
		"confidence":    alert.ConfidenceScore,
		"timestamp":     alert.CreatedAt.Unix(),
		"human_message": fmt.Sprintf("%s detected on car %s", describeEvent(alert.AlertType), alert.CarID),
	}
}

func describeEvent(t models.AlertType) string {
	return strings.ReplaceAll(string(t), "_", " ")
}

func carModelOrDefault(owner *models.OwnerContact) string {
	if owner.CarModel != "" {
		return owner.CarModel
	}
	return "vehicle"
}
