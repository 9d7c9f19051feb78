package escalation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/janiceparkk/281-SmartCar-sub000/internal/models"
)

func testAlert(severity models.Severity) *models.AlertRecord {
	return &models.AlertRecord{
		AlertID:         "alert-abc123",
		CarID:           "car-42",
		AlertType:       models.AlertCollision,
		ConfidenceScore: 0.93,
		Severity:        severity,
		Status:          models.StatusActive,
		CreatedAt:       time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

func countChannel(actions []models.DispatchAction, ch models.DispatchChannel) int {
	n := 0
	for _, a := range actions {
		if a.Channel == ch {
			n++
		}
	}
	return n
}

func TestPlanDispatch_LowSeverityIsSuppressed(t *testing.T) {
	p := NewPolicy("carAlert", "carAlert/all")
	owner := &models.OwnerContact{Email: "a@b.com", Phone: "+15550100", CarModel: "Model S"}

	actions := p.PlanDispatch(testAlert(models.SeverityLow), owner)

	assert.Empty(t, actions)
}

func TestPlanDispatch_HighSeverityBroadcastsOnly(t *testing.T) {
	p := NewPolicy("carAlert", "carAlert/all")
	owner := &models.OwnerContact{Email: "a@b.com", Phone: "+15550100", CarModel: "Model S"}

	actions := p.PlanDispatch(testAlert(models.SeverityHigh), owner)

	assert.Len(t, actions, 2)
	assert.Equal(t, 2, countChannel(actions, models.ChannelBroadcast))
	assert.Equal(t, "carAlert/car-42", actions[0].Topic)
	assert.Equal(t, "carAlert/all", actions[1].Topic)
}

func TestPlanDispatch_CriticalWithFullContact(t *testing.T) {
	p := NewPolicy("carAlert", "carAlert/all")
	owner := &models.OwnerContact{Email: "owner@example.com", Phone: "+15550100", CarModel: "Civic"}

	actions := p.PlanDispatch(testAlert(models.SeverityCritical), owner)

	// 2 broadcast + email + sms + paging
	assert.Len(t, actions, 5)
	assert.Equal(t, 2, countChannel(actions, models.ChannelBroadcast))
	assert.Equal(t, 2, countChannel(actions, models.ChannelOwnerNotify))
	assert.Equal(t, 1, countChannel(actions, models.ChannelPaging))
}

func TestPlanDispatch_CriticalEmailContents(t *testing.T) {
	p := NewPolicy("carAlert", "carAlert/all")
	owner := &models.OwnerContact{Email: "owner@example.com", CarModel: "Civic"}

	actions := p.PlanDispatch(testAlert(models.SeverityCritical), owner)

	var email *models.DispatchAction
	for i := range actions {
		if actions[i].Medium == models.MediumEmail {
			email = &actions[i]
		}
	}

	assert.NotNil(t, email)
	assert.Equal(t, "owner@example.com", email.Recipient)
	assert.Contains(t, email.Subject, "Civic")
	assert.Contains(t, email.Body, "collision")
	assert.Contains(t, email.Body, "dashboard")
}

func TestPlanDispatch_MissingPhoneSkipsSMS(t *testing.T) {
	p := NewPolicy("carAlert", "carAlert/all")
	owner := &models.OwnerContact{Email: "owner@example.com", CarModel: "Civic"}

	actions := p.PlanDispatch(testAlert(models.SeverityCritical), owner)

	assert.Len(t, actions, 4)
	for _, a := range actions {
		assert.NotEqual(t, models.MediumSMS, a.Medium)
	}
	assert.Equal(t, 1, countChannel(actions, models.ChannelPaging))
}

func TestPlanDispatch_NilOwnerStillBroadcastsAndPages(t *testing.T) {
	p := NewPolicy("carAlert", "carAlert/all")

	actions := p.PlanDispatch(testAlert(models.SeverityCritical), nil)

	assert.Len(t, actions, 3)
	assert.Equal(t, 2, countChannel(actions, models.ChannelBroadcast))
	assert.Equal(t, 0, countChannel(actions, models.ChannelOwnerNotify))
	assert.Equal(t, 1, countChannel(actions, models.ChannelPaging))
}

func TestPlanDispatch_BroadcastPayloadFields(t *testing.T) {
	p := NewPolicy("carAlert", "carAlert/all")

	actions := p.PlanDispatch(testAlert(models.SeverityHigh), nil)

	payload := actions[0].Payload
	assert.Equal(t, "alert-abc123", payload["alert_id"])
	assert.Equal(t, "collision", payload["alert_type"])
	assert.Equal(t, "High", payload["severity"])
	assert.Equal(t, 0.93, payload["confidence"])
	assert.NotZero(t, payload["timestamp"])
	assert.Contains(t, payload["human_message"], "collision detected")
}
