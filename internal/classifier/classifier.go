// Package classifier maps a normalized alert type and model confidence
// onto an escalation severity.
package classifier

import "github.com/janiceparkk/281-SmartCar-sub000/internal/models"

// Classify maps (alertType, confidence) to a severity tier. The table is
// evaluated top to bottom, first match wins:
//
//	collision   >= 0.9 -> Critical
//	glass_break >= 0.8 -> Critical
//	siren       >= 0.7 -> High
//	anything else      -> Low
//
// Precondition: confidence already clamped to [0,1] by the caller; the
// table does not validate range itself.
func Classify(alertType models.AlertType, confidence float64) models.Severity {
	switch {
	case alertType == models.AlertCollision && confidence >= 0.9:
		return models.SeverityCritical
	case alertType == models.AlertGlassBreak && confidence >= 0.8:
		return models.SeverityCritical
	case alertType == models.AlertSiren && confidence >= 0.7:
		return models.SeverityHigh
	default:
		return models.SeverityLow
	}
}
