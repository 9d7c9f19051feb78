package models

import "time"

// AlertType is the closed set of normalized alert categories.
type AlertType string

const (
	AlertCollision     AlertType = "collision"
	AlertHorn          AlertType = "horn"
	AlertSiren         AlertType = "siren"
	AlertGlassBreak    AlertType = "glass_break"
	AlertGunshot       AlertType = "gunshot"
	AlertScream        AlertType = "scream"
	AlertTireSkid      AlertType = "tire_skid"
	AlertEngineTrouble AlertType = "engine_trouble"
	AlertBrakeSqueal   AlertType = "brake_squeal"
	AlertOther         AlertType = "other"
)

// Severity indicates escalation urgency. The classifier never emits a
// "medium" tier, only these three.
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

// AlertStatus tracks the lifecycle of a stored alert.
type AlertStatus string

const (
	StatusActive        AlertStatus = "Active"
	StatusAcknowledged  AlertStatus = "Acknowledged"
	StatusResolved      AlertStatus = "Resolved"
	StatusFalsePositive AlertStatus = "FalsePositive"
)

// AlertRecord is the persisted alert entity. Severity is computed once at
// creation from (AlertType, ConfidenceScore) and never recomputed.
type AlertRecord struct {
	AlertID         string      `bson:"alert_id" json:"alert_id"`
	CarID           string      `bson:"car_id" json:"car_id"`
	AlertType       AlertType   `bson:"alert_type" json:"alert_type"`
	Classification  string      `bson:"classification,omitempty" json:"classification,omitempty"`
	ConfidenceScore float64     `bson:"confidence_score" json:"confidence_score"`
	Severity        Severity    `bson:"severity" json:"severity"`
	Status          AlertStatus `bson:"status" json:"status"`

	AssignedTo      string     `bson:"assigned_to,omitempty" json:"assigned_to,omitempty"`
	ResolutionNotes string     `bson:"resolution_notes,omitempty" json:"resolution_notes,omitempty"`
	ResolvedAt      *time.Time `bson:"resolved_at,omitempty" json:"resolved_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// OwnerContact is the contact info resolved for a car's owner.
// Email or Phone may be empty; missing fields skip that notification channel.
type OwnerContact struct {
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	CarModel string `json:"car_model"`
}

// rawTypeAliases maps raw labels from the ML process onto the closed enum.
var rawTypeAliases = map[string]AlertType{
	"collision":      AlertCollision,
	"car_crash":      AlertCollision,
	"crash":          AlertCollision,
	"car horn":       AlertHorn,
	"horn":           AlertHorn,
	"siren":          AlertSiren,
	"glass_break":    AlertGlassBreak,
	"glass break":    AlertGlassBreak,
	"glass breaking": AlertGlassBreak,
	"gunshot":        AlertGunshot,
	"gun_shot":       AlertGunshot,
	"scream":         AlertScream,
	"human scream":   AlertScream,
	"tire_skid":      AlertTireSkid,
	"tire skid":      AlertTireSkid,
	"skidding":       AlertTireSkid,
	"engine_trouble": AlertEngineTrouble,
	"engine trouble": AlertEngineTrouble,
	"brake_squeal":   AlertBrakeSqueal,
	"brake squeal":   AlertBrakeSqueal,
}

// NormalizeAlertType maps a raw model label to the closed alert-type enum.
// Unrecognized labels map to AlertOther, never an error.
func NormalizeAlertType(raw string) AlertType {
	if t, ok := rawTypeAliases[raw]; ok {
		return t
	}
	return AlertOther
}

// CanTransition reports whether a status change is a legal lifecycle move.
// Active alerts can be acknowledged, resolved, or marked false positive;
// acknowledged alerts can still be resolved. Resolved and false-positive
// alerts are terminal.
func (s AlertStatus) CanTransition(to AlertStatus) bool {
	switch s {
	case StatusActive:
		return to == StatusAcknowledged || to == StatusResolved || to == StatusFalsePositive
	case StatusAcknowledged:
		return to == StatusResolved
	default:
		return false
	}
}
