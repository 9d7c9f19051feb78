// Package arbiter reconciles the two model outputs produced for a single
// audio clip into one authoritative prediction.
package arbiter

import "github.com/janiceparkk/281-SmartCar-sub000/internal/models"

// highPriorityLabels are raw labels urgent enough that the secondary model
// overrides the primary when it is confident about one of them.
var highPriorityLabels = map[string]bool{
	"siren":        true,
	"human scream": true,
	"gunshot":      true,
}

// priorityConfidenceFloor: the override fires only above this confidence.
const priorityConfidenceFloor = 0.7

// Arbitrate selects one authoritative prediction from two candidates.
//
// Rules, in order:
//  1. Both failed: unknown prediction with zero confidence.
//  2. Exactly one failed: the surviving candidate wins.
//  3. Secondary carries a high-priority label above the confidence floor:
//     secondary wins regardless of the primary's confidence. Only the
//     secondary candidate is checked against the priority set.
//  4. Higher confidence wins; ties favor the primary.
func Arbitrate(a, b models.DetectionCandidate) models.ArbitratedPrediction {
	if a.Failed && b.Failed {
		return models.ArbitratedPrediction{
			Label:       "unknown",
			Confidence:  0,
			SourceModel: "none",
		}
	}

	if a.Failed {
		return fromCandidate(b)
	}
	if b.Failed {
		return fromCandidate(a)
	}

	if highPriorityLabels[b.PredictedLabel] && b.Confidence > priorityConfidenceFloor {
		return fromCandidate(b)
	}

	if b.Confidence > a.Confidence {
		return fromCandidate(b)
	}
	return fromCandidate(a)
}

func fromCandidate(c models.DetectionCandidate) models.ArbitratedPrediction {
	return models.ArbitratedPrediction{
		Label:       c.PredictedLabel,
		Confidence:  c.Confidence,
		SourceModel: c.ModelName,
	}
}
