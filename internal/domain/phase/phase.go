// Package phase classifies derived momentum indicators into a discrete phase.
//
// The classifier is a fixed rule list evaluated in order with strict
// inequalities; the first matching rule wins. It keeps no state between
// calls, so a phase transition is only visible as a different result for
// different inputs.
package phase

import (
	"math"

	"github.com/okian/momentum/internal/domain/model"
)

// Threshold bands. These are policy constants.
const (
	stillVelocity       = 0.05
	stillAcceleration   = 0.02
	rampVelocity        = 0.1
	rampAcceleration    = 0.02
	cruiseVelocity      = 0.05
	cruiseAcceleration  = 0.05
	exploreVelocity     = 0.1
	exploreAcceleration = 0.1
)

// Confidences attached to each rule.
const (
	archiveConfidence  = 0.8
	driftConfidence    = 0.7
	rampConfidence     = 0.8
	cruiseConfidence   = 0.7
	exploreConfidence  = 0.6
	fallbackConfidence = 0.5
)

// Classify maps the latest indicators of a domain to a phase.
// ema is accepted for completeness; the current rules do not use it.
func Classify(ema, velocity, acceleration float64, streak int) model.PhaseRecord {
	absV := math.Abs(velocity)
	absA := math.Abs(acceleration)

	switch {
	case absV < stillVelocity && absA < stillAcceleration:
		if streak == 0 {
			return model.PhaseRecord{Phase: model.Archive, Confidence: archiveConfidence}
		}
		return model.PhaseRecord{Phase: model.Drift, Confidence: driftConfidence}
	case velocity > rampVelocity && acceleration > rampAcceleration:
		return model.PhaseRecord{Phase: model.Ramp, Confidence: rampConfidence}
	case velocity > cruiseVelocity && absA < cruiseAcceleration:
		return model.PhaseRecord{Phase: model.Cruise, Confidence: cruiseConfidence}
	case absV < exploreVelocity && absA < exploreAcceleration:
		return model.PhaseRecord{Phase: model.Explore, Confidence: exploreConfidence}
	default:
		return model.PhaseRecord{Phase: model.Explore, Confidence: fallbackConfidence}
	}
}

// ClassifyRecord classifies a FeatureRecord.
func ClassifyRecord(r model.FeatureRecord) model.PhaseRecord {
	return Classify(r.EMA, r.Velocity, r.Acceleration, r.Streak)
}
