package model

import "time"

// Phase is the discrete momentum regime of a domain.
type Phase string

// Phases.
const (
	Explore Phase = "Explore"
	Ramp    Phase = "Ramp"
	Cruise  Phase = "Cruise"
	Drift   Phase = "Drift"
	Archive Phase = "Archive"
)

// Phases returns every phase.
func Phases() []Phase {
	return []Phase{Explore, Ramp, Cruise, Drift, Archive}
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	for _, known := range Phases() {
		if p == known {
			return true
		}
	}
	return false
}

// FeatureRecord holds the derived indicators of one domain at one point in time.
// Records are recomputed from the full history and never mutated.
type FeatureRecord struct {
	EMA          float64 `json:"ema"`
	Velocity     float64 `json:"velocity"`
	Acceleration float64 `json:"acceleration"`
	Z            float64 `json:"z"`
	Streak       int     `json:"streak"`
	StreakScore  float64 `json:"streak_score"`
}

// PhaseRecord is the phase interpretation of a FeatureRecord.
type PhaseRecord struct {
	Phase      Phase   `json:"phase"`
	Confidence float64 `json:"confidence"`
}

// MomentumScore is the per-domain record consumed by presentation layers.
// It is rebuilt on each scoring cycle, never partially updated.
type MomentumScore struct {
	Domain        Domain    `json:"domain"`
	EMA           float64   `json:"ema"`
	Velocity      float64   `json:"velocity"`
	Acceleration  float64   `json:"acceleration"`
	Z             float64   `json:"z"`
	Streak        int       `json:"streak"`
	MomentumScore float64   `json:"momentum_score"`
	Phase         Phase     `json:"phase"`
	Confidence    float64   `json:"confidence"`
	TaskType      TaskType  `json:"task_type"`
	Samples       int       `json:"samples"`
	ComputedAt    time.Time `json:"computed_at"`
}
