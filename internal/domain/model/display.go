package model

// Color returns the display color of a predefined domain, gray otherwise.
func (d Domain) Color() string {
	switch d {
	case Health:
		return "#10B981"
	case Focus:
		return "#3B82F6"
	case Output:
		return "#F59E0B"
	case Learning:
		return "#8B5CF6"
	case Mood:
		return "#EC4899"
	default:
		return "#6B7280"
	}
}

// Color returns the display color of a phase.
func (p Phase) Color() string {
	switch p {
	case Ramp:
		return "#3B82F6"
	case Cruise:
		return "#10B981"
	case Drift:
		return "#F59E0B"
	case Archive:
		return "#EF4444"
	default:
		return "#6B7280"
	}
}

// Badge names the display band of a momentum score.
func Badge(score float64) string {
	switch {
	case score >= 80:
		return "rocket"
	case score >= 60:
		return "rising"
	case score >= 40:
		return "steady"
	case score >= 20:
		return "falling"
	default:
		return "paused"
	}
}
