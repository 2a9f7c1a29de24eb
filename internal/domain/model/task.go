package model

import (
	"fmt"
	"strings"
)

// TaskType tags a tracked goal and selects the scoring policy.
type TaskType string

// Task types.
const (
	Compounding TaskType = "Compounding"
	Milestone   TaskType = "Milestone"
	Maintenance TaskType = "Maintenance"
	Cyclical    TaskType = "Cyclical"
	Exploration TaskType = "Exploration"
)

// TaskTypes returns every task type.
func TaskTypes() []TaskType {
	return []TaskType{Compounding, Milestone, Maintenance, Cyclical, Exploration}
}

// Valid reports whether t is a known task type.
func (t TaskType) Valid() bool {
	for _, known := range TaskTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// ParseTaskType matches s case-insensitively against the known task types.
func ParseTaskType(s string) (TaskType, error) {
	s = strings.TrimSpace(s)
	for _, t := range TaskTypes() {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTaskType, s)
}
