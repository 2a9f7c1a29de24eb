// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Domain tags the life category a sample belongs to. The predefined
// domains are listed in Domains; any other non-empty tag is user-defined.
type Domain string

// Predefined domains.
const (
	Health   Domain = "Health"
	Focus    Domain = "Focus"
	Output   Domain = "Output"
	Learning Domain = "Learning"
	Mood     Domain = "Mood"
)

// Domains returns the predefined domains in display order.
func Domains() []Domain {
	return []Domain{Health, Focus, Output, Learning, Mood}
}

// ParseDomain normalizes a domain tag. Predefined domains match
// case-insensitively; other tags are kept as given after trimming.
func ParseDomain(s string) (Domain, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty domain", ErrInvalidDomain)
	}
	for _, d := range Domains() {
		if strings.EqualFold(s, string(d)) {
			return d, nil
		}
	}
	return Domain(s), nil
}

// RawSample is one observed metric reading. Immutable once recorded.
type RawSample struct {
	ID        string    `json:"id"`
	Domain    Domain    `json:"domain"`
	Timestamp time.Time `json:"ts"`
	Value     float64   `json:"value"`
}
