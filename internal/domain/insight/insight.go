// Package insight derives human-facing observations, alerts and weekly
// summaries from computed momentum scores. All functions are pure.
package insight

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/okian/momentum/internal/domain/model"
)

// Tone classifies an insight.
type Tone string

// Tones.
const (
	Positive Tone = "positive"
	Negative Tone = "negative"
	Neutral  Tone = "neutral"
)

// Priority ranks insights and alerts for display.
type Priority string

// Priorities.
const (
	Low    Priority = "low"
	Medium Priority = "medium"
	High   Priority = "high"
)

// Thresholds.
const (
	HotVelocity      = 0.1
	ColdVelocity     = -0.05
	AlertVelocity    = -0.1
	LongStreak       = 7
	MaxImprovedGoals = 3
)

// Insight is one observation about the current momentum picture.
type Insight struct {
	Tone        Tone         `json:"tone"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Action      string       `json:"action,omitempty"`
	Priority    Priority     `json:"priority"`
	Domain      model.Domain `json:"domain,omitempty"`
}

// AlertKind names the trigger of an alert.
type AlertKind string

// Alert kinds.
const (
	MomentumAlert     AlertKind = "momentum_alert"
	StreakCelebration AlertKind = "streak_celebration"
)

// Alert is a notification-worthy event. Delivery is left to the caller.
type Alert struct {
	ID        string       `json:"id"`
	Kind      AlertKind    `json:"kind"`
	Domain    model.Domain `json:"domain"`
	Title     string       `json:"title"`
	Message   string       `json:"message"`
	Priority  Priority     `json:"priority"`
	CreatedAt time.Time    `json:"created_at"`
}

// Review is the weekly summary.
type Review struct {
	Week            int      `json:"week"`
	Summary         string   `json:"summary"`
	Highlights      []string `json:"highlights"`
	Challenges      []string `json:"challenges"`
	Recommendations []string `json:"recommendations"`
	NextWeekGoals   []string `json:"next_week_goals"`
}

// byVelocity orders scores fastest first; ties break on domain name.
func byVelocity(scores []model.MomentumScore) []model.MomentumScore {
	sorted := slices.Clone(scores)
	slices.SortStableFunc(sorted, func(a, b model.MomentumScore) int {
		if c := cmp.Compare(b.Velocity, a.Velocity); c != 0 {
			return c
		}
		return strings.Compare(string(a.Domain), string(b.Domain))
	})
	return sorted
}

// Analyze reports the top performer if it is accelerating clearly, the
// bottom performer if it is declining, and any long streaks.
func Analyze(scores []model.MomentumScore) []Insight {
	if len(scores) == 0 {
		return nil
	}
	sorted := byVelocity(scores)
	top, bottom := sorted[0], sorted[len(sorted)-1]

	var out []Insight
	if top.Velocity > HotVelocity {
		out = append(out, Insight{
			Tone:        Positive,
			Title:       fmt.Sprintf("%s is on a roll", top.Domain),
			Description: fmt.Sprintf("%s momentum is strong at %.2f velocity.", top.Domain, top.Velocity),
			Action:      "Consider putting more focus here",
			Priority:    Medium,
			Domain:      top.Domain,
		})
	}
	if bottom.Velocity < ColdVelocity {
		out = append(out, Insight{
			Tone:        Negative,
			Title:       fmt.Sprintf("%s needs attention", bottom.Domain),
			Description: fmt.Sprintf("%s momentum is declining at %.2f velocity.", bottom.Domain, bottom.Velocity),
			Action:      "Review what is causing the decline",
			Priority:    High,
			Domain:      bottom.Domain,
		})
	}

	long := 0
	for _, s := range scores {
		if s.Streak >= LongStreak {
			long++
		}
	}
	if long > 0 {
		plural := ""
		if long > 1 {
			plural = "s"
		}
		out = append(out, Insight{
			Tone:        Positive,
			Title:       "Long streaks",
			Description: fmt.Sprintf("%d domain%s with a streak of %d days or more.", long, plural, LongStreak),
			Priority:    Low,
		})
	}
	return out
}

// Alerts returns a momentum alert for every sharply declining domain and a
// celebration for every domain whose streak just reached a whole week.
func Alerts(scores []model.MomentumScore, now time.Time) []Alert {
	var out []Alert
	for _, s := range scores {
		if s.Velocity < AlertVelocity {
			out = append(out, Alert{
				ID:        "momentum-" + string(s.Domain),
				Kind:      MomentumAlert,
				Domain:    s.Domain,
				Title:     fmt.Sprintf("%s momentum alert", s.Domain),
				Message:   fmt.Sprintf("%s momentum is declining; consider reviewing your approach.", s.Domain),
				Priority:  High,
				CreatedAt: now,
			})
		}
	}
	for _, s := range scores {
		if s.Streak >= LongStreak && s.Streak%LongStreak == 0 {
			out = append(out, Alert{
				ID:        "streak-" + string(s.Domain),
				Kind:      StreakCelebration,
				Domain:    s.Domain,
				Title:     fmt.Sprintf("%d day streak", s.Streak),
				Message:   fmt.Sprintf("%s kept going for %d days straight.", s.Domain, s.Streak),
				Priority:  Medium,
				CreatedAt: now,
			})
		}
	}
	return out
}

// WeeklyReview summarizes Analyze for the given week and proposes up to
// three improvement goals from the domains losing momentum.
func WeeklyReview(scores []model.MomentumScore, week int) Review {
	insights := Analyze(scores)
	r := Review{
		Week:            week,
		Highlights:      []string{},
		Challenges:      []string{},
		Recommendations: []string{},
		NextWeekGoals:   []string{},
	}
	for _, in := range insights {
		switch in.Tone {
		case Positive:
			r.Highlights = append(r.Highlights, in.Title)
		case Negative:
			r.Challenges = append(r.Challenges, in.Title)
		}
		if in.Action != "" {
			r.Recommendations = append(r.Recommendations, in.Action)
		}
	}
	r.Summary = fmt.Sprintf("Week %d showed %d positive trends and %d areas needing attention.",
		week, len(r.Highlights), len(r.Challenges))

	for _, s := range scores {
		if len(r.NextWeekGoals) == MaxImprovedGoals {
			break
		}
		if s.Velocity < 0 {
			r.NextWeekGoals = append(r.NextWeekGoals, fmt.Sprintf("Improve %s momentum", strings.ToLower(string(s.Domain))))
		}
	}
	return r
}
