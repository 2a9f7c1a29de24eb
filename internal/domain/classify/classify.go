// Package classify assigns a domain and task type to free-form task text.
// The Classifier interface is the seam for an external model; the
// keyword implementation here is the offline fallback.
package classify

import (
	"context"
	"errors"
	"strings"

	"github.com/okian/momentum/internal/domain/model"
)

// ErrEmptyText is returned when there is nothing to classify.
var ErrEmptyText = errors.New("classify: empty text")

// Difficulty is a coarse effort estimate.
type Difficulty string

// Difficulties.
const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

// Result is a classification with its rationale.
type Result struct {
	Domain         model.Domain   `json:"domain"`
	TaskType       model.TaskType `json:"task_type"`
	Confidence     float64        `json:"confidence"`
	Reasoning      string         `json:"reasoning"`
	Difficulty     Difficulty     `json:"difficulty"`
	EstimatedHours float64        `json:"estimated_hours"`
}

// Classifier maps task text to a domain and task type.
type Classifier interface {
	Classify(ctx context.Context, text string) (Result, error)
}

type rule[T any] struct {
	keywords []string
	value    T
	reason   string
}

var domainRules = []rule[model.Domain]{
	{[]string{"sleep", "exercise", "meditation", "health"}, model.Health, "health keywords"},
	{[]string{"focus", "deep work", "concentration", "distraction"}, model.Focus, "focus keywords"},
	{[]string{"learn", "study", "course", "skill"}, model.Learning, "learning keywords"},
	{[]string{"mood", "happiness", "gratitude", "social"}, model.Mood, "mood keywords"},
}

var taskTypeRules = []rule[model.TaskType]{
	{[]string{"daily", "every day", "routine"}, model.Cyclical, "routine keywords"},
	{[]string{"goal", "target", "milestone"}, model.Milestone, "milestone keywords"},
	{[]string{"maintain", "keep", "sustain"}, model.Maintenance, "maintenance keywords"},
	{[]string{"explore", "try", "experiment"}, model.Exploration, "exploration keywords"},
}

const (
	keywordConfidence = 0.85
	shortTaskWords    = 5
	longTaskWords     = 15
)

// KeywordClassifier matches substrings in rule order; the first rule with
// any matching keyword wins.
type KeywordClassifier struct{}

// NewKeywordClassifier returns the keyword-based Classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Classify implements Classifier.
func (KeywordClassifier) Classify(ctx context.Context, text string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrEmptyText
	}
	lower := strings.ToLower(text)

	domain, domainReason := match(lower, domainRules, model.Output, "no domain keywords, defaulting to Output")
	taskType, typeReason := match(lower, taskTypeRules, model.Compounding, "no task type keywords, defaulting to Compounding")

	r := Result{
		Domain:         domain,
		TaskType:       taskType,
		Confidence:     keywordConfidence,
		Reasoning:      domainReason + "; " + typeReason,
		Difficulty:     Medium,
		EstimatedHours: 1,
	}
	switch words := len(strings.Fields(text)); {
	case words < shortTaskWords:
		r.Difficulty, r.EstimatedHours = Easy, 0.5
	case words > longTaskWords:
		r.Difficulty, r.EstimatedHours = Hard, 3
	}
	return r, nil
}

func match[T any](text string, rules []rule[T], fallback T, fallbackReason string) (T, string) {
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				return r.value, r.reason
			}
		}
	}
	return fallback, fallbackReason
}
