// Package repository holds per-domain sample histories and the latest
// computed momentum scores.
package repository

import (
	"context"

	"github.com/okian/momentum/internal/domain/model"
)

// Entry represents a leaderboard row.
type Entry struct {
	Rank          int          `json:"rank"`
	Domain        model.Domain `json:"domain"`
	Velocity      float64      `json:"velocity"`
	MomentumScore float64      `json:"momentum_score"`
	Phase         model.Phase  `json:"phase"`
}

// History is a consistent view of one domain's samples.
type History struct {
	Domain   model.Domain
	Samples  []model.RawSample
	TaskType model.TaskType
	// Version increases on every change that affects the computed score.
	Version int
}

// Store provides read/write access to histories and scores.
type Store interface {
	// Append records a sample in timestamp order and returns the new
	// version of its domain.
	Append(ctx context.Context, s model.RawSample) (int, error)

	// History returns a copy of the samples, task type and version of domain.
	// Returns ErrNotFound if the domain is unknown.
	History(ctx context.Context, domain model.Domain) (History, error)

	// Samples returns a copy of the samples of domain in timestamp order.
	Samples(ctx context.Context, domain model.Domain) ([]model.RawSample, error)

	// SetTaskType assigns the scoring policy of domain and returns the new version.
	SetTaskType(ctx context.Context, domain model.Domain, t model.TaskType) (int, error)

	// TaskType returns the scoring policy of domain, Compounding when unset.
	TaskType(ctx context.Context, domain model.Domain) (model.TaskType, error)

	// PutScore stores score if version is not older than the stored one.
	// Returns false when the score was computed from a stale history.
	PutScore(ctx context.Context, score model.MomentumScore, version int) (bool, error)

	// Score returns the latest score of domain or ErrNotFound.
	Score(ctx context.Context, domain model.Domain) (model.MomentumScore, error)

	// Scores returns every stored score ordered by domain.
	Scores(ctx context.Context) ([]model.MomentumScore, error)

	// Leaderboard returns the top-n scored domains by velocity desc, domain asc.
	Leaderboard(ctx context.Context, n int) ([]Entry, error)

	// Domains returns every known domain in name order.
	Domains(ctx context.Context) []model.Domain

	// Count returns the number of known domains.
	Count(ctx context.Context) int

	// SampleCount returns the number of samples across all domains.
	SampleCount(ctx context.Context) int
}
