package repository

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/okian/momentum/internal/domain/model"
	"github.com/okian/momentum/pkg/metrics"
)

type domainState struct {
	samples       []model.RawSample
	taskType      model.TaskType
	version       int
	score         *model.MomentumScore
	scoredVersion int
}

// MemoryStore is an in-memory Store. All methods are safe for concurrent use.
type MemoryStore struct {
	mu           sync.RWMutex
	domains      map[model.Domain]*domainState
	index        velocityIndex
	samples      int
	historyLimit int
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{domains: make(map[model.Domain]*domainState)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
}

// state returns the state of d, creating it. Must be called with s.mu held.
func (s *MemoryStore) state(d model.Domain) *domainState {
	st, ok := s.domains[d]
	if !ok {
		st = &domainState{taskType: model.Compounding}
		s.domains[d] = st
	}
	return st
}

// Append implements Store.Append. Samples with equal timestamps keep arrival order.
func (s *MemoryStore) Append(_ context.Context, sample model.RawSample) (int, error) {
	defer observe("append", time.Now())

	if sample.Domain == "" {
		return 0, fmt.Errorf("%w: empty domain", ErrInvalidSample)
	}
	if math.IsNaN(sample.Value) || math.IsInf(sample.Value, 0) {
		return 0, fmt.Errorf("%w: non-finite value %v", ErrInvalidSample, sample.Value)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(sample.Domain)
	i := sort.Search(len(st.samples), func(i int) bool {
		return st.samples[i].Timestamp.After(sample.Timestamp)
	})
	st.samples = slices.Insert(st.samples, i, sample)
	s.samples++
	if s.historyLimit > 0 && len(st.samples) > s.historyLimit {
		drop := len(st.samples) - s.historyLimit
		st.samples = slices.Delete(st.samples, 0, drop)
		s.samples -= drop
	}
	st.version++

	metrics.UpdateStoredSamples(s.samples)
	metrics.UpdateTrackedDomains(len(s.domains))
	return st.version, nil
}

// History implements Store.History.
func (s *MemoryStore) History(_ context.Context, d model.Domain) (History, error) {
	defer observe("history", time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.domains[d]
	if !ok {
		return History{}, fmt.Errorf("%w: %s", ErrNotFound, d)
	}
	return History{
		Domain:   d,
		Samples:  slices.Clone(st.samples),
		TaskType: st.taskType,
		Version:  st.version,
	}, nil
}

// Samples implements Store.Samples.
func (s *MemoryStore) Samples(ctx context.Context, d model.Domain) ([]model.RawSample, error) {
	h, err := s.History(ctx, d)
	if err != nil {
		return nil, err
	}
	return h.Samples, nil
}

// SetTaskType implements Store.SetTaskType.
func (s *MemoryStore) SetTaskType(_ context.Context, d model.Domain, t model.TaskType) (int, error) {
	if !t.Valid() {
		return 0, fmt.Errorf("%w: %q", model.ErrInvalidTaskType, t)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(d)
	if st.taskType != t {
		st.taskType = t
		st.version++
	}
	metrics.UpdateTrackedDomains(len(s.domains))
	return st.version, nil
}

// TaskType implements Store.TaskType.
func (s *MemoryStore) TaskType(_ context.Context, d model.Domain) (model.TaskType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.domains[d]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, d)
	}
	return st.taskType, nil
}

// PutScore implements Store.PutScore.
func (s *MemoryStore) PutScore(_ context.Context, score model.MomentumScore, version int) (bool, error) {
	defer observe("put_score", time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.domains[score.Domain]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrNotFound, score.Domain)
	}
	if st.score != nil && version < st.scoredVersion {
		return false, nil
	}

	var old float64
	hadOld := st.score != nil
	if hadOld {
		old = st.score.Velocity
	}
	s.index.upsert(score.Domain, old, hadOld, score.Velocity)
	st.score = &score
	st.scoredVersion = version
	return true, nil
}

// Score implements Store.Score.
func (s *MemoryStore) Score(_ context.Context, d model.Domain) (model.MomentumScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.domains[d]
	if !ok || st.score == nil {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.MomentumScore{}, fmt.Errorf("%w: %s", ErrNotFound, d)
	}
	return *st.score, nil
}

// Scores implements Store.Scores.
func (s *MemoryStore) Scores(_ context.Context) ([]model.MomentumScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.MomentumScore, 0, s.index.len())
	for _, st := range s.domains {
		if st.score != nil {
			out = append(out, *st.score)
		}
	}
	slices.SortFunc(out, func(a, b model.MomentumScore) int {
		return cmp.Compare(a.Domain, b.Domain)
	})
	return out, nil
}

// Leaderboard implements Store.Leaderboard in O(n + log N) expected time.
func (s *MemoryStore) Leaderboard(_ context.Context, n int) ([]Entry, error) {
	defer observe("leaderboard", time.Now())

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	top := s.index.top(n)
	out := make([]Entry, len(top))
	for i, d := range top {
		sc := s.domains[d].score
		out[i] = Entry{
			Rank:          i + 1,
			Domain:        d,
			Velocity:      sc.Velocity,
			MomentumScore: sc.MomentumScore,
			Phase:         sc.Phase,
		}
	}
	return out, nil
}

// Domains implements Store.Domains.
func (s *MemoryStore) Domains(_ context.Context) []model.Domain {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Domain, 0, len(s.domains))
	for d := range s.domains {
		out = append(out, d)
	}
	slices.Sort(out)
	return out
}

// Count implements Store.Count.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.domains)
}

// SampleCount implements Store.SampleCount.
func (s *MemoryStore) SampleCount(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.samples
}
