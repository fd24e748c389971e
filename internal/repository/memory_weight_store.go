package repository

import (
	"context"
	"sync"
	"time"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
)

// MemoryWeightStore is an in-process WeightStore for tests and single-node
// deployments without Redis.
type MemoryWeightStore struct {
	mu          sync.Mutex
	weights     map[string]float64
	performance map[string]models.AgentPerformance
	adjustments []models.WeightAdjustment
}

// NewMemoryWeightStore creates an empty in-memory weight store seeded with
// the given weights.
func NewMemoryWeightStore(seed map[string]float64) *MemoryWeightStore {
	weights := make(map[string]float64, len(seed))
	for k, v := range seed {
		weights[k] = v
	}
	return &MemoryWeightStore{
		weights:     weights,
		performance: make(map[string]models.AgentPerformance),
	}
}

func (s *MemoryWeightStore) Weights(ctx context.Context) (map[string]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyWeights(s.weights), nil
}

func (s *MemoryWeightStore) Update(ctx context.Context, fn func(map[string]float64) (map[string]float64, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fn(copyWeights(s.weights))
	if err != nil {
		return err
	}
	s.weights = copyWeights(next)
	return nil
}

func (s *MemoryWeightStore) Performance(ctx context.Context) (map[string]models.AgentPerformance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]models.AgentPerformance, len(s.performance))
	for k, v := range s.performance {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryWeightStore) SavePerformance(ctx context.Context, agentID string, p models.AgentPerformance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.performance[agentID] = p
	return nil
}

func (s *MemoryWeightStore) AppendAdjustments(ctx context.Context, adjs []models.WeightAdjustment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adjustments = append(s.adjustments, adjs...)
	return nil
}

func (s *MemoryWeightStore) Adjustments(ctx context.Context, limit int) ([]models.WeightAdjustment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > len(s.adjustments) {
		limit = len(s.adjustments)
	}
	// newest first, like the Redis store
	out := make([]models.WeightAdjustment, 0, limit)
	for i := len(s.adjustments) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.adjustments[i])
	}
	return out, nil
}

func copyWeights(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// MemoryPendingStore is an in-process PendingStore for tests.
type MemoryPendingStore struct {
	mu      sync.Mutex
	pending map[string]models.PendingDecision
}

// NewMemoryPendingStore creates an empty in-memory pending store.
func NewMemoryPendingStore() *MemoryPendingStore {
	return &MemoryPendingStore{pending: make(map[string]models.PendingDecision)}
}

func (s *MemoryPendingStore) Add(ctx context.Context, d models.PendingDecision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[d.ID] = d
	return nil
}

func (s *MemoryPendingStore) Due(ctx context.Context, before time.Time) ([]models.PendingDecision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.PendingDecision, 0, len(s.pending))
	for _, d := range s.pending {
		if d.CreatedAt.After(before) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *MemoryPendingStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, id)
	return nil
}

var _ repository.WeightStore = (*MemoryWeightStore)(nil)
var _ repository.PendingStore = (*MemoryPendingStore)(nil)
var _ repository.WeightStore = (*RedisWeightStore)(nil)
