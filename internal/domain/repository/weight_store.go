package repository

import (
	"context"
	"time"

	"TradePulse/internal/domain/models"
)

// WeightStore persists agent weights, performance records and the
// recalibration audit trail. Update applies fn under a store-level lock so
// concurrent recalibrations cannot interleave their read-modify-write cycles.
type WeightStore interface {
	Weights(ctx context.Context) (map[string]float64, error)
	Update(ctx context.Context, fn func(map[string]float64) (map[string]float64, error)) error
	Performance(ctx context.Context) (map[string]models.AgentPerformance, error)
	SavePerformance(ctx context.Context, agentID string, p models.AgentPerformance) error
	AppendAdjustments(ctx context.Context, adjs []models.WeightAdjustment) error
	Adjustments(ctx context.Context, limit int) ([]models.WeightAdjustment, error)
}

// PendingStore keeps published decisions until their outcome can be judged.
type PendingStore interface {
	Add(ctx context.Context, d models.PendingDecision) error
	Due(ctx context.Context, before time.Time) ([]models.PendingDecision, error)
	Remove(ctx context.Context, id string) error
}
