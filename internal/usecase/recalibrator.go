package usecase

import (
	"context"
	"fmt"
	"time"

	"TradePulse/internal/analytics/consensus"
	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	applogger "TradePulse/pkg/logger"
)

// Recalibrator periodically rebalances agent weights from their performance
// history. It is the single writer of the weight table; every change lands in
// the adjustment audit log.
type Recalibrator struct {
	engine   *consensus.Engine
	weights  domrepo.WeightStore
	interval time.Duration
	l        *applogger.Logger
}

func NewRecalibrator(engine *consensus.Engine, weights domrepo.WeightStore, interval time.Duration, l *applogger.Logger) *Recalibrator {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Recalibrator{engine: engine, weights: weights, interval: interval, l: l}
}

// Run executes the periodic recalibration until ctx is cancelled.
func (r *Recalibrator) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Recalibrate(ctx); err != nil {
				r.l.Error("recalibration failed", applogger.Error(err))
			}
		}
	}
}

// Recalibrate runs one weight adjustment cycle atomically against the store.
func (r *Recalibrator) Recalibrate(ctx context.Context) error {
	perf, err := r.weights.Performance(ctx)
	if err != nil {
		return fmt.Errorf("load performance: %w", err)
	}

	// The audit append happens after Update returns: the store may hold its
	// lock for the whole callback, and AppendAdjustments takes the same lock.
	now := time.Now()
	var adjustments []models.WeightAdjustment
	err = r.weights.Update(ctx, func(current map[string]float64) (map[string]float64, error) {
		if len(current) == 0 {
			current = consensus.DefaultWeights()
		}
		var next map[string]float64
		next, adjustments = r.engine.Recalibrate(current, perf, now)
		return next, nil
	})
	if err != nil {
		return fmt.Errorf("update weights: %w", err)
	}
	if len(adjustments) == 0 {
		return nil
	}
	if err := r.weights.AppendAdjustments(ctx, adjustments); err != nil {
		return fmt.Errorf("append adjustments: %w", err)
	}
	for _, adj := range adjustments {
		r.l.Info("agent weight adjusted",
			applogger.String("agent", adj.AgentID),
			applogger.Any("old", adj.OldWeight),
			applogger.Any("new", adj.NewWeight),
			applogger.String("reason", adj.Reason),
		)
	}
	return nil
}
