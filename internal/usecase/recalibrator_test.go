package usecase

import (
	"context"
	"testing"
	"time"

	"TradePulse/internal/analytics/consensus"
	"TradePulse/internal/domain/models"
	"TradePulse/internal/repository"
)

func TestRecalibrateAgainstMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryWeightStore(consensus.DefaultWeights())
	if err := store.SavePerformance(ctx, models.AgentTechnical, models.AgentPerformance{
		TotalDecisions: 20, SuccessfulDecisions: 16,
	}); err != nil {
		t.Fatalf("seed performance: %v", err)
	}

	r := NewRecalibrator(consensus.NewEngine(), store, time.Hour, testLogger(t))

	// The weight update and the audit append hit the same store; a cycle that
	// produces adjustments must still return promptly.
	done := make(chan error, 1)
	go func() { done <- r.Recalibrate(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("recalibrate: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("recalibrate did not return against the in-memory store")
	}

	weights, err := store.Weights(ctx)
	if err != nil {
		t.Fatalf("weights: %v", err)
	}
	want := consensus.DefaultWeights()[models.AgentTechnical] + 0.05
	if got := weights[models.AgentTechnical]; got != want {
		t.Fatalf("winning agent should gain 0.05: expected %v, got %v", want, got)
	}

	adjs, err := store.Adjustments(ctx, 10)
	if err != nil {
		t.Fatalf("adjustments: %v", err)
	}
	if len(adjs) != 1 || adjs[0].AgentID != models.AgentTechnical {
		t.Fatalf("expected one audit entry for %s, got %+v", models.AgentTechnical, adjs)
	}
}

func TestRecalibrateNoHistoryNoChanges(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryWeightStore(consensus.DefaultWeights())
	r := NewRecalibrator(consensus.NewEngine(), store, time.Hour, testLogger(t))

	if err := r.Recalibrate(ctx); err != nil {
		t.Fatalf("recalibrate: %v", err)
	}
	adjs, err := store.Adjustments(ctx, 10)
	if err != nil {
		t.Fatalf("adjustments: %v", err)
	}
	if len(adjs) != 0 {
		t.Fatalf("no performance history must produce no audit entries, got %+v", adjs)
	}
}
