package usecase

import (
	"context"
	"testing"
	"time"

	"TradePulse/internal/analytics/consensus"
	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	"TradePulse/internal/repository"
)

func flatBars(price float64) []models.PriceBar {
	return []models.PriceBar{{
		Timestamp: time.Now().UnixMilli(),
		Open:      price, High: price, Low: price, Close: price,
		Volume: 1000,
	}}
}

func pendingFixture(decision models.Direction, entry float64, age time.Duration) models.PendingDecision {
	return models.PendingDecision{
		ID:        "d1",
		Symbol:    "600519",
		Decision:  decision,
		Price:     entry,
		CreatedAt: time.Now().Add(-age),
		Votes: []models.AgentVote{
			{AgentID: models.AgentTechnical, Direction: decision, Score: 0.8, Confidence: 0.9},
			{AgentID: models.AgentChip, Direction: models.DirectionHold, Score: 0.1, Confidence: 0.6},
		},
	}
}

func newTestTracker(t *testing.T, currentPrice float64, pending domrepo.PendingStore, weights domrepo.WeightStore) *OutcomeTracker {
	t.Helper()
	return NewOutcomeTracker(
		pending,
		&fakeBarStore{bars: flatBars(currentPrice)},
		weights,
		time.Minute, time.Hour,
		domrepo.TF1d,
		testLogger(t),
	)
}

func TestSweepEvaluatesAgedDecisions(t *testing.T) {
	ctx := context.Background()
	pending := repository.NewMemoryPendingStore()
	weights := repository.NewMemoryWeightStore(consensus.DefaultWeights())

	// Buy at 100, now 110: the buy vote succeeded, the hold vote did not.
	_ = pending.Add(ctx, pendingFixture(models.DirectionBuy, 100, 2*time.Hour))

	tracker := newTestTracker(t, 110, pending, weights)
	if err := tracker.Sweep(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	perf, _ := weights.Performance(ctx)
	tech := perf[models.AgentTechnical]
	if tech.TotalDecisions != 1 || tech.SuccessfulDecisions != 1 {
		t.Fatalf("buy voter should score a success: %+v", tech)
	}
	if tech.AverageScore != 1 {
		t.Fatalf("batch path scores a correct buy 1, got %v", tech.AverageScore)
	}
	chipPerf := perf[models.AgentChip]
	if chipPerf.SuccessfulDecisions != 0 || chipPerf.ConsecutiveFailures != 1 {
		t.Fatalf("hold voter missed a 10%% move and should fail: %+v", chipPerf)
	}

	due, _ := pending.Due(ctx, time.Now())
	if len(due) != 0 {
		t.Fatalf("evaluated decision must leave the pending set")
	}
}

func TestSweepSkipsFreshDecisions(t *testing.T) {
	ctx := context.Background()
	pending := repository.NewMemoryPendingStore()
	weights := repository.NewMemoryWeightStore(consensus.DefaultWeights())

	_ = pending.Add(ctx, pendingFixture(models.DirectionBuy, 100, 10*time.Minute))

	tracker := newTestTracker(t, 110, pending, weights)
	if err := tracker.Sweep(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	perf, _ := weights.Performance(ctx)
	if len(perf) != 0 {
		t.Fatalf("fresh decision must not be evaluated yet")
	}
}

func TestOnDemandPathScoresHoldsFull(t *testing.T) {
	ctx := context.Background()

	// A correct hold: price stayed within the band.
	d := pendingFixture(models.DirectionHold, 100, 2*time.Hour)
	d.Votes = []models.AgentVote{
		{AgentID: models.AgentSentiment, Direction: models.DirectionHold, Score: 0, Confidence: 0.5},
	}

	batchPending := repository.NewMemoryPendingStore()
	batchWeights := repository.NewMemoryWeightStore(nil)
	_ = batchPending.Add(ctx, d)
	if err := newTestTracker(t, 102, batchPending, batchWeights).Sweep(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	demandPending := repository.NewMemoryPendingStore()
	demandWeights := repository.NewMemoryWeightStore(nil)
	_ = demandPending.Add(ctx, d)
	if err := newTestTracker(t, 102, demandPending, demandWeights).EvaluateNow(ctx, d); err != nil {
		t.Fatalf("evaluate now: %v", err)
	}

	batchPerf, _ := batchWeights.Performance(ctx)
	demandPerf, _ := demandWeights.Performance(ctx)
	if batchPerf[models.AgentSentiment].AverageScore != 0.5 {
		t.Fatalf("batch path scores a correct hold 0.5, got %v", batchPerf[models.AgentSentiment].AverageScore)
	}
	if demandPerf[models.AgentSentiment].AverageScore != 1 {
		t.Fatalf("on-demand path scores a correct hold 1, got %v", demandPerf[models.AgentSentiment].AverageScore)
	}
}
