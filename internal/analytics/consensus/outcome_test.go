package consensus

import (
	"testing"

	"TradePulse/internal/domain/models"
)

func TestEvaluateOutcome(t *testing.T) {
	cases := []struct {
		decision models.Direction
		entry    float64
		current  float64
		want     bool
	}{
		{models.DirectionBuy, 100, 106, true},
		{models.DirectionBuy, 100, 104, false},
		{models.DirectionSell, 100, 94, true},
		{models.DirectionSell, 100, 97, false},
		{models.DirectionHold, 100, 103, true},
		{models.DirectionHold, 100, 106, false},
		{models.DirectionHold, 100, 93, false},
		// a move landing exactly on the threshold counts for buy/sell, not hold
		{models.DirectionBuy, 100, 105, true},
		{models.DirectionSell, 100, 95, true},
		{models.DirectionHold, 100, 105, false},
		{models.DirectionHold, 100, 95, false},
		{models.DirectionBuy, 0, 106, false},
	}
	for _, c := range cases {
		if got := EvaluateOutcome(c.decision, c.entry, c.current); got != c.want {
			t.Fatalf("%s %v->%v: expected %v, got %v", c.decision, c.entry, c.current, c.want, got)
		}
	}
}

func TestFeedbackPathsDivergeOnHolds(t *testing.T) {
	// The batch sweep and the on-demand path score a correct hold differently.
	// This asymmetry is load-bearing for weight drift; keep it.
	if got := BatchFeedbackScore(models.DirectionHold, true); got != 0.5 {
		t.Fatalf("batch path scores a correct hold 0.5, got %v", got)
	}
	if got := ImmediateFeedbackScore(true); got != 1 {
		t.Fatalf("on-demand path scores any success 1, got %v", got)
	}
	if BatchFeedbackScore(models.DirectionBuy, true) != 1 || BatchFeedbackScore(models.DirectionSell, true) != 1 {
		t.Fatalf("batch path scores correct buy/sell 1")
	}
	if BatchFeedbackScore(models.DirectionBuy, false) != -1 || BatchFeedbackScore(models.DirectionHold, false) != -1 {
		t.Fatalf("batch path charges a full point for any failure")
	}
	if ImmediateFeedbackScore(false) != -1 {
		t.Fatalf("on-demand path charges a full point for any failure")
	}
}

func TestUpdatePerformance(t *testing.T) {
	p := models.AgentPerformance{}
	p = UpdatePerformance(p, true, 1)
	p = UpdatePerformance(p, false, -1)
	p = UpdatePerformance(p, false, -1)

	if p.TotalDecisions != 3 || p.SuccessfulDecisions != 1 {
		t.Fatalf("counts wrong: %+v", p)
	}
	if p.ConsecutiveFailures != 2 {
		t.Fatalf("expected failure streak 2, got %d", p.ConsecutiveFailures)
	}
	if diff := p.AverageScore + 1.0/3.0; diff > 1e-12 || diff < -1e-12 {
		t.Fatalf("running average wrong: %v", p.AverageScore)
	}

	p = UpdatePerformance(p, true, 0.5)
	if p.ConsecutiveFailures != 0 {
		t.Fatalf("success must reset the failure streak")
	}
	if got := p.WinRate(); got != 0.5 {
		t.Fatalf("win rate: expected 0.5, got %v", got)
	}
}
