package consensus

import (
	"reflect"
	"testing"
	"time"

	"TradePulse/internal/domain/models"
)

func runAt() time.Time {
	return time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)
}

func bullishVotes() []models.AgentVote {
	return []models.AgentVote{
		{AgentID: models.AgentTechnical, Direction: models.DirectionBuy, Score: 0.8, Confidence: 0.9},
		{AgentID: models.AgentFundamental, Direction: models.DirectionBuy, Score: 0.7, Confidence: 0.8},
		{AgentID: models.AgentSentiment, Direction: models.DirectionBuy, Score: 0.6, Confidence: 0.7},
		{AgentID: models.AgentChip, Direction: models.DirectionBuy, Score: 0.75, Confidence: 0.85},
		{AgentID: models.AgentRiskControl, Direction: models.DirectionHold, Score: 0.1, Confidence: 0.6},
	}
}

func TestAggregateRiskVeto(t *testing.T) {
	e := NewEngine()
	votes := bullishVotes()
	votes[4] = models.AgentVote{
		AgentID: models.AgentRiskControl, Direction: models.DirectionSell, Score: -0.8, Confidence: 0.95,
	}
	res := e.Aggregate(Input{
		Symbol: "600519", Price: 1700, Votes: votes,
		Weights: DefaultWeights(), At: runAt(),
	})
	if !res.Vetoed {
		t.Fatalf("risk score -0.8 must trigger the veto")
	}
	if res.FinalDecision != models.DirectionSell || res.RiskLevel != models.RiskHigh {
		t.Fatalf("veto must force sell/high, got %s/%s", res.FinalDecision, res.RiskLevel)
	}
	if res.Confidence != 0.95 {
		t.Fatalf("vetoed confidence should be the risk vote's, got %v", res.Confidence)
	}
}

func TestAggregateBullishConsensus(t *testing.T) {
	e := NewEngine()
	res := e.Aggregate(Input{
		Symbol: "600519", Price: 1700, Votes: bullishVotes(),
		Weights: DefaultWeights(), At: runAt(),
	})
	if res.FinalDecision != models.DirectionBuy {
		t.Fatalf("expected buy, got %s (score %v)", res.FinalDecision, res.TotalScore)
	}
	if res.RiskLevel != models.RiskMedium {
		t.Fatalf("score %v should map to medium risk, got %s", res.TotalScore, res.RiskLevel)
	}
	if res.Confidence <= 0 || res.Confidence > 1 {
		t.Fatalf("confidence out of range: %v", res.Confidence)
	}
	if res.TargetPrice <= 1700 || res.StopLoss >= 1700 {
		t.Fatalf("buy must place target above and stop below entry, got %v / %v", res.TargetPrice, res.StopLoss)
	}
}

func TestAggregateFragmentedVotesHold(t *testing.T) {
	e := NewEngine()
	votes := []models.AgentVote{
		{AgentID: models.AgentTechnical, Direction: models.DirectionBuy, Score: 0.3, Confidence: 0.6},
		{AgentID: models.AgentFundamental, Direction: models.DirectionSell, Score: -0.3, Confidence: 0.6},
		{AgentID: models.AgentSentiment, Direction: models.DirectionHold, Score: 0, Confidence: 0.5},
		{AgentID: models.AgentChip, Direction: models.DirectionBuy, Score: 0.2, Confidence: 0.6},
		{AgentID: models.AgentRiskControl, Direction: models.DirectionSell, Score: -0.2, Confidence: 0.6},
	}
	res := e.Aggregate(Input{Symbol: "000001", Price: 12, Votes: votes, Weights: DefaultWeights(), At: runAt()})
	if res.FinalDecision != models.DirectionHold {
		t.Fatalf("fragmented low-score votes should hold, got %s", res.FinalDecision)
	}
	if res.RiskLevel != models.RiskMedium {
		t.Fatalf("hold without consensus should be medium risk, got %s", res.RiskLevel)
	}
	if res.TargetPrice != 0 || res.StopLoss != 0 {
		t.Fatalf("hold places no target/stop")
	}
}

func TestAggregateDeterministic(t *testing.T) {
	e := NewEngine()
	in := Input{
		Symbol: "600519", Price: 1700, Votes: bullishVotes(),
		Weights: DefaultWeights(),
		Performance: map[string]models.AgentPerformance{
			models.AgentTechnical: {TotalDecisions: 20, SuccessfulDecisions: 14, AverageScore: 0.6},
		},
		At: runAt(),
	}
	a := e.Aggregate(in)
	b := e.Aggregate(in)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("identical inputs must produce identical results:\n%+v\n%+v", a, b)
	}
}

func TestAggregateEmptyVotes(t *testing.T) {
	res := NewEngine().Aggregate(Input{Symbol: "600519", Price: 1700, At: runAt()})
	if res.FinalDecision != models.DirectionHold || res.Vetoed {
		t.Fatalf("no votes must yield a quiet hold, got %+v", res)
	}
}

func TestPerformanceMultiplierBounds(t *testing.T) {
	e := NewEngine()
	hot := models.AgentPerformance{TotalDecisions: 50, SuccessfulDecisions: 50, AverageScore: 1}
	if m := e.PerformanceMultiplier(models.AgentTechnical, hot); m != 1.3 {
		t.Fatalf("perfect record caps at 1.3, got %v", m)
	}
	cold := models.AgentPerformance{TotalDecisions: 50, SuccessfulDecisions: 0, AverageScore: -2}
	if m := e.PerformanceMultiplier(models.AgentTechnical, cold); m != 0.7 {
		t.Fatalf("hopeless record floors at 0.7, got %v", m)
	}
	// Once history exists the prior is out of the picture entirely.
	if rm := e.PerformanceMultiplier(models.AgentRiskControl, hot); rm != 1.3 {
		t.Fatalf("track record must stay in [0.7, 1.3] regardless of agent, got %v", rm)
	}
}

func TestPerformanceMultiplierPriorsWithoutHistory(t *testing.T) {
	e := NewEngine()
	none := models.AgentPerformance{}
	if m := e.PerformanceMultiplier(models.AgentRiskControl, none); m != 1.2 {
		t.Fatalf("risk control prior is 1.2, got %v", m)
	}
	if m := e.PerformanceMultiplier(models.AgentSentiment, none); m != 0.9 {
		t.Fatalf("sentiment prior is 0.9, got %v", m)
	}
	if m := e.PerformanceMultiplier("unknown_agent", none); m != 1 {
		t.Fatalf("unknown agents default to a neutral multiplier, got %v", m)
	}
	// And the prior reaches the weighted score when no history exists.
	w := e.effectiveWeight(models.AgentRiskControl, DefaultWeights(), nil)
	if diff := w - 0.24; diff > 1e-12 || diff < -1e-12 {
		t.Fatalf("expected 0.2 weight scaled by the 1.2 prior, got %v", w)
	}
}

func TestRecalibrateRules(t *testing.T) {
	e := NewEngine()
	weights := DefaultWeights()
	perf := map[string]models.AgentPerformance{
		models.AgentTechnical:   {TotalDecisions: 20, SuccessfulDecisions: 15},                         // win rate 0.75 -> up
		models.AgentSentiment:   {TotalDecisions: 20, SuccessfulDecisions: 4},                          // win rate 0.2 -> down
		models.AgentChip:        {TotalDecisions: 20, SuccessfulDecisions: 10, ConsecutiveFailures: 4}, // streak -> down hard
		models.AgentFundamental: {TotalDecisions: 5, SuccessfulDecisions: 5},                           // too little history
	}
	out, adjustments := e.Recalibrate(weights, perf, runAt())

	if out[models.AgentTechnical] != weights[models.AgentTechnical]+0.05 {
		t.Fatalf("winning agent should gain 0.05, got %v", out[models.AgentTechnical])
	}
	if out[models.AgentSentiment] != weights[models.AgentSentiment]-0.05 {
		t.Fatalf("losing agent should drop 0.05, got %v", out[models.AgentSentiment])
	}
	if out[models.AgentChip] != weights[models.AgentChip]-0.08 {
		t.Fatalf("failure streak should drop 0.08, got %v", out[models.AgentChip])
	}
	if out[models.AgentFundamental] != weights[models.AgentFundamental] {
		t.Fatalf("short history must not move the weight")
	}
	if len(adjustments) != 3 {
		t.Fatalf("expected 3 audit entries, got %d", len(adjustments))
	}
	for _, adj := range adjustments {
		if adj.Reason == "" || adj.OldWeight == adj.NewWeight {
			t.Fatalf("audit entry must record a reason and a real change: %+v", adj)
		}
	}
	if weights[models.AgentTechnical] != 0.25 {
		t.Fatalf("input weight table must not be mutated")
	}
}

func TestRecalibrateStaysBounded(t *testing.T) {
	e := NewEngine()
	weights := DefaultWeights()
	winning := map[string]models.AgentPerformance{
		models.AgentTechnical: {TotalDecisions: 100, SuccessfulDecisions: 90},
	}
	losing := map[string]models.AgentPerformance{
		models.AgentSentiment: {TotalDecisions: 100, SuccessfulDecisions: 0, ConsecutiveFailures: 50},
	}
	for i := 0; i < 50; i++ {
		weights, _ = e.Recalibrate(weights, winning, runAt())
		weights, _ = e.Recalibrate(weights, losing, runAt())
	}
	for agent, w := range weights {
		if w < 0.05 || w > 0.5 {
			t.Fatalf("weight for %s escaped [0.05, 0.5]: %v", agent, w)
		}
	}
}
