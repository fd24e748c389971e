package consensus

import (
	"math"

	"TradePulse/internal/domain/models"
)

// OutcomeThresholdPct is the price move that separates a correct call from an
// incorrect one.
const OutcomeThresholdPct = 0.05

// EvaluateOutcome judges a decision against the price observed later. A buy
// is right when the price rose by at least the threshold, a sell when it fell
// by at least as much, a hold when it stayed strictly inside the band. A move
// landing exactly on the threshold counts for buy and sell, not for hold.
// Non-positive entry prices are never successes.
func EvaluateOutcome(decision models.Direction, entryPrice, currentPrice float64) bool {
	if entryPrice <= 0 {
		return false
	}
	change := (currentPrice - entryPrice) / entryPrice
	switch decision {
	case models.DirectionBuy:
		return change >= OutcomeThresholdPct
	case models.DirectionSell:
		return change <= -OutcomeThresholdPct
	case models.DirectionHold:
		return math.Abs(change) < OutcomeThresholdPct
	default:
		return false
	}
}

// BatchFeedbackScore is the reward used by the periodic tracker sweep:
// correct buys and sells earn a full point, correct holds half a point,
// failures cost a point.
func BatchFeedbackScore(decision models.Direction, success bool) float64 {
	if !success {
		return -1
	}
	if decision == models.DirectionHold {
		return 0.5
	}
	return 1
}

// ImmediateFeedbackScore is the reward used by the on-demand evaluation path:
// any success earns a full point, any failure costs one. The two paths
// intentionally disagree on holds; see the tracker documentation before
// changing either.
func ImmediateFeedbackScore(success bool) float64 {
	if success {
		return 1
	}
	return -1
}

// UpdatePerformance folds one evaluated outcome into an agent's record. The
// score is the feedback reward for this outcome; AverageScore is the running
// mean over all decisions.
func UpdatePerformance(p models.AgentPerformance, success bool, score float64) models.AgentPerformance {
	n := float64(p.TotalDecisions)
	p.AverageScore = (p.AverageScore*n + score) / (n + 1)
	p.TotalDecisions++
	if success {
		p.SuccessfulDecisions++
		p.ConsecutiveFailures = 0
	} else {
		p.ConsecutiveFailures++
	}
	return p
}
