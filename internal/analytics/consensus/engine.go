package consensus

import (
	"math"
	"time"

	"TradePulse/internal/domain/models"
)

// Engine turns a set of agent votes into a single trading decision. It is
// stateless: weights and performance history come in with every call so the
// caller decides where they live.
type Engine struct {
	vetoScore         float64
	looseRatio        float64
	looseThreshold    float64
	strictThreshold   float64
	assumedVolatility float64
	minDecisions      int
	minWeight         float64
	maxWeight         float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithVetoScore overrides the risk-control score below which the run is
// vetoed.
func WithVetoScore(s float64) Option {
	return func(e *Engine) { e.vetoScore = s }
}

// WithDecisionThresholds overrides the loose/strict score cutoffs and the
// consensus ratio that switches between them.
func WithDecisionThresholds(looseRatio, loose, strict float64) Option {
	return func(e *Engine) {
		e.looseRatio = looseRatio
		e.looseThreshold = loose
		e.strictThreshold = strict
	}
}

// WithAssumedVolatility overrides the flat volatility figure used to place
// target and stop prices.
func WithAssumedVolatility(v float64) Option {
	return func(e *Engine) { e.assumedVolatility = v }
}

// WithWeightBounds overrides the recalibration floor and ceiling.
func WithWeightBounds(min, max float64) Option {
	return func(e *Engine) {
		e.minWeight = min
		e.maxWeight = max
	}
}

// WithMinDecisions overrides how much history an agent needs before
// recalibration touches its weight.
func WithMinDecisions(n int) Option {
	return func(e *Engine) { e.minDecisions = n }
}

// NewEngine builds an Engine with the standard tunables.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		vetoScore:         -0.7,
		looseRatio:        0.6,
		looseThreshold:    0.2,
		strictThreshold:   0.4,
		assumedVolatility: 0.05,
		minDecisions:      10,
		minWeight:         0.05,
		maxWeight:         0.5,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DefaultWeights returns the starting weight table for a fresh deployment.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		models.AgentTechnical:   0.25,
		models.AgentFundamental: 0.20,
		models.AgentSentiment:   0.15,
		models.AgentChip:        0.20,
		models.AgentRiskControl: 0.20,
	}
}

// performancePriors seed the multiplier for agents with no recorded outcomes.
// Risk control counts slightly more than the rest, sentiment slightly less;
// once an agent has history its track record replaces the prior entirely.
var performancePriors = map[string]float64{
	models.AgentTechnical:   1.0,
	models.AgentFundamental: 1.1,
	models.AgentSentiment:   0.9,
	models.AgentChip:        1.0,
	models.AgentRiskControl: 1.2,
}

// Input is one consensus run. Weights and Performance may be nil; missing
// agents fall back to defaults.
type Input struct {
	Symbol      string
	Price       float64
	Votes       []models.AgentVote
	Weights     map[string]float64
	Performance map[string]models.AgentPerformance
	At          time.Time
}

// Aggregate runs the full decision pipeline: risk veto, performance-adjusted
// weighted scoring, consensus-ratio threshold selection, decision and risk
// mapping, confidence, and target/stop placement. It never mutates its input.
func (e *Engine) Aggregate(in Input) models.ConsensusResult {
	res := models.ConsensusResult{
		Symbol:        in.Symbol,
		Timestamp:     in.At.UnixMilli(),
		FinalDecision: models.DirectionHold,
		RiskLevel:     models.RiskLow,
		AgentVotes:    in.Votes,
	}
	if len(in.Votes) == 0 {
		return res
	}

	// Risk control holds an absolute veto below the cutoff.
	for _, v := range in.Votes {
		if v.AgentID == models.AgentRiskControl && v.Score < e.vetoScore {
			res.FinalDecision = models.DirectionSell
			res.RiskLevel = models.RiskHigh
			res.Vetoed = true
			res.Confidence = v.Confidence
			res.TotalScore = e.weightedScore(in)
			return res
		}
	}

	res.TotalScore = e.weightedScore(in)
	ratio := consensusRatio(in.Votes)

	threshold := e.strictThreshold
	if ratio >= e.looseRatio {
		threshold = e.looseThreshold
	}

	switch {
	case res.TotalScore > threshold:
		res.FinalDecision = models.DirectionBuy
	case res.TotalScore < -threshold:
		res.FinalDecision = models.DirectionSell
	default:
		res.FinalDecision = models.DirectionHold
	}

	res.RiskLevel = e.riskLevel(res.FinalDecision, res.TotalScore, ratio)
	res.Confidence = e.confidence(in.Votes, ratio)

	if res.FinalDecision != models.DirectionHold && in.Price > 0 {
		res.TargetPrice, res.StopLoss = e.priceLevels(res.FinalDecision, in.Price, in.Votes)
	}
	return res
}

// weightedScore computes sum(score * effectiveWeight * confidence) over
// sum(effectiveWeight), where the effective weight folds in each agent's
// performance multiplier.
func (e *Engine) weightedScore(in Input) float64 {
	num := 0.0
	den := 0.0
	for _, v := range in.Votes {
		w := e.effectiveWeight(v.AgentID, in.Weights, in.Performance)
		num += v.Score * w * v.Confidence
		den += w
	}
	if den == 0 {
		return 0
	}
	return num / den
}

func (e *Engine) effectiveWeight(agentID string, weights map[string]float64, perf map[string]models.AgentPerformance) float64 {
	w, ok := weights[agentID]
	if !ok {
		w, ok = DefaultWeights()[agentID]
		if !ok {
			w = e.minWeight
		}
	}
	return w * e.PerformanceMultiplier(agentID, perf[agentID])
}

// PerformanceMultiplier maps an agent's track record into a weight scaler in
// [0.7, 1.3]. With no recorded decisions it falls back to the agent's prior.
func (e *Engine) PerformanceMultiplier(agentID string, p models.AgentPerformance) float64 {
	if p.TotalDecisions == 0 {
		if prior, ok := performancePriors[agentID]; ok {
			return prior
		}
		return 1
	}
	m := 0.8 + p.WinRate()*0.4 + p.AverageScore*0.1
	if m < 0.7 {
		m = 0.7
	}
	if m > 1.3 {
		m = 1.3
	}
	return m
}

// consensusRatio is the share of votes backing the most common direction.
func consensusRatio(votes []models.AgentVote) float64 {
	counts := map[models.Direction]int{}
	for _, v := range votes {
		counts[v.Direction]++
	}
	best := 0
	for _, c := range counts {
		if c > best {
			best = c
		}
	}
	return float64(best) / float64(len(votes))
}

func (e *Engine) riskLevel(decision models.Direction, score, ratio float64) models.RiskLevel {
	switch decision {
	case models.DirectionSell:
		return models.RiskHigh
	case models.DirectionBuy:
		if score > 0.6 {
			return models.RiskHigh
		}
		return models.RiskMedium
	default:
		if ratio >= e.looseRatio {
			return models.RiskLow
		}
		return models.RiskMedium
	}
}

// confidence blends average vote confidence with how unanimous the vote was,
// capped at 1.
func (e *Engine) confidence(votes []models.AgentVote, ratio float64) float64 {
	sum := 0.0
	for _, v := range votes {
		sum += v.Confidence
	}
	avg := sum / float64(len(votes))
	c := avg * (0.8 + ratio*0.4)
	if c > 1 {
		c = 1
	}
	return c
}

// priceLevels places a target and stop around the entry price using the flat
// assumed volatility, stretched by the technical agent's conviction.
func (e *Engine) priceLevels(decision models.Direction, price float64, votes []models.AgentVote) (target, stop float64) {
	techMagnitude := 0.0
	for _, v := range votes {
		if v.AgentID == models.AgentTechnical {
			techMagnitude = math.Abs(v.Score)
			break
		}
	}
	span := e.assumedVolatility * (1 + techMagnitude)
	if decision == models.DirectionBuy {
		return price * (1 + span), price * (1 - e.assumedVolatility)
	}
	return price * (1 - span), price * (1 + e.assumedVolatility)
}

// Recalibrate returns an adjusted copy of the weight table plus the audit
// trail of every change. Agents with fewer than minDecisions outcomes are left
// alone. Weights stay inside [minWeight, maxWeight].
func (e *Engine) Recalibrate(weights map[string]float64, perf map[string]models.AgentPerformance, now time.Time) (map[string]float64, []models.WeightAdjustment) {
	out := make(map[string]float64, len(weights))
	for k, v := range weights {
		out[k] = v
	}

	var adjustments []models.WeightAdjustment
	for agentID, p := range perf {
		if p.TotalDecisions < e.minDecisions {
			continue
		}
		w, ok := out[agentID]
		if !ok {
			continue
		}

		newWeight := w
		reason := ""
		switch {
		case p.ConsecutiveFailures >= 3:
			newWeight = w - 0.08
			reason = "consecutive failures"
		case p.WinRate() > 0.6 && w < 0.4:
			newWeight = w + 0.05
			reason = "sustained win rate"
		case p.WinRate() < 0.4 && w > 0.1:
			newWeight = w - 0.05
			reason = "sustained loss rate"
		default:
			continue
		}

		if newWeight < e.minWeight {
			newWeight = e.minWeight
		}
		if newWeight > e.maxWeight {
			newWeight = e.maxWeight
		}
		if newWeight == w {
			continue
		}

		out[agentID] = newWeight
		adjustments = append(adjustments, models.WeightAdjustment{
			AgentID:   agentID,
			OldWeight: w,
			NewWeight: newWeight,
			Reason:    reason,
			Timestamp: now,
		})
	}
	return out, adjustments
}
