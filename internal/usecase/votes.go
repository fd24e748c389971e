package usecase

import (
	"math"

	"TradePulse/internal/domain/models"
)

// Vote builders turn engine outputs into agent votes. They are pure so the
// analyzer's decisions replay deterministically from stored inputs.

// TechnicalVote derives the technical agent's vote from the WAD signal
// series: the latest signal carries the direction, its strength the score
// magnitude. No signals reads as a low-confidence hold.
func TechnicalVote(signals []models.Signal) models.AgentVote {
	vote := models.AgentVote{
		AgentID:    models.AgentTechnical,
		Direction:  models.DirectionHold,
		Confidence: 0.3,
	}
	if len(signals) == 0 {
		return vote
	}
	latest := signals[len(signals)-1]
	vote.Direction = latest.Direction
	vote.Confidence = latest.Confidence
	switch latest.Direction {
	case models.DirectionBuy:
		vote.Score = latest.Strength
	case models.DirectionSell:
		vote.Score = -latest.Strength
	}
	return vote
}

// ChipVote derives the chip agent's vote from the cost-basis profile. Price
// above the dominant cost basis means most holders are in profit and the
// chips act as support; price below means overhead supply.
func ChipVote(info models.ChipPeakInfo, conc models.Concentration, currentPrice float64) models.AgentVote {
	vote := models.AgentVote{
		AgentID:    models.AgentChip,
		Direction:  models.DirectionHold,
		Confidence: 0.3,
	}
	if info.DominantPeak == nil || currentPrice <= 0 {
		return vote
	}
	peak := info.DominantPeak

	distance := (currentPrice - peak.CenterPrice) / peak.CenterPrice
	// Saturate at a 10% gap either side of the dominant cost basis.
	score := clampUnit(distance/0.1) * peak.Reliability
	// A concentrated single-peak profile is a stronger statement than a
	// scattered one.
	if info.IsSinglePeak {
		score *= 1.2
	}
	score = clampUnit(score)

	vote.Score = score
	vote.Direction = directionForScore(score)
	vote.Confidence = clamp01(0.4 + 0.4*peak.Reliability + 0.2*conc.HHI)
	return vote
}

// RiskVote scores downside exposure for the risk-control agent. Chips massed
// above the current price are overhead supply; a deep discount to the
// dominant cost basis marks a distressed profile; missing support levels
// leave nothing to break the fall. Strongly negative scores trip the
// consensus veto.
func RiskVote(items []models.ChipDistributionItem, info models.ChipPeakInfo, levels models.SupportResistanceLevels, currentPrice float64) models.AgentVote {
	vote := models.AgentVote{
		AgentID:    models.AgentRiskControl,
		Direction:  models.DirectionHold,
		Confidence: 0.5,
	}
	if len(items) == 0 || currentPrice <= 0 {
		return vote
	}

	overhead := 0.0
	for _, it := range items {
		if it.Price > currentPrice {
			overhead += it.Percentage
		}
	}

	score := 0.0
	score -= 0.5 * overhead
	if info.DominantPeak != nil && currentPrice < info.DominantPeak.CenterPrice {
		drop := (info.DominantPeak.CenterPrice - currentPrice) / info.DominantPeak.CenterPrice
		score -= 0.6 * math.Min(1, drop/0.1)
	}
	if len(levels.Supports) == 0 {
		score -= 0.3
	}
	score = clampUnit(score)

	vote.Score = score
	vote.Direction = directionForScore(score)
	vote.Confidence = clamp01(0.5 + 0.5*math.Abs(score))
	return vote
}

// directionForScore maps a score onto a vote direction; the band matches the
// consensus engine's loose decision threshold.
func directionForScore(score float64) models.Direction {
	switch {
	case score > 0.2:
		return models.DirectionBuy
	case score < -0.2:
		return models.DirectionSell
	default:
		return models.DirectionHold
	}
}

func clampUnit(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
