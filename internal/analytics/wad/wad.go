package wad

import (
	"math"
	"sort"

	"TradePulse/internal/analytics/stats"
	"TradePulse/internal/domain/models"
)

// Options tunes the cumulative WAD computation.
type Options struct {
	DecayRate           float64
	UseExponentialDecay bool
	// SortBars re-sorts the input chronologically before computing. When
	// false the caller guarantees ascending timestamps.
	SortBars bool
}

// ComputeBar returns the Williams accumulation/distribution increment for one
// bar. Positive means accumulation (buying pressure), negative distribution.
func ComputeBar(high, low, close, previousClose float64) float64 {
	switch {
	case close > previousClose:
		return close - math.Min(low, previousClose)
	case close < previousClose:
		return close - math.Max(high, previousClose)
	default:
		return 0
	}
}

// ComputeCumulative walks the bars chronologically, accumulating the per-bar
// increments and applying a recency decay weight anchored at the newest bar.
// The first bar compares against its own close and contributes 0.
func ComputeCumulative(bars []models.PriceBar, opts Options) []models.WADPoint {
	if len(bars) == 0 {
		return nil
	}

	if opts.SortBars {
		sorted := make([]models.PriceBar, len(bars))
		copy(sorted, bars)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })
		bars = sorted
	}

	newest := bars[len(bars)-1].Timestamp
	points := make([]models.WADPoint, 0, len(bars))
	cumulative := 0.0
	prevClose := bars[0].Close

	for _, b := range bars {
		inc := ComputeBar(b.High, b.Low, b.Close, prevClose)
		cumulative += inc

		weight := 1.0
		if opts.UseExponentialDecay {
			weight = stats.DecayWeight(b.Timestamp, newest, opts.DecayRate)
		}

		points = append(points, models.WADPoint{
			Timestamp:     b.Timestamp,
			WAD:           inc,
			CumulativeWAD: cumulative,
			Weight:        weight,
			WeightedWAD:   cumulative * weight,
		})
		prevClose = b.Close
	}
	return points
}

// GenerateSignals compares the weighted WAD change over lookbackPeriod against
// threshold and emits a directional signal per point. Only current and prior
// points are consulted; the series never looks ahead. Strength normalizes the
// change magnitude against twice the trigger threshold, capped at 1.
// Confidence grows with the number of consecutive prior points agreeing in
// direction.
func GenerateSignals(points []models.WADPoint, threshold float64, lookbackPeriod int) []models.Signal {
	if threshold <= 0 || lookbackPeriod <= 0 || len(points) <= lookbackPeriod {
		return nil
	}

	signals := make([]models.Signal, 0, len(points)-lookbackPeriod)
	run := 0
	var prevDir models.Direction

	for i := lookbackPeriod; i < len(points); i++ {
		change := points[i].WeightedWAD - points[i-lookbackPeriod].WeightedWAD

		dir := models.DirectionHold
		if change > threshold {
			dir = models.DirectionBuy
		} else if change < -threshold {
			dir = models.DirectionSell
		}

		if dir == prevDir {
			run++
		} else {
			run = 0
		}
		prevDir = dir

		strength := math.Abs(change) / (2 * threshold)
		if strength > 1 {
			strength = 1
		}
		confidence := 0.5 + 0.1*float64(run)
		if confidence > 1 {
			confidence = 1
		}

		signals = append(signals, models.Signal{
			Timestamp:  points[i].Timestamp,
			Direction:  dir,
			Strength:   strength,
			Confidence: confidence,
		})
	}
	return signals
}
