package chip

import (
	"math"
	"sort"

	"TradePulse/internal/domain/models"
)

// densityFactor scales the average bucket share into the run-detection
// threshold.
const densityFactor = 1.5

// SupportResistance scans the distribution for contiguous runs of buckets
// denser than 1.5x the average share, below and above the current price.
// Each run becomes one level; supports come back sorted price-descending
// (closest first), resistances ascending.
func SupportResistance(items []models.ChipDistributionItem, currentPrice float64) models.SupportResistanceLevels {
	out := models.SupportResistanceLevels{CurrentPrice: currentPrice}
	if len(items) == 0 || currentPrice <= 0 {
		return out
	}

	avg := 1.0 / float64(len(items))
	threshold := avg * densityFactor

	maxPct := 0.0
	for _, it := range items {
		if it.Percentage > maxPct {
			maxPct = it.Percentage
		}
	}
	if maxPct <= 0 {
		return out
	}

	peakCenters := peakCenterPrices(items)

	for _, run := range denseRuns(items, threshold) {
		level := buildLevel(items, run, currentPrice, maxPct, peakCenters)
		switch level.Type {
		case models.LevelSupport:
			out.Supports = append(out.Supports, level)
		case models.LevelResistance:
			out.Resistances = append(out.Resistances, level)
		}
	}

	sort.Slice(out.Supports, func(i, j int) bool { return out.Supports[i].Price > out.Supports[j].Price })
	sort.Slice(out.Resistances, func(i, j int) bool { return out.Resistances[i].Price < out.Resistances[j].Price })
	return out
}

type bucketRun struct {
	start, end int // inclusive
}

// denseRuns returns maximal contiguous index ranges whose percentage exceeds
// the density threshold.
func denseRuns(items []models.ChipDistributionItem, threshold float64) []bucketRun {
	runs := make([]bucketRun, 0, 4)
	start := -1
	for i, it := range items {
		if it.Percentage > threshold {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			runs = append(runs, bucketRun{start, i - 1})
			start = -1
		}
	}
	if start >= 0 {
		runs = append(runs, bucketRun{start, len(items) - 1})
	}
	return runs
}

func buildLevel(items []models.ChipDistributionItem, run bucketRun, currentPrice, maxPct float64, peakCenters []float64) models.SupportResistanceLevel {
	priceSum := 0.0
	volume := 0.0
	share := 0.0
	for i := run.start; i <= run.end; i++ {
		priceSum += items[i].Price
		volume += items[i].Volume
		share += items[i].Percentage
	}
	count := float64(run.end - run.start + 1)
	price := priceSum / count

	// A run straddling the current price contributes nothing: levels are
	// strictly below or above it.
	typ := models.LevelType("")
	if items[run.end].Price < currentPrice {
		typ = models.LevelSupport
	} else if items[run.start].Price > currentPrice {
		typ = models.LevelResistance
	}

	localStrength := clamp01((share / count) / maxPct)

	peakBonus := 0.0
	lo := items[run.start].Price
	hi := items[run.end].Price
	for _, pc := range peakCenters {
		if pc >= lo && pc <= hi {
			peakBonus = 0.3
			break
		}
	}

	return models.SupportResistanceLevel{
		Price:       price,
		Strength:    localStrength,
		Volume:      volume,
		Reliability: clamp01(0.5*localStrength + peakBonus + 0.2*share),
		Width:       hi - lo,
		Distance:    math.Abs(price-currentPrice) / currentPrice,
		Type:        typ,
	}
}

func peakCenterPrices(items []models.ChipDistributionItem) []float64 {
	info := IdentifyPeaks(items, DefaultPeakParams())
	centers := make([]float64, 0, len(info.Peaks))
	for _, p := range info.Peaks {
		centers = append(centers, p.CenterPrice)
	}
	return centers
}
