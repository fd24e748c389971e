package chip

import (
	"math"

	"TradePulse/internal/domain/models"
)

// DefaultBucketWidthPct is the default bucket width as a fraction of the
// padded price range.
const DefaultBucketWidthPct = 0.01

// BuildDistribution buckets the bars' close prices into a fixed-width volume
// histogram. The range spans [minClose*(1-pct), maxClose*(1+pct)] and each
// bucket is pct of that range wide; every bar's volume lands in the bucket
// nearest its close. Percentages are normalized to sum to 1. Empty input or
// zero total volume yields nil.
func BuildDistribution(bars []models.PriceBar, bucketWidthPct float64) []models.ChipDistributionItem {
	if len(bars) == 0 {
		return nil
	}
	if bucketWidthPct <= 0 {
		bucketWidthPct = DefaultBucketWidthPct
	}

	minClose := bars[0].Close
	maxClose := bars[0].Close
	totalVolume := 0.0
	for _, b := range bars {
		if b.Close < minClose {
			minClose = b.Close
		}
		if b.Close > maxClose {
			maxClose = b.Close
		}
		totalVolume += b.Volume
	}
	if totalVolume <= 0 {
		return nil
	}

	lo := minClose * (1 - bucketWidthPct)
	hi := maxClose * (1 + bucketWidthPct)
	span := hi - lo
	if span <= 0 {
		// All closes identical: a single bucket holds everything.
		return []models.ChipDistributionItem{{Price: minClose, Volume: totalVolume, Percentage: 1}}
	}

	width := span * bucketWidthPct
	buckets := int(math.Ceil(span / width))
	volumes := make([]float64, buckets)
	for _, b := range bars {
		idx := int(math.Round((b.Close - lo) / width))
		if idx < 0 {
			idx = 0
		}
		if idx >= buckets {
			idx = buckets - 1
		}
		volumes[idx] += b.Volume
	}

	items := make([]models.ChipDistributionItem, buckets)
	for i, v := range volumes {
		items[i] = models.ChipDistributionItem{
			Price:      lo + (float64(i)+0.5)*width,
			Volume:     v,
			Percentage: v / totalVolume,
		}
	}
	return items
}

// TotalVolume sums the distribution's bucket volumes.
func TotalVolume(items []models.ChipDistributionItem) float64 {
	total := 0.0
	for _, it := range items {
		total += it.Volume
	}
	return total
}
