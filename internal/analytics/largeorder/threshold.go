package largeorder

import (
	"TradePulse/internal/analytics/stats"
	"TradePulse/internal/domain/models"
)

// DefaultK is the standard deviation multiplier used when callers pass no
// explicit k.
const DefaultK = 2.0

// ComputeThreshold derives the dynamic large-order cutoffs from an order
// stream. When windowMs is positive only ticks within the trailing window
// (anchored at the newest tick) are considered. Empty or fully-filtered input
// yields zeroed statistics rather than an error.
func ComputeThreshold(orders []models.Tick, k float64, windowMs int64) models.DynamicThreshold {
	if len(orders) == 0 {
		return models.DynamicThreshold{}
	}
	if k <= 0 {
		k = DefaultK
	}

	newest := orders[0].Timestamp
	for _, o := range orders {
		if o.Timestamp > newest {
			newest = o.Timestamp
		}
	}

	amounts := make([]float64, 0, len(orders))
	for i := range orders {
		if windowMs > 0 && orders[i].Timestamp < newest-windowMs {
			continue
		}
		amounts = append(amounts, orders[i].Amount())
	}
	if len(amounts) == 0 {
		return models.DynamicThreshold{}
	}

	return stats.RobustThreshold(amounts, k)
}

// IsLarge reports whether an order amount crosses the large-order threshold.
func IsLarge(amount float64, th models.DynamicThreshold) bool {
	return th.SampleSize > 0 && amount > th.Threshold
}

// IsExtraLarge reports whether an order amount crosses the extra-large
// threshold.
func IsExtraLarge(amount float64, th models.DynamicThreshold) bool {
	return th.SampleSize > 0 && amount > th.UpperThreshold
}

// LargeRatio returns the share of orders in the window classified as large.
// Useful as a crude order-flow pressure reading.
func LargeRatio(orders []models.Tick, th models.DynamicThreshold) float64 {
	if len(orders) == 0 || th.SampleSize == 0 {
		return 0
	}
	large := 0
	for i := range orders {
		if IsLarge(orders[i].Amount(), th) {
			large++
		}
	}
	return float64(large) / float64(len(orders))
}
