package chip

import "TradePulse/internal/domain/models"

// HHI returns the Herfindahl-Hirschman index of the distribution: the sum of
// squared volume shares. 1 means all volume sits in one bucket.
func HHI(items []models.ChipDistributionItem) float64 {
	sum := 0.0
	for _, it := range items {
		sum += it.Percentage * it.Percentage
	}
	return sum
}

// Gini returns the rank-weighted inequality of bucket volumes, with items in
// price-ascending order, clamped to [0,1]. A single bucket scores 0.
func Gini(items []models.ChipDistributionItem) float64 {
	n := len(items)
	if n < 2 {
		return 0
	}
	total := TotalVolume(items)
	if total <= 0 {
		return 0
	}

	sum := 0.0
	for i, it := range items {
		rank := float64(i + 1)
		sum += (2*rank - float64(n) - 1) * it.Volume
	}
	g := sum / (float64(n) * total) * (float64(n) / float64(n-1))
	if g < 0 {
		g = 0
	}
	if g > 1 {
		g = 1
	}
	return g
}

// Concentration grades how tightly chips cluster from the HHI value.
func Concentration(items []models.ChipDistributionItem) models.Concentration {
	hhi := HHI(items)
	grade := "low"
	switch {
	case hhi >= 0.25:
		grade = "high"
	case hhi >= 0.10:
		grade = "medium"
	}
	return models.Concentration{HHI: hhi, Gini: Gini(items), Grade: grade}
}
