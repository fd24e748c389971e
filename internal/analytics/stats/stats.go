package stats

import (
	"math"
	"sort"

	"TradePulse/internal/domain/models"
)

const msPerDay = 86400000.0

// DecayWeight returns exp(-decayRate * daysElapsed) for a sample taken at
// timestampMs observed from nowMs. The weight is monotonically decreasing in
// elapsed time. Timestamps after nowMs yield weights above 1; that is the
// documented behavior, not guarded here.
func DecayWeight(timestampMs, nowMs int64, decayRate float64) float64 {
	days := float64(nowMs-timestampMs) / msPerDay
	return math.Exp(-decayRate * days)
}

// Quantile selects the element at floor(p*n) from an ascending-sorted slice.
// No interpolation. Undefined for empty input; callers must guard.
func Quantile(sorted []float64, p float64) float64 {
	idx := int(math.Floor(p * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}

// Mean returns the arithmetic mean, 0 for empty input.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation, 0 for empty input.
func StdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// Median returns the middle element of a sorted slice, or the average of the
// two middle elements for even length. 0 for empty input.
func Median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Mode returns the most frequent value after rounding each sample to the
// nearest integer bucket. Ties resolve to the smallest bucket. 0 for empty
// input.
func Mode(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	counts := make(map[float64]int, len(values))
	for _, v := range values {
		counts[math.Round(v)]++
	}
	best := math.Inf(1)
	bestCount := 0
	for bucket, c := range counts {
		if c > bestCount || (c == bestCount && bucket < best) {
			best = bucket
			bestCount = c
		}
	}
	return best
}

// RobustThreshold computes the full robust-statistics profile of a sample and
// the mean+k*std detection thresholds. Outliers are values outside
// [Q1-1.5*IQR, Q3+1.5*IQR]. Empty input yields a zeroed result. Runs in
// O(n log n), dominated by the sort.
func RobustThreshold(values []float64, k float64) models.DynamicThreshold {
	if len(values) == 0 {
		return models.DynamicThreshold{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean := Mean(sorted)
	std := StdDev(sorted, mean)
	q1 := Quantile(sorted, 0.25)
	q3 := Quantile(sorted, 0.75)
	iqr := q3 - q1

	lo := q1 - 1.5*iqr
	hi := q3 + 1.5*iqr
	outliers := 0
	for _, v := range sorted {
		if v < lo || v > hi {
			outliers++
		}
	}

	return models.DynamicThreshold{
		Mean:           mean,
		Std:            std,
		Threshold:      mean + k*std,
		UpperThreshold: mean + (k+1)*std,
		Median:         Median(sorted),
		Mode:           Mode(sorted),
		Q1:             q1,
		Q3:             q3,
		IQR:            iqr,
		OutlierCount:   outliers,
		SampleSize:     len(sorted),
	}
}
