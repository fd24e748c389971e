package chip

import (
	"math"
	"sort"

	"TradePulse/internal/domain/models"
)

// PeakParams filters and merges candidate peaks.
type PeakParams struct {
	MinDominance     float64
	MinStrength      float64
	MinVolume        float64
	MergeDistancePct float64
}

// DefaultPeakParams returns the standard quality thresholds.
func DefaultPeakParams() PeakParams {
	return PeakParams{
		MinDominance:     0.05,
		MinStrength:      0.01,
		MinVolume:        0,
		MergeDistancePct: 0.02,
	}
}

// IdentifyPeaks scans the distribution's volume gradient for local maxima,
// expands each candidate sideways while neighbors hold above half the peak
// bucket's volume, merges peaks with nearby centers and filters by the quality
// params. Peaks come back sorted by strength descending; the strongest one is
// the dominant peak. Empty input yields a zero-value result.
func IdentifyPeaks(items []models.ChipDistributionItem, params PeakParams) models.ChipPeakInfo {
	info := models.ChipPeakInfo{}
	if len(items) == 0 {
		return info
	}
	total := TotalVolume(items)
	info.TotalVolume = total
	if total <= 0 {
		return info
	}

	if params.MergeDistancePct <= 0 {
		params.MergeDistancePct = DefaultPeakParams().MergeDistancePct
	}

	priceRange := items[len(items)-1].Price - items[0].Price
	maxVolume := 0.0
	for _, it := range items {
		if it.Volume > maxVolume {
			maxVolume = it.Volume
		}
	}

	peaks := make([]models.ChipPeak, 0, 4)
	for _, idx := range candidateIndexes(items) {
		peaks = append(peaks, buildPeak(items, idx, total, priceRange, maxVolume))
	}

	peaks = mergeNearby(peaks, params.MergeDistancePct, total, priceRange)

	filtered := peaks[:0]
	for _, p := range peaks {
		if p.Dominance < params.MinDominance || p.Strength < params.MinStrength || p.Volume < params.MinVolume {
			continue
		}
		filtered = append(filtered, p)
	}
	peaks = filtered

	sort.SliceStable(peaks, func(i, j int) bool { return peaks[i].Strength > peaks[j].Strength })

	info.Peaks = peaks
	if len(peaks) > 0 {
		dominant := peaks[0]
		info.DominantPeak = &dominant
		info.IsSinglePeak = dominant.Dominance > 0.5
	}
	return info
}

// candidateIndexes finds interior gradient sign changes plus boundary buckets
// that stand above their single neighbor.
func candidateIndexes(items []models.ChipDistributionItem) []int {
	n := len(items)
	if n == 1 {
		if items[0].Volume > 0 {
			return []int{0}
		}
		return nil
	}

	idxs := make([]int, 0, 4)
	if items[0].Volume > items[1].Volume && items[0].Volume > 0 {
		idxs = append(idxs, 0)
	}
	for i := 1; i < n-1; i++ {
		if items[i].Volume > items[i-1].Volume && items[i].Volume > items[i+1].Volume {
			idxs = append(idxs, i)
		}
	}
	if items[n-1].Volume > items[n-2].Volume && items[n-1].Volume > 0 {
		idxs = append(idxs, n-1)
	}
	return idxs
}

func buildPeak(items []models.ChipDistributionItem, idx int, total, priceRange, maxVolume float64) models.ChipPeak {
	center := items[idx]
	half := center.Volume * 0.5

	left := idx
	for left > 0 && items[left-1].Volume > half {
		left--
	}
	right := idx
	for right < len(items)-1 && items[right+1].Volume > half {
		right++
	}

	spanVolume := 0.0
	weightedPrice := 0.0
	for i := left; i <= right; i++ {
		spanVolume += items[i].Volume
		weightedPrice += items[i].Price * items[i].Volume
	}
	if spanVolume > 0 {
		weightedPrice /= spanVolume
	} else {
		weightedPrice = center.Price
	}

	width := items[right].Price - items[left].Price
	dominance := spanVolume / total
	strength := dominance
	if priceRange > 0 {
		strength = dominance * (1 - width/priceRange)
	}

	leftDrop := center.Volume - items[left].Volume
	rightDrop := center.Volume - items[right].Volume
	symmetry := 1.0
	if maxDrop := math.Max(leftDrop, rightDrop); maxDrop > 0 {
		symmetry = 1 - math.Abs(leftDrop-rightDrop)/maxDrop
	}
	significance := 0.0
	if maxVolume > 0 {
		significance = center.Volume / maxVolume
	}

	reliability := clamp01(0.4*dominance + 0.3*strength + 0.2*symmetry + 0.1*significance)

	return models.ChipPeak{
		Price:               center.Price,
		Ratio:               center.Percentage,
		Volume:              center.Volume,
		Width:               width,
		Dominance:           dominance,
		Strength:            strength,
		Reliability:         reliability,
		CenterPrice:         center.Price,
		VolumeWeightedPrice: weightedPrice,
	}
}

// mergeNearby collapses peaks whose centers sit within mergeDistancePct of
// each other. The merged center is the volume-weighted average and the merged
// strength is the larger of the averaged and the recomputed value.
func mergeNearby(peaks []models.ChipPeak, mergeDistancePct, total, priceRange float64) []models.ChipPeak {
	if len(peaks) < 2 {
		return peaks
	}
	sort.Slice(peaks, func(i, j int) bool { return peaks[i].CenterPrice < peaks[j].CenterPrice })

	merged := make([]models.ChipPeak, 0, len(peaks))
	cur := peaks[0]
	for _, next := range peaks[1:] {
		if cur.CenterPrice > 0 && math.Abs(next.CenterPrice-cur.CenterPrice)/cur.CenterPrice <= mergeDistancePct {
			cur = mergePair(cur, next, total, priceRange)
			continue
		}
		merged = append(merged, cur)
		cur = next
	}
	return append(merged, cur)
}

func mergePair(a, b models.ChipPeak, total, priceRange float64) models.ChipPeak {
	volume := a.Volume + b.Volume
	center := a.CenterPrice
	if volume > 0 {
		center = (a.CenterPrice*a.Volume + b.CenterPrice*b.Volume) / volume
	}
	weighted := center
	if volume > 0 {
		weighted = (a.VolumeWeightedPrice*a.Volume + b.VolumeWeightedPrice*b.Volume) / volume
	}

	width := math.Abs(b.CenterPrice-a.CenterPrice) + (a.Width+b.Width)/2
	dominance := a.Dominance + b.Dominance
	if dominance > 1 {
		dominance = 1
	}
	recomputed := dominance
	if priceRange > 0 {
		recomputed = dominance * (1 - width/priceRange)
	}
	strength := math.Max((a.Strength+b.Strength)/2, recomputed)

	reliability := (a.Reliability + b.Reliability) / 2
	if volume > 0 {
		reliability = (a.Reliability*a.Volume + b.Reliability*b.Volume) / volume
	}

	return models.ChipPeak{
		Price:               center,
		Ratio:               a.Ratio + b.Ratio,
		Volume:              volume,
		Width:               width,
		Dominance:           dominance,
		Strength:            strength,
		Reliability:         clamp01(reliability),
		CenterPrice:         center,
		VolumeWeightedPrice: weighted,
	}
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
