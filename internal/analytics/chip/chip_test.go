package chip

import (
	"math"
	"testing"

	"TradePulse/internal/domain/models"
)

func referenceItems() []models.ChipDistributionItem {
	return []models.ChipDistributionItem{
		{Price: 100, Volume: 1_000_000, Percentage: 0.2},
		{Price: 105, Volume: 2_000_000, Percentage: 0.4},
		{Price: 110, Volume: 1_500_000, Percentage: 0.3},
		{Price: 115, Volume: 250_000, Percentage: 0.05},
		{Price: 120, Volume: 250_000, Percentage: 0.05},
	}
}

func testBars(closes []float64, volumes []float64) []models.PriceBar {
	bars := make([]models.PriceBar, len(closes))
	base := int64(1_700_000_000_000)
	for i, c := range closes {
		bars[i] = models.PriceBar{
			Timestamp: base + int64(i)*86400000,
			High:      c * 1.01,
			Low:       c * 0.99,
			Close:     c,
			Volume:    volumes[i],
		}
	}
	return bars
}

func TestBuildDistributionPercentageClosure(t *testing.T) {
	bars := testBars(
		[]float64{10, 10.5, 11, 11.2, 10.8, 12, 11.5, 10.2},
		[]float64{100, 250, 300, 120, 80, 500, 210, 90},
	)
	items := BuildDistribution(bars, 0.01)
	if len(items) == 0 {
		t.Fatalf("expected non-empty distribution")
	}
	sum := 0.0
	for _, it := range items {
		if it.Volume < 0 || it.Percentage < 0 {
			t.Fatalf("negative bucket: %+v", it)
		}
		sum += it.Percentage
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("percentages must sum to 1, got %v", sum)
	}
}

func TestBuildDistributionVolumeConsistency(t *testing.T) {
	bars := testBars([]float64{10, 11, 12}, []float64{100, 200, 300})
	items := BuildDistribution(bars, 0.01)
	total := TotalVolume(items)
	if math.Abs(total-600) > 1e-9 {
		t.Fatalf("total volume lost: got %v", total)
	}
	for _, it := range items {
		if total > 0 && math.Abs(it.Percentage-it.Volume/total) > 1e-12 {
			t.Fatalf("percentage inconsistent with volume share: %+v", it)
		}
	}
}

func TestBuildDistributionDegenerate(t *testing.T) {
	if got := BuildDistribution(nil, 0.01); got != nil {
		t.Fatalf("empty bars should yield nil")
	}
	flat := testBars([]float64{10, 10, 10}, []float64{1, 2, 3})
	items := BuildDistribution(flat, 0.01)
	if len(items) != 1 || items[0].Percentage != 1 {
		t.Fatalf("identical closes should collapse to one bucket, got %+v", items)
	}
}

func TestHHIReferenceFixture(t *testing.T) {
	items := referenceItems()
	got := HHI(items)
	if math.Abs(got-0.295) > 5e-4 {
		t.Fatalf("HHI: expected 0.295, got %v", got)
	}
	if got <= 0 || got > 1 {
		t.Fatalf("HHI out of (0,1]: %v", got)
	}
}

func TestGiniBounds(t *testing.T) {
	if g := Gini(referenceItems()); g < 0 || g > 1 {
		t.Fatalf("gini out of [0,1]: %v", g)
	}
	uniform := []models.ChipDistributionItem{
		{Price: 10, Volume: 100, Percentage: 0.25},
		{Price: 11, Volume: 100, Percentage: 0.25},
		{Price: 12, Volume: 100, Percentage: 0.25},
		{Price: 13, Volume: 100, Percentage: 0.25},
	}
	if g := Gini(uniform); g != 0 {
		t.Fatalf("uniform volumes should score 0, got %v", g)
	}
	if g := Gini(nil); g != 0 {
		t.Fatalf("empty input should score 0, got %v", g)
	}
}

func TestConcentrationGrade(t *testing.T) {
	c := Concentration(referenceItems())
	if c.Grade != "high" {
		t.Fatalf("HHI 0.295 should grade high, got %s", c.Grade)
	}
}

func TestIdentifyPeaksReferenceCase(t *testing.T) {
	info := IdentifyPeaks(referenceItems(), DefaultPeakParams())
	if info.DominantPeak == nil {
		t.Fatalf("expected a dominant peak")
	}
	p := *info.DominantPeak
	if p.Price != 105 {
		t.Fatalf("peak price: expected 105, got %v", p.Price)
	}
	if math.Abs(p.Ratio-0.4) > 1e-12 {
		t.Fatalf("peak ratio: expected 0.4, got %v", p.Ratio)
	}
	if p.Volume != 2_000_000 {
		t.Fatalf("peak volume: expected 2e6, got %v", p.Volume)
	}
	if !info.IsSinglePeak {
		t.Fatalf("dominance %v > 0.5 should mark a single-peak profile", p.Dominance)
	}
}

func TestIdentifyPeaksBoundary(t *testing.T) {
	items := []models.ChipDistributionItem{
		{Price: 100, Volume: 3000, Percentage: 0.6},
		{Price: 105, Volume: 1000, Percentage: 0.2},
		{Price: 110, Volume: 1000, Percentage: 0.2},
	}
	info := IdentifyPeaks(items, PeakParams{MergeDistancePct: 0.02})
	if info.DominantPeak == nil || info.DominantPeak.Price != 100 {
		t.Fatalf("first bucket should qualify as an edge peak: %+v", info.DominantPeak)
	}
}

func TestIdentifyPeaksMergesNearbyCenters(t *testing.T) {
	items := []models.ChipDistributionItem{
		{Price: 100.0, Volume: 1000, Percentage: 0.1},
		{Price: 100.5, Volume: 3000, Percentage: 0.3},
		{Price: 101.0, Volume: 1200, Percentage: 0.12},
		{Price: 101.5, Volume: 3200, Percentage: 0.32},
		{Price: 102.0, Volume: 800, Percentage: 0.08},
		{Price: 110.0, Volume: 800, Percentage: 0.08},
	}
	info := IdentifyPeaks(items, PeakParams{MergeDistancePct: 0.02})
	for i, p := range info.Peaks {
		for j, q := range info.Peaks {
			if i == j {
				continue
			}
			if math.Abs(p.CenterPrice-q.CenterPrice)/p.CenterPrice <= 0.02 {
				t.Fatalf("peaks %v and %v should have merged", p.CenterPrice, q.CenterPrice)
			}
		}
	}
}

func TestIdentifyPeaksEmpty(t *testing.T) {
	info := IdentifyPeaks(nil, DefaultPeakParams())
	if len(info.Peaks) != 0 || info.DominantPeak != nil || info.IsSinglePeak {
		t.Fatalf("empty input should produce a zero result, got %+v", info)
	}
}

func TestSupportResistanceSides(t *testing.T) {
	items := referenceItems()
	current := 112.0
	levels := SupportResistance(items, current)
	if len(levels.Supports) == 0 {
		t.Fatalf("expected at least one support below %v", current)
	}
	for _, s := range levels.Supports {
		if s.Price >= current {
			t.Fatalf("support %v must sit below current price %v", s.Price, current)
		}
		if s.Strength <= 0 {
			t.Fatalf("support strength must be positive: %+v", s)
		}
		if s.Type != models.LevelSupport {
			t.Fatalf("mislabeled support: %+v", s)
		}
	}
	for _, r := range levels.Resistances {
		if r.Price <= current {
			t.Fatalf("resistance %v must sit above current price %v", r.Price, current)
		}
		if r.Strength <= 0 {
			t.Fatalf("resistance strength must be positive: %+v", r)
		}
	}
}

func TestSupportResistanceOrdering(t *testing.T) {
	items := []models.ChipDistributionItem{
		{Price: 90, Volume: 3000, Percentage: 0.3},
		{Price: 95, Volume: 500, Percentage: 0.05},
		{Price: 100, Volume: 2500, Percentage: 0.25},
		{Price: 105, Volume: 500, Percentage: 0.05},
		{Price: 110, Volume: 2500, Percentage: 0.25},
		{Price: 115, Volume: 300, Percentage: 0.03},
		{Price: 120, Volume: 700, Percentage: 0.07},
	}
	levels := SupportResistance(items, 103)
	for i := 1; i < len(levels.Supports); i++ {
		if levels.Supports[i].Price > levels.Supports[i-1].Price {
			t.Fatalf("supports must be sorted closest-first (price descending)")
		}
	}
	for i := 1; i < len(levels.Resistances); i++ {
		if levels.Resistances[i].Price < levels.Resistances[i-1].Price {
			t.Fatalf("resistances must be sorted ascending")
		}
	}
}

func TestSupportResistanceEmpty(t *testing.T) {
	levels := SupportResistance(nil, 100)
	if len(levels.Supports) != 0 || len(levels.Resistances) != 0 {
		t.Fatalf("empty distribution should yield no levels")
	}
}
