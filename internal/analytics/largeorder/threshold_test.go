package largeorder

import (
	"testing"

	"TradePulse/internal/domain/models"
)

func orderFixture() []models.Tick {
	base := int64(1_700_000_000_000)
	amounts := []float64{100, 120, 110, 95, 130, 105, 2000, 115}
	ticks := make([]models.Tick, len(amounts))
	for i, a := range amounts {
		ticks[i] = models.Tick{
			Symbol:    "600000",
			Timestamp: base + int64(i)*60_000,
			Price:     a,
			Volume:    1,
		}
	}
	return ticks
}

func TestComputeThresholdOrdering(t *testing.T) {
	th := ComputeThreshold(orderFixture(), 2, 0)
	if th.UpperThreshold <= th.Threshold {
		t.Fatalf("upper threshold %v must exceed threshold %v", th.UpperThreshold, th.Threshold)
	}
	if th.SampleSize != 8 {
		t.Fatalf("expected all 8 orders counted, got %d", th.SampleSize)
	}
}

func TestComputeThresholdWindowFilter(t *testing.T) {
	ticks := orderFixture()
	// Only the trailing two minutes around the newest tick.
	th := ComputeThreshold(ticks, 2, 2*60_000)
	if th.SampleSize != 3 {
		t.Fatalf("window should keep 3 orders, got %d", th.SampleSize)
	}
}

func TestComputeThresholdEmpty(t *testing.T) {
	if th := ComputeThreshold(nil, 2, 0); th.SampleSize != 0 || th.Threshold != 0 {
		t.Fatalf("empty stream should zero out, got %+v", th)
	}
	// Window that excludes everything except the newest tick.
	ticks := orderFixture()
	th := ComputeThreshold(ticks, 2, 1)
	if th.SampleSize != 1 {
		t.Fatalf("degenerate window keeps just the newest tick, got %d", th.SampleSize)
	}
}

func TestClassification(t *testing.T) {
	th := ComputeThreshold(orderFixture(), 2, 0)
	if !IsLarge(th.UpperThreshold+1, th) {
		t.Fatalf("amount above upper threshold must be large")
	}
	if !IsExtraLarge(th.UpperThreshold+1, th) {
		t.Fatalf("amount above upper threshold must be extra-large")
	}
	if IsExtraLarge(th.Threshold+0.001, th) && th.UpperThreshold > th.Threshold+0.001 {
		t.Fatalf("amount between thresholds must not be extra-large")
	}
	if IsLarge(1, models.DynamicThreshold{}) {
		t.Fatalf("zeroed threshold classifies nothing")
	}
}

func TestLargeRatio(t *testing.T) {
	ticks := orderFixture()
	th := ComputeThreshold(ticks, 2, 0)
	ratio := LargeRatio(ticks, th)
	if ratio < 0 || ratio > 1 {
		t.Fatalf("ratio out of range: %v", ratio)
	}
}
