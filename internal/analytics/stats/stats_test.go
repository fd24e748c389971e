package stats

import (
	"math"
	"testing"
)

func TestDecayWeightMonotone(t *testing.T) {
	now := int64(1_700_000_000_000)
	recent := DecayWeight(now-86400000, now, 0.1)
	older := DecayWeight(now-5*86400000, now, 0.1)
	if recent <= older {
		t.Fatalf("expected recent weight %v > older %v", recent, older)
	}
	if w := DecayWeight(now, now, 0.1); w != 1 {
		t.Fatalf("zero elapsed should weigh 1, got %v", w)
	}
}

func TestDecayWeightFutureUnclamped(t *testing.T) {
	now := int64(1_700_000_000_000)
	if w := DecayWeight(now+86400000, now, 0.1); w <= 1 {
		t.Fatalf("future timestamp should exceed 1, got %v", w)
	}
}

func TestDecayWeightZeroRate(t *testing.T) {
	now := int64(1_700_000_000_000)
	if w := DecayWeight(now-30*86400000, now, 0); w != 1 {
		t.Fatalf("zero decay rate should weigh 1, got %v", w)
	}
}

func TestQuantileIndexRule(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	if got := Quantile(sorted, 0.25); got != 3 {
		t.Fatalf("q1: expected 3, got %v", got)
	}
	if got := Quantile(sorted, 0.75); got != 8 {
		t.Fatalf("q3: expected 8, got %v", got)
	}
	if got := Quantile(sorted, 1.0); got != 10 {
		t.Fatalf("p=1 clamps to last, got %v", got)
	}
}

func TestMedianEvenOdd(t *testing.T) {
	if got := Median([]float64{1, 2, 3}); got != 2 {
		t.Fatalf("odd median: got %v", got)
	}
	if got := Median([]float64{1, 2, 3, 4}); got != 2.5 {
		t.Fatalf("even median: got %v", got)
	}
}

func TestModeRoundedBucket(t *testing.T) {
	if got := Mode([]float64{9.6, 10.2, 10.4, 3.1}); got != 10 {
		t.Fatalf("mode: expected 10, got %v", got)
	}
}

func TestRobustThresholdOrdering(t *testing.T) {
	values := []float64{10, 12, 13, 15, 14, 200, 11, 12}
	th := RobustThreshold(values, 2)
	if th.UpperThreshold <= th.Threshold {
		t.Fatalf("upper %v must exceed threshold %v", th.UpperThreshold, th.Threshold)
	}
	if th.IQR != th.Q3-th.Q1 {
		t.Fatalf("iqr mismatch: %v vs %v", th.IQR, th.Q3-th.Q1)
	}
	if th.OutlierCount == 0 {
		t.Fatalf("expected the 200 sample flagged as outlier")
	}
}

func TestRobustThresholdKnownValues(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	th := RobustThreshold(values, 1)
	if th.Mean != 5 {
		t.Fatalf("mean: got %v", th.Mean)
	}
	if math.Abs(th.Std-2) > 1e-12 {
		t.Fatalf("population std: got %v", th.Std)
	}
	if math.Abs(th.Threshold-7) > 1e-12 {
		t.Fatalf("threshold mean+std: got %v", th.Threshold)
	}
	if th.Mode != 4 {
		t.Fatalf("mode: got %v", th.Mode)
	}
}

func TestRobustThresholdEmpty(t *testing.T) {
	th := RobustThreshold(nil, 2)
	if th.SampleSize != 0 || th.Threshold != 0 || th.Std != 0 {
		t.Fatalf("empty input should zero out, got %+v", th)
	}
}
