package wad

import (
	"testing"

	"TradePulse/internal/domain/models"
)

const day = int64(86400000)

func dailyBars(closes ...float64) []models.PriceBar {
	bars := make([]models.PriceBar, len(closes))
	base := int64(1_700_000_000_000)
	for i, c := range closes {
		bars[i] = models.PriceBar{
			Timestamp: base + int64(i)*day,
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1000,
		}
	}
	return bars
}

func TestComputeBarSign(t *testing.T) {
	if v := ComputeBar(11, 9, 10.5, 10); v < 0 {
		t.Fatalf("up close must be non-negative, got %v", v)
	}
	if v := ComputeBar(11, 9, 9.5, 10); v > 0 {
		t.Fatalf("down close must be non-positive, got %v", v)
	}
	if v := ComputeBar(11, 9, 10, 10); v != 0 {
		t.Fatalf("flat close must be exactly 0, got %v", v)
	}
}

func TestComputeBarAgainstPreviousClose(t *testing.T) {
	// previousClose below the low: the increment spans from previousClose.
	if got := ComputeBar(12, 10, 11, 9); got != 2 {
		t.Fatalf("expected close-previousClose=2, got %v", got)
	}
	// previousClose above the high on a down bar.
	if got := ComputeBar(10, 8, 9, 11); got != -2 {
		t.Fatalf("expected close-previousClose=-2, got %v", got)
	}
}

func TestComputeCumulativeFirstBarZero(t *testing.T) {
	points := ComputeCumulative(dailyBars(10, 11, 12), Options{})
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	if points[0].WAD != 0 || points[0].CumulativeWAD != 0 {
		t.Fatalf("first bar must contribute 0, got %+v", points[0])
	}
}

func TestComputeCumulativeMonotoneCloses(t *testing.T) {
	points := ComputeCumulative(dailyBars(10, 11, 12, 13, 14), Options{
		DecayRate:           0.05,
		UseExponentialDecay: true,
	})
	for i := 1; i < len(points); i++ {
		if points[i].CumulativeWAD < points[i-1].CumulativeWAD {
			t.Fatalf("cumulative WAD decreased at %d: %v < %v",
				i, points[i].CumulativeWAD, points[i-1].CumulativeWAD)
		}
	}
}

func TestComputeCumulativeWeightsIncreaseWithRecency(t *testing.T) {
	points := ComputeCumulative(dailyBars(10, 11, 12, 13), Options{
		DecayRate:           0.1,
		UseExponentialDecay: true,
	})
	for i := 1; i < len(points); i++ {
		if points[i].Weight <= points[i-1].Weight {
			t.Fatalf("weight must increase with recency: %v <= %v",
				points[i].Weight, points[i-1].Weight)
		}
	}
	last := points[len(points)-1]
	if last.Weight != 1 {
		t.Fatalf("newest bar weight must be 1, got %v", last.Weight)
	}
}

func TestComputeCumulativeSortsWhenAsked(t *testing.T) {
	bars := dailyBars(10, 11, 12)
	shuffled := []models.PriceBar{bars[2], bars[0], bars[1]}
	got := ComputeCumulative(shuffled, Options{SortBars: true})
	want := ComputeCumulative(bars, Options{})
	for i := range want {
		if got[i].CumulativeWAD != want[i].CumulativeWAD {
			t.Fatalf("sorted run diverged at %d: %v vs %v", i, got[i], want[i])
		}
	}
}

func TestGenerateSignalsDirections(t *testing.T) {
	points := ComputeCumulative(dailyBars(10, 12, 14, 16, 18, 20), Options{})
	signals := GenerateSignals(points, 1.0, 2)
	if len(signals) != len(points)-2 {
		t.Fatalf("expected %d signals, got %d", len(points)-2, len(signals))
	}
	for _, s := range signals {
		if s.Direction != models.DirectionBuy {
			t.Fatalf("steady accumulation should emit buy, got %s", s.Direction)
		}
		if s.Strength < 0 || s.Strength > 1 {
			t.Fatalf("strength out of range: %v", s.Strength)
		}
		if s.Confidence < 0 || s.Confidence > 1 {
			t.Fatalf("confidence out of range: %v", s.Confidence)
		}
	}
	// Confidence builds as consecutive agreeing points stack up.
	if signals[len(signals)-1].Confidence <= signals[0].Confidence {
		t.Fatalf("confidence should grow along an agreeing run")
	}
}

func TestGenerateSignalsNoLookahead(t *testing.T) {
	points := ComputeCumulative(dailyBars(10, 12, 14, 16, 18, 20), Options{})
	full := GenerateSignals(points, 1.0, 2)
	trimmed := GenerateSignals(points[:len(points)-1], 1.0, 2)
	for i := range trimmed {
		if full[i] != trimmed[i] {
			t.Fatalf("signal %d changed when future points were appended", i)
		}
	}
}

func TestGenerateSignalsDegenerate(t *testing.T) {
	if got := GenerateSignals(nil, 1, 2); got != nil {
		t.Fatalf("empty input should yield nil")
	}
	points := ComputeCumulative(dailyBars(10, 11), Options{})
	if got := GenerateSignals(points, 0, 2); got != nil {
		t.Fatalf("non-positive threshold should yield nil")
	}
}
