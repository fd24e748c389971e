package usecase

import (
	"testing"

	"TradePulse/internal/domain/models"
)

func TestTechnicalVote(t *testing.T) {
	if v := TechnicalVote(nil); v.Direction != models.DirectionHold || v.Score != 0 {
		t.Fatalf("no signals should read as a hold, got %+v", v)
	}

	signals := []models.Signal{
		{Direction: models.DirectionSell, Strength: 0.9, Confidence: 0.8},
		{Direction: models.DirectionBuy, Strength: 0.6, Confidence: 0.7},
	}
	v := TechnicalVote(signals)
	if v.Direction != models.DirectionBuy {
		t.Fatalf("latest signal wins, got %s", v.Direction)
	}
	if v.Score != 0.6 || v.Confidence != 0.7 {
		t.Fatalf("score/confidence must carry the latest signal, got %+v", v)
	}

	sell := TechnicalVote(signals[:1])
	if sell.Score != -0.9 {
		t.Fatalf("sell signal must score negative, got %v", sell.Score)
	}
}

func chipFixture(centerPrice float64) (models.ChipPeakInfo, models.Concentration) {
	peak := models.ChipPeak{
		Price:       centerPrice,
		CenterPrice: centerPrice,
		Ratio:       0.4,
		Volume:      2_000_000,
		Dominance:   0.6,
		Reliability: 0.8,
	}
	info := models.ChipPeakInfo{
		Peaks:        []models.ChipPeak{peak},
		DominantPeak: &peak,
		IsSinglePeak: true,
		TotalVolume:  5_000_000,
	}
	return info, models.Concentration{HHI: 0.3, Gini: 0.4, Grade: "high"}
}

func TestChipVoteSides(t *testing.T) {
	info, conc := chipFixture(100)

	above := ChipVote(info, conc, 108)
	if above.Score <= 0 || above.Direction != models.DirectionBuy {
		t.Fatalf("price above the dominant cost basis should vote buy, got %+v", above)
	}

	below := ChipVote(info, conc, 92)
	if below.Score >= 0 || below.Direction != models.DirectionSell {
		t.Fatalf("price below the dominant cost basis should vote sell, got %+v", below)
	}

	empty := ChipVote(models.ChipPeakInfo{}, conc, 100)
	if empty.Direction != models.DirectionHold {
		t.Fatalf("no dominant peak should hold, got %+v", empty)
	}
}

func TestRiskVoteDistressedProfileCanVeto(t *testing.T) {
	// Nearly all chips above the current price, price 20% under the dominant
	// cost basis, and no support in sight.
	items := []models.ChipDistributionItem{
		{Price: 95, Volume: 500_000, Percentage: 0.1},
		{Price: 100, Volume: 2_500_000, Percentage: 0.5},
		{Price: 105, Volume: 2_000_000, Percentage: 0.4},
	}
	info, _ := chipFixture(100)
	levels := models.SupportResistanceLevels{CurrentPrice: 80}

	v := RiskVote(items, info, levels, 80)
	if v.Score >= -0.7 {
		t.Fatalf("distressed profile must cross the veto line, got %v", v.Score)
	}
	if v.Direction != models.DirectionSell {
		t.Fatalf("deep negative risk score should vote sell, got %s", v.Direction)
	}
	if v.Confidence <= 0.5 {
		t.Fatalf("strong risk reading should carry high confidence, got %v", v.Confidence)
	}
}

func TestRiskVoteHealthyProfile(t *testing.T) {
	// Price sits above all chips with support below: nothing to flag.
	items := []models.ChipDistributionItem{
		{Price: 95, Volume: 2_000_000, Percentage: 0.5},
		{Price: 100, Volume: 2_000_000, Percentage: 0.5},
	}
	info, _ := chipFixture(100)
	levels := models.SupportResistanceLevels{
		CurrentPrice: 110,
		Supports:     []models.SupportResistanceLevel{{Price: 100, Type: models.LevelSupport}},
	}

	v := RiskVote(items, info, levels, 110)
	if v.Score < -0.2 {
		t.Fatalf("healthy profile should not flag risk, got %v", v.Score)
	}
	if v.Direction == models.DirectionSell {
		t.Fatalf("healthy profile must not vote sell")
	}
}
