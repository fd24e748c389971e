package usecase

import (
	"context"
	"fmt"
	"time"

	"TradePulse/internal/analytics/chip"
	"TradePulse/internal/analytics/largeorder"
	"TradePulse/internal/analytics/wad"
	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
)

// QueriesUseCase serves the read-only analytics endpoints: each call loads
// the bars or ticks it needs and runs one engine, without touching the
// consensus state.
type QueriesUseCase struct {
	bars    domrepo.BarStore
	ticks   domrepo.Storage
	weights domrepo.WeightStore
}

func NewQueriesUseCase(bars domrepo.BarStore, ticks domrepo.Storage, weights domrepo.WeightStore) *QueriesUseCase {
	return &QueriesUseCase{bars: bars, ticks: ticks, weights: weights}
}

func (uc *QueriesUseCase) loadBars(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.PriceBar, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if n <= 0 {
		n = 250
	}
	if n > 5000 {
		n = 5000
	}
	bars, err := uc.bars.GetLatestNBars(ctx, symbol, n, tf)
	if err != nil {
		return nil, fmt.Errorf("get bars: %w", err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no bars for %s", symbol)
	}
	return bars, nil
}

type GetBarsParams struct {
	Symbol    string
	From      time.Time
	To        time.Time
	Timeframe domrepo.Timeframe
}

type GetBarsResult struct {
	Symbol    string            `json:"symbol"`
	Timeframe string            `json:"timeframe"`
	Count     int               `json:"count"`
	Bars      []models.PriceBar `json:"bars"`
}

// GetBars returns raw price bars for a time range. An empty range defaults to
// the last 24 hours.
func (uc *QueriesUseCase) GetBars(ctx context.Context, p GetBarsParams) (*GetBarsResult, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.To.IsZero() {
		p.To = time.Now()
	}
	if p.From.IsZero() || !p.From.Before(p.To) {
		p.From = p.To.Add(-24 * time.Hour)
	}
	bars, err := uc.bars.GetBars(ctx, p.Symbol, p.From, p.To, p.Timeframe)
	if err != nil {
		return nil, fmt.Errorf("get bars: %w", err)
	}
	return &GetBarsResult{
		Symbol:    p.Symbol,
		Timeframe: string(p.Timeframe),
		Count:     len(bars),
		Bars:      bars,
	}, nil
}

type GetWADParams struct {
	Symbol    string
	N         int
	Timeframe domrepo.Timeframe
	DecayRate float64
}

type GetWADResult struct {
	Symbol    string            `json:"symbol"`
	Timeframe string            `json:"timeframe"`
	Count     int               `json:"count"`
	Points    []models.WADPoint `json:"points"`
}

func (uc *QueriesUseCase) GetWAD(ctx context.Context, p GetWADParams) (*GetWADResult, error) {
	bars, err := uc.loadBars(ctx, p.Symbol, p.N, p.Timeframe)
	if err != nil {
		return nil, err
	}
	points := wad.ComputeCumulative(bars, wad.Options{
		DecayRate:           p.DecayRate,
		UseExponentialDecay: p.DecayRate > 0,
	})
	return &GetWADResult{
		Symbol:    p.Symbol,
		Timeframe: string(p.Timeframe),
		Count:     len(points),
		Points:    points,
	}, nil
}

type GetChipParams struct {
	Symbol    string
	N         int
	Timeframe domrepo.Timeframe
	BucketPct float64
}

type GetChipResult struct {
	Symbol        string                        `json:"symbol"`
	CurrentPrice  float64                       `json:"currentPrice"`
	Distribution  []models.ChipDistributionItem `json:"distribution"`
	Concentration models.Concentration          `json:"concentration"`
	Peaks         models.ChipPeakInfo           `json:"peaks"`
}

func (uc *QueriesUseCase) GetChip(ctx context.Context, p GetChipParams) (*GetChipResult, error) {
	bars, err := uc.loadBars(ctx, p.Symbol, p.N, p.Timeframe)
	if err != nil {
		return nil, err
	}
	dist := chip.BuildDistribution(bars, p.BucketPct)
	return &GetChipResult{
		Symbol:        p.Symbol,
		CurrentPrice:  bars[len(bars)-1].Close,
		Distribution:  dist,
		Concentration: chip.Concentration(dist),
		Peaks:         chip.IdentifyPeaks(dist, chip.DefaultPeakParams()),
	}, nil
}

type GetLevelsParams struct {
	Symbol    string
	N         int
	Timeframe domrepo.Timeframe
	BucketPct float64
}

func (uc *QueriesUseCase) GetLevels(ctx context.Context, p GetLevelsParams) (*models.SupportResistanceLevels, error) {
	bars, err := uc.loadBars(ctx, p.Symbol, p.N, p.Timeframe)
	if err != nil {
		return nil, err
	}
	dist := chip.BuildDistribution(bars, p.BucketPct)
	levels := chip.SupportResistance(dist, bars[len(bars)-1].Close)
	return &levels, nil
}

type GetThresholdParams struct {
	Symbol   string
	K        float64
	WindowMs int64
	Limit    int
}

func (uc *QueriesUseCase) GetThreshold(ctx context.Context, p GetThresholdParams) (*models.DynamicThreshold, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.Limit <= 0 {
		p.Limit = 2000
	}
	if p.Limit > 50000 {
		p.Limit = 50000
	}
	window := time.Duration(p.WindowMs) * time.Millisecond
	if window <= 0 {
		window = time.Hour
	}
	now := time.Now()
	ticks, err := uc.ticks.Query(ctx, p.Symbol, now.Add(-window), now, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("get ticks: %w", err)
	}
	flat := make([]models.Tick, 0, len(ticks))
	for _, t := range ticks {
		if t != nil {
			flat = append(flat, *t)
		}
	}
	th := largeorder.ComputeThreshold(flat, p.K, p.WindowMs)
	return &th, nil
}

type GetWeightsResult struct {
	Weights     map[string]float64                 `json:"weights"`
	Performance map[string]models.AgentPerformance `json:"performance"`
	Adjustments []models.WeightAdjustment          `json:"adjustments"`
}

func (uc *QueriesUseCase) GetWeights(ctx context.Context, adjustmentLimit int) (*GetWeightsResult, error) {
	weights, err := uc.weights.Weights(ctx)
	if err != nil {
		return nil, fmt.Errorf("get weights: %w", err)
	}
	perf, err := uc.weights.Performance(ctx)
	if err != nil {
		return nil, fmt.Errorf("get performance: %w", err)
	}
	adjs, err := uc.weights.Adjustments(ctx, adjustmentLimit)
	if err != nil {
		return nil, fmt.Errorf("get adjustments: %w", err)
	}
	return &GetWeightsResult{Weights: weights, Performance: perf, Adjustments: adjs}, nil
}
