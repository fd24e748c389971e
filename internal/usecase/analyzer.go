package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"TradePulse/internal/analytics/chip"
	"TradePulse/internal/analytics/consensus"
	"TradePulse/internal/analytics/largeorder"
	"TradePulse/internal/analytics/wad"
	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	domsvc "TradePulse/internal/domain/service"
	applogger "TradePulse/pkg/logger"
)

// ErrAnalysisInFlight is returned when a run for the same symbol is already
// executing.
var ErrAnalysisInFlight = fmt.Errorf("analysis already in flight for symbol")

// AnalyzerConfig carries the engine tunables for one deployment.
type AnalyzerConfig struct {
	Lookback        int
	Timeframe       domrepo.Timeframe
	DecayRate       float64
	SignalThreshold float64
	SignalLookback  int
	BucketWidthPct  float64
	ThresholdK      float64
	ThresholdWindow time.Duration
	TickLimit       int
	Timeout         time.Duration
}

// Normalize fills zero values with the standard tunables.
func (c *AnalyzerConfig) Normalize() {
	if c.Lookback <= 0 {
		c.Lookback = 250
	}
	if c.Timeframe == "" {
		c.Timeframe = domrepo.DefaultTimeframe()
	}
	if c.DecayRate <= 0 {
		c.DecayRate = 0.05
	}
	if c.SignalLookback <= 0 {
		c.SignalLookback = 5
	}
	if c.BucketWidthPct <= 0 {
		c.BucketWidthPct = chip.DefaultBucketWidthPct
	}
	if c.ThresholdK <= 0 {
		c.ThresholdK = largeorder.DefaultK
	}
	if c.ThresholdWindow <= 0 {
		c.ThresholdWindow = time.Hour
	}
	if c.TickLimit <= 0 {
		c.TickLimit = 2000
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}

// Analyzer runs the full per-symbol analysis: all native engines fan out
// concurrently alongside the external scoring agents, their outputs become
// agent votes, and the consensus engine folds them into one decision which is
// persisted, published and queued for outcome tracking.
type Analyzer struct {
	bars     domrepo.BarStore
	ticks    domrepo.Storage
	engine   *consensus.Engine
	weights  domrepo.WeightStore
	pending  domrepo.PendingStore
	history  domrepo.DecisionStore
	decision domrepo.DecisionPublisher
	voters   []domsvc.VoteProvider
	cfg      AnalyzerConfig
	l        *applogger.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewAnalyzer wires the analyzer. history, decision and voters may be nil /
// empty; the run degrades to what it has.
func NewAnalyzer(
	bars domrepo.BarStore,
	ticks domrepo.Storage,
	engine *consensus.Engine,
	weights domrepo.WeightStore,
	pending domrepo.PendingStore,
	history domrepo.DecisionStore,
	decision domrepo.DecisionPublisher,
	voters []domsvc.VoteProvider,
	cfg AnalyzerConfig,
	l *applogger.Logger,
) *Analyzer {
	cfg.Normalize()
	return &Analyzer{
		bars:     bars,
		ticks:    ticks,
		engine:   engine,
		weights:  weights,
		pending:  pending,
		history:  history,
		decision: decision,
		voters:   voters,
		cfg:      cfg,
		l:        l,
		inFlight: make(map[string]struct{}),
	}
}

type AnalyzeParams struct {
	Symbol    string
	N         int
	Timeframe domrepo.Timeframe
}

// Analyze executes one full analysis run for a symbol. A second concurrent
// call for the same symbol returns ErrAnalysisInFlight instead of doubling
// the work.
func (a *Analyzer) Analyze(ctx context.Context, p AnalyzeParams) (*models.AnalysisReport, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.N <= 0 {
		p.N = a.cfg.Lookback
	}
	if p.Timeframe == "" {
		p.Timeframe = a.cfg.Timeframe
	}

	if !a.acquire(p.Symbol) {
		return nil, ErrAnalysisInFlight
	}
	defer a.release(p.Symbol)

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	bars, err := a.bars.GetLatestNBars(ctx, p.Symbol, p.N, p.Timeframe)
	if err != nil {
		return nil, fmt.Errorf("load bars: %w", err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no bars for %s", p.Symbol)
	}
	currentPrice := bars[len(bars)-1].Close

	now := time.Now()
	report := &models.AnalysisReport{
		Symbol:       p.Symbol,
		Timestamp:    now,
		CurrentPrice: currentPrice,
		Errors:       map[string]string{},
	}

	type item struct {
		name string
		val  interface{}
		err  error
	}
	ch := make(chan item, 4+len(a.voters))
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		points := wad.ComputeCumulative(bars, wad.Options{
			DecayRate:           a.cfg.DecayRate,
			UseExponentialDecay: true,
		})
		ch <- item{"wad", points, nil}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		dist := chip.BuildDistribution(bars, a.cfg.BucketWidthPct)
		ch <- item{"chip", dist, nil}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		from := now.Add(-a.cfg.ThresholdWindow)
		ticks, err := a.ticks.Query(ctx, p.Symbol, from, now, a.cfg.TickLimit)
		if err != nil {
			ch <- item{"threshold", nil, err}
			return
		}
		flat := make([]models.Tick, 0, len(ticks))
		for _, t := range ticks {
			if t != nil {
				flat = append(flat, *t)
			}
		}
		th := largeorder.ComputeThreshold(flat, a.cfg.ThresholdK, a.cfg.ThresholdWindow.Milliseconds())
		ch <- item{"threshold", th, nil}
	}()
	for _, voter := range a.voters {
		wg.Add(1)
		go func(v domsvc.VoteProvider) {
			defer wg.Done()
			vote, err := v.Vote(ctx, p.Symbol, currentPrice)
			ch <- item{"agent_" + v.AgentID(), vote, err}
		}(voter)
	}

	go func() { wg.Wait(); close(ch) }()

	externalVotes := make([]models.AgentVote, 0, len(a.voters))
	for it := range ch {
		if it.err != nil {
			report.Errors[it.name] = it.err.Error()
			continue
		}
		switch v := it.val.(type) {
		case []models.WADPoint:
			report.WAD = v
		case []models.ChipDistributionItem:
			report.Distribution = v
		case models.DynamicThreshold:
			th := v
			report.Threshold = &th
		case models.AgentVote:
			externalVotes = append(externalVotes, v)
		}
	}

	a.deriveChipSections(report, currentPrice)
	a.deriveSignals(report)

	votes := a.buildVotes(report, externalVotes, currentPrice)
	result := a.aggregate(ctx, p.Symbol, currentPrice, votes, now)
	report.Consensus = &result

	a.persist(ctx, &result, currentPrice, now)

	if len(report.Errors) == 0 {
		report.Errors = nil
	}
	return report, nil
}

func (a *Analyzer) deriveChipSections(report *models.AnalysisReport, currentPrice float64) {
	if len(report.Distribution) == 0 {
		return
	}
	conc := chip.Concentration(report.Distribution)
	report.Concentration = &conc
	peaks := chip.IdentifyPeaks(report.Distribution, chip.DefaultPeakParams())
	report.Peaks = &peaks
	levels := chip.SupportResistance(report.Distribution, currentPrice)
	report.Levels = &levels
}

func (a *Analyzer) deriveSignals(report *models.AnalysisReport) {
	if len(report.WAD) == 0 {
		return
	}
	threshold := a.cfg.SignalThreshold
	if threshold <= 0 {
		threshold = adaptiveSignalThreshold(report.WAD)
	}
	report.Signals = wad.GenerateSignals(report.WAD, threshold, a.cfg.SignalLookback)
}

// adaptiveSignalThreshold scales the signal cutoff to the series' own
// magnitude so one config works across symbols of very different prices.
func adaptiveSignalThreshold(points []models.WADPoint) float64 {
	sum := 0.0
	for _, p := range points {
		if p.WAD >= 0 {
			sum += p.WAD
		} else {
			sum -= p.WAD
		}
	}
	mean := sum / float64(len(points))
	if mean == 0 {
		return 1
	}
	return mean * 2
}

func (a *Analyzer) buildVotes(report *models.AnalysisReport, external []models.AgentVote, currentPrice float64) []models.AgentVote {
	votes := make([]models.AgentVote, 0, 3+len(external))
	votes = append(votes, TechnicalVote(report.Signals))
	if report.Peaks != nil && report.Concentration != nil {
		votes = append(votes, ChipVote(*report.Peaks, *report.Concentration, currentPrice))
	}
	if report.Levels != nil && report.Peaks != nil {
		votes = append(votes, RiskVote(report.Distribution, *report.Peaks, *report.Levels, currentPrice))
	}
	return append(votes, external...)
}

func (a *Analyzer) aggregate(ctx context.Context, symbol string, price float64, votes []models.AgentVote, at time.Time) models.ConsensusResult {
	weights := consensus.DefaultWeights()
	if a.weights != nil {
		if stored, err := a.weights.Weights(ctx); err == nil && len(stored) > 0 {
			weights = stored
		} else if err != nil {
			a.l.Warn("load weights failed, using defaults", applogger.Error(err))
		}
	}
	var perf map[string]models.AgentPerformance
	if a.weights != nil {
		if p, err := a.weights.Performance(ctx); err == nil {
			perf = p
		} else {
			a.l.Warn("load performance failed", applogger.Error(err))
		}
	}
	return a.engine.Aggregate(consensus.Input{
		Symbol:      symbol,
		Price:       price,
		Votes:       votes,
		Weights:     weights,
		Performance: perf,
		At:          at,
	})
}

// persist stores, publishes and enqueues the decision. Failures are logged
// and do not fail the analysis; the report is still valid.
func (a *Analyzer) persist(ctx context.Context, res *models.ConsensusResult, price float64, at time.Time) {
	if a.history != nil {
		if err := a.history.SaveDecision(ctx, res); err != nil {
			a.l.Error("save decision failed",
				applogger.String("symbol", res.Symbol), applogger.Error(err))
		}
	}
	if a.decision != nil {
		if err := a.decision.PublishDecision(ctx, res); err != nil {
			a.l.Error("publish decision failed",
				applogger.String("symbol", res.Symbol), applogger.Error(err))
		}
	}
	if a.pending != nil {
		d := models.PendingDecision{
			ID:        fmt.Sprintf("%s-%d", res.Symbol, res.Timestamp),
			Symbol:    res.Symbol,
			Decision:  res.FinalDecision,
			Price:     price,
			CreatedAt: at,
			Votes:     res.AgentVotes,
		}
		if err := a.pending.Add(ctx, d); err != nil {
			a.l.Error("enqueue pending decision failed",
				applogger.String("symbol", res.Symbol), applogger.Error(err))
		}
	}
}

func (a *Analyzer) acquire(symbol string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, busy := a.inFlight[symbol]; busy {
		return false
	}
	a.inFlight[symbol] = struct{}{}
	return true
}

func (a *Analyzer) release(symbol string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.inFlight, symbol)
}
