package usecase

import (
	"context"
	"testing"
	"time"

	"TradePulse/internal/analytics/consensus"
	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	"TradePulse/internal/repository"
	applogger "TradePulse/pkg/logger"
)

type fakeBarStore struct {
	bars []models.PriceBar
}

func (f *fakeBarStore) GetBars(ctx context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe) ([]models.PriceBar, error) {
	return f.bars, nil
}

func (f *fakeBarStore) GetLatestNBars(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.PriceBar, error) {
	if n >= len(f.bars) {
		return f.bars, nil
	}
	return f.bars[len(f.bars)-n:], nil
}

type fakeTickStore struct {
	ticks []*models.Tick
}

func (f *fakeTickStore) Init(ctx context.Context) error                 { return nil }
func (f *fakeTickStore) Store(ctx context.Context, t *models.Tick) error { return nil }
func (f *fakeTickStore) StoreBatch(ctx context.Context, ts []*models.Tick) error {
	return nil
}
func (f *fakeTickStore) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Tick, error) {
	return f.ticks, nil
}
func (f *fakeTickStore) Health(ctx context.Context) error { return nil }
func (f *fakeTickStore) Close() error                     { return nil }

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func trendingBars(n int, start float64) []models.PriceBar {
	bars := make([]models.PriceBar, n)
	base := int64(1_700_000_000_000)
	price := start
	for i := 0; i < n; i++ {
		price *= 1.01
		bars[i] = models.PriceBar{
			Timestamp: base + int64(i)*86_400_000,
			Open:      price * 0.995,
			High:      price * 1.01,
			Low:       price * 0.99,
			Close:     price,
			Volume:    1000 + float64(i%7)*200,
		}
	}
	return bars
}

func testTicks(symbol string) []*models.Tick {
	base := int64(1_700_000_000_000)
	out := make([]*models.Tick, 0, 20)
	for i := 0; i < 20; i++ {
		out = append(out, &models.Tick{
			Symbol:    symbol,
			Timestamp: base + int64(i)*60_000,
			Price:     100 + float64(i%5),
			Volume:    float64(10 + i%3),
		})
	}
	return out
}

func newTestAnalyzer(t *testing.T, pending domrepo.PendingStore) *Analyzer {
	t.Helper()
	return NewAnalyzer(
		&fakeBarStore{bars: trendingBars(60, 100)},
		&fakeTickStore{ticks: testTicks("600519")},
		consensus.NewEngine(),
		repository.NewMemoryWeightStore(consensus.DefaultWeights()),
		pending,
		nil, nil, nil,
		AnalyzerConfig{},
		testLogger(t),
	)
}

func TestAnalyzeProducesFullReport(t *testing.T) {
	pending := repository.NewMemoryPendingStore()
	a := newTestAnalyzer(t, pending)

	report, err := a.Analyze(context.Background(), AnalyzeParams{Symbol: "600519"})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(report.WAD) == 0 || len(report.Distribution) == 0 {
		t.Fatalf("engines did not run: %+v", report.Errors)
	}
	if report.Concentration == nil || report.Peaks == nil || report.Levels == nil {
		t.Fatalf("chip sections missing")
	}
	if report.Threshold == nil {
		t.Fatalf("threshold section missing: %+v", report.Errors)
	}
	if report.Consensus == nil {
		t.Fatalf("consensus missing")
	}
	if report.Consensus.Symbol != "600519" {
		t.Fatalf("wrong symbol on consensus: %s", report.Consensus.Symbol)
	}
	if report.CurrentPrice <= 0 {
		t.Fatalf("current price not set")
	}

	// The decision must be queued for outcome tracking.
	due, _ := pending.Due(context.Background(), time.Now().Add(time.Minute))
	if len(due) != 1 {
		t.Fatalf("expected 1 pending decision, got %d", len(due))
	}
	if due[0].Decision != report.Consensus.FinalDecision {
		t.Fatalf("pending decision diverges from consensus")
	}
}

func TestAnalyzeInFlightGuard(t *testing.T) {
	a := newTestAnalyzer(t, repository.NewMemoryPendingStore())

	if !a.acquire("600519") {
		t.Fatalf("first acquire must succeed")
	}
	if _, err := a.Analyze(context.Background(), AnalyzeParams{Symbol: "600519"}); err != ErrAnalysisInFlight {
		t.Fatalf("duplicate run must be rejected, got %v", err)
	}
	a.release("600519")
	if _, err := a.Analyze(context.Background(), AnalyzeParams{Symbol: "600519"}); err != nil {
		t.Fatalf("released symbol must analyze again: %v", err)
	}
}

func TestAnalyzeRequiresSymbol(t *testing.T) {
	a := newTestAnalyzer(t, repository.NewMemoryPendingStore())
	if _, err := a.Analyze(context.Background(), AnalyzeParams{}); err == nil {
		t.Fatalf("empty symbol must error")
	}
}
