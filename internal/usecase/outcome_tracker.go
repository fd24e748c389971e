package usecase

import (
	"context"
	"fmt"
	"time"

	"TradePulse/internal/analytics/consensus"
	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	applogger "TradePulse/pkg/logger"
)

// OutcomeTracker re-evaluates pending decisions once they have aged past the
// holding period and folds the results into per-agent performance records.
//
// Two evaluation paths exist and deliberately score holds differently: the
// periodic sweep awards 0.5 for a correct hold while the on-demand path
// awards a full point for any success. The asymmetry damps weight growth for
// agents that mostly vote hold; equalizing the paths would change weight
// drift for every deployment, so both are kept as-is.
type OutcomeTracker struct {
	pending  domrepo.PendingStore
	bars     domrepo.BarStore
	weights  domrepo.WeightStore
	pub      EvaluationPublisher
	interval time.Duration
	holding  time.Duration
	tf       domrepo.Timeframe
	l        *applogger.Logger
}

// EvaluationPublisher enqueues on-demand evaluation requests.
type EvaluationPublisher interface {
	PublishMessage(ctx context.Context, msgType string, payload interface{}) error
}

// ErrPendingNotFound is returned when an evaluation request names a decision
// that is not in the pending set.
var ErrPendingNotFound = fmt.Errorf("pending decision not found")

// NewOutcomeTracker creates the tracker. interval is the sweep cadence,
// holding the minimum decision age before evaluation.
func NewOutcomeTracker(
	pending domrepo.PendingStore,
	bars domrepo.BarStore,
	weights domrepo.WeightStore,
	interval, holding time.Duration,
	tf domrepo.Timeframe,
	l *applogger.Logger,
) *OutcomeTracker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if holding <= 0 {
		holding = 24 * time.Hour
	}
	if tf == "" {
		tf = domrepo.DefaultTimeframe()
	}
	return &OutcomeTracker{
		pending:  pending,
		bars:     bars,
		weights:  weights,
		interval: interval,
		holding:  holding,
		tf:       tf,
		l:        l,
	}
}

// SetPublisher attaches the queue used for on-demand evaluation requests.
// Without one, requests are evaluated inline.
func (t *OutcomeTracker) SetPublisher(p EvaluationPublisher) { t.pub = p }

// RequestEvaluation finds a pending decision by ID and hands it to the queue
// workers, or evaluates it inline when no queue is attached.
func (t *OutcomeTracker) RequestEvaluation(ctx context.Context, id string) error {
	list, err := t.pending.Due(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("load pending decisions: %w", err)
	}
	for _, d := range list {
		if d.ID != id {
			continue
		}
		if t.pub != nil {
			return t.pub.PublishMessage(ctx, EvaluateOutcomeMessage, d)
		}
		return t.EvaluateNow(ctx, d)
	}
	return fmt.Errorf("%w: %s", ErrPendingNotFound, id)
}

// Run executes the periodic sweep until ctx is cancelled.
func (t *OutcomeTracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := t.Sweep(ctx); err != nil {
				t.l.Error("outcome sweep failed", applogger.Error(err))
			}
		}
	}
}

// Sweep evaluates every decision older than the holding period using the
// batch feedback scoring.
func (t *OutcomeTracker) Sweep(ctx context.Context) error {
	due, err := t.pending.Due(ctx, time.Now().Add(-t.holding))
	if err != nil {
		return fmt.Errorf("load due decisions: %w", err)
	}
	for _, d := range due {
		if err := t.evaluate(ctx, d, consensus.BatchFeedbackScore); err != nil {
			t.l.Error("evaluate decision failed",
				applogger.String("id", d.ID), applogger.Error(err))
			continue
		}
		if err := t.pending.Remove(ctx, d.ID); err != nil {
			t.l.Error("remove pending decision failed",
				applogger.String("id", d.ID), applogger.Error(err))
		}
	}
	return nil
}

// EvaluateNow judges one decision immediately, using the on-demand feedback
// scoring. Used by the queue worker for explicit evaluation requests.
func (t *OutcomeTracker) EvaluateNow(ctx context.Context, d models.PendingDecision) error {
	score := func(decision models.Direction, success bool) float64 {
		return consensus.ImmediateFeedbackScore(success)
	}
	if err := t.evaluate(ctx, d, score); err != nil {
		return err
	}
	return t.pending.Remove(ctx, d.ID)
}

func (t *OutcomeTracker) evaluate(ctx context.Context, d models.PendingDecision, feedback func(models.Direction, bool) float64) error {
	current, err := t.latestClose(ctx, d.Symbol)
	if err != nil {
		return fmt.Errorf("latest close for %s: %w", d.Symbol, err)
	}

	// Each agent is judged on its own vote direction, not on the final
	// consensus: an agent that dissented correctly still earns credit.
	for _, vote := range d.Votes {
		success := consensus.EvaluateOutcome(vote.Direction, d.Price, current)
		score := feedback(vote.Direction, success)
		if err := t.applyOutcome(ctx, vote.AgentID, success, score); err != nil {
			return err
		}
	}

	decisionSuccess := consensus.EvaluateOutcome(d.Decision, d.Price, current)
	t.l.Info("decision evaluated",
		applogger.String("id", d.ID),
		applogger.String("symbol", d.Symbol),
		applogger.String("decision", string(d.Decision)),
		applogger.Any("entry", d.Price),
		applogger.Any("current", current),
		applogger.Any("success", decisionSuccess),
	)
	return nil
}

func (t *OutcomeTracker) applyOutcome(ctx context.Context, agentID string, success bool, score float64) error {
	perf, err := t.weights.Performance(ctx)
	if err != nil {
		return fmt.Errorf("load performance: %w", err)
	}
	updated := consensus.UpdatePerformance(perf[agentID], success, score)
	if err := t.weights.SavePerformance(ctx, agentID, updated); err != nil {
		return fmt.Errorf("save performance for %s: %w", agentID, err)
	}
	return nil
}

func (t *OutcomeTracker) latestClose(ctx context.Context, symbol string) (float64, error) {
	bars, err := t.bars.GetLatestNBars(ctx, symbol, 1, t.tf)
	if err != nil {
		return 0, err
	}
	if len(bars) == 0 {
		return 0, fmt.Errorf("no bars")
	}
	return bars[0].Close, nil
}
