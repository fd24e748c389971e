package usecase

import (
	"context"
	"fmt"

	"TradePulse/internal/domain/models"
	pkgqueue "TradePulse/pkg/queue"
)

// EvaluateOutcomeMessage is the queue message type for on-demand outcome
// evaluation.
const EvaluateOutcomeMessage = "evaluate_outcome"

// OutcomeJob handles on-demand evaluation requests from the Redis queue.
// The payload is the pending decision itself.
type OutcomeJob struct {
	tracker *OutcomeTracker
}

func NewOutcomeJob(tracker *OutcomeTracker) *OutcomeJob {
	return &OutcomeJob{tracker: tracker}
}

func (j *OutcomeJob) Name() string { return "outcome_evaluator" }

func (j *OutcomeJob) Type() string { return EvaluateOutcomeMessage }

func (j *OutcomeJob) Handle(ctx context.Context, payload interface{}) error {
	d, err := pkgqueue.ParsePayload[models.PendingDecision](payload)
	if err != nil {
		return fmt.Errorf("parse outcome payload: %w", err)
	}
	return j.tracker.EvaluateNow(ctx, *d)
}

var _ pkgqueue.Job = (*OutcomeJob)(nil)
