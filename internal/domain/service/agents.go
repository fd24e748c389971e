package service

import (
	"context"

	"TradePulse/internal/domain/models"
)

// VoteProvider produces one agent's vote for a symbol. Implementations that
// depend on external services should return an error rather than a fabricated
// vote when the upstream is unavailable; the analyzer degrades to the votes
// it has.
type VoteProvider interface {
	AgentID() string
	Vote(ctx context.Context, symbol string, price float64) (models.AgentVote, error)
}
