package repository

import (
	"context"
	"time"

	"TradePulse/internal/domain/models"
)

type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

type Publisher interface {
	Publish(ctx context.Context, t *models.Tick) error
	PublishBatch(ctx context.Context, ticks []*models.Tick) error
	Close() error
}

type Storage interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, t *models.Tick) error
	StoreBatch(ctx context.Context, ticks []*models.Tick) error
	Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Tick, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// DecisionPublisher emits finalized consensus results to downstream
// consumers.
type DecisionPublisher interface {
	PublishDecision(ctx context.Context, res *models.ConsensusResult) error
	Close() error
}

// DecisionStore persists consensus results for audit and outcome tracking.
type DecisionStore interface {
	SaveDecision(ctx context.Context, res *models.ConsensusResult) error
	QueryDecisions(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.ConsensusResult, error)
}

type Metrics interface {
	RecordTickIngested(source, symbol string)
	RecordDecision(symbol string, decision string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
