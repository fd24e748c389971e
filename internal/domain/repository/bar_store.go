package repository

import (
	"context"
	"time"

	"TradePulse/internal/domain/models"
)

// Timeframe represents bar resolution buckets.
type Timeframe string

const (
	TF1m Timeframe = "1m"
	TF5m Timeframe = "5m"
	TF1d Timeframe = "1d"
)

// BarStore provides read-only access to OHLCV bars for the analytics
// engines.
type BarStore interface {
	GetBars(ctx context.Context, symbol string, from, to time.Time, tf Timeframe) ([]models.PriceBar, error)
	GetLatestNBars(ctx context.Context, symbol string, n int, tf Timeframe) ([]models.PriceBar, error)
}
