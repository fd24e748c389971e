package agents

import (
	"context"
	"fmt"
	"time"

	"TradePulse/internal/domain/models"
	domsvc "TradePulse/internal/domain/service"
)

// HTTPSentimentAgent scores market sentiment via the external scoring
// service.
type HTTPSentimentAgent struct {
	base    *HTTPServiceBase
	retries int
}

// NewHTTPSentimentAgent creates the sentiment vote provider.
func NewHTTPSentimentAgent(baseURL string, timeout time.Duration, retries int) *HTTPSentimentAgent {
	return &HTTPSentimentAgent{base: NewHTTPServiceBase(baseURL, timeout), retries: retries}
}

func (s *HTTPSentimentAgent) AgentID() string { return models.AgentSentiment }

type sentimentReq struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

type sentimentResp struct {
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

func (s *HTTPSentimentAgent) Vote(ctx context.Context, symbol string, price float64) (models.AgentVote, error) {
	var sr sentimentResp
	err := s.base.PostJSONWithRetry(ctx, "/sentiment/score", sentimentReq{Symbol: symbol, Price: price}, &sr, s.retries)
	if err != nil {
		return models.AgentVote{}, fmt.Errorf("sentiment vote: %w", err)
	}
	score := clampScore(sr.Score)
	return models.AgentVote{
		AgentID:    models.AgentSentiment,
		Direction:  directionForScore(score),
		Score:      score,
		Confidence: clampConfidence(sr.Confidence),
	}, nil
}

// directionForScore maps a raw agent score onto a vote direction. The band
// matches the engine's loose decision threshold.
func directionForScore(score float64) models.Direction {
	switch {
	case score > 0.2:
		return models.DirectionBuy
	case score < -0.2:
		return models.DirectionSell
	default:
		return models.DirectionHold
	}
}

var _ domsvc.VoteProvider = (*HTTPSentimentAgent)(nil)
