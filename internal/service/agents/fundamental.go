package agents

import (
	"context"
	"fmt"
	"time"

	"TradePulse/internal/domain/models"
	domsvc "TradePulse/internal/domain/service"
)

// HTTPFundamentalAgent scores valuation fundamentals via the external
// scoring service.
type HTTPFundamentalAgent struct {
	base    *HTTPServiceBase
	retries int
}

// NewHTTPFundamentalAgent creates the fundamental vote provider.
func NewHTTPFundamentalAgent(baseURL string, timeout time.Duration, retries int) *HTTPFundamentalAgent {
	return &HTTPFundamentalAgent{base: NewHTTPServiceBase(baseURL, timeout), retries: retries}
}

func (s *HTTPFundamentalAgent) AgentID() string { return models.AgentFundamental }

type fundamentalReq struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

type fundamentalResp struct {
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	FairValue  float64 `json:"fair_value"`
}

func (s *HTTPFundamentalAgent) Vote(ctx context.Context, symbol string, price float64) (models.AgentVote, error) {
	var fr fundamentalResp
	err := s.base.PostJSONWithRetry(ctx, "/fundamental/score", fundamentalReq{Symbol: symbol, Price: price}, &fr, s.retries)
	if err != nil {
		return models.AgentVote{}, fmt.Errorf("fundamental vote: %w", err)
	}
	score := clampScore(fr.Score)
	return models.AgentVote{
		AgentID:    models.AgentFundamental,
		Direction:  directionForScore(score),
		Score:      score,
		Confidence: clampConfidence(fr.Confidence),
	}, nil
}

var _ domsvc.VoteProvider = (*HTTPFundamentalAgent)(nil)
