package models

import "time"

// Agent identifiers. Each agent contributes one weighted vote per run.
const (
	AgentTechnical   = "technical"
	AgentFundamental = "fundamental"
	AgentSentiment   = "sentiment"
	AgentChip        = "chip"
	AgentRiskControl = "risk_control"
)

// RiskLevel classifies a consensus decision.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// AgentVote is one agent's contribution to a consensus run.
type AgentVote struct {
	AgentID    string             `json:"agentId"`
	Direction  Direction          `json:"direction"`
	Score      float64            `json:"score"`      // [-1,1]
	Confidence float64            `json:"confidence"` // [0,1]
	Weights    map[string]float64 `json:"weights,omitempty"`
}

// ConsensusResult is the immutable outcome of one consensus run.
type ConsensusResult struct {
	Symbol        string      `json:"symbol"`
	Timestamp     int64       `json:"timestamp"` // ms
	FinalDecision Direction   `json:"finalDecision"`
	Confidence    float64     `json:"confidence"`
	TotalScore    float64     `json:"totalScore"`
	RiskLevel     RiskLevel   `json:"riskLevel"`
	Vetoed        bool        `json:"vetoed"`
	TargetPrice   float64     `json:"targetPrice,omitempty"`
	StopLoss      float64     `json:"stopLoss,omitempty"`
	AgentVotes    []AgentVote `json:"agentVotes"`
}

// AgentPerformance accumulates historical outcome tracking for one agent.
type AgentPerformance struct {
	TotalDecisions      int     `json:"totalDecisions"`
	SuccessfulDecisions int     `json:"successfulDecisions"`
	ConsecutiveFailures int     `json:"consecutiveFailures"`
	AverageScore        float64 `json:"averageScore"`
}

// WinRate returns the success ratio, 0 for an empty history.
func (p AgentPerformance) WinRate() float64 {
	if p.TotalDecisions == 0 {
		return 0
	}
	return float64(p.SuccessfulDecisions) / float64(p.TotalDecisions)
}

// WeightAdjustment is one entry of the recalibration audit trail.
type WeightAdjustment struct {
	AgentID   string    `json:"agentId"`
	OldWeight float64   `json:"oldWeight"`
	NewWeight float64   `json:"newWeight"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// PendingDecision is a published decision awaiting outcome evaluation.
type PendingDecision struct {
	ID        string      `json:"id"`
	Symbol    string      `json:"symbol"`
	Decision  Direction   `json:"decision"`
	Price     float64     `json:"price"`
	CreatedAt time.Time   `json:"createdAt"`
	Votes     []AgentVote `json:"votes"`
}
