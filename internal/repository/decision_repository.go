package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
	pkgkafka "TradePulse/pkg/kafka"
)

// CHDecisionStore persists consensus results in ClickHouse for audit and
// outcome tracking.
type CHDecisionStore struct {
	db    *sql.DB
	table string
}

// NewCHDecisionStore creates a ClickHouse-backed decision store.
func NewCHDecisionStore(db *sql.DB, table string) repository.DecisionStore {
	return &CHDecisionStore{db: db, table: table}
}

func (s *CHDecisionStore) SaveDecision(ctx context.Context, res *models.ConsensusResult) error {
	votes, err := json.Marshal(res.AgentVotes)
	if err != nil {
		return fmt.Errorf("marshal votes: %w", err)
	}
	q := fmt.Sprintf(`INSERT INTO %s
        (ts, symbol, decision, confidence, total_score, risk_level, vetoed, target_price, stop_loss, votes)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table)
	_, err = s.db.ExecContext(ctx, q,
		time.UnixMilli(res.Timestamp),
		res.Symbol,
		string(res.FinalDecision),
		res.Confidence,
		res.TotalScore,
		string(res.RiskLevel),
		res.Vetoed,
		res.TargetPrice,
		res.StopLoss,
		string(votes),
	)
	if err != nil {
		return fmt.Errorf("save decision: %w", err)
	}
	return nil
}

func (s *CHDecisionStore) QueryDecisions(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.ConsensusResult, error) {
	q := fmt.Sprintf(`SELECT ts, symbol, decision, confidence, total_score, risk_level, vetoed, target_price, stop_loss, votes
        FROM %s
        WHERE symbol = ? AND ts >= ? AND ts <= ?
        ORDER BY ts DESC LIMIT ?`, s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var out []*models.ConsensusResult
	for rows.Next() {
		var (
			res      models.ConsensusResult
			ts       time.Time
			decision string
			risk     string
			votes    string
		)
		if err := rows.Scan(&ts, &res.Symbol, &decision, &res.Confidence, &res.TotalScore,
			&risk, &res.Vetoed, &res.TargetPrice, &res.StopLoss, &votes); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		res.Timestamp = ts.UnixMilli()
		res.FinalDecision = models.Direction(decision)
		res.RiskLevel = models.RiskLevel(risk)
		if votes != "" {
			if err := json.Unmarshal([]byte(votes), &res.AgentVotes); err != nil {
				return nil, fmt.Errorf("unmarshal votes: %w", err)
			}
		}
		out = append(out, &res)
	}
	return out, rows.Err()
}

// KafkaDecisionPublisher emits finalized decisions to a Kafka topic keyed by
// symbol so downstream consumers see per-symbol ordering.
type KafkaDecisionPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaDecisionPublisher creates a Kafka decision publisher.
func NewKafkaDecisionPublisher(producer *pkgkafka.Producer, topic string) repository.DecisionPublisher {
	return &KafkaDecisionPublisher{producer: producer, topic: topic}
}

func (p *KafkaDecisionPublisher) PublishDecision(ctx context.Context, res *models.ConsensusResult) error {
	return p.producer.Publish(ctx, p.topic, []byte(res.Symbol), res)
}

func (p *KafkaDecisionPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
