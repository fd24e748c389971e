package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
)

const (
	weightsKey     = "consensus:weights"
	performanceKey = "consensus:performance"
	adjustmentsKey = "consensus:adjustments"
	pendingKey     = "consensus:pending"
)

// RedisWeightStore implements WeightStore on Redis hashes. Update serializes
// read-modify-write cycles behind a process-local mutex; the recalibration
// scheduler is the only writer, so cross-process locking is not needed.
type RedisWeightStore struct {
	client *redis.Client
	prefix string

	mu sync.Mutex
}

// NewRedisWeightStore creates a Redis-backed weight store.
func NewRedisWeightStore(client *redis.Client, prefix string) *RedisWeightStore {
	if prefix == "" {
		prefix = "tradepulse"
	}
	return &RedisWeightStore{client: client, prefix: prefix}
}

func (s *RedisWeightStore) key(k string) string {
	return s.prefix + ":" + k
}

func (s *RedisWeightStore) Weights(ctx context.Context) (map[string]float64, error) {
	raw, err := s.client.HGetAll(ctx, s.key(weightsKey)).Result()
	if err != nil {
		return nil, fmt.Errorf("load weights: %w", err)
	}
	out := make(map[string]float64, len(raw))
	for agent, v := range raw {
		w, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("parse weight for %s: %w", agent, err)
		}
		out[agent] = w
	}
	return out, nil
}

func (s *RedisWeightStore) Update(ctx context.Context, fn func(map[string]float64) (map[string]float64, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.Weights(ctx)
	if err != nil {
		return err
	}
	next, err := fn(current)
	if err != nil {
		return err
	}

	fields := make(map[string]interface{}, len(next))
	for agent, w := range next {
		fields[agent] = strconv.FormatFloat(w, 'f', -1, 64)
	}
	if len(fields) == 0 {
		return nil
	}
	if err := s.client.HSet(ctx, s.key(weightsKey), fields).Err(); err != nil {
		return fmt.Errorf("store weights: %w", err)
	}
	return nil
}

func (s *RedisWeightStore) Performance(ctx context.Context) (map[string]models.AgentPerformance, error) {
	raw, err := s.client.HGetAll(ctx, s.key(performanceKey)).Result()
	if err != nil {
		return nil, fmt.Errorf("load performance: %w", err)
	}
	out := make(map[string]models.AgentPerformance, len(raw))
	for agent, v := range raw {
		var p models.AgentPerformance
		if err := json.Unmarshal([]byte(v), &p); err != nil {
			return nil, fmt.Errorf("parse performance for %s: %w", agent, err)
		}
		out[agent] = p
	}
	return out, nil
}

func (s *RedisWeightStore) SavePerformance(ctx context.Context, agentID string, p models.AgentPerformance) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal performance: %w", err)
	}
	if err := s.client.HSet(ctx, s.key(performanceKey), agentID, data).Err(); err != nil {
		return fmt.Errorf("store performance: %w", err)
	}
	return nil
}

func (s *RedisWeightStore) AppendAdjustments(ctx context.Context, adjs []models.WeightAdjustment) error {
	if len(adjs) == 0 {
		return nil
	}
	entries := make([]interface{}, 0, len(adjs))
	for _, adj := range adjs {
		data, err := json.Marshal(adj)
		if err != nil {
			return fmt.Errorf("marshal adjustment: %w", err)
		}
		entries = append(entries, data)
	}
	if err := s.client.LPush(ctx, s.key(adjustmentsKey), entries...).Err(); err != nil {
		return fmt.Errorf("append adjustments: %w", err)
	}
	return nil
}

func (s *RedisWeightStore) Adjustments(ctx context.Context, limit int) ([]models.WeightAdjustment, error) {
	if limit <= 0 {
		limit = 100
	}
	raw, err := s.client.LRange(ctx, s.key(adjustmentsKey), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("load adjustments: %w", err)
	}
	out := make([]models.WeightAdjustment, 0, len(raw))
	for _, v := range raw {
		var adj models.WeightAdjustment
		if err := json.Unmarshal([]byte(v), &adj); err != nil {
			return nil, fmt.Errorf("parse adjustment: %w", err)
		}
		out = append(out, adj)
	}
	return out, nil
}

// RedisPendingStore keeps decisions awaiting outcome evaluation in a hash
// keyed by decision ID.
type RedisPendingStore struct {
	client *redis.Client
	prefix string
}

// NewRedisPendingStore creates a Redis-backed pending-decision store.
func NewRedisPendingStore(client *redis.Client, prefix string) repository.PendingStore {
	if prefix == "" {
		prefix = "tradepulse"
	}
	return &RedisPendingStore{client: client, prefix: prefix}
}

func (s *RedisPendingStore) key() string {
	return s.prefix + ":" + pendingKey
}

func (s *RedisPendingStore) Add(ctx context.Context, d models.PendingDecision) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal pending decision: %w", err)
	}
	if err := s.client.HSet(ctx, s.key(), d.ID, data).Err(); err != nil {
		return fmt.Errorf("store pending decision: %w", err)
	}
	return nil
}

func (s *RedisPendingStore) Due(ctx context.Context, before time.Time) ([]models.PendingDecision, error) {
	raw, err := s.client.HGetAll(ctx, s.key()).Result()
	if err != nil {
		return nil, fmt.Errorf("load pending decisions: %w", err)
	}
	out := make([]models.PendingDecision, 0, len(raw))
	for id, v := range raw {
		var d models.PendingDecision
		if err := json.Unmarshal([]byte(v), &d); err != nil {
			return nil, fmt.Errorf("parse pending decision %s: %w", id, err)
		}
		if d.CreatedAt.After(before) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *RedisPendingStore) Remove(ctx context.Context, id string) error {
	if err := s.client.HDel(ctx, s.key(), id).Err(); err != nil {
		return fmt.Errorf("remove pending decision: %w", err)
	}
	return nil
}
