package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"TradePulse/internal/domain/models"
)

func TestMemoryWeightStoreUpdateSerializes(t *testing.T) {
	store := NewMemoryWeightStore(map[string]float64{"technical": 0})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Update(ctx, func(w map[string]float64) (map[string]float64, error) {
				w["technical"] += 0.01
				return w, nil
			})
			if err != nil {
				t.Errorf("update: %v", err)
			}
		}()
	}
	wg.Wait()

	weights, err := store.Weights(ctx)
	if err != nil {
		t.Fatalf("weights: %v", err)
	}
	got := weights["technical"]
	if got < 0.999 || got > 1.001 {
		t.Fatalf("lost updates: expected ~1.0, got %v", got)
	}
}

func TestMemoryWeightStoreUpdateIsolation(t *testing.T) {
	store := NewMemoryWeightStore(map[string]float64{"chip": 0.2})
	ctx := context.Background()

	snapshot, _ := store.Weights(ctx)
	snapshot["chip"] = 99 // mutating the snapshot must not leak into the store

	weights, _ := store.Weights(ctx)
	if weights["chip"] != 0.2 {
		t.Fatalf("store leaked its internal map: %v", weights["chip"])
	}
}

func TestMemoryPendingStoreDue(t *testing.T) {
	store := NewMemoryPendingStore()
	ctx := context.Background()
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	_ = store.Add(ctx, models.PendingDecision{ID: "old", Symbol: "600519", CreatedAt: now.Add(-2 * time.Hour)})
	_ = store.Add(ctx, models.PendingDecision{ID: "new", Symbol: "600519", CreatedAt: now.Add(time.Hour)})

	due, err := store.Due(ctx, now)
	if err != nil {
		t.Fatalf("due: %v", err)
	}
	if len(due) != 1 || due[0].ID != "old" {
		t.Fatalf("only the aged decision is due, got %+v", due)
	}

	if err := store.Remove(ctx, "old"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	due, _ = store.Due(ctx, now)
	if len(due) != 0 {
		t.Fatalf("removed decision still due")
	}
}

func TestMemoryWeightStoreAdjustmentsNewestFirst(t *testing.T) {
	store := NewMemoryWeightStore(nil)
	ctx := context.Background()
	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_ = store.AppendAdjustments(ctx, []models.WeightAdjustment{
			{AgentID: "technical", OldWeight: 0.2, NewWeight: 0.25, Reason: "sustained win rate", Timestamp: base.Add(time.Duration(i) * time.Hour)},
		})
	}
	adjs, err := store.Adjustments(ctx, 2)
	if err != nil {
		t.Fatalf("adjustments: %v", err)
	}
	if len(adjs) != 2 {
		t.Fatalf("limit not applied, got %d", len(adjs))
	}
	if !adjs[0].Timestamp.After(adjs[1].Timestamp) {
		t.Fatalf("expected newest first: %v then %v", adjs[0].Timestamp, adjs[1].Timestamp)
	}
}
