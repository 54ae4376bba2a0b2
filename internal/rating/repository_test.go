package rating

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/plated-app/plated/internal/tier"
)

func TestInMemoryStore_RecordAndAggregate(t *testing.T) {
	store := NewInMemoryStore()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store.SetNow(func() time.Time { return now })

	created := now.Add(-30 * 24 * time.Hour)
	store.AddItem(Item{ID: "dish-1", Cuisine: "thai", CreatedAt: created})

	ctx := context.Background()
	events := []Event{
		{UserID: "u1", ItemID: "dish-1", Tier: tier.TierS, CreatedAt: now.Add(-1 * time.Hour)},
		{UserID: "u2", ItemID: "dish-1", Tier: tier.TierA, CreatedAt: now.Add(-2 * 24 * time.Hour)},
		{UserID: "u3", ItemID: "dish-1", Tier: tier.TierB, CreatedAt: now.Add(-20 * 24 * time.Hour)},
	}
	for _, e := range events {
		if err := store.Record(ctx, e); err != nil {
			t.Fatalf("failed to record event: %v", err)
		}
	}

	agg, err := store.Aggregate(ctx, "dish-1")
	if err != nil {
		t.Fatalf("failed to read aggregate: %v", err)
	}
	if agg.RatingCount != 3 {
		t.Errorf("expected 3 ratings, got %d", agg.RatingCount)
	}
	if agg.RecentCount != 2 {
		t.Errorf("expected 2 recent ratings (7d window), got %d", agg.RecentCount)
	}
	if agg.Counts[tier.TierS] != 1 || agg.Counts[tier.TierA] != 1 || agg.Counts[tier.TierB] != 1 {
		t.Errorf("unexpected tier counts: %v", agg.Counts)
	}
	if agg.CreatedAt != created {
		t.Errorf("expected created_at %v, got %v", created, agg.CreatedAt)
	}
}

func TestInMemoryStore_RerateReplacesPrevious(t *testing.T) {
	store := NewInMemoryStore()
	store.AddItem(Item{ID: "dish-1", Cuisine: "thai", CreatedAt: time.Now()})
	ctx := context.Background()

	if err := store.Record(ctx, Event{UserID: "u1", ItemID: "dish-1", Tier: tier.TierF, CreatedAt: time.Now()}); err != nil {
		t.Fatalf("failed to record: %v", err)
	}
	if err := store.Record(ctx, Event{UserID: "u1", ItemID: "dish-1", Tier: tier.TierS, CreatedAt: time.Now()}); err != nil {
		t.Fatalf("failed to re-record: %v", err)
	}

	agg, err := store.Aggregate(ctx, "dish-1")
	if err != nil {
		t.Fatalf("failed to read aggregate: %v", err)
	}
	if agg.RatingCount != 1 {
		t.Errorf("re-rating should not add a rating: got count %d", agg.RatingCount)
	}
	if agg.Counts[tier.TierF] != 0 || agg.Counts[tier.TierS] != 1 {
		t.Errorf("expected the S rating to supersede F, got %v", agg.Counts)
	}
}

func TestInMemoryStore_UnknownItem(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	if _, err := store.Aggregate(ctx, "nope"); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("expected ErrUnknownItem, got %v", err)
	}
	err := store.Record(ctx, Event{UserID: "u1", ItemID: "nope", Tier: tier.TierA, CreatedAt: time.Now()})
	if !errors.Is(err, ErrUnknownItem) {
		t.Errorf("expected ErrUnknownItem on record, got %v", err)
	}
}

func TestInMemoryStore_RejectsInvalidTier(t *testing.T) {
	store := NewInMemoryStore()
	store.AddItem(Item{ID: "dish-1", Cuisine: "thai", CreatedAt: time.Now()})

	err := store.Record(context.Background(), Event{UserID: "u1", ItemID: "dish-1", Tier: "Z", CreatedAt: time.Now()})
	if !errors.Is(err, tier.ErrInvalidTier) {
		t.Errorf("expected ErrInvalidTier, got %v", err)
	}
}

func TestInMemoryStore_AggregatesOrderedByID(t *testing.T) {
	store := NewInMemoryStore()
	for _, id := range []string{"dish-c", "dish-a", "dish-b"} {
		store.AddItem(Item{ID: id, Cuisine: "thai", CreatedAt: time.Now()})
	}
	store.AddItem(Item{ID: "other", Cuisine: "mexican", CreatedAt: time.Now()})

	aggs, err := store.Aggregates(context.Background(), "thai")
	if err != nil {
		t.Fatalf("failed to read aggregates: %v", err)
	}
	if len(aggs) != 3 {
		t.Fatalf("expected 3 items in cuisine, got %d", len(aggs))
	}
	for i, want := range []string{"dish-a", "dish-b", "dish-c"} {
		if aggs[i].ItemID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, aggs[i].ItemID)
		}
	}
}

func TestAggregate_TierDerivedFromObserved(t *testing.T) {
	// A single S rating keeps the displayed tier at S even though the
	// shrunk score used for ranking will sit far lower.
	agg := Aggregate{Counts: tier.Counts{tier.TierS: 1}, RatingCount: 1}
	if got := agg.Tier(); got != tier.TierS {
		t.Errorf("expected tier S, got %s", got)
	}
	if got := agg.Observed(); got != 6.0 {
		t.Errorf("expected observed 6.0, got %v", got)
	}
}
