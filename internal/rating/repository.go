package rating

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/plated-app/plated/internal/tier"
)

// ErrUnknownItem is returned when an item id is not in the catalog.
var ErrUnknownItem = errors.New("unknown item")

// AggregateReader supplies rating aggregates to the ranking engine.
// Implementations must return a consistent snapshot per call: all
// aggregates computed against the same point-in-time event set.
type AggregateReader interface {
	// Aggregates returns aggregates for every item in a cuisine,
	// ordered by item id for deterministic downstream iteration.
	Aggregates(ctx context.Context, cuisine string) ([]Aggregate, error)

	// Aggregate returns the aggregate for a single item.
	// Returns ErrUnknownItem if the item does not exist.
	Aggregate(ctx context.Context, itemID string) (Aggregate, error)
}

// Recorder accepts rating events with upsert semantics: a new rating
// by the same user for the same item supersedes the previous one.
type Recorder interface {
	Record(ctx context.Context, e Event) error
}

// Item describes a catalog entry the in-memory store tracks.
type Item struct {
	ID        string
	Cuisine   string
	CreatedAt time.Time
}

// InMemoryStore is an in-memory AggregateReader and Recorder.
// Used for testing and development.
type InMemoryStore struct {
	mu    sync.RWMutex
	items map[string]Item
	// events keyed by item id, then user id: the current rating only.
	events map[string]map[string]Event
	// now allows tests to pin the snapshot time.
	now func() time.Time
}

// NewInMemoryStore creates a new in-memory rating store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		items:  make(map[string]Item),
		events: make(map[string]map[string]Event),
		now:    time.Now,
	}
}

// SetNow overrides the snapshot clock. Intended for tests.
func (s *InMemoryStore) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// AddItem registers a catalog item.
func (s *InMemoryStore) AddItem(item Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
}

// Record stores a rating event, replacing any prior rating by the same
// user for the same item.
func (s *InMemoryStore) Record(ctx context.Context, e Event) error {
	if !e.Tier.Valid() {
		return tier.ErrInvalidTier
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[e.ItemID]; !ok {
		return ErrUnknownItem
	}
	byUser, ok := s.events[e.ItemID]
	if !ok {
		byUser = make(map[string]Event)
		s.events[e.ItemID] = byUser
	}
	byUser[e.UserID] = e
	return nil
}

// Aggregates returns aggregates for all items in a cuisine, ordered by
// item id.
func (s *InMemoryStore) Aggregates(ctx context.Context, cuisine string) ([]Aggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	var out []Aggregate
	for id, item := range s.items {
		if item.Cuisine != cuisine {
			continue
		}
		out = append(out, s.aggregateLocked(id, item, now))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}

// Aggregate returns the aggregate for a single item.
func (s *InMemoryStore) Aggregate(ctx context.Context, itemID string) (Aggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[itemID]
	if !ok {
		return Aggregate{}, ErrUnknownItem
	}
	return s.aggregateLocked(itemID, item, s.now()), nil
}

// aggregateLocked derives the aggregate view for one item.
// Caller must hold at least a read lock.
func (s *InMemoryStore) aggregateLocked(id string, item Item, now time.Time) Aggregate {
	counts := make(tier.Counts)
	recent := 0
	for _, e := range s.events[id] {
		counts[e.Tier]++
		if now.Sub(e.CreatedAt) <= RecentWindow {
			recent++
		}
	}
	return Aggregate{
		ItemID:      id,
		Cuisine:     item.Cuisine,
		Counts:      counts,
		RatingCount: counts.Total(),
		RecentCount: recent,
		CreatedAt:   item.CreatedAt,
	}
}
