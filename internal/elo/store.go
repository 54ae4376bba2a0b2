package elo

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Store provides read access to ratings and the single mutating
// operation of the engine: applying a decisive matchup result.
//
// Implementations must treat ApplyMatch as atomic across both items: a
// concurrent reader never observes one side's score moved without the
// other's, and overlapping ApplyMatch calls serialize rather than lose
// an update. Missing rows are recovered by lazy 1500/0 defaults, never
// surfaced as errors.
type Store interface {
	// Get returns the rating for an item, defaulting to 1500/0 when the
	// item has never played a match.
	Get(ctx context.Context, itemID string) (Rating, error)

	// GetMany returns ratings for all requested items, with lazy
	// defaults for unknown ids. The result always contains every id.
	GetMany(ctx context.Context, itemIDs []string) (map[string]Rating, error)

	// ApplyMatch applies a decisive result and returns both updated
	// ratings. Returns ErrSameItem when winnerID == loserID.
	ApplyMatch(ctx context.Context, winnerID, loserID string) (Rating, Rating, error)
}

// InMemoryStore is an in-memory Store. Used for testing and
// development. A single mutex makes every ApplyMatch one critical
// section, so the pair update is observed all-or-nothing.
type InMemoryStore struct {
	mu      sync.RWMutex
	ratings map[string]Rating
	now     func() time.Time
}

// NewInMemoryStore creates a new in-memory Elo store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		ratings: make(map[string]Rating),
		now:     time.Now,
	}
}

// SetNow overrides the clock. Intended for tests.
func (s *InMemoryStore) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Get returns the rating for an item, lazily defaulting to 1500/0.
func (s *InMemoryStore) Get(ctx context.Context, itemID string) (Rating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.ratings[itemID]; ok {
		return r, nil
	}
	return NewRating(itemID), nil
}

// GetMany returns ratings for all requested items with lazy defaults.
func (s *InMemoryStore) GetMany(ctx context.Context, itemIDs []string) (map[string]Rating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Rating, len(itemIDs))
	for _, id := range itemIDs {
		if r, ok := s.ratings[id]; ok {
			out[id] = r
		} else {
			out[id] = NewRating(id)
		}
	}
	return out, nil
}

// ApplyMatch applies a decisive result atomically for both items.
func (s *InMemoryStore) ApplyMatch(ctx context.Context, winnerID, loserID string) (Rating, Rating, error) {
	if winnerID == loserID {
		return Rating{}, Rating{}, ErrSameItem
	}
	if err := ctx.Err(); err != nil {
		return Rating{}, Rating{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	winner, ok := s.ratings[winnerID]
	if !ok {
		winner = NewRating(winnerID)
	}
	loser, ok := s.ratings[loserID]
	if !ok {
		loser = NewRating(loserID)
	}

	winner, loser = ApplyResult(winner, loser, s.now())
	s.ratings[winnerID] = winner
	s.ratings[loserID] = loser
	return winner, loser, nil
}

// Snapshot returns all tracked ratings ordered by item id. Intended for
// the simulation tool and tests.
func (s *InMemoryStore) Snapshot() []Rating {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Rating, 0, len(s.ratings))
	for _, r := range s.ratings {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out
}
