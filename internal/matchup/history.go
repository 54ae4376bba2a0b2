package matchup

import (
	"context"
	"sync"
)

// HistoryStore persists matchup records and serves the recent history
// used for repeat-avoidance.
type HistoryStore interface {
	// Append stores a record. Records are never updated or deleted.
	Append(ctx context.Context, r Record) error

	// Recent returns up to limit of the user's most recent records in a
	// cuisine, newest first.
	Recent(ctx context.Context, userID, cuisine string, limit int) ([]Record, error)
}

// InMemoryHistory is an in-memory HistoryStore. Used for testing and
// development.
type InMemoryHistory struct {
	mu sync.RWMutex
	// records per (user, cuisine), oldest first.
	records map[string][]Record
}

// NewInMemoryHistory creates a new in-memory history store.
func NewInMemoryHistory() *InMemoryHistory {
	return &InMemoryHistory{
		records: make(map[string][]Record),
	}
}

func historyKey(userID, cuisine string) string {
	return userID + "|" + cuisine
}

// Append stores a record.
func (h *InMemoryHistory) Append(ctx context.Context, r Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := historyKey(r.UserID, r.Cuisine)
	h.records[key] = append(h.records[key], r)
	return nil
}

// Recent returns up to limit records, newest first.
func (h *InMemoryHistory) Recent(ctx context.Context, userID, cuisine string, limit int) ([]Record, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	all := h.records[historyKey(userID, cuisine)]
	if len(all) == 0 {
		return nil, nil
	}

	n := limit
	if n > len(all) {
		n = len(all)
	}
	out := make([]Record, 0, n)
	for i := len(all) - 1; i >= len(all)-n; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

// SeenPairs collapses records into the canonical pair-key set the
// selector consumes.
func SeenPairs(records []Record) map[string]bool {
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		seen[PairKey(r.ItemA, r.ItemB)] = true
	}
	return seen
}
