// Package rating provides access to per-item rating aggregates: tier
// distributions, lifetime and recent rating counts, grouped by cuisine.
// Aggregates are always derived from the current rating events; this
// package never persists a tier letter or an average as truth.
package rating

import (
	"time"

	"github.com/plated-app/plated/internal/tier"
)

// RecentWindow is the trailing window used for the recent rating count
// that feeds velocity/trending computation.
const RecentWindow = 7 * 24 * time.Hour

// Event is a single user's current rating of an item. One event exists
// per (user, item); re-rating replaces the previous event.
type Event struct {
	UserID    string
	ItemID    string
	Tier      tier.Tier
	CreatedAt time.Time
}

// Aggregate is the derived per-item view the ranking engine consumes.
type Aggregate struct {
	ItemID      string
	Cuisine     string
	Counts      tier.Counts
	RatingCount int       // total current ratings
	RecentCount int       // ratings within RecentWindow of the snapshot time
	CreatedAt   time.Time // when the item entered the catalog
}

// Observed returns the weighted-average score derived from the current
// tier distribution.
func (a Aggregate) Observed() float64 {
	return a.Counts.WeightedAverage()
}

// Tier returns the display tier, derived from the observed score.
func (a Aggregate) Tier() tier.Tier {
	return tier.Classify(a.Counts)
}
