// Package matchup runs the head-to-head comparison flow: selecting the
// next informative pair for a user and recording submitted results.
package matchup

import (
	"time"

	"github.com/plated-app/plated/internal/tier"
)

// Record is one presented matchup outcome. Records are append-only; a
// nil WinnerID marks a skip, which is logged for repeat-avoidance but
// never moves Elo state.
type Record struct {
	ID        string
	UserID    string
	ItemA     string
	ItemB     string
	WinnerID  *string
	Cuisine   string
	CreatedAt time.Time
}

// Skipped reports whether the record is a skip.
func (r Record) Skipped() bool {
	return r.WinnerID == nil
}

// PairKey returns the canonical unordered key for two item ids, so
// (a,b) and (b,a) collide in history lookups.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

// Candidate is one side of a prospective or served matchup.
type Candidate struct {
	ItemID        string
	Tier          tier.Tier
	EloScore      float64
	MatchesPlayed int
}
