// Package elo maintains the pairwise-comparison rating for dishes.
// Ratings follow the standard logistic Elo model with a staged K-factor
// so new items converge quickly from the default and established items
// drift slowly.
package elo

import (
	"errors"
	"math"
	"time"
)

// InitialScore is the rating assigned when an item first enters a
// matchup pool.
const InitialScore = 1500.0

// K-factor schedule thresholds. Each item's K is evaluated from its own
// matches_played, so an experienced item moves less than a fresh one in
// the same match.
const (
	provisionalMatches = 10 // below this: K=40
	establishedMatches = 30 // below this: K=24, above: K=16
)

// ErrSameItem is returned when a match references one item twice.
var ErrSameItem = errors.New("matchup references the same item twice")

// Rating is the pairwise-comparison state for one item.
type Rating struct {
	ItemID        string
	Score         float64
	MatchesPlayed int
	UpdatedAt     time.Time
}

// NewRating returns the lazy default rating for an item: 1500 score,
// zero matches.
func NewRating(itemID string) Rating {
	return Rating{ItemID: itemID, Score: InitialScore}
}

// Expected returns the probability that a rating of a beats a rating of
// b under the logistic Elo model.
func Expected(a, b float64) float64 {
	return 1.0 / (1.0 + math.Pow(10.0, (b-a)/400.0))
}

// KFactor returns the K used for an item with the given match count.
func KFactor(matchesPlayed int) float64 {
	switch {
	case matchesPlayed < provisionalMatches:
		return 40
	case matchesPlayed < establishedMatches:
		return 24
	default:
		return 16
	}
}

// ApplyResult computes the post-match ratings for a decisive result.
// It is pure: callers persist both returned ratings as one atomic unit.
// The winner's score strictly increases and the loser's strictly
// decreases; matches_played moves in lockstep on both sides.
func ApplyResult(winner, loser Rating, now time.Time) (Rating, Rating) {
	expectedWin := Expected(winner.Score, loser.Score)

	winner.Score += KFactor(winner.MatchesPlayed) * (1 - expectedWin)
	loser.Score += KFactor(loser.MatchesPlayed) * (0 - (1 - expectedWin))

	winner.MatchesPlayed++
	loser.MatchesPlayed++
	winner.UpdatedAt = now
	loser.UpdatedAt = now

	return winner, loser
}
