package matchup

import (
	"errors"
	"sort"
)

// Selection constants.
const (
	// HistoryWindow is how many of the user's most recent matchups in a
	// cuisine count for repeat-avoidance.
	HistoryWindow = 50
	// EloProximity is the maximum rating gap for a pair to count as
	// closely matched in the first selection pass.
	EloProximity = 200.0
)

// ErrInsufficientCandidates is returned when a cuisine has fewer than
// two items to compare.
var ErrInsufficientCandidates = errors.New("insufficient candidates for a matchup")

// Select picks the next pair for a user. seenPairs holds PairKey values
// from the user's recent history in this cuisine.
//
// Candidates are scanned pre-sorted ascending by matches played (ties
// by item id), so under-exposed items are tried first. The ladder:
//
//  1. first unseen pair with an Elo gap of at most EloProximity;
//  2. first unseen pair, any gap;
//  3. the two items with globally fewest matches, history ignored.
//
// Step 3 means selection never deadlocks once history saturates.
func Select(candidates []Candidate, seenPairs map[string]bool) (Candidate, Candidate, error) {
	if len(candidates) < 2 {
		return Candidate{}, Candidate{}, ErrInsufficientCandidates
	}

	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].MatchesPlayed != sorted[j].MatchesPlayed {
			return sorted[i].MatchesPlayed < sorted[j].MatchesPlayed
		}
		return sorted[i].ItemID < sorted[j].ItemID
	})

	// Pass 1: unseen and closely matched.
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if seenPairs[PairKey(sorted[i].ItemID, sorted[j].ItemID)] {
				continue
			}
			gap := sorted[i].EloScore - sorted[j].EloScore
			if gap < 0 {
				gap = -gap
			}
			if gap <= EloProximity {
				return sorted[i], sorted[j], nil
			}
		}
	}

	// Pass 2: unseen, ignoring Elo closeness.
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if !seenPairs[PairKey(sorted[i].ItemID, sorted[j].ItemID)] {
				return sorted[i], sorted[j], nil
			}
		}
	}

	// Pass 3: everything has been seen; serve the two least-exposed
	// items.
	return sorted[0], sorted[1], nil
}
