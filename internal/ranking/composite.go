package ranking

import (
	"sort"

	"github.com/plated-app/plated/internal/tier"
)

// Elo blending constants.
const (
	// eloWeightDivisor: matches at which Elo influence would reach 1.0
	// if uncapped; with the cap below, influence saturates at 8 matches.
	eloWeightDivisor = 20.0
	// eloWeightCap bounds Elo's influence on the composite at 40%.
	eloWeightCap = 0.4
	// eloNormBase / eloNormRange map the practical Elo band
	// [1000, 2000] onto the 1-6 tier scale.
	eloNormBase  = 1000.0
	eloNormRange = 1000.0
)

// EloWeight returns Elo's share of the composite for an item with the
// given completed match count: grows linearly, capped at 40%.
func EloWeight(matchesPlayed int) float64 {
	w := float64(matchesPlayed) / eloWeightDivisor
	if w > eloWeightCap {
		return eloWeightCap
	}
	return w
}

// NormalizeElo rescales an Elo score onto the 1-6 scale shared with
// tier weights, so the two signals are comparable before blending.
func NormalizeElo(score float64) float64 {
	return ((score-eloNormBase)/eloNormRange)*5 + 1
}

// Composite blends the Bayesian aggregate score with the normalized Elo
// signal, weighted by accumulated comparison evidence.
func Composite(bayesian, eloScore float64, matchesPlayed int) float64 {
	w := EloWeight(matchesPlayed)
	return (1-w)*bayesian + w*NormalizeElo(eloScore)
}

// Entry is one row of a computed ranking.
type Entry struct {
	ItemID        string
	Tier          tier.Tier
	Observed      float64
	Bayesian      float64
	Composite     float64
	EloScore      float64
	MatchesPlayed int
	RatingCount   int
	Rank          int
}

// Rank orders entries by composite score descending and assigns ranks
// 1..N. Ties break by higher rating count, then by item id ascending,
// so the output is identical across runs on identical input.
func Rank(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)

	sort.Slice(out, func(i, j int) bool {
		if out[i].Composite != out[j].Composite {
			return out[i].Composite > out[j].Composite
		}
		if out[i].RatingCount != out[j].RatingCount {
			return out[i].RatingCount > out[j].RatingCount
		}
		return out[i].ItemID < out[j].ItemID
	})

	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
