// Package ranking turns per-item rating aggregates and Elo state into
// the public community ranking: Bayesian shrinkage toward the cuisine
// mean, evidence-weighted blending with the Elo signal, and a fully
// deterministic ordering.
package ranking

// ConfidenceThreshold is the rating count at which an item's observed
// average and the cuisine prior are weighted equally.
const ConfidenceThreshold = 20

// NeutralScore is the cold-start prior used when no item in a cuisine
// has any ratings: the midpoint of the 1-6 tier scale.
const NeutralScore = 3.5

// Shrink pulls a small-sample observed average toward the cuisine mean
// in proportion to sample size. With zero ratings the result is exactly
// the group mean; as n grows the observed average dominates. The result
// always lies between observed and groupMean (convex combination).
func Shrink(observed float64, n int, groupMean float64) float64 {
	if n == 0 {
		return groupMean
	}
	nf := float64(n)
	return (nf/(nf+ConfidenceThreshold))*observed + (ConfidenceThreshold/(nf+ConfidenceThreshold))*groupMean
}

// GroupMean computes the prior for a cuisine: the arithmetic mean of
// observed scores over items that have at least one rating. An empty
// slice (no rated items in the group) falls back to NeutralScore so a
// single newly rated item never sets its own prior.
func GroupMean(observedRated []float64) float64 {
	if len(observedRated) == 0 {
		return NeutralScore
	}
	sum := 0.0
	for _, o := range observedRated {
		sum += o
	}
	return sum / float64(len(observedRated))
}
