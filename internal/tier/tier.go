// Package tier provides the six-level tier grade used for dish ratings
// and the classification from rating distributions to a letter grade.
package tier

import (
	"errors"
	"fmt"
)

// Tier is a letter grade on the S > A > B > C > D > F scale.
type Tier string

// The closed set of valid tiers, ordered best to worst.
const (
	TierS Tier = "S"
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
	TierD Tier = "D"
	TierF Tier = "F"
)

// ErrInvalidTier is returned when parsing a string that is not one of S,A,B,C,D,F.
var ErrInvalidTier = errors.New("invalid tier")

// Ordinal weights per tier. These anchor the 1-6 numeric scale that
// bayesian and composite scores share.
var weights = map[Tier]float64{
	TierS: 6,
	TierA: 5,
	TierB: 4,
	TierC: 3,
	TierD: 2,
	TierF: 1,
}

// All returns the valid tiers ordered best to worst.
// The slice is a copy; callers may modify it freely.
func All() []Tier {
	return []Tier{TierS, TierA, TierB, TierC, TierD, TierF}
}

// Parse validates a raw tier string at the system boundary.
// Returns ErrInvalidTier for anything outside the closed set.
func Parse(s string) (Tier, error) {
	t := Tier(s)
	if _, ok := weights[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidTier, s)
	}
	return t, nil
}

// Weight returns the ordinal weight for a tier (S=6 .. F=1).
// Unknown tiers weigh 0; validate with Parse before doing arithmetic.
func (t Tier) Weight() float64 {
	return weights[t]
}

// Valid reports whether t is one of the six known tiers.
func (t Tier) Valid() bool {
	_, ok := weights[t]
	return ok
}

// Counts holds the number of current ratings per tier for one item.
// It is always derived from rating events, never stored as truth.
type Counts map[Tier]int

// Total returns the total number of ratings across all tiers.
func (c Counts) Total() int {
	total := 0
	for _, t := range All() {
		total += c[t]
	}
	return total
}

// WeightedAverage computes the average ordinal weight over all ratings.
// An item with no ratings averages to the neutral weight of C (3.0),
// so unrated items classify as C rather than F.
func (c Counts) WeightedAverage() float64 {
	total := c.Total()
	if total == 0 {
		return TierC.Weight()
	}
	sum := 0.0
	for _, t := range All() {
		sum += t.Weight() * float64(c[t])
	}
	return sum / float64(total)
}

// Classify maps a rating distribution to a letter grade using fixed
// thresholds on the weighted average: >=5.5 S, >=4.5 A, >=3.5 B,
// >=2.5 C, >=1.5 D, else F.
func Classify(c Counts) Tier {
	return FromScore(c.WeightedAverage())
}

// FromScore maps a numeric score on the 1-6 scale to a letter grade.
func FromScore(score float64) Tier {
	switch {
	case score >= 5.5:
		return TierS
	case score >= 4.5:
		return TierA
	case score >= 3.5:
		return TierB
	case score >= 2.5:
		return TierC
	case score >= 1.5:
		return TierD
	default:
		return TierF
	}
}
