// Package trending computes rating momentum: how an item's recent
// rating rate compares to its own lifetime baseline.
package trending

import (
	"time"
)

// Velocity computation constants.
const (
	// recentWindowDays is the length of the trailing window behind
	// recentCount.
	recentWindowDays = 7.0
	// minLifetimeRate floors the baseline daily rate so very young
	// items do not blow up the ratio.
	minLifetimeRate = 0.1
	// maxVelocity caps the ratio to bound outliers.
	maxVelocity = 10.0
	// RisingThreshold classifies an item as rising when its recent
	// rate runs at least 20% above its own historical baseline.
	RisingThreshold = 1.2
)

// Velocity returns the ratio of an item's recent daily rating rate to
// its lifetime daily rate, capped at 10. recentCount is the number of
// ratings in the trailing 7-day window; lifetimeCount and createdAt
// describe the item's whole history.
func Velocity(recentCount, lifetimeCount int, createdAt, now time.Time) float64 {
	days := now.Sub(createdAt).Hours() / 24
	if days < 1 {
		days = 1
	}

	lifetimeRate := float64(lifetimeCount) / days
	if lifetimeRate < minLifetimeRate {
		lifetimeRate = minLifetimeRate
	}

	v := (float64(recentCount) / recentWindowDays) / lifetimeRate
	if v > maxVelocity {
		return maxVelocity
	}
	return v
}

// Rising reports whether a velocity clears the trending threshold.
func Rising(velocity float64) bool {
	return velocity > RisingThreshold
}
