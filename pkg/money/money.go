// Package money provides fixed-point helpers for monetary amounts.
// Amounts are carried as int64 minor currency units (cents) internally and
// converted to a two-decimal major form only at the boundary.
package money

import "math"

// Round2 quantizes a major-unit amount to two decimal places, half up.
func Round2(value float64) float64 {
	return math.Floor(value*100+0.5) / 100
}

// ToMinor converts a major-unit amount to minor units, quantizing first.
func ToMinor(major float64) int64 {
	return int64(math.Floor(major*100 + 0.5))
}

// FromMinor converts minor units back to a major-unit amount.
func FromMinor(minor int64) float64 {
	return float64(minor) / 100
}

// MidpointMinor returns the half-up midpoint of a minor-unit band,
// computed in integer arithmetic so a half-cent never drifts through
// float representation.
func MidpointMinor(minMinor, maxMinor int64) int64 {
	return (minMinor + maxMinor + 1) / 2
}

// BandMidpointMinor converts a major-unit band to its minor-unit midpoint.
func BandMidpointMinor(min, max float64) int64 {
	return MidpointMinor(ToMinor(min), ToMinor(max))
}
