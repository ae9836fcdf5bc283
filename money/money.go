// Package money holds the rounding rules shared by pricing and refunds.
// Amounts are whole currency units (rupees); rates are basis points.
package money

import "math"

// BpsDenominator is 100% expressed in basis points.
const BpsDenominator int64 = 10000

// ApplyBps returns amount*bps/10000 rounded half up to a whole unit.
// Both arguments must be non-negative.
func ApplyBps(amount, bps int64) int64 {
	return (amount*bps + BpsDenominator/2) / BpsDenominator
}

// RoundHalfUp rounds a non-negative value to the nearest whole unit.
func RoundHalfUp(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}

// ValidBps reports whether bps is a usable percentage (0..100%).
func ValidBps(bps int64) bool {
	return bps >= 0 && bps <= BpsDenominator
}
