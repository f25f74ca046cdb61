package util

import "golang.org/x/exp/constraints"

// Clamp01 pins v to the unit interval.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// AbsDiff returns |a - b| without the wraparound a plain subtraction
// would give for unsigned types.
func AbsDiff[A constraints.Integer | constraints.Float](a, b A) A {
	if a > b {
		return a - b
	}
	return b - a
}
