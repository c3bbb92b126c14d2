//go:build !fastmath

package ugen

import "math"

// decayExp computes e^x for loop gain updates.
func decayExp(x float64) float64 {
	return math.Exp(x)
}
