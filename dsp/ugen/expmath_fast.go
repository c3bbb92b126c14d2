//go:build fastmath

package ugen

import "github.com/meko-christian/algo-approx"

// decayExp computes e^x for loop gain updates using a fast approximation.
// Signal-rate freq or dur recompute the gain every sample.
func decayExp(x float64) float64 {
	return approx.FastExp(x)
}
