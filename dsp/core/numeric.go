package core

import "math"

// Clamp limits value to the inclusive range [min, max]. NaN maps to min.
func Clamp(value, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}

	if value < min || math.IsNaN(value) {
		return min
	}

	if value > max {
		return max
	}

	return value
}

// FlushDenormals converts tiny denormal-like values to exact zero.
// Feedback loops that decay towards silence call this once per sample.
func FlushDenormals(x float64) float64 {
	const epsilon = 1e-30
	if x > -epsilon && x < epsilon {
		return 0
	}

	return x
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// WrapPhase folds an angle into (-pi, pi]. Infinite input yields NaN.
func WrapPhase(x float64) float64 {
	x = math.Remainder(x, 2*math.Pi)
	if x <= -math.Pi {
		x += 2 * math.Pi
	}

	return x
}

// SecondsToTicks converts a duration to a whole number of buffers,
// rounding to the nearest buffer. Negative or non-finite input yields 0.
func SecondsToTicks(seconds, sampleRate float64, blockSize int) int {
	if seconds <= 0 || blockSize <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0
	}

	return int(math.Round(seconds * sampleRate / float64(blockSize)))
}
