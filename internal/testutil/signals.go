// Package testutil provides deterministic input signals for generator
// tests and tolerance assertions over rendered output.
package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine returns length samples of a zero-phase sine.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	w := 2 * math.Pi * freqHz / sampleRate

	for i := range out {
		out[i] = amplitude * math.Sin(w*float64(i))
	}

	return out
}

// DeterministicNoise returns uniform white noise in [-amplitude, amplitude)
// drawn from a source seeded with seed.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, length)

	for i := range out {
		out[i] = amplitude * (2*rng.Float64() - 1)
	}

	return out
}

// Impulse returns length samples with a single 1 at pos. A pos outside the
// slice yields silence.
func Impulse(length, pos int) []float64 {
	return Clicks(length, pos, 0)
}

// Clicks returns unit impulses at first, first+period, first+2*period...
// A period <= 0 places a single click.
func Clicks(length, first, period int) []float64 {
	out := make([]float64, length)
	if first < 0 {
		return out
	}

	for i := first; i < length; i += period {
		out[i] = 1

		if period <= 0 {
			break
		}
	}

	return out
}

// DC returns length copies of value.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}

	return out
}

// Ones is DC(1, n).
func Ones(n int) []float64 { return DC(1, n) }

// Delayed returns x shifted right by n samples, zero-filled at the start
// and truncated to len(x).
func Delayed(x []float64, n int) []float64 {
	out := make([]float64, len(x))
	if n < 0 || n >= len(x) {
		return out
	}

	copy(out[n:], x)

	return out
}

// Blocks splits x into consecutive blocks of size n. A short final block is
// zero-padded, matching what a block-based host would see.
func Blocks(x []float64, n int) [][]float64 {
	if n <= 0 {
		return nil
	}

	var out [][]float64

	for start := 0; start < len(x); start += n {
		block := make([]float64, n)
		copy(block, x[start:min(start+n, len(x))])
		out = append(out, block)
	}

	return out
}
