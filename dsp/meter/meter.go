// Package meter accumulates level statistics over rendered blocks.
package meter

import "math"

// Levels holds the statistics of everything a Meter has seen.
type Levels struct {
	Frames  int
	DC      float64 // mean
	RMS     float64
	RMSdB   float64
	Peak    float64 // max |x|
	PeakdB  float64
	PeakPos int
	Crest   float64 // peak / RMS
	Clipped int     // samples with |x| > 1
}

// Meter is a streaming level meter. The zero value is ready to use.
type Meter struct {
	n       int
	sum     float64
	sumSq   float64
	peak    float64
	peakPos int
	clipped int
}

// Update adds a block of samples.
func (m *Meter) Update(block []float64) {
	for _, x := range block {
		a := math.Abs(x)
		if a > m.peak {
			m.peak = a
			m.peakPos = m.n
		}

		if a > 1 {
			m.clipped++
		}

		m.sum += x
		m.sumSq += x * x
		m.n++
	}
}

// Levels returns the statistics so far. dB fields are -Inf for silence.
func (m *Meter) Levels() Levels {
	if m.n == 0 {
		return Levels{RMSdB: math.Inf(-1), PeakdB: math.Inf(-1)}
	}

	nf := float64(m.n)
	rms := math.Sqrt(m.sumSq / nf)

	l := Levels{
		Frames:  m.n,
		DC:      m.sum / nf,
		RMS:     rms,
		RMSdB:   AmpToDB(rms),
		Peak:    m.peak,
		PeakdB:  AmpToDB(m.peak),
		PeakPos: m.peakPos,
		Clipped: m.clipped,
	}

	if rms > 0 {
		l.Crest = m.peak / rms
	}

	return l
}

// Reset clears the meter.
func (m *Meter) Reset() { *m = Meter{} }

// AmpToDB converts an amplitude to decibels. Zero maps to -Inf.
func AmpToDB(amp float64) float64 {
	a := math.Abs(amp)
	if a == 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(a)
}

// DBToAmp converts decibels to an amplitude.
func DBToAmp(db float64) float64 {
	return math.Pow(10, db/20)
}
