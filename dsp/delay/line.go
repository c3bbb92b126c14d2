// Package delay provides the ring buffer shared by the delay-line generators.
package delay

import (
	"fmt"
	"math"
)

// Line is a circular delay line with a mirrored guard sample.
//
// The backing slice holds size+1 samples. Slot size always equals slot 0,
// so a linear read at index i can fetch i+1 without wrapping.
// The write cursor is always in [0, size).
type Line struct {
	buffer   []float64
	size     int
	writePos int
}

// New returns a zeroed delay line holding size samples of history.
func New(size int) (*Line, error) {
	if size <= 0 {
		return nil, fmt.Errorf("delay size must be > 0: %d", size)
	}

	return &Line{buffer: make([]float64, size+1), size: size}, nil
}

// ForDuration returns a line long enough for maxSeconds at sampleRate.
func ForDuration(maxSeconds, sampleRate float64) (*Line, error) {
	return New(SizeFor(maxSeconds, sampleRate))
}

// SizeFor returns the line length needed to delay by up to maxSeconds.
func SizeFor(maxSeconds, sampleRate float64) int {
	return int(maxSeconds*sampleRate+0.5) + 1
}

// Len returns the number of history samples (excluding the guard).
func (d *Line) Len() int {
	return d.size
}

// WritePos returns the current write cursor.
func (d *Line) WritePos() int {
	return d.writePos
}

// Write stores one sample and advances the cursor.
func (d *Line) Write(sample float64) {
	d.buffer[d.writePos] = sample
	if d.writePos == 0 {
		d.buffer[d.size] = sample
	}

	d.writePos++
	if d.writePos >= d.size {
		d.writePos = 0
	}
}

// Read returns the sample written delay samples ago. Read(1) is the most
// recent sample; Read(0) and Read(Len()) both address the oldest one.
func (d *Line) Read(delay int) float64 {
	return d.buffer[d.index(delay)]
}

// index returns the slot delay samples behind the write cursor.
func (d *Line) index(delay int) int {
	ind := (d.writePos - delay%d.size) % d.size
	if ind < 0 {
		ind += d.size
	}

	return ind
}

// ReadLinear reads a fractional delay with linear interpolation. The delay
// is not clamped; callers keep it in [1, Len()-1].
func (d *Line) ReadLinear(delay float64) float64 {
	xind := float64(d.writePos) - delay
	if xind < 0 {
		xind += float64(d.size)
	}

	ind := int(xind)
	frac := xind - float64(ind)

	if ind >= d.size {
		ind -= d.size
	}

	x0 := d.buffer[ind]

	return x0 + (d.buffer[ind+1]-x0)*frac
}

// ReadTaps fills dst with the samples delayed by delay, delay+1, ...
// It backs multi-tap FIR interpolators.
func (d *Line) ReadTaps(dst []float64, delay int) {
	ind := d.index(delay)

	for k := range dst {
		dst[k] = d.buffer[ind]
		ind--
		if ind < 0 {
			ind += d.size
		}
	}
}

// Resize changes the line length, keeping the newest history that fits.
func (d *Line) Resize(size int) error {
	if size <= 0 {
		return fmt.Errorf("delay size must be > 0: %d", size)
	}

	if size == d.size {
		return nil
	}

	old := d
	next := &Line{buffer: make([]float64, size+1), size: size}

	keep := min(old.size, size)
	for i := keep; i >= 1; i-- {
		next.Write(old.Read(i))
	}

	*d = *next

	return nil
}

// Reset clears line state.
func (d *Line) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}

	d.writePos = 0
}

// MaxDelay returns the longest delay in seconds the line can serve at sampleRate.
func (d *Line) MaxDelay(sampleRate float64) float64 {
	if sampleRate <= 0 {
		return 0
	}

	return math.Max(0, float64(d.size-1)/sampleRate)
}
