package buffer

// Buffer is a fixed-length mono block of samples.
type Buffer struct {
	samples []float64
}

// New returns a zero-filled Buffer of the given length.
func New(length int) *Buffer {
	if length < 0 {
		length = 0
	}

	return &Buffer{samples: make([]float64, length)}
}

// FromSlice wraps an existing slice without copying.
func FromSlice(s []float64) *Buffer {
	return &Buffer{samples: s}
}

// Samples returns the underlying slice.
func (b *Buffer) Samples() []float64 {
	return b.samples
}

// Len returns the current number of samples.
func (b *Buffer) Len() int {
	return len(b.samples)
}

// Resize sets the length to n and zeroes the whole buffer. Existing
// capacity is reused when possible. Contents never survive a resize: a new
// block size starts from silence.
func (b *Buffer) Resize(n int) {
	if n < 0 {
		n = 0
	}

	if n <= cap(b.samples) {
		b.samples = b.samples[:n]
	} else {
		b.samples = make([]float64, n)
	}

	b.Zero()
}

// Zero sets all samples to 0.
func (b *Buffer) Zero() {
	for i := range b.samples {
		b.samples[i] = 0
	}
}

// IsSilent reports whether every sample is exactly zero.
func (b *Buffer) IsSilent() bool {
	for _, v := range b.samples {
		if v != 0 {
			return false
		}
	}

	return true
}
