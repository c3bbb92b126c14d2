package core

// EnsureLen returns a slice with the requested length, reusing buf capacity if possible.
// Newly exposed samples are zeroed.
func EnsureLen(buf []float64, n int) []float64 {
	if n <= 0 {
		return buf[:0]
	}

	if cap(buf) >= n {
		old := len(buf)
		buf = buf[:n]
		if n > old {
			Zero(buf[old:])
		}

		return buf
	}

	return make([]float64, n)
}

// Zero sets all values in buf to 0.
func Zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}

// Fill sets all values in buf to v.
func Fill(buf []float64, v float64) {
	for i := range buf {
		buf[i] = v
	}
}

// Offset adds v to every value in buf.
func Offset(buf []float64, v float64) {
	for i := range buf {
		buf[i] += v
	}
}
