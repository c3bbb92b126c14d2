package delay

import (
	"math"
	"testing"
)

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func TestNewValidation(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatal("expected error for size=0")
	}

	if _, err := New(-1); err == nil {
		t.Fatal("expected error for size=-1")
	}
}

func TestSizeFor(t *testing.T) {
	if got := SizeFor(1, 44100); got != 44101 {
		t.Fatalf("SizeFor(1, 44100) = %d, want 44101", got)
	}
}

func TestReadWrite(t *testing.T) {
	d, err := New(8)
	if err != nil {
		t.Fatal(err)
	}

	for i := range 8 {
		d.Write(float64(i))
	}
	// delay=1 => most recently written (7)
	if got := d.Read(1); got != 7 {
		t.Fatalf("got %v want 7", got)
	}

	if got := d.Read(3); got != 5 {
		t.Fatalf("got %v want 5", got)
	}
}

func TestReadWraparound(t *testing.T) {
	d, err := New(4)
	if err != nil {
		t.Fatal(err)
	}

	for i := range 10 {
		d.Write(float64(i))
	}

	if got := d.Read(1); got != 9 {
		t.Fatalf("got %v want 9", got)
	}

	if got := d.Read(4); got != 6 {
		t.Fatalf("got %v want 6", got)
	}
}

func TestGuardMirrorsSlotZero(t *testing.T) {
	d, err := New(4)
	if err != nil {
		t.Fatal(err)
	}

	for i := range 9 {
		d.Write(float64(i + 1))
		if d.buffer[d.size] != d.buffer[0] {
			t.Fatalf("after write %d guard=%v slot0=%v", i, d.buffer[d.size], d.buffer[0])
		}
	}
}

func TestReadLinearAcrossWrap(t *testing.T) {
	d, err := New(8)
	if err != nil {
		t.Fatal(err)
	}
	// 11 writes leave the cursor at 3 with the ramp 3..10 in the line; a
	// delay of 3.5 reads between slot 7 and the guard copy of slot 0.
	for i := range 11 {
		d.Write(float64(i))
	}

	if d.WritePos() != 3 {
		t.Fatalf("WritePos = %d, want 3", d.WritePos())
	}

	if got := d.ReadLinear(3.5); !approxEqual(got, 7.5, 1e-12) {
		t.Fatalf("ReadLinear(3.5) = %v, want 7.5", got)
	}

	if got := d.ReadLinear(1.5); !approxEqual(got, 9.5, 1e-12) {
		t.Fatalf("ReadLinear(1.5) = %v, want 9.5", got)
	}
}

func TestReadLinearIntegerMatchesRead(t *testing.T) {
	d, err := New(32)
	if err != nil {
		t.Fatal(err)
	}

	for i := range 50 {
		d.Write(math.Sin(float64(i) * 0.3))
	}

	for delay := 1; delay < 32; delay++ {
		if got, want := d.ReadLinear(float64(delay)), d.Read(delay); got != want {
			t.Fatalf("delay %d: ReadLinear=%v Read=%v", delay, got, want)
		}
	}
}

func TestReadTaps(t *testing.T) {
	d, err := New(6)
	if err != nil {
		t.Fatal(err)
	}

	for i := range 8 {
		d.Write(float64(i))
	}

	taps := make([]float64, 3)
	d.ReadTaps(taps, 2)

	want := []float64{6, 5, 4}
	for i := range taps {
		if taps[i] != want[i] {
			t.Fatalf("taps = %v, want %v", taps, want)
		}
	}
}

func TestResizeKeepsNewestHistory(t *testing.T) {
	d, err := New(8)
	if err != nil {
		t.Fatal(err)
	}

	for i := range 8 {
		d.Write(float64(i))
	}

	if err := d.Resize(4); err != nil {
		t.Fatal(err)
	}

	if d.Len() != 4 {
		t.Fatalf("Len = %d, want 4", d.Len())
	}

	for delay, want := range map[int]float64{1: 7, 2: 6, 3: 5, 4: 4} {
		if got := d.Read(delay); got != want {
			t.Fatalf("Read(%d) = %v, want %v", delay, got, want)
		}
	}

	if err := d.Resize(16); err != nil {
		t.Fatal(err)
	}

	if got := d.Read(1); got != 7 {
		t.Fatalf("after grow Read(1) = %v, want 7", got)
	}

	if err := d.Resize(0); err == nil {
		t.Fatal("expected error for size=0")
	}
}

func TestReset(t *testing.T) {
	d, err := New(4)
	if err != nil {
		t.Fatal(err)
	}

	d.Write(1)
	d.Write(2)
	d.Reset()

	for i := range 5 {
		if got := d.Read(i); got != 0 {
			t.Fatalf("after reset Read(%d): got %v want 0", i, got)
		}
	}
}

func BenchmarkReadLinear(b *testing.B) {
	d, _ := New(1024)
	for i := range 1024 {
		d.Write(float64(i))
	}

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		d.ReadLinear(100.37)
	}
}

func TestReadOutOfRangeDelayWraps(t *testing.T) {
	d, err := New(8)
	if err != nil {
		t.Fatal(err)
	}

	for i := range 11 {
		d.Write(float64(i))
	}

	tests := []struct {
		delay, same int
	}{
		{9, 1},
		{16, 8},
		{-1, 7},
		{math.MaxInt, math.MaxInt % 8},
		{math.MinInt, 0},
	}

	for _, tt := range tests {
		if got, want := d.Read(tt.delay), d.Read(tt.same); got != want {
			t.Fatalf("Read(%d) = %v, want Read(%d) = %v", tt.delay, got, tt.same, want)
		}
	}

	taps := make([]float64, 5)
	d.ReadTaps(taps, math.MinInt)

	for k, v := range taps {
		if v < 0 || v > 10 {
			t.Fatalf("tap %d = %v outside written history", k, v)
		}
	}
}
