package buffer

import "testing"

func TestNewZeroFilled(t *testing.T) {
	b := New(8)
	if b.Len() != 8 {
		t.Fatalf("Len() = %d, want 8", b.Len())
	}

	if !b.IsSilent() {
		t.Fatal("new buffer should be silent")
	}
}

func TestNewNegativeLength(t *testing.T) {
	b := New(-1)
	if b.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 for negative input", b.Len())
	}
}

func TestFromSliceSharesMemory(t *testing.T) {
	s := []float64{1, 2, 3}
	b := FromSlice(s)
	b.Samples()[0] = 99

	if s[0] != 99 {
		t.Fatal("FromSlice should share underlying memory")
	}
}

func TestResizeZeroes(t *testing.T) {
	tests := []struct {
		name string
		from int
		to   int
	}{
		{name: "shrink", from: 16, to: 8},
		{name: "grow within capacity", from: 16, to: 16},
		{name: "grow past capacity", from: 4, to: 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(tt.from)
			for i := range b.Samples() {
				b.Samples()[i] = 1
			}

			b.Resize(tt.to)

			if b.Len() != tt.to {
				t.Fatalf("Len() = %d, want %d", b.Len(), tt.to)
			}

			if !b.IsSilent() {
				t.Fatal("resized buffer should be silent")
			}
		})
	}
}

func TestPoolGetIsZeroed(t *testing.T) {
	p := NewPool()

	b := p.Get(32)
	b.Samples()[3] = 7
	p.Put(b)

	again := p.Get(32)
	if again.Len() != 32 {
		t.Fatalf("Len() = %d, want 32", again.Len())
	}

	if !again.IsSilent() {
		t.Fatal("pooled buffer should come back zeroed")
	}

	p.Put(nil)
}

func TestPoolReusesCapacity(t *testing.T) {
	p := NewPool()

	big := p.Get(64)
	p.Put(big)

	if p.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", p.Len())
	}

	small := p.Get(16)
	if small != big || small.Len() != 16 {
		t.Fatal("pool should reuse a released buffer with enough capacity")
	}

	if p.Len() != 0 {
		t.Fatalf("Len() after Get = %d, want 0", p.Len())
	}

	p.Put(small)

	if grown := p.Get(128); grown == small {
		t.Fatal("pool handed out a buffer without enough capacity")
	}

	if p.Len() != 1 {
		t.Fatalf("undersized buffer should stay pooled, Len() = %d", p.Len())
	}
}

func TestPoolBounded(t *testing.T) {
	p := NewPool()
	for range defaultPoolMax + 10 {
		p.Put(New(1))
	}

	if p.Len() != defaultPoolMax {
		t.Fatalf("Len() = %d, want %d", p.Len(), defaultPoolMax)
	}
}
