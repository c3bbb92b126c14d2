package buffer

// Pool recycles lane buffers of generators removed from a server so that
// patch edits between ticks reuse memory. A Pool is owned by one server
// and is not safe for concurrent use.
type Pool struct {
	free []*Buffer
	max  int
}

// defaultPoolMax bounds how many released buffers a Pool keeps.
const defaultPoolMax = 256

// NewPool returns an empty Pool.
func NewPool() *Pool {
	return &Pool{max: defaultPoolMax}
}

// Get returns a zeroed Buffer of the requested length. Released buffers
// with enough capacity are reused before new memory is allocated.
func (p *Pool) Get(length int) *Buffer {
	for i := len(p.free) - 1; i >= 0; i-- {
		b := p.free[i]
		if cap(b.samples) < length {
			continue
		}

		last := len(p.free) - 1
		p.free[i] = p.free[last]
		p.free[last] = nil
		p.free = p.free[:last]

		b.Resize(length)

		return b
	}

	return New(length)
}

// Put releases b. The caller must not use it afterwards. Buffers beyond
// the pool's capacity are left to the garbage collector.
func (p *Pool) Put(b *Buffer) {
	if b == nil || len(p.free) >= p.max {
		return
	}

	p.free = append(p.free, b)
}

// Len returns the number of released buffers waiting for reuse.
func (p *Pool) Len() int { return len(p.free) }
