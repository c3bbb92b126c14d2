package ugen

import (
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/cwbudde/algo-ugen/dsp/buffer"
	"github.com/cwbudde/algo-ugen/dsp/core"
	"github.com/cwbudde/algo-vecmath"
)

// reconfigurer is implemented by generators whose state depends on the
// sample rate or block size.
type reconfigurer interface {
	reconfigure()
}

// Server owns the clock and buffer geometry and ticks every registered
// generator once per block in dependency order.
type Server struct {
	cfg    core.ProcessorConfig
	logger *slog.Logger
	pool   *buffer.Pool

	gens  map[Handle]Generator
	reg   []Generator
	order []Generator
	dirty bool
	next  Handle

	silence []float64
	unity   []float64
	out     [][]float64
	ticks   uint64
}

// NewServer returns a Server for the given configuration. Invalid fields
// fall back to core.DefaultProcessorConfig.
func NewServer(opts ...core.ProcessorOption) *Server {
	s := &Server{
		cfg:    core.ApplyProcessorOptions(opts...),
		logger: slog.Default(),
		pool:   buffer.NewPool(),
		gens:   make(map[Handle]Generator),
	}
	s.allocate()

	return s
}

// SetLogger replaces the diagnostic logger. A nil logger restores slog.Default().
func (s *Server) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}

	s.logger = l
}

// Logger returns the diagnostic logger.
func (s *Server) Logger() *slog.Logger { return s.logger }

// Config returns the current configuration.
func (s *Server) Config() core.ProcessorConfig { return s.cfg }

// SampleRate returns the sample rate in Hz.
func (s *Server) SampleRate() float64 { return s.cfg.SampleRate }

// BufferSize returns the number of samples per tick.
func (s *Server) BufferSize() int { return s.cfg.BlockSize }

// Channels returns the number of output channels.
func (s *Server) Channels() int { return s.cfg.Channels }

// Ticks returns the number of completed passes.
func (s *Server) Ticks() uint64 { return s.ticks }

// Len returns the number of registered generators.
func (s *Server) Len() int { return len(s.reg) }

// Lookup returns the generator registered under h.
func (s *Server) Lookup(h Handle) (Generator, bool) {
	g, ok := s.gens[h]
	return g, ok
}

// Output returns the channel blocks mixed by the last tick.
func (s *Server) Output() [][]float64 { return s.out }

func (s *Server) allocate() {
	s.silence = make([]float64, s.cfg.BlockSize)
	s.unity = make([]float64, s.cfg.BlockSize)
	core.Fill(s.unity, 1)

	s.out = make([][]float64, s.cfg.Channels)
	for i := range s.out {
		s.out[i] = make([]float64, s.cfg.BlockSize)
	}
}

// add registers g with the given number of zeroed lanes.
func (s *Server) add(g Generator, kind string, lanes int) {
	b := g.base()

	s.next++
	b.server = s
	b.handle = s.next
	b.kind = kind
	b.channel = -1
	b.mul = Const(1).binding()
	b.add = Const(0).binding()

	b.lanes = make([]*buffer.Buffer, lanes)
	for i := range b.lanes {
		b.lanes[i] = s.pool.Get(s.cfg.BlockSize)
	}

	s.gens[b.handle] = g
	s.reg = append(s.reg, g)
	s.dirty = true

	s.logger.Debug("generator added", "kind", kind, "handle", b.handle)
}

// Remove stops g and unregisters it. Its lanes return to the buffer pool
// and every binding to it reads as silence from the next tick on.
func (s *Server) Remove(g Generator) {
	if g == nil {
		return
	}

	b := g.base()
	if b.server != s {
		return
	}

	b.Stop()

	delete(s.gens, b.handle)
	s.reg = slices.DeleteFunc(s.reg, func(x Generator) bool { return x.base() == b })
	s.dirty = true

	for _, l := range b.lanes {
		s.pool.Put(l)
	}

	b.lanes = nil
	b.server = nil
	b.process = nil
	b.post = nil

	s.logger.Debug("generator removed", "kind", b.kind, "handle", b.handle)
}

// lane returns the samples a signal binding points at, or silence.
func (s *Server) lane(p Param) []float64 {
	if out, ok := s.source(p); ok {
		return out
	}

	return s.silence
}

// divisor is lane for a SetDiv binding: a missing source divides by one.
func (s *Server) divisor(p Param) []float64 {
	if out, ok := s.source(p); ok {
		return out
	}

	return s.unity
}

func (s *Server) source(p Param) ([]float64, bool) {
	g, ok := s.gens[p.src]
	if !ok {
		return nil, false
	}

	out := g.base().LaneSamples(p.lane)

	return out, out != nil
}

// Tick runs one pass: every generator is ticked once, after the
// generators it reads, and routed generators are mixed into the output.
// A generator whose duration elapsed is mixed one last time and then
// stopped.
func (s *Server) Tick() {
	if s.dirty {
		s.sort()
	}

	for _, ch := range s.out {
		core.Zero(ch)
	}

	for _, g := range s.order {
		b := g.base()
		status := b.tick()

		if b.channel >= 0 && b.channel < len(s.out) && (b.state == StateActive || b.state == StateStopping) {
			vecmath.AddBlockInPlace(s.out[b.channel], b.out())
		}

		if status == tickStop {
			b.Stop()
		}
	}

	s.ticks++
}

// Render runs enough ticks to produce frames samples per channel and
// returns them channel by channel.
func (s *Server) Render(frames int) [][]float64 {
	if frames < 0 {
		frames = 0
	}

	out := make([][]float64, s.cfg.Channels)
	for i := range out {
		out[i] = make([]float64, frames)
	}

	for pos := 0; pos < frames; pos += s.cfg.BlockSize {
		s.Tick()

		for ch := range out {
			copy(out[ch][pos:], s.out[ch])
		}
	}

	return out
}

// SetBufferSize changes the block size between ticks. Every lane is
// reallocated and zeroed.
func (s *Server) SetBufferSize(n int) error {
	if n <= 0 {
		return fmt.Errorf("ugen: buffer size must be > 0: %d", n)
	}

	s.cfg.BlockSize = n
	s.reallocate()

	return nil
}

// SetSampleRate changes the sample rate between ticks. Sample-rate
// dependent state such as delay memories is rebuilt.
func (s *Server) SetSampleRate(sr float64) error {
	if !(sr > 0) || math.IsInf(sr, 0) {
		return fmt.Errorf("ugen: sample rate must be finite and > 0: %f", sr)
	}

	s.cfg.SampleRate = sr
	s.reallocate()

	return nil
}

func (s *Server) reallocate() {
	s.allocate()

	for _, g := range s.reg {
		b := g.base()
		for _, l := range b.lanes {
			l.Resize(s.cfg.BlockSize)
		}

		b.scratch = nil

		if r, ok := g.(reconfigurer); ok {
			r.reconfigure()
		}
	}

	s.logger.Debug("server reconfigured",
		"sampleRate", s.cfg.SampleRate, "bufferSize", s.cfg.BlockSize)
}

// sort orders the generators with Kahn's algorithm over their signal
// bindings. Ties keep registration order. A cycle falls back to
// registration order.
func (s *Server) sort() {
	n := len(s.reg)

	index := make(map[Handle]int, n)
	for i, g := range s.reg {
		index[g.base().handle] = i
	}

	indegree := make([]int, n)
	outgoing := make([][]int, n)

	var deps []Handle

	for i, g := range s.reg {
		deps = g.base().deps(deps[:0])
		seen := make(map[int]bool, len(deps))

		for _, h := range deps {
			j, ok := index[h]
			if !ok || j == i || seen[j] {
				continue
			}

			seen[j] = true
			outgoing[j] = append(outgoing[j], i)
			indegree[i]++
		}
	}

	ready := make([]int, 0, n)

	for i, d := range indegree {
		if d == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]Generator, 0, n)
	for len(ready) > 0 {
		i := ready[0]
		ready = ready[1:]

		order = append(order, s.reg[i])
		for _, j := range outgoing[i] {
			indegree[j]--
			if indegree[j] == 0 {
				pos, _ := slices.BinarySearch(ready, j)
				ready = slices.Insert(ready, pos, j)
			}
		}
	}

	if len(order) != n {
		s.logger.Warn("generator graph contains a cycle, using registration order")

		order = slices.Clone(s.reg)
	}

	s.order = order
	s.dirty = false
}

// Order returns the handles in the order the next tick visits them.
func (s *Server) Order() []Handle {
	if s.dirty {
		s.sort()
	}

	out := make([]Handle, len(s.order))
	for i, g := range s.order {
		out[i] = g.base().handle
	}

	return out
}
