package ugen

import (
	"github.com/cwbudde/algo-ugen/dsp/buffer"
	"github.com/cwbudde/algo-ugen/dsp/core"
)

// State is the lifecycle state of a generator.
type State int

const (
	// StateIdle generators are registered but produce silence.
	StateIdle State = iota
	// StateArmed generators wait a number of ticks before starting.
	StateArmed
	// StateActive generators compute every tick.
	StateActive
	// StateStopping is entered for the tick on which a timed run elapses.
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateActive:
		return "active"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

type tickStatus uint8

const (
	tickContinue tickStatus = iota
	tickStop
)

// Generator is a unit generator registered on a Server. All generators
// embed Base, which supplies the lifecycle and post-processing methods.
type Generator interface {
	Value
	Handle() Handle
	Kind() string
	Samples() []float64
	LaneSamples(i int) []float64
	Lanes() int
	State() State
	Mode() int
	PostMode() int
	Play(dur, delay float64)
	Out(channel int, dur, delay float64)
	Stop()
	SetMul(v Value)
	SetAdd(v Value)
	SetSub(v Value)
	SetDiv(v Value)
	base() *Base
}

// Base carries the state shared by every generator: its lanes, its
// bindings, the selected processing and post-processing routines and
// its lifecycle.
type Base struct {
	server *Server
	handle Handle
	kind   string

	lanes   []*buffer.Buffer
	scratch [][]float64

	bound   []*Param
	mode    int
	process func()

	mul, add Param
	mulMode  mulMode
	addMode  addMode
	post     func()
	noPost   bool

	state     State
	channel   int
	waitTicks int
	waitCount int
	durTicks  int
	durCount  int
}

func (b *Base) base() *Base { return b }

func (b *Base) binding() Param {
	return Param{kind: paramSignal, srv: b.server, src: b.handle}
}

// Handle returns the generator's handle on its server.
func (b *Base) Handle() Handle { return b.handle }

// Kind returns the generator type name, e.g. "delay".
func (b *Base) Kind() string { return b.kind }

// Mode returns the dispatch mode: bit i is set when the generator's i-th
// control parameter is bound to a signal.
func (b *Base) Mode() int { return b.mode }

// State returns the lifecycle state.
func (b *Base) State() State { return b.state }

// Channel returns the output channel, or -1 when not routed.
func (b *Base) Channel() int { return b.channel }

// Lanes returns the number of output lanes.
func (b *Base) Lanes() int { return len(b.lanes) }

// Samples returns the main output lane as computed by the last tick.
func (b *Base) Samples() []float64 { return b.LaneSamples(0) }

// LaneSamples returns output lane i, or nil when out of range.
func (b *Base) LaneSamples(i int) []float64 {
	if i < 0 || i >= len(b.lanes) {
		return nil
	}

	return b.lanes[i].Samples()
}

// Play starts the generator. A positive delay arms it for
// round(delay*sampleRate/blockSize) ticks of silence; a positive dur stops
// it after round(dur*sampleRate/blockSize) active ticks. Zero dur runs
// until Stop.
func (b *Base) Play(dur, delay float64) {
	b.start(-1, dur, delay)
}

// Out is Play with the main lane routed to an output channel. Channel
// numbers wrap modulo the server's channel count.
func (b *Base) Out(channel int, dur, delay float64) {
	if b.server == nil {
		return
	}

	n := b.server.cfg.Channels
	b.start(((channel%n)+n)%n, dur, delay)
}

func (b *Base) start(channel int, dur, delay float64) {
	if b.server == nil {
		return
	}

	cfg := b.server.cfg
	b.channel = channel
	b.durTicks = cfg.Ticks(dur)
	b.durCount = 0
	b.waitTicks = cfg.Ticks(delay)
	b.waitCount = 0

	if b.waitTicks > 0 {
		b.state = StateArmed
		b.zero()

		return
	}

	b.state = StateActive
}

// Stop silences the generator and clears its routing and timing state.
// Stop is idempotent.
func (b *Base) Stop() {
	b.state = StateIdle
	b.channel = -1
	b.durTicks, b.durCount = 0, 0
	b.waitTicks, b.waitCount = 0, 0
	b.zero()
}

func (b *Base) zero() {
	for _, l := range b.lanes {
		l.Zero()
	}
}

// tick runs one pass for the generator. A returned tickStop asks the
// scheduler to stop the generator once the tick is complete.
func (b *Base) tick() tickStatus {
	switch b.state {
	case StateIdle:
		return tickContinue
	case StateArmed:
		b.waitCount++
		if b.waitCount >= b.waitTicks {
			b.state = StateActive
			b.waitTicks, b.waitCount = 0, 0
		}

		return tickContinue
	}

	if b.process != nil {
		b.process()
	}

	if b.post != nil && !b.noPost {
		b.post()
	}

	if b.durTicks > 0 {
		b.durCount++
		if b.durCount >= b.durTicks {
			b.state = StateStopping
			return tickStop
		}
	}

	return tickContinue
}

// track records parameters whose signal sources the scheduler must tick first.
func (b *Base) track(ps ...*Param) {
	b.bound = append(b.bound, ps...)
}

func (b *Base) untrack() {
	b.bound = b.bound[:0]
}

// deps appends the handles this generator reads to dst.
func (b *Base) deps(dst []Handle) []Handle {
	for _, p := range b.bound {
		if p.kind == paramSignal {
			dst = append(dst, p.src)
		}
	}

	if b.mul.kind == paramSignal {
		dst = append(dst, b.mul.src)
	}

	if b.add.kind == paramSignal {
		dst = append(dst, b.add.src)
	}

	return dst
}

// resolve turns v into a Param, rejecting values of other servers. A nil
// value is rejected as well.
func (b *Base) resolve(name string, v Value) (Param, bool) {
	if v == nil {
		b.warn("nil value ignored", "param", name)
		return Param{}, false
	}

	p := v.binding()
	if p.kind == paramSignal && p.srv != b.server {
		b.warn(ErrServerMismatch.Error(), "param", name)
		return Param{}, false
	}

	return p, true
}

// set binds *dst to v and reports whether the binding changed, in which
// case the caller rebinds its processing routine.
func (b *Base) set(name string, dst *Param, v Value) bool {
	p, ok := b.resolve(name, v)
	if !ok {
		return false
	}

	*dst = p
	if b.server != nil {
		b.server.dirty = true
	}

	return true
}

// initParam binds *dst at construction time and tracks it; nil means def.
func (b *Base) initParam(dst *Param, v Value, def float64) error {
	b.track(dst)

	if v == nil {
		*dst = Const(def).binding()
		return nil
	}

	p := v.binding()
	if p.kind == paramSignal && p.srv != b.server {
		return ErrServerMismatch
	}

	*dst = p

	return nil
}

// signal resolves a signal binding to its current lane. Missing sources
// read as silence.
func (b *Base) signal(p Param) Signal {
	return Signal(b.server.lane(p))
}

// read returns the samples of p for this tick. Constant bindings are
// expanded into scratch slot.
func (b *Base) read(p Param, slot int) []float64 {
	if p.kind == paramSignal {
		return b.server.lane(p)
	}

	for len(b.scratch) <= slot {
		b.scratch = append(b.scratch, nil)
	}

	n := b.server.cfg.BlockSize
	b.scratch[slot] = core.EnsureLen(b.scratch[slot], n)
	core.Fill(b.scratch[slot], p.value)

	return b.scratch[slot]
}

func (b *Base) out() []float64 {
	return b.lanes[0].Samples()
}

func (b *Base) warn(msg string, args ...any) {
	if b.server == nil {
		return
	}

	args = append([]any{"kind", b.kind, "handle", b.handle}, args...)
	b.server.logger.Warn(msg, args...)
}
