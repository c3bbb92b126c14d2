package ugen

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-ugen/dsp/core"
	"github.com/cwbudde/algo-vecmath"
)

// Sig outputs its value: a constant as a stream, or a copy of a signal.
type Sig struct {
	Base

	value Param
}

// NewSig returns a playing Sig. A nil value outputs zeros.
func NewSig(s *Server, value Value) (*Sig, error) {
	if s == nil {
		return nil, ErrNilServer
	}

	g := &Sig{}
	s.add(g, "sig", 1)

	if err := g.initParam(&g.value, value, 0); err != nil {
		s.Remove(g)
		return nil, fmt.Errorf("sig: %w", err)
	}

	g.rebind()
	g.Play(0, 0)

	return g, nil
}

// SetValue rebinds the output value.
func (g *Sig) SetValue(v Value) {
	if g.set("value", &g.value, v) {
		g.rebind()
	}
}

func (g *Sig) rebind() {
	g.mode = modeOf(&g.value)
	if g.mode == 0 {
		g.process = func() { sigKernel(g.out(), Constant(g.value.value)) }
	} else {
		g.process = func() { sigKernel(g.out(), g.signal(g.value)) }
	}
}

func sigKernel[V lane](out []float64, v V) {
	for i := range out {
		out[i] = v.At(i)
	}
}

// SineConfig configures NewSine.
type SineConfig struct {
	// Freq in Hz. Default 1000.
	Freq Value
	// Phase offset in cycles, [0, 1). Default 0.
	Phase Value
}

// Sine is a phase-accumulator sine oscillator.
type Sine struct {
	Base

	freq, phase Param
	pointer     float64
}

// NewSine returns a playing Sine.
func NewSine(s *Server, cfg SineConfig) (*Sine, error) {
	if s == nil {
		return nil, ErrNilServer
	}

	g := &Sine{}
	s.add(g, "sine", 1)

	if err := g.initParam(&g.freq, cfg.Freq, 1000); err != nil {
		s.Remove(g)
		return nil, fmt.Errorf("sine: %w", err)
	}

	if err := g.initParam(&g.phase, cfg.Phase, 0); err != nil {
		s.Remove(g)
		return nil, fmt.Errorf("sine: %w", err)
	}

	g.rebind()
	g.Play(0, 0)

	return g, nil
}

// SetFreq sets the frequency in Hz.
func (g *Sine) SetFreq(v Value) {
	if g.set("freq", &g.freq, v) {
		g.rebind()
	}
}

// SetPhase sets the phase offset in cycles.
func (g *Sine) SetPhase(v Value) {
	if g.set("phase", &g.phase, v) {
		g.rebind()
	}
}

// Reset rewinds the phase accumulator.
func (g *Sine) Reset() { g.pointer = 0 }

func (g *Sine) rebind() {
	g.mode = modeOf(&g.freq, &g.phase)
	switch g.mode {
	case 0:
		g.process = func() { sineKernel(g, Constant(g.freq.value), Constant(g.phase.value)) }
	case 1:
		g.process = func() { sineKernel(g, g.signal(g.freq), Constant(g.phase.value)) }
	case 2:
		g.process = func() { sineKernel(g, Constant(g.freq.value), g.signal(g.phase)) }
	case 3:
		g.process = func() { sineKernel(g, g.signal(g.freq), g.signal(g.phase)) }
	}
}

func sineKernel[F, P lane](g *Sine, freq F, phase P) {
	out := g.out()
	inc := 1 / g.server.cfg.SampleRate
	ptr := g.pointer

	for i := range out {
		out[i] = math.Sin(2 * math.Pi * (ptr + phase.At(i)))

		ptr += freq.At(i) * inc
		ptr -= math.Floor(ptr)
	}

	g.pointer = ptr
}

// NoiseConfig configures NewNoise.
type NoiseConfig struct {
	// Source drives the generator. Default rand.NewSource(Seed).
	Source rand.Source
	// Seed for the default source. Default 1.
	Seed int64
}

// Noise is uniform white noise in [-1, 1).
type Noise struct {
	Base

	rng *rand.Rand
}

// NewNoise returns a playing Noise. Equal seeds produce equal streams.
func NewNoise(s *Server, cfg NoiseConfig) (*Noise, error) {
	if s == nil {
		return nil, ErrNilServer
	}

	src := cfg.Source
	if src == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = 1
		}

		src = rand.NewSource(seed)
	}

	g := &Noise{rng: rand.New(src)}
	s.add(g, "noise", 1)

	g.process = func() {
		out := g.out()
		for i := range out {
			out[i] = g.rng.Float64()*2 - 1
		}
	}
	g.Play(0, 0)

	return g, nil
}

// Seed reseeds the random source.
func (g *Noise) Seed(seed int64) { g.rng.Seed(seed) }

// TapeConfig configures NewTape.
type TapeConfig struct {
	// Samples to play. The slice is copied.
	Samples []float64
	// Loop restarts playback at the end instead of falling silent.
	Loop bool
}

// Tape plays a preloaded block of samples.
type Tape struct {
	Base

	samples []float64
	loop    bool
	pos     int
}

// NewTape returns a playing Tape.
func NewTape(s *Server, cfg TapeConfig) (*Tape, error) {
	if s == nil {
		return nil, ErrNilServer
	}

	g := &Tape{samples: append([]float64(nil), cfg.Samples...), loop: cfg.Loop}
	s.add(g, "tape", 1)

	g.process = g.compute
	g.Play(0, 0)

	return g, nil
}

// SetLoop enables or disables looping.
func (g *Tape) SetLoop(loop bool) { g.loop = loop }

// Rewind restarts playback at the first sample.
func (g *Tape) Rewind() { g.pos = 0 }

// Len returns the number of samples on the tape.
func (g *Tape) Len() int { return len(g.samples) }

func (g *Tape) compute() {
	out := g.out()
	n := len(g.samples)

	for i := range out {
		if g.pos >= n {
			if !g.loop || n == 0 {
				out[i] = 0
				continue
			}

			g.pos = 0
		}

		out[i] = g.samples[g.pos]
		g.pos++
	}
}

// Mix sums any number of inputs.
type Mix struct {
	Base

	inputs []Param
}

// NewMix returns a playing Mix of inputs.
func NewMix(s *Server, inputs ...Value) (*Mix, error) {
	if s == nil {
		return nil, ErrNilServer
	}

	g := &Mix{}
	s.add(g, "mix", 1)

	if err := g.bindInputs(inputs); err != nil {
		s.Remove(g)
		return nil, fmt.Errorf("mix: %w", err)
	}

	g.process = g.compute
	g.Play(0, 0)

	return g, nil
}

// SetInputs replaces the inputs.
func (g *Mix) SetInputs(inputs ...Value) error {
	if err := g.bindInputs(inputs); err != nil {
		g.warn("mix inputs rejected", "error", err)
		return fmt.Errorf("mix: %w", err)
	}

	return nil
}

// NumInputs returns the number of inputs.
func (g *Mix) NumInputs() int { return len(g.inputs) }

func (g *Mix) bindInputs(inputs []Value) error {
	params, err := bindList(g.server, inputs)
	if err != nil {
		return err
	}

	g.inputs = params
	g.untrack()

	for i := range g.inputs {
		g.track(&g.inputs[i])
	}

	g.server.dirty = true

	return nil
}

func (g *Mix) compute() {
	out := g.out()
	clear(out)

	for k, p := range g.inputs {
		if p.kind == paramConstant {
			core.Offset(out, p.value)
			continue
		}

		vecmath.AddBlockInPlace(out, g.read(p, k))
	}
}

// bindList resolves a list of values; nil entries read as zero.
func bindList(s *Server, values []Value) ([]Param, error) {
	params := make([]Param, len(values))

	for i, v := range values {
		if v == nil {
			params[i] = Const(0).binding()
			continue
		}

		p := v.binding()
		if p.kind == paramSignal && p.srv != s {
			return nil, fmt.Errorf("input %d: %w", i, ErrServerMismatch)
		}

		params[i] = p
	}

	return params, nil
}
