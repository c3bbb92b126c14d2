package ugen

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-ugen/dsp/core"
	"github.com/cwbudde/algo-vecmath"
)

// Output lanes of CarToPol and inputs of PolToCar.
const (
	LaneMag   = 0
	LanePhase = 1
)

// CarToPol converts cartesian bins to magnitude and phase lanes.
type CarToPol struct {
	Base

	inReal, inImag Param
}

// NewCarToPol returns a playing CarToPol.
func NewCarToPol(s *Server, inReal, inImag Value) (*CarToPol, error) {
	if s == nil {
		return nil, ErrNilServer
	}

	g := &CarToPol{}
	s.add(g, "cartopol", 2)

	err := initParams(&g.Base,
		paramInit{&g.inReal, inReal, 0},
		paramInit{&g.inImag, inImag, 0},
	)
	if err != nil {
		s.Remove(g)
		return nil, fmt.Errorf("cartopol: %w", err)
	}

	g.process = g.compute
	g.Play(0, 0)

	return g, nil
}

// SetInReal rebinds the real input.
func (g *CarToPol) SetInReal(v Value) { g.set("inreal", &g.inReal, v) }

// SetInImag rebinds the imaginary input.
func (g *CarToPol) SetInImag(v Value) { g.set("inimag", &g.inImag, v) }

func (g *CarToPol) compute() {
	re := g.read(g.inReal, 0)
	im := g.read(g.inImag, 1)
	phase := g.lanes[LanePhase].Samples()

	vecmath.Magnitude(g.lanes[LaneMag].Samples(), re, im)

	for i := range phase {
		phase[i] = math.Atan2(im[i], re[i])
	}
}

// PolToCar converts magnitude and phase to real and imaginary lanes.
type PolToCar struct {
	Base

	inMag, inPhase Param
}

// NewPolToCar returns a playing PolToCar.
func NewPolToCar(s *Server, inMag, inPhase Value) (*PolToCar, error) {
	if s == nil {
		return nil, ErrNilServer
	}

	g := &PolToCar{}
	s.add(g, "poltocar", 2)

	err := initParams(&g.Base,
		paramInit{&g.inMag, inMag, 0},
		paramInit{&g.inPhase, inPhase, 0},
	)
	if err != nil {
		s.Remove(g)
		return nil, fmt.Errorf("poltocar: %w", err)
	}

	g.process = g.compute
	g.Play(0, 0)

	return g, nil
}

// SetInMag rebinds the magnitude input.
func (g *PolToCar) SetInMag(v Value) { g.set("inmag", &g.inMag, v) }

// SetInPhase rebinds the phase input.
func (g *PolToCar) SetInPhase(v Value) { g.set("inphase", &g.inPhase, v) }

func (g *PolToCar) compute() {
	mag := g.read(g.inMag, 0)
	ph := g.read(g.inPhase, 1)
	re := g.lanes[LaneReal].Samples()
	im := g.lanes[LaneImag].Samples()

	for i := range re {
		sin, cos := math.Sincos(ph[i])
		re[i] = mag[i] * cos
		im[i] = mag[i] * sin
	}
}

// frameHistory keeps, per overlap lane, the last frameSize values so a
// lane can be compared with the neighbouring lane one hop earlier. Lane j
// at time t and lane j-1 at time t-hop address the same bin of
// consecutive frames.
type frameHistory struct {
	inputs    []Param
	frameSize int
	hop       int
	history   [][]float64
	count     int
}

func (h *frameHistory) configure(overlaps, frameSize int) error {
	if overlaps <= 0 {
		return fmt.Errorf("%w: no inputs", ErrShapeMismatch)
	}

	if frameSize < overlaps {
		return fmt.Errorf("%w: frame size %d smaller than %d overlaps", ErrShapeMismatch, frameSize, overlaps)
	}

	h.frameSize = frameSize
	h.hop = frameSize / overlaps
	h.history = make([][]float64, overlaps)

	for j := range h.history {
		h.history[j] = make([]float64, frameSize)
	}

	h.count = 0

	return nil
}

// step advances one sample. combine maps the current input and the
// neighbour's stored value to the output and the value to store.
func (h *frameHistory) step(ins [][]float64, lanes [][]float64, i int, combine func(cur, old float64) (out, store float64)) {
	overlaps := len(h.history)

	where := h.count - h.hop
	if where < 0 {
		where += h.frameSize
	}

	for j := range overlaps {
		which := j - 1
		if which < 0 {
			which = overlaps - 1
		}

		out, store := combine(ins[j][i], h.history[which][where])
		h.history[j][h.count] = store
		lanes[j][i] = out
	}

	h.count++
	if h.count >= h.frameSize {
		h.count = 0
	}
}

// FrameConfig configures NewFrameDelta and NewFrameAccum.
type FrameConfig struct {
	// Inputs holds one phase stream per overlap lane, in hop order.
	Inputs []Value
	// FrameSize is the FFT size. The hop is FrameSize/len(Inputs).
	// Default 1024.
	FrameSize int
}

type frameGen struct {
	Base
	frameHistory

	ins   [][]float64
	outs  [][]float64
	apply func(cur, old float64) (float64, float64)
}

func newFrameGen(s *Server, kind string, cfg FrameConfig) (*frameGen, error) {
	if s == nil {
		return nil, ErrNilServer
	}

	size := cfg.FrameSize
	if size <= 0 {
		size = defaultFFTSize
	}

	params, err := bindList(s, cfg.Inputs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}

	g := &frameGen{}
	if err := g.configure(len(params), size); err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}

	s.add(g, kind, len(params))
	g.setInputs(params)
	g.process = g.compute

	return g, nil
}

func (g *frameGen) setInputs(params []Param) {
	g.inputs = params
	g.untrack()

	for i := range g.inputs {
		g.track(&g.inputs[i])
	}

	g.ins = make([][]float64, len(params))
	g.outs = make([][]float64, len(params))

	if g.server != nil {
		g.server.dirty = true
	}
}

// SetInputs replaces the phase streams. The number of streams must match
// the number of lanes.
func (g *frameGen) SetInputs(inputs ...Value) error {
	if len(inputs) != len(g.inputs) {
		err := fmt.Errorf("%w: %d inputs for %d lanes", ErrShapeMismatch, len(inputs), len(g.inputs))
		g.warn("frame inputs rejected", "error", err)

		return err
	}

	params, err := bindList(g.server, inputs)
	if err != nil {
		g.warn("frame inputs rejected", "error", err)
		return err
	}

	g.setInputs(params)

	return nil
}

// FrameSize returns the frame size.
func (g *frameGen) FrameSize() int { return g.frameSize }

// SetFrameSize changes the frame size and clears the history.
func (g *frameGen) SetFrameSize(size int) error {
	if err := g.configure(len(g.inputs), size); err != nil {
		g.warn("frame size rejected", "size", size, "error", err)
		return err
	}

	return nil
}

// Reset clears the history.
func (g *frameGen) Reset() {
	for _, h := range g.history {
		core.Zero(h)
	}

	g.count = 0
}

func (g *frameGen) compute() {
	for j, p := range g.inputs {
		g.ins[j] = g.read(p, j)
		g.outs[j] = g.lanes[j].Samples()
	}

	n := len(g.out())
	for i := range n {
		g.step(g.ins, g.outs, i, g.apply)
	}
}

// FrameDelta outputs, per overlap lane, the phase difference to the same
// bin one hop earlier, wrapped to (-pi, pi].
type FrameDelta struct {
	*frameGen
}

// NewFrameDelta returns a playing FrameDelta with one lane per input.
func NewFrameDelta(s *Server, cfg FrameConfig) (*FrameDelta, error) {
	g, err := newFrameGen(s, "framedelta", cfg)
	if err != nil {
		return nil, err
	}

	g.apply = func(cur, old float64) (float64, float64) {
		return core.WrapPhase(cur - old), cur
	}
	g.Play(0, 0)

	return &FrameDelta{g}, nil
}

// FrameAccum integrates, per overlap lane, phase differences across hops.
// It inverts FrameDelta modulo 2*pi.
type FrameAccum struct {
	*frameGen
}

// NewFrameAccum returns a playing FrameAccum with one lane per input.
func NewFrameAccum(s *Server, cfg FrameConfig) (*FrameAccum, error) {
	g, err := newFrameGen(s, "frameaccum", cfg)
	if err != nil {
		return nil, err
	}

	g.apply = func(cur, old float64) (float64, float64) {
		sum := cur + old
		return sum, sum
	}
	g.Play(0, 0)

	return &FrameAccum{g}, nil
}
