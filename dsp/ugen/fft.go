package ugen

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-ugen/dsp/core"
	"github.com/cwbudde/algo-ugen/dsp/window"
	"github.com/cwbudde/algo-vecmath"
)

const defaultFFTSize = 1024

// FFT output lanes of FFTMain and IFFT inputs.
const (
	LaneReal = 0
	LaneImag = 1
	LaneBin  = 2
)

// FFTOption configures FFT analysis and synthesis generators.
type FFTOption func(*fftConfig)

type fftConfig struct {
	size      int
	hopOffset int
	win       window.Type
}

func defaultFFTConfig() fftConfig {
	return fftConfig{size: defaultFFTSize, win: window.TypeHann}
}

// WithFFTSize sets the frame size. It must be a power of two. Default 1024.
func WithFFTSize(size int) FFTOption {
	return func(c *fftConfig) { c.size = size }
}

// WithHopOffset delays the start of framing by n samples. Overlapped
// lanes use multiples of size/overlaps. Default 0.
func WithHopOffset(n int) FFTOption {
	return func(c *fftConfig) {
		if n >= 0 {
			c.hopOffset = n
		}
	}
}

// WithWinType sets the analysis or synthesis window. Default Hann.
func WithWinType(t window.Type) FFTOption {
	return func(c *fftConfig) { c.win = t }
}

func applyFFTOptions(opts []FFTOption) fftConfig {
	cfg := defaultFFTConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}

// frame is the framing state shared by analysis and synthesis: a
// power-of-two size, its window, a transform plan and the hop counter.
// The counter runs from -hopOffset and wraps at size, where a transform
// runs.
type frame struct {
	size      int
	hopOffset int
	win       window.Type
	coeffs    []float64
	plan      *algofft.Plan[complex128]
	spectrum  []complex128
	incount   int
}

func (f *frame) configure(size, hopOffset int, win window.Type) error {
	if !core.IsPowerOfTwo(size) {
		return fmt.Errorf("%w: %d", ErrNotPowerOfTwo, size)
	}

	if !win.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidWindow, int(win))
	}

	if hopOffset < 0 {
		hopOffset = 0
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return fmt.Errorf("ugen: failed to create FFT plan: %w", err)
	}

	f.size = size
	f.hopOffset = hopOffset
	f.win = win
	f.coeffs = window.Generate(win, size, window.WithPeriodic())
	f.plan = plan
	f.spectrum = make([]complex128, size)
	f.incount = -hopOffset

	return nil
}

func (f *frame) setWinType(t window.Type) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidWindow, int(t))
	}

	f.win = t
	f.coeffs = window.Generate(t, f.size, window.WithPeriodic())

	return nil
}

// FFTMain windows its input into frames and streams the spectrum of the
// previous frame, one bin per sample, on three lanes: real part,
// imaginary part and bin index. Bins above size/2 read as zero.
type FFTMain struct {
	Base
	frame

	input   Param
	inframe []float64
}

// NewFFTMain returns a playing FFTMain.
func NewFFTMain(s *Server, input Value, opts ...FFTOption) (*FFTMain, error) {
	if s == nil {
		return nil, ErrNilServer
	}

	cfg := applyFFTOptions(opts)

	g := &FFTMain{}
	s.add(g, "fftmain", 3)
	g.noPost = true

	err := g.initParam(&g.input, input, 0)
	if err == nil {
		err = g.configure(cfg.size, cfg.hopOffset, cfg.win)
	}

	if err != nil {
		s.Remove(g)
		return nil, fmt.Errorf("fftmain: %w", err)
	}

	g.inframe = make([]float64, g.size)
	g.process = g.compute
	g.Play(0, 0)

	return g, nil
}

// SetInput rebinds the analyzed signal.
func (g *FFTMain) SetInput(v Value) {
	g.set("input", &g.input, v)
}

// Size returns the frame size.
func (g *FFTMain) Size() int { return g.size }

// HopOffset returns the framing offset in samples.
func (g *FFTMain) HopOffset() int { return g.hopOffset }

// WinType returns the analysis window.
func (g *FFTMain) WinType() window.Type { return g.win }

// SetSize changes the frame size and restarts framing at -hopOffset. A
// size that is not a power of two is rejected and leaves the state
// unchanged.
func (g *FFTMain) SetSize(size, hopOffset int) error {
	next := g.frame
	if err := next.configure(size, hopOffset, g.win); err != nil {
		g.warn("fft resize rejected", "size", size, "error", err)
		return err
	}

	g.frame = next
	g.inframe = make([]float64, size)

	return nil
}

// SetWinType regenerates the analysis window.
func (g *FFTMain) SetWinType(t window.Type) error {
	if err := g.setWinType(t); err != nil {
		g.warn("fft window rejected", "error", err)
		return err
	}

	return nil
}

func (g *FFTMain) compute() {
	in := g.read(g.input, 0)
	re := g.lanes[LaneReal].Samples()
	im := g.lanes[LaneImag].Samples()
	bin := g.lanes[LaneBin].Samples()
	half := g.size / 2

	for i := range in {
		n := g.incount
		re[i], im[i], bin[i] = 0, 0, 0

		if n >= 0 {
			g.inframe[n] = in[i]
			bin[i] = float64(n)

			switch {
			case n < half:
				re[i] = real(g.spectrum[n])
				if n != 0 {
					im[i] = imag(g.spectrum[n])
				}
			case n == half:
				re[i] = real(g.spectrum[n])
			}
		}

		g.incount++
		if g.incount >= g.size {
			g.incount -= g.size
			g.analyze()
		}
	}
}

func (g *FFTMain) analyze() {
	_ = window.Apply(g.inframe, g.coeffs)

	for n, x := range g.inframe {
		g.spectrum[n] = complex(x, 0)
	}

	if err := g.plan.Forward(g.spectrum, g.spectrum); err != nil {
		clear(g.spectrum)
	}
}

// FFT is a tap on one lane of an FFTMain. Unlike FFTMain it applies
// post-processing.
type FFT struct {
	Base

	source Param
}

// NewFFT returns a playing tap on the given lane of main.
func NewFFT(s *Server, main *FFTMain, laneIndex int) (*FFT, error) {
	if s == nil {
		return nil, ErrNilServer
	}

	if main == nil || main.server != s {
		return nil, fmt.Errorf("fft: %w", ErrServerMismatch)
	}

	if laneIndex < LaneReal || laneIndex > LaneBin {
		return nil, fmt.Errorf("fft: lane out of range: %d", laneIndex)
	}

	g := &FFT{}
	s.add(g, "fft", 1)
	_ = g.initParam(&g.source, Lane(main, laneIndex), 0)

	g.process = func() { copy(g.out(), g.signal(g.source)) }
	g.Play(0, 0)

	return g, nil
}

// IFFT collects streamed bins into frames, runs the inverse transform when
// a frame is complete and streams the windowed result.
type IFFT struct {
	Base
	frame

	inReal, inImag Param
	timeFrame      []complex128
	outframe       []float64
	synth          []float64
}

// NewIFFT returns a playing IFFT of the real and imaginary streams.
// Matching FFTMain and IFFT options give a 2*size sample latency: bins
// stream one per sample, so a frame takes size samples to analyze and
// size more to collect before it is resynthesized.
func NewIFFT(s *Server, inReal, inImag Value, opts ...FFTOption) (*IFFT, error) {
	if s == nil {
		return nil, ErrNilServer
	}

	cfg := applyFFTOptions(opts)

	g := &IFFT{}
	s.add(g, "ifft", 1)

	err := initParams(&g.Base,
		paramInit{&g.inReal, inReal, 0},
		paramInit{&g.inImag, inImag, 0},
	)
	if err == nil {
		err = g.configure(cfg.size, cfg.hopOffset, cfg.win)
	}

	if err != nil {
		s.Remove(g)
		return nil, fmt.Errorf("ifft: %w", err)
	}

	g.allocate()
	g.process = g.compute
	g.Play(0, 0)

	return g, nil
}

func (g *IFFT) allocate() {
	g.timeFrame = make([]complex128, g.size)
	g.outframe = make([]float64, g.size)
	g.synth = make([]float64, g.size)
}

// SetInReal rebinds the real-part stream.
func (g *IFFT) SetInReal(v Value) { g.set("inreal", &g.inReal, v) }

// SetInImag rebinds the imaginary-part stream.
func (g *IFFT) SetInImag(v Value) { g.set("inimag", &g.inImag, v) }

// Size returns the frame size.
func (g *IFFT) Size() int { return g.size }

// HopOffset returns the framing offset in samples.
func (g *IFFT) HopOffset() int { return g.hopOffset }

// WinType returns the synthesis window.
func (g *IFFT) WinType() window.Type { return g.win }

// SetSize changes the frame size and restarts framing at -hopOffset. A
// size that is not a power of two is rejected and leaves the state
// unchanged.
func (g *IFFT) SetSize(size, hopOffset int) error {
	next := g.frame
	if err := next.configure(size, hopOffset, g.win); err != nil {
		g.warn("ifft resize rejected", "size", size, "error", err)
		return err
	}

	g.frame = next
	g.allocate()

	return nil
}

// SetWinType regenerates the synthesis window.
func (g *IFFT) SetWinType(t window.Type) error {
	if err := g.setWinType(t); err != nil {
		g.warn("ifft window rejected", "error", err)
		return err
	}

	vecmath.MulBlock(g.synth, g.outframe, g.coeffs)

	return nil
}

func (g *IFFT) compute() {
	re := g.read(g.inReal, 0)
	im := g.read(g.inImag, 1)
	out := g.out()
	half := g.size / 2

	for i := range out {
		n := g.incount
		out[i] = 0

		if n >= 0 {
			switch {
			case n == 0:
				g.spectrum[0] = complex(re[i], 0)
			case n < half:
				g.spectrum[n] = complex(re[i], im[i])
			case n == half:
				g.spectrum[n] = complex(re[i], 0)
			}

			out[i] = g.synth[n]
		}

		g.incount++
		if g.incount >= g.size {
			g.incount -= g.size
			g.synthesize()
		}
	}
}

func (g *IFFT) synthesize() {
	half := g.size / 2
	for k := 1; k < half; k++ {
		v := g.spectrum[k]
		g.spectrum[g.size-k] = complex(real(v), -imag(v))
	}

	if err := g.plan.Inverse(g.timeFrame, g.spectrum); err != nil {
		clear(g.synth)
		return
	}

	for n, v := range g.timeFrame {
		g.outframe[n] = real(v)
	}

	vecmath.MulBlock(g.synth, g.outframe, g.coeffs)
}
