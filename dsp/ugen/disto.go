package ugen

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-ugen/dsp/core"
)

const (
	defaultDrive = 0.75
	defaultSlope = 0.5

	// The drive control maps to an atan2 denominator in
	// [driveMax-driveRange, driveMax].
	driveMax   = 0.4
	driveRange = 0.3999
)

// DistoConfig configures NewDisto.
type DistoConfig struct {
	// Input signal. Default silence.
	Input Value
	// Drive amount, clamped to [0, 1]. Default 0.75.
	Drive Value
	// Slope of the smoothing lowpass, clamped to [0, 1]. Default 0.5.
	Slope Value
}

// Disto is an arctangent waveshaper followed by a one-pole lowpass.
type Disto struct {
	Base

	input, drive, slope Param
	y1                  float64
}

// NewDisto returns a playing Disto.
func NewDisto(s *Server, cfg DistoConfig) (*Disto, error) {
	if s == nil {
		return nil, ErrNilServer
	}

	g := &Disto{}
	s.add(g, "disto", 1)

	err := initParams(&g.Base,
		paramInit{&g.input, cfg.Input, 0},
		paramInit{&g.drive, cfg.Drive, defaultDrive},
		paramInit{&g.slope, cfg.Slope, defaultSlope},
	)
	if err != nil {
		s.Remove(g)
		return nil, fmt.Errorf("disto: %w", err)
	}

	g.rebind()
	g.Play(0, 0)

	return g, nil
}

// SetInput rebinds the input.
func (g *Disto) SetInput(v Value) {
	if g.set("input", &g.input, v) {
		g.rebind()
	}
}

// SetDrive sets the drive amount.
func (g *Disto) SetDrive(v Value) {
	if g.set("drive", &g.drive, v) {
		g.rebind()
	}
}

// SetSlope sets the lowpass slope.
func (g *Disto) SetSlope(v Value) {
	if g.set("slope", &g.slope, v) {
		g.rebind()
	}
}

// Reset clears the lowpass state.
func (g *Disto) Reset() { g.y1 = 0 }

func (g *Disto) rebind() {
	g.mode = modeOf(&g.drive, &g.slope)
	switch g.mode {
	case 0:
		g.process = func() { distoKernel(g, g.read(g.input, 0), Constant(g.drive.value), Constant(g.slope.value)) }
	case 1:
		g.process = func() { distoKernel(g, g.read(g.input, 0), g.signal(g.drive), Constant(g.slope.value)) }
	case 2:
		g.process = func() { distoKernel(g, g.read(g.input, 0), Constant(g.drive.value), g.signal(g.slope)) }
	case 3:
		g.process = func() { distoKernel(g, g.read(g.input, 0), g.signal(g.drive), g.signal(g.slope)) }
	}
}

func distoKernel[D, S lane](g *Disto, in []float64, drive D, slope S) {
	out := g.out()
	y1 := g.y1

	for i := range out {
		drv := driveMax - core.Clamp(drive.At(i), 0, 1)*driveRange
		slp := core.Clamp(slope.At(i), 0, 1)

		raw := math.Atan2(in[i], drv)
		y1 = raw*(1-slp) + y1*slp
		out[i] = y1
	}

	g.y1 = core.FlushDenormals(y1)
}

// ClipConfig configures NewClip.
type ClipConfig struct {
	// Input signal. Default silence.
	Input Value
	// Min is the lower bound. Default -1.
	Min Value
	// Max is the upper bound. Default 1.
	Max Value
}

// Clip hard-limits its input to [min, max]. When min > max the output is min.
type Clip struct {
	Base

	input, lo, hi Param
}

// NewClip returns a playing Clip.
func NewClip(s *Server, cfg ClipConfig) (*Clip, error) {
	if s == nil {
		return nil, ErrNilServer
	}

	g := &Clip{}
	s.add(g, "clip", 1)

	err := initParams(&g.Base,
		paramInit{&g.input, cfg.Input, 0},
		paramInit{&g.lo, cfg.Min, -1},
		paramInit{&g.hi, cfg.Max, 1},
	)
	if err != nil {
		s.Remove(g)
		return nil, fmt.Errorf("clip: %w", err)
	}

	g.rebind()
	g.Play(0, 0)

	return g, nil
}

// SetInput rebinds the input.
func (g *Clip) SetInput(v Value) {
	if g.set("input", &g.input, v) {
		g.rebind()
	}
}

// SetMin sets the lower bound.
func (g *Clip) SetMin(v Value) {
	if g.set("min", &g.lo, v) {
		g.rebind()
	}
}

// SetMax sets the upper bound.
func (g *Clip) SetMax(v Value) {
	if g.set("max", &g.hi, v) {
		g.rebind()
	}
}

func (g *Clip) rebind() {
	g.mode = modeOf(&g.lo, &g.hi)
	switch g.mode {
	case 0:
		g.process = func() { clipKernel(g.out(), g.read(g.input, 0), Constant(g.lo.value), Constant(g.hi.value)) }
	case 1:
		g.process = func() { clipKernel(g.out(), g.read(g.input, 0), g.signal(g.lo), Constant(g.hi.value)) }
	case 2:
		g.process = func() { clipKernel(g.out(), g.read(g.input, 0), Constant(g.lo.value), g.signal(g.hi)) }
	case 3:
		g.process = func() { clipKernel(g.out(), g.read(g.input, 0), g.signal(g.lo), g.signal(g.hi)) }
	}
}

func clipKernel[L, H lane](out, in []float64, lo L, hi H) {
	for i := range out {
		out[i] = math.Max(lo.At(i), math.Min(in[i], hi.At(i)))
	}
}

const (
	defaultBitDepth = 16.0
	defaultSRScale  = 1.0

	minBitDepth = 1.0
	maxBitDepth = 32.0
	minSRScale  = 1.0 / 1024
)

// DegradeConfig configures NewDegrade.
type DegradeConfig struct {
	// Input signal. Default silence.
	Input Value
	// BitDepth of the quantizer, clamped to [1, 32]. Default 16.
	BitDepth Value
	// SRScale is the fraction of the sample rate kept, clamped to
	// [1/1024, 1]. Default 1.
	SRScale Value
}

// Degrade reduces bit depth and sample rate with a quantizing
// sample-and-hold.
type Degrade struct {
	Base

	input, bitdepth, srscale Param

	count int
	value float64
}

// NewDegrade returns a playing Degrade.
func NewDegrade(s *Server, cfg DegradeConfig) (*Degrade, error) {
	if s == nil {
		return nil, ErrNilServer
	}

	g := &Degrade{}
	s.add(g, "degrade", 1)

	err := initParams(&g.Base,
		paramInit{&g.input, cfg.Input, 0},
		paramInit{&g.bitdepth, cfg.BitDepth, defaultBitDepth},
		paramInit{&g.srscale, cfg.SRScale, defaultSRScale},
	)
	if err != nil {
		s.Remove(g)
		return nil, fmt.Errorf("degrade: %w", err)
	}

	g.rebind()
	g.Play(0, 0)

	return g, nil
}

// SetInput rebinds the input.
func (g *Degrade) SetInput(v Value) {
	if g.set("input", &g.input, v) {
		g.rebind()
	}
}

// SetBitDepth sets the quantizer bit depth.
func (g *Degrade) SetBitDepth(v Value) {
	if g.set("bitdepth", &g.bitdepth, v) {
		g.rebind()
	}
}

// SetSRScale sets the sample-rate reduction factor.
func (g *Degrade) SetSRScale(v Value) {
	if g.set("srscale", &g.srscale, v) {
		g.rebind()
	}
}

// Reset clears the hold state.
func (g *Degrade) Reset() {
	g.count = 0
	g.value = 0
}

func (g *Degrade) reconfigure() { g.Reset() }

func (g *Degrade) rebind() {
	g.mode = modeOf(&g.bitdepth, &g.srscale)
	switch g.mode {
	case 0:
		g.process = func() { degradeKernel(g, g.read(g.input, 0), Constant(g.bitdepth.value), Constant(g.srscale.value)) }
	case 1:
		g.process = func() { degradeKernel(g, g.read(g.input, 0), g.signal(g.bitdepth), Constant(g.srscale.value)) }
	case 2:
		g.process = func() { degradeKernel(g, g.read(g.input, 0), Constant(g.bitdepth.value), g.signal(g.srscale)) }
	case 3:
		g.process = func() { degradeKernel(g, g.read(g.input, 0), g.signal(g.bitdepth), g.signal(g.srscale)) }
	}
}

// holdLength returns round(sr/(sr*srscale)), the samples per hold period.
func holdLength(srscale float64) int {
	return int(math.Round(1 / core.Clamp(srscale, minSRScale, 1)))
}

func degradeKernel[B, S lane](g *Degrade, in []float64, bitdepth B, srscale S) {
	out := g.out()

	for i := range out {
		nsamps := holdLength(srscale.At(i))

		if g.count == 0 {
			scl := math.Exp2(core.Clamp(bitdepth.At(i), minBitDepth, maxBitDepth) - 1)
			g.value = math.Round(in[i]*scl) / scl
		}

		out[i] = g.value

		g.count++
		if g.count >= nsamps {
			g.count = 0
		}
	}
}
