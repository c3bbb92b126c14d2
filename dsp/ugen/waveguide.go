package ugen

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-ugen/dsp/core"
	"github.com/cwbudde/algo-ugen/dsp/delay"
	"github.com/cwbudde/algo-ugen/dsp/interp"
)

const (
	// dcBlockCoeff is the pole of the DC blocker that follows both
	// waveguides.
	dcBlockCoeff = 0.995

	defaultWaveguideFreq = 100.0
	defaultWaveguideDur  = 10.0
	defaultMinFreq       = 20.0
	minWaveguideDur      = 0.1

	// decayFloor is the attenuation reached after dur seconds (-40 dB).
	decayFloor = 100.0

	// Extra line length for the five Lagrange taps.
	lagrangeGuard = 8
)

var lnDecayFloor = math.Log(decayFloor)

// WaveguideConfig configures NewWaveguide.
type WaveguideConfig struct {
	// Input excitation. Default silence.
	Input Value
	// Freq is the fundamental in Hz, clamped to [MinFreq, sampleRate/2].
	// Default 100.
	Freq Value
	// Dur is the time in seconds to decay by 40 dB. Values <= 0 and NaN use 0.1.
	// Default 10.
	Dur Value
	// MinFreq bounds the delay memory. Default 20.
	MinFreq float64
}

// Waveguide is a plucked-string style delay line: a Lagrange-interpolated
// feedback loop with a two-point averaging lowpass, followed by a DC
// blocker.
type Waveguide struct {
	Base

	input, freq, dur Param

	minFreq float64
	line    *delay.Line
	frac    interp.Lagrange5
	isamp   int

	lastFreq float64
	lastDur  float64
	feedback float64

	lastVal  float64
	xn1, yn1 float64
}

// NewWaveguide returns a playing Waveguide.
func NewWaveguide(s *Server, cfg WaveguideConfig) (*Waveguide, error) {
	if s == nil {
		return nil, ErrNilServer
	}

	g := &Waveguide{minFreq: cfg.MinFreq}
	if g.minFreq <= 0 {
		g.minFreq = defaultMinFreq
	}

	s.add(g, "waveguide", 1)

	err := initParams(&g.Base,
		paramInit{&g.input, cfg.Input, 0},
		paramInit{&g.freq, cfg.Freq, defaultWaveguideFreq},
		paramInit{&g.dur, cfg.Dur, defaultWaveguideDur},
	)
	if err != nil {
		s.Remove(g)
		return nil, fmt.Errorf("waveguide: %w", err)
	}

	g.line, err = delay.New(int(s.cfg.SampleRate/g.minFreq) + lagrangeGuard)
	if err != nil {
		s.Remove(g)
		return nil, fmt.Errorf("waveguide: %w", err)
	}

	g.lastFreq, g.lastDur = -1, -1

	g.rebind()
	g.Play(0, 0)

	return g, nil
}

// SetInput rebinds the excitation input.
func (g *Waveguide) SetInput(v Value) {
	if g.set("input", &g.input, v) {
		g.rebind()
	}
}

// SetFreq sets the fundamental frequency in Hz.
func (g *Waveguide) SetFreq(v Value) {
	if g.set("freq", &g.freq, v) {
		g.rebind()
	}
}

// SetDur sets the 40 dB decay time in seconds.
func (g *Waveguide) SetDur(v Value) {
	if g.set("dur", &g.dur, v) {
		g.rebind()
	}
}

// Feedback returns the loop gain derived from the current freq and dur.
func (g *Waveguide) Feedback() float64 { return g.feedback }

// Reset clears the delay memory and filter states.
func (g *Waveguide) Reset() {
	g.line.Reset()
	g.lastVal, g.xn1, g.yn1 = 0, 0, 0
}

func (g *Waveguide) reconfigure() {
	_ = g.line.Resize(int(g.server.cfg.SampleRate/g.minFreq) + lagrangeGuard)
	g.Reset()
	g.lastFreq, g.lastDur = -1, -1
}

func (g *Waveguide) rebind() {
	g.mode = modeOf(&g.freq, &g.dur)
	switch g.mode {
	case 0:
		g.process = func() { waveguideKernel(g, g.read(g.input, 0), Constant(g.freq.value), Constant(g.dur.value)) }
	case 1:
		g.process = func() { waveguideKernel(g, g.read(g.input, 0), g.signal(g.freq), Constant(g.dur.value)) }
	case 2:
		g.process = func() { waveguideKernel(g, g.read(g.input, 0), Constant(g.freq.value), g.signal(g.dur)) }
	case 3:
		g.process = func() { waveguideKernel(g, g.read(g.input, 0), g.signal(g.freq), g.signal(g.dur)) }
	}
}

// update recomputes the tap position and loop gain when freq or dur
// changed since the last sample.
func (g *Waveguide) update(freq, dur float64) {
	sr := g.server.cfg.SampleRate
	freq = core.Clamp(freq, g.minFreq, sr/2)

	if !(dur > 0) {
		dur = minWaveguideDur
	}

	if freq == g.lastFreq && dur == g.lastDur {
		return
	}

	if freq != g.lastFreq {
		d := sr/freq - 0.5
		g.isamp = int(d)
		g.frac.Set(d - float64(g.isamp))
	}

	g.lastFreq, g.lastDur = freq, dur
	g.feedback = decayExp(-lnDecayFloor * (1 / freq) / dur)
}

func waveguideKernel[F, D lane](g *Waveguide, in []float64, freq F, dur D) {
	out := g.out()

	var taps [5]float64

	for i := range out {
		g.update(freq.At(i), dur.At(i))

		g.line.ReadTaps(taps[:], g.isamp)
		val := g.frac.Apply(taps)

		lp := 0.5 * (val + g.lastVal)
		g.lastVal = val

		g.line.Write(core.FlushDenormals(in[i] + lp*g.feedback))

		y := lp - g.xn1 + dcBlockCoeff*g.yn1
		g.xn1 = lp
		g.yn1 = core.FlushDenormals(y)
		out[i] = y
	}
}

const (
	defaultAllpassFeed   = 0.95
	defaultAllpassDetune = 0.5

	// allpassFeedScale maps the [0, 1] feed control to the loop gain.
	allpassFeedScale = 0.4525
	// allpassGain is the coefficient of each allpass section.
	allpassGain = 0.3
	// allpassSeconds is the nominal allpass delay at full detune.
	allpassSeconds = 0.0025
	// detune = control*allpassDetuneScale + allpassDetuneOffset
	allpassDetuneScale  = 0.95
	allpassDetuneOffset = 0.05
)

// allpassRatios detune the three parallel allpass sections.
var allpassRatios = [3]float64{1.0, 0.9981, 0.9957}

// AllpassWGConfig configures NewAllpassWG.
type AllpassWGConfig struct {
	// Input excitation. Default silence.
	Input Value
	// Freq is the fundamental in Hz, clamped to [MinFreq, sampleRate/2].
	// Default 100.
	Freq Value
	// Feed is the feedback amount, clamped to [0, 1]. Default 0.95.
	Feed Value
	// Detune spreads the allpass sections, clamped to [0, 1]. Default 0.5.
	Detune Value
	// MinFreq bounds the delay memory. Default 20.
	MinFreq float64
}

// AllpassWG is a waveguide whose loop runs through three parallel,
// slightly detuned allpass sections, followed by a DC blocker.
type AllpassWG struct {
	Base

	input, freq, feed, detune Param

	minFreq float64
	line    *delay.Line
	alp     [3]*delay.Line
	alpSize float64

	xn1, yn1 float64
}

// NewAllpassWG returns a playing AllpassWG.
func NewAllpassWG(s *Server, cfg AllpassWGConfig) (*AllpassWG, error) {
	if s == nil {
		return nil, ErrNilServer
	}

	g := &AllpassWG{minFreq: cfg.MinFreq}
	if g.minFreq <= 0 {
		g.minFreq = defaultMinFreq
	}

	s.add(g, "allpasswg", 1)

	err := initParams(&g.Base,
		paramInit{&g.input, cfg.Input, 0},
		paramInit{&g.freq, cfg.Freq, defaultWaveguideFreq},
		paramInit{&g.feed, cfg.Feed, defaultAllpassFeed},
		paramInit{&g.detune, cfg.Detune, defaultAllpassDetune},
	)
	if err == nil {
		err = g.allocate()
	}

	if err != nil {
		s.Remove(g)
		return nil, fmt.Errorf("allpasswg: %w", err)
	}

	g.rebind()
	g.Play(0, 0)

	return g, nil
}

func (g *AllpassWG) allocate() error {
	sr := g.server.cfg.SampleRate

	line, err := delay.New(int(sr/g.minFreq) + lagrangeGuard)
	if err != nil {
		return err
	}

	g.line = line
	g.alpSize = math.Floor(sr * allpassSeconds)

	for j := range g.alp {
		g.alp[j], err = delay.New(int(g.alpSize) + 2)
		if err != nil {
			return err
		}
	}

	return nil
}

// SetInput rebinds the excitation input.
func (g *AllpassWG) SetInput(v Value) {
	if g.set("input", &g.input, v) {
		g.rebind()
	}
}

// SetFreq sets the fundamental frequency in Hz.
func (g *AllpassWG) SetFreq(v Value) {
	if g.set("freq", &g.freq, v) {
		g.rebind()
	}
}

// SetFeed sets the feedback amount.
func (g *AllpassWG) SetFeed(v Value) {
	if g.set("feed", &g.feed, v) {
		g.rebind()
	}
}

// SetDetune sets the allpass detune amount.
func (g *AllpassWG) SetDetune(v Value) {
	if g.set("detune", &g.detune, v) {
		g.rebind()
	}
}

// Reset clears all delay memories and the DC blocker.
func (g *AllpassWG) Reset() {
	g.line.Reset()

	for _, a := range g.alp {
		a.Reset()
	}

	g.xn1, g.yn1 = 0, 0
}

func (g *AllpassWG) reconfigure() {
	if err := g.allocate(); err != nil {
		g.warn("allpasswg reallocation failed", "error", err)
	}

	g.xn1, g.yn1 = 0, 0
}

//nolint:cyclop
func (g *AllpassWG) rebind() {
	g.mode = modeOf(&g.freq, &g.feed, &g.detune)
	switch g.mode {
	case 0:
		g.process = func() {
			allpassWGKernel(g, g.read(g.input, 0), Constant(g.freq.value), Constant(g.feed.value), Constant(g.detune.value))
		}
	case 1:
		g.process = func() {
			allpassWGKernel(g, g.read(g.input, 0), g.signal(g.freq), Constant(g.feed.value), Constant(g.detune.value))
		}
	case 2:
		g.process = func() {
			allpassWGKernel(g, g.read(g.input, 0), Constant(g.freq.value), g.signal(g.feed), Constant(g.detune.value))
		}
	case 3:
		g.process = func() {
			allpassWGKernel(g, g.read(g.input, 0), g.signal(g.freq), g.signal(g.feed), Constant(g.detune.value))
		}
	case 4:
		g.process = func() {
			allpassWGKernel(g, g.read(g.input, 0), Constant(g.freq.value), Constant(g.feed.value), g.signal(g.detune))
		}
	case 5:
		g.process = func() {
			allpassWGKernel(g, g.read(g.input, 0), g.signal(g.freq), Constant(g.feed.value), g.signal(g.detune))
		}
	case 6:
		g.process = func() {
			allpassWGKernel(g, g.read(g.input, 0), Constant(g.freq.value), g.signal(g.feed), g.signal(g.detune))
		}
	case 7:
		g.process = func() {
			allpassWGKernel(g, g.read(g.input, 0), g.signal(g.freq), g.signal(g.feed), g.signal(g.detune))
		}
	}
}

func allpassWGKernel[F, B, D lane](g *AllpassWG, in []float64, freq F, feed B, detune D) {
	out := g.out()
	sr := g.server.cfg.SampleRate
	limit := float64(g.line.Len() - 1)
	alpLimit := float64(g.alp[0].Len() - 1)

	for i := range out {
		fr := core.Clamp(freq.At(i), g.minFreq, sr/2)
		sampdel := core.Clamp(sr/fr, 1, limit)
		fb := core.Clamp(feed.At(i), 0, 1) * allpassFeedScale
		det := core.Clamp(detune.At(i), 0, 1)*allpassDetuneScale + allpassDetuneOffset

		val := g.line.ReadLinear(sampdel)

		sum := 0.0
		for j, ratio := range allpassRatios {
			a := g.alp[j]
			z := a.ReadLinear(core.Clamp(g.alpSize*det*ratio, 1, alpLimit))
			v := val - allpassGain*z
			sum += z + allpassGain*v
			a.Write(core.FlushDenormals(v))
		}

		val = sum / float64(len(allpassRatios))

		g.line.Write(core.FlushDenormals(in[i] + val*fb))

		y := val - g.xn1 + dcBlockCoeff*g.yn1
		g.xn1 = val
		g.yn1 = core.FlushDenormals(y)
		out[i] = y
	}
}
