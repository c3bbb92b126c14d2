package ugen

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-ugen/dsp/core"
	"github.com/cwbudde/algo-ugen/dsp/delay"
)

const (
	defaultDelayTime = 0.25
	defaultMaxDelay  = 1.0
)

// DelayConfig configures NewDelay.
type DelayConfig struct {
	// Input signal. Default silence.
	Input Value
	// Delay in seconds, clamped to [0, MaxDelay]. Default 0.25.
	Delay Value
	// Feedback gain, clamped to [0, 1]. Default 0.
	Feedback Value
	// MaxDelay in seconds, fixed until SetMaxDelay. Default 1.
	MaxDelay float64
}

// Delay is a linearly interpolated feedback comb filter.
type Delay struct {
	Base

	input, delay, feedback Param

	maxDelay float64
	line     *delay.Line
}

// NewDelay returns a playing Delay.
func NewDelay(s *Server, cfg DelayConfig) (*Delay, error) {
	if s == nil {
		return nil, ErrNilServer
	}

	g := &Delay{maxDelay: cfg.MaxDelay}
	if g.maxDelay <= 0 {
		g.maxDelay = defaultMaxDelay
	}

	s.add(g, "delay", 1)

	err := initParams(&g.Base,
		paramInit{&g.input, cfg.Input, 0},
		paramInit{&g.delay, cfg.Delay, defaultDelayTime},
		paramInit{&g.feedback, cfg.Feedback, 0},
	)
	if err != nil {
		s.Remove(g)
		return nil, fmt.Errorf("delay: %w", err)
	}

	g.line, err = delay.ForDuration(g.maxDelay, s.cfg.SampleRate)
	if err != nil {
		s.Remove(g)
		return nil, fmt.Errorf("delay: %w", err)
	}

	g.rebind()
	g.Play(0, 0)

	return g, nil
}

// SetInput rebinds the input.
func (g *Delay) SetInput(v Value) {
	if g.set("input", &g.input, v) {
		g.rebind()
	}
}

// SetDelay sets the delay time in seconds.
func (g *Delay) SetDelay(v Value) {
	if g.set("delay", &g.delay, v) {
		g.rebind()
	}
}

// SetFeedback sets the feedback gain.
func (g *Delay) SetFeedback(v Value) {
	if g.set("feedback", &g.feedback, v) {
		g.rebind()
	}
}

// MaxDelay returns the longest delay in seconds.
func (g *Delay) MaxDelay() float64 { return g.maxDelay }

// SetMaxDelay reallocates the delay memory, keeping the newest history.
func (g *Delay) SetMaxDelay(seconds float64) error {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		g.warn("invalid max delay ignored", "maxDelay", seconds)
		return fmt.Errorf("delay: max delay must be > 0: %f", seconds)
	}

	if g.server == nil {
		return ErrRemoved
	}

	if err := g.line.Resize(delay.SizeFor(seconds, g.server.cfg.SampleRate)); err != nil {
		return fmt.Errorf("delay: %w", err)
	}

	g.maxDelay = seconds

	return nil
}

// Reset clears the delay memory.
func (g *Delay) Reset() { g.line.Reset() }

func (g *Delay) reconfigure() {
	_ = g.line.Resize(delay.SizeFor(g.maxDelay, g.server.cfg.SampleRate))
	g.line.Reset()
}

func (g *Delay) rebind() {
	g.mode = modeOf(&g.delay, &g.feedback)
	switch g.mode {
	case 0:
		g.process = func() { delayKernel(g, g.read(g.input, 0), Constant(g.delay.value), Constant(g.feedback.value)) }
	case 1:
		g.process = func() { delayKernel(g, g.read(g.input, 0), g.signal(g.delay), Constant(g.feedback.value)) }
	case 2:
		g.process = func() { delayKernel(g, g.read(g.input, 0), Constant(g.delay.value), g.signal(g.feedback)) }
	case 3:
		g.process = func() { delayKernel(g, g.read(g.input, 0), g.signal(g.delay), g.signal(g.feedback)) }
	}
}

func delayKernel[D, F lane](g *Delay, in []float64, del D, feed F) {
	out := g.out()
	sr := g.server.cfg.SampleRate
	limit := float64(g.line.Len() - 1)

	for i := range out {
		sampdel := core.Clamp(core.Clamp(del.At(i), 0, g.maxDelay)*sr, 1, limit)
		fb := core.Clamp(feed.At(i), 0, 1)

		val := g.line.ReadLinear(sampdel)
		out[i] = val

		g.line.Write(core.FlushDenormals(in[i] + val*fb))
	}
}

// SDelayConfig configures NewSDelay.
type SDelayConfig struct {
	// Input signal. Default silence.
	Input Value
	// Delay in seconds, rounded to whole samples and clamped to
	// [0, MaxDelay]. Default 0.25.
	Delay Value
	// MaxDelay in seconds. Default 1.
	MaxDelay float64
}

// SDelay is a non-interpolating delay line without feedback.
type SDelay struct {
	Base

	input, delay Param

	maxDelay float64
	line     *delay.Line
}

// NewSDelay returns a playing SDelay.
func NewSDelay(s *Server, cfg SDelayConfig) (*SDelay, error) {
	if s == nil {
		return nil, ErrNilServer
	}

	g := &SDelay{maxDelay: cfg.MaxDelay}
	if g.maxDelay <= 0 {
		g.maxDelay = defaultMaxDelay
	}

	s.add(g, "sdelay", 1)

	err := initParams(&g.Base,
		paramInit{&g.input, cfg.Input, 0},
		paramInit{&g.delay, cfg.Delay, defaultDelayTime},
	)
	if err != nil {
		s.Remove(g)
		return nil, fmt.Errorf("sdelay: %w", err)
	}

	g.line, err = delay.ForDuration(g.maxDelay, s.cfg.SampleRate)
	if err != nil {
		s.Remove(g)
		return nil, fmt.Errorf("sdelay: %w", err)
	}

	g.rebind()
	g.Play(0, 0)

	return g, nil
}

// SetInput rebinds the input.
func (g *SDelay) SetInput(v Value) {
	if g.set("input", &g.input, v) {
		g.rebind()
	}
}

// SetDelay sets the delay time in seconds.
func (g *SDelay) SetDelay(v Value) {
	if g.set("delay", &g.delay, v) {
		g.rebind()
	}
}

// SetMaxDelay reallocates the delay memory, keeping the newest history.
func (g *SDelay) SetMaxDelay(seconds float64) error {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		g.warn("invalid max delay ignored", "maxDelay", seconds)
		return fmt.Errorf("sdelay: max delay must be > 0: %f", seconds)
	}

	if g.server == nil {
		return ErrRemoved
	}

	if err := g.line.Resize(delay.SizeFor(seconds, g.server.cfg.SampleRate)); err != nil {
		return fmt.Errorf("sdelay: %w", err)
	}

	g.maxDelay = seconds

	return nil
}

// Reset clears the delay memory.
func (g *SDelay) Reset() { g.line.Reset() }

func (g *SDelay) reconfigure() {
	_ = g.line.Resize(delay.SizeFor(g.maxDelay, g.server.cfg.SampleRate))
	g.line.Reset()
}

func (g *SDelay) rebind() {
	g.mode = modeOf(&g.delay)
	if g.mode == 0 {
		g.process = func() { sdelayKernel(g, g.read(g.input, 0), Constant(g.delay.value)) }
	} else {
		g.process = func() { sdelayKernel(g, g.read(g.input, 0), g.signal(g.delay)) }
	}
}

func sdelayKernel[D lane](g *SDelay, in []float64, del D) {
	out := g.out()
	sr := g.server.cfg.SampleRate
	limit := g.line.Len() - 1

	for i := range out {
		n := min(int(math.Round(core.Clamp(del.At(i), 0, g.maxDelay)*sr)), limit)

		g.line.Write(in[i])
		if n == 0 {
			out[i] = in[i]
		} else {
			// The sample just written sits at delay 1.
			out[i] = g.line.Read(n + 1)
		}
	}
}

type paramInit struct {
	dst *Param
	v   Value
	def float64
}

func initParams(b *Base, inits ...paramInit) error {
	for _, in := range inits {
		if err := b.initParam(in.dst, in.v, in.def); err != nil {
			return err
		}
	}

	return nil
}
