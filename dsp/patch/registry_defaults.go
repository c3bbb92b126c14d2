package patch

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-ugen/dsp/ugen"
	"github.com/cwbudde/algo-ugen/dsp/window"
)

// Parameter keys shared by every node type.
const (
	keyMul = "mul"
	keyAdd = "add"
)

var errNotFFTMain = errors.New("main must reference an fftmain node")

type registryConfig struct {
	seed int64
}

// RegistryOption configures the default registry.
type RegistryOption func(*registryConfig)

// WithNoiseSeed sets the seed noise nodes use when their params carry none.
func WithNoiseSeed(seed int64) RegistryOption {
	return func(c *registryConfig) { c.seed = seed }
}

// DefaultRegistry returns a Registry pre-populated with every built-in
// generator.
//
//nolint:funlen
func DefaultRegistry(opts ...RegistryOption) *Registry {
	cfg := &registryConfig{seed: 1}
	for _, opt := range opts {
		opt(cfg)
	}

	r := NewRegistry()

	r.MustRegister("sig", func(ctx Context) (ugen.Generator, error) {
		return generator(ugen.NewSig(ctx.Server, ctx.Params.GetValue("value")))
	})
	r.MustRegister("sine", func(ctx Context) (ugen.Generator, error) {
		return generator(ugen.NewSine(ctx.Server, ugen.SineConfig{
			Freq:  ctx.Params.GetValue("freq"),
			Phase: ctx.Params.GetValue("phase"),
		}))
	})
	r.MustRegister("noise", func(ctx Context) (ugen.Generator, error) {
		seed := int64(ctx.Params.GetInt("seed", int(cfg.seed)))
		return generator(ugen.NewNoise(ctx.Server, ugen.NoiseConfig{Seed: seed}))
	})
	r.MustRegister("tape", func(ctx Context) (ugen.Generator, error) {
		return generator(ugen.NewTape(ctx.Server, ugen.TapeConfig{
			Samples: ctx.Params.GetList("samples"),
			Loop:    ctx.Params.GetBool("loop", false),
		}))
	})
	r.MustRegister("mix", func(ctx Context) (ugen.Generator, error) {
		return generator(ugen.NewMix(ctx.Server, ctx.Params.GetValues("inputs")...))
	})

	r.MustRegister("delay", func(ctx Context) (ugen.Generator, error) {
		return generator(ugen.NewDelay(ctx.Server, ugen.DelayConfig{
			Input:    ctx.Params.GetValue("input"),
			Delay:    ctx.Params.GetValue("delay"),
			Feedback: ctx.Params.GetValue("feedback"),
			MaxDelay: ctx.Params.GetNum("maxdelay", 0),
		}))
	})
	r.MustRegister("sdelay", func(ctx Context) (ugen.Generator, error) {
		return generator(ugen.NewSDelay(ctx.Server, ugen.SDelayConfig{
			Input:    ctx.Params.GetValue("input"),
			Delay:    ctx.Params.GetValue("delay"),
			MaxDelay: ctx.Params.GetNum("maxdelay", 0),
		}))
	})
	r.MustRegister("waveguide", func(ctx Context) (ugen.Generator, error) {
		return generator(ugen.NewWaveguide(ctx.Server, ugen.WaveguideConfig{
			Input:   ctx.Params.GetValue("input"),
			Freq:    ctx.Params.GetValue("freq"),
			Dur:     ctx.Params.GetValue("dur"),
			MinFreq: ctx.Params.GetNum("minfreq", 0),
		}))
	})
	r.MustRegister("allpasswg", func(ctx Context) (ugen.Generator, error) {
		return generator(ugen.NewAllpassWG(ctx.Server, ugen.AllpassWGConfig{
			Input:   ctx.Params.GetValue("input"),
			Freq:    ctx.Params.GetValue("freq"),
			Feed:    ctx.Params.GetValue("feed"),
			Detune:  ctx.Params.GetValue("detune"),
			MinFreq: ctx.Params.GetNum("minfreq", 0),
		}))
	})

	r.MustRegister("disto", func(ctx Context) (ugen.Generator, error) {
		return generator(ugen.NewDisto(ctx.Server, ugen.DistoConfig{
			Input: ctx.Params.GetValue("input"),
			Drive: ctx.Params.GetValue("drive"),
			Slope: ctx.Params.GetValue("slope"),
		}))
	})
	r.MustRegister("clip", func(ctx Context) (ugen.Generator, error) {
		return generator(ugen.NewClip(ctx.Server, ugen.ClipConfig{
			Input: ctx.Params.GetValue("input"),
			Min:   ctx.Params.GetValue("min"),
			Max:   ctx.Params.GetValue("max"),
		}))
	})
	r.MustRegister("degrade", func(ctx Context) (ugen.Generator, error) {
		return generator(ugen.NewDegrade(ctx.Server, ugen.DegradeConfig{
			Input:    ctx.Params.GetValue("input"),
			BitDepth: ctx.Params.GetValue("bitdepth"),
			SRScale:  ctx.Params.GetValue("srscale"),
		}))
	})

	r.MustRegister("fftmain", func(ctx Context) (ugen.Generator, error) {
		opts, err := fftOptions(ctx.Params)
		if err != nil {
			return nil, err
		}

		return generator(ugen.NewFFTMain(ctx.Server, ctx.Params.GetValue("input"), opts...))
	})
	r.MustRegister("fft", func(ctx Context) (ugen.Generator, error) {
		g, _ := ctx.Params.GetGenerator("main")

		main, ok := g.(*ugen.FFTMain)
		if !ok {
			return nil, errNotFFTMain
		}

		return generator(ugen.NewFFT(ctx.Server, main, ctx.Params.GetInt("lane", ugen.LaneReal)))
	})
	r.MustRegister("ifft", func(ctx Context) (ugen.Generator, error) {
		opts, err := fftOptions(ctx.Params)
		if err != nil {
			return nil, err
		}

		return generator(ugen.NewIFFT(ctx.Server,
			ctx.Params.GetValue("inreal"), ctx.Params.GetValue("inimag"), opts...))
	})
	r.MustRegister("cartopol", func(ctx Context) (ugen.Generator, error) {
		return generator(ugen.NewCarToPol(ctx.Server,
			ctx.Params.GetValue("inreal"), ctx.Params.GetValue("inimag")))
	})
	r.MustRegister("poltocar", func(ctx Context) (ugen.Generator, error) {
		return generator(ugen.NewPolToCar(ctx.Server,
			ctx.Params.GetValue("inmag"), ctx.Params.GetValue("inphase")))
	})
	r.MustRegister("framedelta", func(ctx Context) (ugen.Generator, error) {
		return generator(ugen.NewFrameDelta(ctx.Server, frameConfig(ctx.Params)))
	})
	r.MustRegister("frameaccum", func(ctx Context) (ugen.Generator, error) {
		return generator(ugen.NewFrameAccum(ctx.Server, frameConfig(ctx.Params)))
	})

	return r
}

// generator drops the typed nil a failed constructor returns.
func generator[G ugen.Generator](g G, err error) (ugen.Generator, error) {
	if err != nil {
		return nil, err
	}

	return g, nil
}

func frameConfig(p Params) ugen.FrameConfig {
	return ugen.FrameConfig{
		Inputs:    p.GetValues("inputs"),
		FrameSize: p.GetInt("framesize", 0),
	}
}

// fftOptions reads size, hop and wintype. The window may be given by
// name or by number.
func fftOptions(p Params) ([]ugen.FFTOption, error) {
	var opts []ugen.FFTOption

	if size := p.GetInt("size", 0); size != 0 {
		opts = append(opts, ugen.WithFFTSize(size))
	}

	if hop := p.GetInt("hop", 0); hop != 0 {
		opts = append(opts, ugen.WithHopOffset(hop))
	}

	if name, ok := p.Str["wintype"]; ok {
		t, err := window.Parse(name)
		if err != nil {
			return nil, err
		}

		opts = append(opts, ugen.WithWinType(t))
	} else if _, ok := p.Num["wintype"]; ok {
		t := window.Type(p.GetInt("wintype", int(window.TypeHann)))
		if !t.Valid() {
			return nil, fmt.Errorf("%w: %d", ugen.ErrInvalidWindow, t)
		}

		opts = append(opts, ugen.WithWinType(t))
	}

	return opts, nil
}
