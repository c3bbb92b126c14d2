package ugen

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-ugen/dsp/core"
	"github.com/cwbudde/algo-ugen/internal/testutil"
)

func TestWaveguideFeedbackFromDecay(t *testing.T) {
	tests := []struct {
		name string
		freq float64
		dur  float64
		want float64
	}{
		{"100Hz 1s", 100, 1, math.Pow(100, -0.01)},
		{"440Hz 2s", 440, 2, math.Pow(100, -(1.0/440)/2)},
		{"dur floor", 100, 0, math.Pow(100, -0.01/minWaveguideDur)},
		{"freq floor", 5, 1, math.Pow(100, -(1.0/defaultMinFreq))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, core.WithBlockSize(16))
			g := must(NewWaveguide(s, WaveguideConfig{Freq: Const(tt.freq), Dur: Const(tt.dur)}))(t)

			s.Tick()

			if math.Abs(g.Feedback()-tt.want) > 1e-12 {
				t.Fatalf("Feedback() = %v, want %v", g.Feedback(), tt.want)
			}
		})
	}
}

func TestWaveguideLoopDelay(t *testing.T) {
	const sr = 48000.0

	s := newTestServer(t, core.WithSampleRate(sr), core.WithBlockSize(64))
	in := newTape(t, s, testutil.Impulse(64, 0))

	// sr/480 - 0.5 = 99.5: taps at 99..103 samples behind the input.
	g := must(NewWaveguide(s, WaveguideConfig{Input: in, Freq: Const(480), Dur: Const(1)}))(t)

	got := collect(s, g, 0, 40)
	testutil.RequireFinite(t, got)

	testutil.RequireSilent(t, got[:99], 0)

	early := testutil.PeakAbs(got[99:110])
	if early < 0.1 {
		t.Fatalf("first round trip peak %v too small", early)
	}

	late := testutil.PeakAbs(got[len(got)-200:])

	if late >= early {
		t.Fatalf("no decay: early %v, late %v", early, late)
	}
}

func TestWaveguideSignalFreq(t *testing.T) {
	s := newTestServer(t, core.WithBlockSize(32))
	in := must(NewNoise(s, NoiseConfig{Seed: 4}))(t)
	freq := must(NewSine(s, SineConfig{Freq: Const(2)}))(t)
	freq.SetMul(Const(50))
	freq.SetAdd(Const(200))

	g := must(NewWaveguide(s, WaveguideConfig{Input: in, Freq: freq}))(t)
	if g.Mode() != 1 {
		t.Fatalf("Mode() = %d, want 1", g.Mode())
	}

	testutil.RequireFinite(t, collect(s, g, 0, 100))
}

func TestAllpassWGStable(t *testing.T) {
	for mode := range 8 {
		s := newTestServer(t, core.WithBlockSize(64))
		in := newTape(t, s, testutil.DeterministicNoise(int64(mode+1), 1, 512))

		g := must(NewAllpassWG(s, AllpassWGConfig{Input: in, Feed: Const(1), Detune: Const(1)}))(t)

		if mode&1 != 0 {
			g.SetFreq(must(NewSig(s, Const(150)))(t))
		}

		if mode&2 != 0 {
			g.SetFeed(must(NewSig(s, Const(1)))(t))
		}

		if mode&4 != 0 {
			g.SetDetune(must(NewSig(s, Const(0)))(t))
		}

		if g.Mode() != mode {
			t.Fatalf("Mode() = %d, want %d", g.Mode(), mode)
		}

		got := collect(s, g, 0, 200)
		testutil.RequireFinite(t, got)

		for i, v := range got {
			if math.Abs(v) > 10 {
				t.Fatalf("mode %d: got[%d] = %v, unstable", mode, i, v)
			}
		}
	}
}

func TestAllpassWGSilentWithoutInput(t *testing.T) {
	s := newTestServer(t)
	g := must(NewAllpassWG(s, AllpassWGConfig{}))(t)

	s.Tick()

	if !isSilent(g.Samples()) {
		t.Fatal("allpass waveguide without input is not silent")
	}
}

func TestWaveguideReset(t *testing.T) {
	s := newTestServer(t, core.WithBlockSize(64))
	in := newTape(t, s, testutil.DeterministicNoise(2, 1, 64))

	g := must(NewWaveguide(s, WaveguideConfig{Input: in, Freq: Const(1000)}))(t)

	s.Tick()
	g.Reset()
	s.Tick()

	if !isSilent(g.Samples()) {
		t.Fatal("reset waveguide still rings")
	}
}
