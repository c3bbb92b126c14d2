package ugen

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-ugen/dsp/core"
	"github.com/cwbudde/algo-ugen/internal/testutil"
)

func TestFrameAccumInvertsFrameDelta(t *testing.T) {
	const (
		overlaps  = 4
		frameSize = 32
		n         = 16 * frameSize
	)

	s := newTestServer(t, core.WithBlockSize(16))

	phases := make([][]float64, overlaps)
	inputs := make([]Value, overlaps)

	for j := range overlaps {
		phases[j] = testutil.DeterministicNoise(int64(j+1), 3*math.Pi, n)
		inputs[j] = newTape(t, s, phases[j])
	}

	delta := must(NewFrameDelta(s, FrameConfig{Inputs: inputs, FrameSize: frameSize}))(t)

	lanes := make([]Value, overlaps)
	for j := range lanes {
		lanes[j] = Lane(delta, j)
	}

	accum := must(NewFrameAccum(s, FrameConfig{Inputs: lanes, FrameSize: frameSize}))(t)

	got := make([][]float64, overlaps)
	diffs := make([][]float64, overlaps)

	for range n / 16 {
		s.Tick()

		for j := range overlaps {
			got[j] = append(got[j], accum.LaneSamples(j)...)
			diffs[j] = append(diffs[j], delta.LaneSamples(j)...)
		}
	}

	for j := range overlaps {
		for i := range n {
			if d := diffs[j][i]; d <= -math.Pi || d > math.Pi {
				t.Fatalf("delta lane %d sample %d = %v outside (-pi, pi]", j, i, d)
			}

			if e := core.WrapPhase(math.Mod(got[j][i]-phases[j][i], 2*math.Pi)); math.Abs(e) > 1e-9 {
				t.Fatalf("lane %d sample %d: accum %v, phase %v", j, i, got[j][i], phases[j][i])
			}
		}
	}
}

func TestFrameDeltaComparesPreviousHop(t *testing.T) {
	const frameSize = 8

	s := newTestServer(t, core.WithBlockSize(frameSize))

	// Two lanes, hop 4. Lane 1 at time t is compared with lane 0 at t-4.
	a := newTape(t, s, ramp(16, 0, 0.1))
	b := newTape(t, s, ramp(16, 0, 0.2))

	delta := must(NewFrameDelta(s, FrameConfig{Inputs: []Value{a, b}, FrameSize: frameSize}))(t)

	l1 := collect(s, delta, 1, 2)

	for i := 4; i < 16; i++ {
		want := 0.2*float64(i) - 0.1*float64(i-4)
		if math.Abs(l1[i]-want) > 1e-12 {
			t.Fatalf("lane 1 sample %d = %v, want %v", i, l1[i], want)
		}
	}
}

func TestFrameDeltaLargePhases(t *testing.T) {
	const frameSize = 8

	s := newTestServer(t, core.WithBlockSize(frameSize))

	a := must(NewSig(s, Const(1e15)))(t)
	b := must(NewSig(s, Const(-1e300)))(t)
	inf := must(NewSig(s, Const(math.Inf(1))))(t)

	delta := must(NewFrameDelta(s, FrameConfig{Inputs: []Value{a, b}, FrameSize: frameSize}))(t)
	wild := must(NewFrameDelta(s, FrameConfig{Inputs: []Value{inf, inf}, FrameSize: frameSize}))(t)

	for range 4 {
		s.Tick()
	}

	for j := range 2 {
		for i, d := range delta.LaneSamples(j) {
			if !(d > -math.Pi && d <= math.Pi) {
				t.Fatalf("lane %d sample %d = %v outside (-pi, pi]", j, i, d)
			}
		}
	}

	if wild.State() != StateActive {
		t.Fatalf("state = %v, want active", wild.State())
	}
}

func TestFrameSetInputsShapeMismatch(t *testing.T) {
	s := newTestServer(t)
	a := must(NewSig(s, Const(0)))(t)

	g := must(NewFrameDelta(s, FrameConfig{Inputs: []Value{a, a}}))(t)

	if err := g.SetInputs(a); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("err = %v, want ErrShapeMismatch", err)
	}

	if err := g.SetInputs(a, Const(1)); err != nil {
		t.Fatal(err)
	}

	if g.FrameSize() != defaultFFTSize || g.Lanes() != 2 {
		t.Fatalf("unexpected shape: frame %d lanes %d", g.FrameSize(), g.Lanes())
	}

	if err := g.SetFrameSize(1); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("err = %v, want ErrShapeMismatch", err)
	}

	if _, err := NewFrameAccum(s, FrameConfig{}); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("err = %v, want ErrShapeMismatch", err)
	}
}

func TestCarToPolPolToCar(t *testing.T) {
	const n = 64

	s := newTestServer(t, core.WithBlockSize(n))
	re := testutil.DeterministicNoise(1, 5, n)
	im := testutil.DeterministicNoise(2, 5, n)

	pol := must(NewCarToPol(s, newTape(t, s, re), newTape(t, s, im)))(t)
	car := must(NewPolToCar(s, Lane(pol, LaneMag), Lane(pol, LanePhase)))(t)

	s.Tick()

	mag := pol.LaneSamples(LaneMag)
	phase := pol.LaneSamples(LanePhase)

	for i := range n {
		if math.Abs(mag[i]-math.Hypot(re[i], im[i])) > 1e-12 {
			t.Fatalf("mag[%d] = %v", i, mag[i])
		}

		if math.Abs(phase[i]-math.Atan2(im[i], re[i])) > 1e-15 {
			t.Fatalf("phase[%d] = %v", i, phase[i])
		}
	}

	testutil.RequireSliceNearlyEqual(t, car.LaneSamples(LaneReal), re, 1e-12)
	testutil.RequireSliceNearlyEqual(t, car.LaneSamples(LaneImag), im, 1e-12)
}
