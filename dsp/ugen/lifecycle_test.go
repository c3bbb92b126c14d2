package ugen

import (
	"testing"

	"github.com/cwbudde/algo-ugen/dsp/core"
)

func TestPlayDurationStopsAtTickCount(t *testing.T) {
	s := newTestServer(t, core.WithSampleRate(44100), core.WithBlockSize(64))

	g := must(NewSig(s, Const(1)))(t)
	g.Play(0.05, 0)

	want := core.SecondsToTicks(0.05, 44100, 64)
	if want != 34 {
		t.Fatalf("tick count = %d, want 34", want)
	}

	for tick := 1; tick < want; tick++ {
		s.Tick()

		if g.State() != StateActive {
			t.Fatalf("tick %d: state = %v, want active", tick, g.State())
		}

		if g.Samples()[0] != 1 {
			t.Fatalf("tick %d: output silent while active", tick)
		}
	}

	s.Tick()

	if g.State() != StateIdle {
		t.Fatalf("state after %d ticks = %v, want idle", want, g.State())
	}

	if !isSilent(g.Samples()) {
		t.Fatal("buffer not zeroed on timed stop")
	}

	s.Tick()

	if !isSilent(g.Samples()) {
		t.Fatal("stopped generator produced output")
	}
}

func TestPlayDelayArmsForTicks(t *testing.T) {
	s := newTestServer(t, core.WithSampleRate(48000), core.WithBlockSize(256))

	g := must(NewSig(s, Const(1)))(t)
	g.Play(0, 0.016) // 3 buffers

	if g.State() != StateArmed {
		t.Fatalf("state = %v, want armed", g.State())
	}

	for tick := 1; tick <= 3; tick++ {
		s.Tick()

		if !isSilent(g.Samples()) {
			t.Fatalf("tick %d: armed generator not silent", tick)
		}
	}

	if g.State() != StateActive {
		t.Fatalf("state after wait = %v, want active", g.State())
	}

	s.Tick()

	if g.Samples()[0] != 1 {
		t.Fatal("generator silent after wait elapsed")
	}
}

func TestPlayDelayThenDuration(t *testing.T) {
	s := newTestServer(t, core.WithSampleRate(1000), core.WithBlockSize(10))

	g := must(NewSig(s, Const(1)))(t)
	g.Out(0, 0.02, 0.03) // wait 3 ticks, then 2 active ticks

	var active int

	for range 10 {
		s.Tick()

		if s.Output()[0][0] == 1 {
			active++
		}
	}

	if active != 2 {
		t.Fatalf("active ticks = %d, want 2", active)
	}

	if g.State() != StateIdle || g.Channel() != -1 {
		t.Fatalf("state = %v channel = %d after run", g.State(), g.Channel())
	}
}

func TestStopIsIdempotent(t *testing.T) {
	s := newTestServer(t, core.WithBlockSize(8))

	g := must(NewSig(s, Const(1)))(t)
	g.Out(1, 0, 0)
	s.Tick()

	g.Stop()
	g.Stop()

	if g.State() != StateIdle || g.Channel() != -1 || !isSilent(g.Samples()) {
		t.Fatalf("unexpected state after stop: %v ch=%d", g.State(), g.Channel())
	}

	s.Tick()

	if !isSilent(s.Output()[1]) {
		t.Fatal("stopped generator still mixed")
	}
}

func TestZeroDurationRunsIndefinitely(t *testing.T) {
	s := newTestServer(t, core.WithBlockSize(8))

	g := must(NewSig(s, Const(1)))(t)
	g.Play(0, 0)

	for range 1000 {
		s.Tick()
	}

	if g.State() != StateActive {
		t.Fatalf("state = %v, want active", g.State())
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "idle"},
		{StateArmed, "armed"},
		{StateActive, "active"},
		{StateStopping, "stopping"},
		{State(42), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Fatalf("String() = %q, want %q", got, tt.want)
		}
	}
}
