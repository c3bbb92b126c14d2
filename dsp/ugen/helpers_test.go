package ugen

import (
	"io"
	"log/slog"
	"testing"

	"github.com/cwbudde/algo-ugen/dsp/core"
)

func newTestServer(t testing.TB, opts ...core.ProcessorOption) *Server {
	t.Helper()

	s := NewServer(opts...)
	s.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	return s
}

// must unwraps a constructor result, failing t on error:
// must(NewDelay(s, cfg))(t).
func must[T any](v T, err error) func(testing.TB) T {
	return func(t testing.TB) T {
		t.Helper()

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		return v
	}
}

func newTape(t testing.TB, s *Server, samples []float64) *Tape {
	t.Helper()
	return must(NewTape(s, TapeConfig{Samples: samples}))(t)
}

// collect runs ticks passes and concatenates lane i of g.
func collect(s *Server, g Generator, lane, ticks int) []float64 {
	out := make([]float64, 0, ticks*s.BufferSize())
	for range ticks {
		s.Tick()
		out = append(out, g.LaneSamples(lane)...)
	}

	return out
}

func ramp(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}

	return out
}
