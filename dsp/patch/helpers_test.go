package patch

import (
	"io"
	"log/slog"
	"testing"

	"github.com/cwbudde/algo-ugen/dsp/core"
	"github.com/cwbudde/algo-ugen/dsp/ugen"
)

func newTestServer(t testing.TB, opts ...core.ProcessorOption) *ugen.Server {
	t.Helper()

	s := ugen.NewServer(opts...)
	s.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	return s
}

func mustParse(t testing.TB, src string) *Patch {
	t.Helper()

	p, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	return p
}

func mustBuild(t testing.TB, s *ugen.Server, src string) *Graph {
	t.Helper()

	g, err := mustParse(t, src).Build(s, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	return g
}
