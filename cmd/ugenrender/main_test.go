package main

import (
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-ugen/dsp/patch"
	"github.com/go-audio/wav"
)

func decodeWAV(t *testing.T, path string) (*wav.Decoder, []int) {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	t.Cleanup(func() { _ = f.Close() })

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		t.Fatal("output is not a valid WAV file")
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	return d, buf.Data
}

func TestRunWritesWAV(t *testing.T) {
	dir := t.TempDir()
	patchPath := filepath.Join(dir, "dc.json")
	outPath := filepath.Join(dir, "dc.wav")

	src := `{"nodes": [{"id": "dc", "type": "sig", "params": {"value": 0.5}, "out": 1}]}`
	if err := os.WriteFile(patchPath, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}

	err := run(options{
		patch:     patchPath,
		output:    outPath,
		seconds:   0.05,
		rate:      1000,
		block:     10,
		channels:  2,
		normalize: math.NaN(),
	}, io.Discard)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	d, data := decodeWAV(t, outPath)

	if d.SampleRate != 1000 || d.NumChans != 2 || d.BitDepth != 16 {
		t.Fatalf("format = %d Hz, %d ch, %d bit", d.SampleRate, d.NumChans, d.BitDepth)
	}

	if len(data) != 100 {
		t.Fatalf("got %d samples, want 100", len(data))
	}

	for i := 0; i < len(data); i += 2 {
		if data[i] != 0 || data[i+1] != 16384 {
			t.Fatalf("frame %d = (%d, %d), want (0, 16384)", i/2, data[i], data[i+1])
		}
	}
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()

	err := run(options{patch: filepath.Join(dir, "missing.json"), seconds: 1, rate: 1000, block: 10, channels: 1}, io.Discard)
	if err == nil {
		t.Fatal("expected error for missing patch file")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"nodes": [{"id": "x", "type": "nope"}]}`), 0o600); err != nil {
		t.Fatal(err)
	}

	err = run(options{patch: bad, output: filepath.Join(dir, "x.wav"), seconds: 1, rate: 1000, block: 10, channels: 1}, io.Discard)
	if err == nil {
		t.Fatal("expected error for unknown generator type")
	}
}

func TestRenderRejectsZeroLength(t *testing.T) {
	p, err := patch.Parse([]byte(`{"nodes": []}`))
	if err != nil {
		t.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if _, err := render(p, options{seconds: 0, rate: 1000, block: 10, channels: 1}, logger); err == nil {
		t.Fatal("expected error for zero seconds")
	}
}

func TestWriteWAVClips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := writeWAV(f, [][]float64{{2, -2, 0.25}}, 8000, quantizer{}); err != nil {
		t.Fatalf("writeWAV: %v", err)
	}

	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	_, data := decodeWAV(t, path)

	want := []int{32767, -32767, 8192}
	for i, v := range want {
		if data[i] != v {
			t.Fatalf("sample %d = %d, want %d", i, data[i], v)
		}
	}
}

func TestNormalize(t *testing.T) {
	channels := [][]float64{{0.1, -0.4}, {0.2, 0}}

	gain := normalize(channels, measure(channels), 0.8)
	if gain != 2 {
		t.Fatalf("gain = %v, want 2", gain)
	}

	if channels[0][1] != -0.8 || channels[1][0] != 0.4 {
		t.Fatalf("channels = %v", channels)
	}

	silent := [][]float64{{0, 0}}
	if g := normalize(silent, measure(silent), 1); g != 1 {
		t.Fatalf("silent gain = %v, want 1", g)
	}
}

func TestRunNormalizes(t *testing.T) {
	dir := t.TempDir()
	patchPath := filepath.Join(dir, "dc.json")
	outPath := filepath.Join(dir, "dc.wav")

	src := `{"nodes": [{"id": "dc", "type": "sig", "params": {"value": 0.25}, "out": 0}]}`
	if err := os.WriteFile(patchPath, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}

	err := run(options{
		patch:     patchPath,
		output:    outPath,
		seconds:   0.01,
		rate:      1000,
		block:     10,
		channels:  1,
		normalize: 0,
	}, io.Discard)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	_, data := decodeWAV(t, outPath)
	for i, v := range data {
		if v != 32767 {
			t.Fatalf("sample %d = %d, want full scale", i, v)
		}
	}
}

func TestRenderRejectsBadConfig(t *testing.T) {
	p, err := patch.Parse([]byte(`{"nodes": []}`))
	if err != nil {
		t.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	for _, opts := range []options{
		{seconds: 1, rate: -1, block: 10, channels: 1},
		{seconds: 1, rate: 1000, block: 0, channels: 1},
		{seconds: 1, rate: 1000, block: 10, channels: 0},
	} {
		if _, err := render(p, opts, logger); err == nil {
			t.Fatalf("render(%+v) succeeded", opts)
		}
	}
}

func TestQuantizerDither(t *testing.T) {
	plain := newQuantizer(false, 0)
	if got := plain.quantize(0.25); got != 8192 {
		t.Fatalf("undithered quantize(0.25) = %d, want 8192", got)
	}

	q := newQuantizer(true, 7)
	seen := map[int]bool{}

	for range 1000 {
		v := q.quantize(0.25)
		if v < 8191 || v > 8193 {
			t.Fatalf("dithered value %d more than one LSB off", v)
		}

		seen[v] = true
	}

	if len(seen) < 2 {
		t.Fatal("dither produced a constant output")
	}

	if got := q.quantize(1); got > fullScale {
		t.Fatalf("dithered full scale %d exceeds %d", got, fullScale)
	}
}
