package meter

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-ugen/internal/testutil"
)

func TestMeterSine(t *testing.T) {
	var m Meter

	// Whole periods: 100 Hz at 48 kHz, 480 samples per period.
	for _, block := range testutil.Blocks(testutil.DeterministicSine(100, 48000, 0.5, 4800), 256) {
		m.Update(block)
	}

	l := m.Levels()

	// Blocks zero-pads the last block to 256 samples.
	if l.Frames != 19*256 {
		t.Fatalf("Frames = %d", l.Frames)
	}

	if math.Abs(l.Peak-0.5) > 1e-12 {
		t.Fatalf("Peak = %v, want 0.5", l.Peak)
	}

	if l.PeakPos != 120 {
		t.Fatalf("PeakPos = %d, want 120", l.PeakPos)
	}

	wantRMS := 0.5 / math.Sqrt2 * math.Sqrt(4800.0/float64(l.Frames))
	if math.Abs(l.RMS-wantRMS) > 1e-9 {
		t.Fatalf("RMS = %v, want %v", l.RMS, wantRMS)
	}

	if math.Abs(l.Crest-l.Peak/l.RMS) > 1e-12 {
		t.Fatalf("Crest = %v", l.Crest)
	}

	if l.Clipped != 0 {
		t.Fatalf("Clipped = %d", l.Clipped)
	}
}

func TestMeterDCAndClipping(t *testing.T) {
	var m Meter

	m.Update(testutil.DC(1.5, 10))
	m.Update(testutil.DC(-0.5, 10))

	l := m.Levels()
	if l.DC != 0.5 || l.Peak != 1.5 || l.PeakPos != 0 || l.Clipped != 10 {
		t.Fatalf("Levels = %+v", l)
	}
}

func TestMeterEmptyAndReset(t *testing.T) {
	var m Meter

	l := m.Levels()
	if !math.IsInf(l.PeakdB, -1) || !math.IsInf(l.RMSdB, -1) || l.Frames != 0 {
		t.Fatalf("empty Levels = %+v", l)
	}

	m.Update(testutil.Ones(4))
	m.Reset()

	if m.Levels().Frames != 0 {
		t.Fatal("Reset did not clear the meter")
	}
}

func TestDBConversions(t *testing.T) {
	if got := AmpToDB(0.1); math.Abs(got+20) > 1e-12 {
		t.Fatalf("AmpToDB(0.1) = %v", got)
	}

	if got := DBToAmp(-6); math.Abs(AmpToDB(got)+6) > 1e-12 {
		t.Fatalf("DBToAmp round trip = %v", got)
	}

	if !math.IsInf(AmpToDB(0), -1) {
		t.Fatal("AmpToDB(0) should be -Inf")
	}
}
