package ugen

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-ugen/dsp/core"
	"github.com/cwbudde/algo-ugen/dsp/window"
)

const defaultOverlaps = 4

// FFTBank is a set of overlapped analysis lanes. Lane i frames the input
// i*size/overlaps samples later than lane 0.
type FFTBank struct {
	mains []*FFTMain
}

// NewFFTBank returns overlaps FFTMain generators analyzing input. Any
// WithHopOffset option is ignored. Overlaps <= 0 selects 4.
func NewFFTBank(s *Server, input Value, overlaps int, opts ...FFTOption) (*FFTBank, error) {
	if overlaps <= 0 {
		overlaps = defaultOverlaps
	}

	cfg := applyFFTOptions(opts)
	if cfg.size < overlaps {
		return nil, fmt.Errorf("fftbank: %w: size %d smaller than %d overlaps", ErrShapeMismatch, cfg.size, overlaps)
	}

	bank := &FFTBank{mains: make([]*FFTMain, overlaps)}

	for i := range bank.mains {
		laneOpts := append(append([]FFTOption(nil), opts...), WithHopOffset(i*cfg.size/overlaps))

		m, err := NewFFTMain(s, input, laneOpts...)
		if err != nil {
			bank.remove(s)
			return nil, err
		}

		bank.mains[i] = m
	}

	return bank, nil
}

func (b *FFTBank) remove(s *Server) {
	for _, m := range b.mains {
		if m != nil {
			s.Remove(m)
		}
	}
}

// Overlaps returns the number of lanes.
func (b *FFTBank) Overlaps() int { return len(b.mains) }

// Main returns the analysis generator of lane i.
func (b *FFTBank) Main(i int) *FFTMain { return b.mains[i] }

// Size returns the frame size.
func (b *FFTBank) Size() int { return b.mains[0].Size() }

// Real returns the real-part stream of lane i.
func (b *FFTBank) Real(i int) Value { return Lane(b.mains[i], LaneReal) }

// Imag returns the imaginary-part stream of lane i.
func (b *FFTBank) Imag(i int) Value { return Lane(b.mains[i], LaneImag) }

// Bin returns the bin-index stream of lane i.
func (b *FFTBank) Bin(i int) Value { return Lane(b.mains[i], LaneBin) }

// Reals returns the real-part streams of all lanes.
func (b *FFTBank) Reals() []Value {
	out := make([]Value, len(b.mains))
	for i := range out {
		out[i] = b.Real(i)
	}

	return out
}

// Imags returns the imaginary-part streams of all lanes.
func (b *FFTBank) Imags() []Value {
	out := make([]Value, len(b.mains))
	for i := range out {
		out[i] = b.Imag(i)
	}

	return out
}

// SetSize resizes every lane, keeping the overlap spacing. A size that is
// not a power of two leaves every lane unchanged.
func (b *FFTBank) SetSize(size int) error {
	if !validBankSize(size, len(b.mains)) {
		err := fmt.Errorf("%w: %d", ErrNotPowerOfTwo, size)
		b.mains[0].warn("fft bank resize rejected", "size", size)

		return err
	}

	var errs []error
	for i, m := range b.mains {
		errs = append(errs, m.SetSize(size, i*size/len(b.mains)))
	}

	return errors.Join(errs...)
}

// SetWinType sets the analysis window of every lane.
func (b *FFTBank) SetWinType(t window.Type) error {
	var errs []error
	for _, m := range b.mains {
		errs = append(errs, m.SetWinType(t))
	}

	return errors.Join(errs...)
}

// IFFTBank resynthesizes overlapped lanes and mixes them with the overlap
// gain of the window removed.
type IFFTBank struct {
	iffts []*IFFT
	mix   *Mix
	win   window.Type
}

// NewIFFTBank returns one IFFT per (real, imag) pair plus the Mix summing
// them. Options must match the analysis side.
func NewIFFTBank(s *Server, reals, imags []Value, opts ...FFTOption) (*IFFTBank, error) {
	if len(reals) != len(imags) || len(reals) == 0 {
		return nil, fmt.Errorf("ifftbank: %w: %d real and %d imaginary streams", ErrShapeMismatch, len(reals), len(imags))
	}

	cfg := applyFFTOptions(opts)
	overlaps := len(reals)

	if cfg.size < overlaps {
		return nil, fmt.Errorf("ifftbank: %w: size %d smaller than %d overlaps", ErrShapeMismatch, cfg.size, overlaps)
	}

	bank := &IFFTBank{iffts: make([]*IFFT, overlaps), win: cfg.win}
	outs := make([]Value, overlaps)

	for i := range bank.iffts {
		laneOpts := append(append([]FFTOption(nil), opts...), WithHopOffset(i*cfg.size/overlaps))

		g, err := NewIFFT(s, reals[i], imags[i], laneOpts...)
		if err != nil {
			bank.remove(s)
			return nil, err
		}

		bank.iffts[i] = g
		outs[i] = g
	}

	mix, err := NewMix(s, outs...)
	if err != nil {
		bank.remove(s)
		return nil, err
	}

	bank.mix = mix
	bank.normalize()

	return bank, nil
}

func (b *IFFTBank) remove(s *Server) {
	for _, g := range b.iffts {
		if g != nil {
			s.Remove(g)
		}
	}
}

// normalize scales the mix by the inverse overlap-add gain of the window.
func (b *IFFTBank) normalize() {
	size := b.iffts[0].Size()
	coeffs := window.Generate(b.win, size, window.WithPeriodic())

	gain := window.OverlapAddGain(coeffs, size/len(b.iffts))
	if gain <= 0 {
		gain = 1
	}

	b.mix.SetMul(Const(1 / gain))
}

// Output returns the mixed resynthesis.
func (b *IFFTBank) Output() *Mix { return b.mix }

// IFFT returns the synthesis generator of lane i.
func (b *IFFTBank) IFFT(i int) *IFFT { return b.iffts[i] }

// Overlaps returns the number of lanes.
func (b *IFFTBank) Overlaps() int { return len(b.iffts) }

// SetSize resizes every lane, keeping the overlap spacing.
func (b *IFFTBank) SetSize(size int) error {
	if !validBankSize(size, len(b.iffts)) {
		err := fmt.Errorf("%w: %d", ErrNotPowerOfTwo, size)
		b.iffts[0].warn("ifft bank resize rejected", "size", size)

		return err
	}

	var errs []error
	for i, g := range b.iffts {
		errs = append(errs, g.SetSize(size, i*size/len(b.iffts)))
	}

	b.normalize()

	return errors.Join(errs...)
}

// SetWinType sets the synthesis window of every lane.
func (b *IFFTBank) SetWinType(t window.Type) error {
	var errs []error
	for _, g := range b.iffts {
		errs = append(errs, g.SetWinType(t))
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}

	b.win = t
	b.normalize()

	return nil
}

func validBankSize(size, overlaps int) bool {
	return size >= overlaps && core.IsPowerOfTwo(size)
}
