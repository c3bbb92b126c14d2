// Package window generates the analysis/synthesis window tables used for
// FFT framing and computes their overlap-add gain.
package window

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-vecmath"
)

// Type identifies a window function. The numbering is the one exposed to
// patches through the FFT generators' wintype parameter.
type Type int

const (
	TypeRectangular Type = iota
	TypeHamming
	TypeHann
	TypeBartlett
	TypeBlackman
	TypeBlackmanHarris4Term
	TypeBlackmanHarris7Term
	TypeTukey
	TypeSine
)

var (
	hammingCoeffs         = []float64{0.54, -0.46}
	hannCoeffs            = []float64{0.5, -0.5}
	blackmanCoeffs        = []float64{0.42, -0.5, 0.08}
	blackmanHarris4Coeffs = []float64{0.35875, -0.48829, 0.14128, -0.01168}
	blackmanHarris7Coeffs = []float64{
		0.27105140069342, -0.43329793923448, 0.21812299954311, -0.06592544638803,
		0.01081174209837, -0.00077658482522, 0.00001388721735,
	}
)

const defaultTukeyAlpha = 0.66

var names = map[Type]string{
	TypeRectangular:         "rectangular",
	TypeHamming:             "hamming",
	TypeHann:                "hann",
	TypeBartlett:            "bartlett",
	TypeBlackman:            "blackman",
	TypeBlackmanHarris4Term: "blackman-harris-4t",
	TypeBlackmanHarris7Term: "blackman-harris-7t",
	TypeTukey:               "tukey",
	TypeSine:                "sine",
}

// String returns the window name.
func (t Type) String() string {
	if n, ok := names[t]; ok {
		return n
	}

	return fmt.Sprintf("window(%d)", int(t))
}

// Valid reports whether t names a known window.
func (t Type) Valid() bool {
	_, ok := names[t]
	return ok
}

// Parse returns the window type named s, as printed by String.
func Parse(s string) (Type, error) {
	for t, n := range names {
		if strings.EqualFold(n, s) {
			return t, nil
		}
	}

	return 0, fmt.Errorf("unknown window %q", s)
}

// Option configures window generation.
type Option func(*config)

type config struct {
	alpha    float64
	periodic bool
}

func defaultConfig() config {
	return config{alpha: defaultTukeyAlpha}
}

// WithAlpha configures the taper ratio of the Tukey window.
func WithAlpha(v float64) Option {
	return func(c *config) {
		if v >= 0 && v <= 1 {
			c.alpha = v
		}
	}
}

// WithPeriodic configures periodic form (FFT framing) instead of symmetric form.
func WithPeriodic() Option {
	return func(c *config) {
		c.periodic = true
	}
}

// Generate returns window coefficients of the given length. Unknown types
// yield a rectangular window.
func Generate(t Type, length int, opts ...Option) []float64 {
	if length <= 0 {
		return nil
	}

	cfg := defaultConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	out := make([]float64, length)
	for i := range out {
		out[i] = evalWindow(t, samplePosition(i, length, cfg.periodic), cfg)
	}

	return out
}

// Apply multiplies buf in place by coeffs. Lengths must match.
func Apply(buf, coeffs []float64) error {
	if len(buf) != len(coeffs) {
		return fmt.Errorf("window: length mismatch: %d samples, %d coefficients", len(buf), len(coeffs))
	}

	vecmath.MulBlockInPlace(buf, coeffs)

	return nil
}

// OverlapAddGain returns the mean of sum_k w[n+k*hop]^2 over one hop, the
// gain an analysis-window/synthesis-window overlap-add chain applies to a
// signal. Dividing by it restores unity gain.
func OverlapAddGain(coeffs []float64, hop int) float64 {
	if len(coeffs) == 0 || hop <= 0 {
		return 0
	}

	sq := make([]float64, len(coeffs))
	vecmath.MulBlock(sq, coeffs, coeffs)

	total := 0.0
	for _, v := range sq {
		total += v
	}

	return total / float64(hop)
}

func evalWindow(t Type, x float64, cfg config) float64 {
	if x < 0 {
		x = 0
	}

	if x > 1 {
		x = 1
	}

	switch t {
	case TypeRectangular:
		return 1
	case TypeHamming:
		return cosineFromCoeffs(x, hammingCoeffs)
	case TypeHann:
		return cosineFromCoeffs(x, hannCoeffs)
	case TypeBartlett:
		return 1 - math.Abs(2*x-1)
	case TypeBlackman:
		return cosineFromCoeffs(x, blackmanCoeffs)
	case TypeBlackmanHarris4Term:
		return cosineFromCoeffs(x, blackmanHarris4Coeffs)
	case TypeBlackmanHarris7Term:
		return cosineFromCoeffs(x, blackmanHarris7Coeffs)
	case TypeTukey:
		return tukeyAt(x, cfg.alpha)
	case TypeSine:
		return math.Sin(math.Pi * x)
	default:
		return 1
	}
}

func cosineFromCoeffs(x float64, coeffs []float64) float64 {
	phase := 2 * math.Pi * x

	sum := 0.0
	for k, c := range coeffs {
		sum += c * math.Cos(float64(k)*phase)
	}

	return sum
}

func tukeyAt(x, alpha float64) float64 {
	if alpha <= 0 {
		return 1
	}

	if alpha >= 1 {
		return cosineFromCoeffs(x, hannCoeffs)
	}

	a := alpha / 2
	switch {
	case x < a:
		return 0.5 * (1 + math.Cos(math.Pi*(2*x/alpha-1)))
	case x <= 1-a:
		return 1
	default:
		return 0.5 * (1 + math.Cos(math.Pi*(2*x/alpha-2/alpha+1)))
	}
}

func samplePosition(n, size int, periodic bool) float64 {
	if size <= 1 {
		return 0
	}

	den := float64(size - 1)
	if periodic {
		den = float64(size)
	}

	return float64(n) / den
}
