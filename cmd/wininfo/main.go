// Command wininfo prints the properties of the FFT generator windows that
// matter for overlap-add resynthesis.
//
// Usage:
//
//	wininfo [flags] [window-name ...]
//
// Without arguments it prints info for all known window types.
//
// Examples:
//
//	wininfo hann
//	wininfo -size 2048 -overlaps 8 hann blackman
//	wininfo -list
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/algo-ugen/dsp/core"
	"github.com/cwbudde/algo-ugen/dsp/window"
)

// allTypes lists the windows in their patch numbering order.
var allTypes = []window.Type{
	window.TypeRectangular,
	window.TypeHamming,
	window.TypeHann,
	window.TypeBartlett,
	window.TypeBlackman,
	window.TypeBlackmanHarris4Term,
	window.TypeBlackmanHarris7Term,
	window.TypeTukey,
	window.TypeSine,
}

type row struct {
	typ       window.Type
	coherent  float64 // mean coefficient
	power     float64 // mean squared coefficient
	olaGain   float64 // sum of squared coefficients per hop
	olaRipple float64 // relative deviation of the overlap-added w^2 sum
}

func main() {
	size := flag.Int("size", 1024, "window length in samples (power of two)")
	overlaps := flag.Int("overlaps", 4, "number of overlapping frames per window length")
	list := flag.Bool("list", false, "list available window names")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: wininfo [flags] [window-name ...]\n\n")
		fmt.Fprintf(os.Stderr, "Prints overlap-add properties of the FFT generator windows.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *list {
		for _, t := range allTypes {
			fmt.Printf("%d\t%s\n", int(t), t)
		}

		return
	}

	if !core.IsPowerOfTwo(*size) || *overlaps <= 0 || *size%*overlaps != 0 {
		fmt.Fprintf(os.Stderr, "error: size must be a power of two divisible by overlaps\n")
		os.Exit(2)
	}

	types := resolve(flag.Args())
	if len(types) == 0 {
		fmt.Fprintf(os.Stderr, "error: no matching window types\n")
		os.Exit(1)
	}

	rows := make([]row, len(types))
	for i, t := range types {
		rows[i] = analyze(t, *size, *size / *overlaps)
	}

	if err := printRows(os.Stdout, rows, *size, *overlaps); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func resolve(names []string) []window.Type {
	if len(names) == 0 {
		return allTypes
	}

	var out []window.Type

	for _, name := range names {
		t, err := window.Parse(strings.TrimSpace(name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v (use -list to see available)\n", err)
			continue
		}

		out = append(out, t)
	}

	return out
}

// analyze measures the periodic window the FFT generators use.
func analyze(t window.Type, size, hop int) row {
	coeffs := window.Generate(t, size, window.WithPeriodic())

	r := row{typ: t, olaGain: window.OverlapAddGain(coeffs, hop)}

	for _, w := range coeffs {
		r.coherent += w
		r.power += w * w
	}

	r.coherent /= float64(size)
	r.power /= float64(size)

	// Sum w^2 over all hop-shifted copies and compare the extremes.
	sum := make([]float64, hop)
	for i, w := range coeffs {
		sum[i%hop] += w * w
	}

	lo, hi := sum[0], sum[0]
	for _, v := range sum[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	if hi > 0 {
		r.olaRipple = (hi - lo) / hi
	}

	return r
}

func printRows(w io.Writer, rows []row, size, overlaps int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if _, err := fmt.Fprintf(tw, "Window\tSize\tOverlaps\tCoherent Gain\tPower\tOLA Gain\tOLA Ripple\n"); err != nil {
		return err
	}

	for _, r := range rows {
		if _, err := fmt.Fprintf(tw, "%s\t%d\t%d\t%.6f\t%.6f\t%.6f\t%.2e\n",
			r.typ, size, overlaps, r.coherent, r.power, r.olaGain, r.olaRipple); err != nil {
			return err
		}
	}

	return tw.Flush()
}
