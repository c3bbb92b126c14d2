package window_test

import (
	"fmt"

	"github.com/cwbudde/algo-ugen/dsp/window"
)

func ExampleOverlapAddGain() {
	w := window.Generate(window.TypeHann, 512, window.WithPeriodic())
	fmt.Printf("%.3f\n", window.OverlapAddGain(w, 128))

	// Output:
	// 1.500
}
