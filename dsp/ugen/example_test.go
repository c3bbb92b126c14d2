package ugen_test

import (
	"fmt"

	"github.com/cwbudde/algo-ugen/dsp/core"
	"github.com/cwbudde/algo-ugen/dsp/ugen"
)

func ExampleDelay() {
	s := ugen.NewServer(core.WithSampleRate(1000), core.WithBlockSize(8))

	in, _ := ugen.NewTape(s, ugen.TapeConfig{Samples: []float64{1}})
	d, _ := ugen.NewDelay(s, ugen.DelayConfig{Input: in, Delay: ugen.Const(0.003), Feedback: ugen.Const(0.5)})

	s.Tick()
	fmt.Println(d.Samples())

	// Output:
	// [0 0 0 1 0 0 0.5 0]
}

func ExampleBase_Play() {
	s := ugen.NewServer(core.WithSampleRate(1000), core.WithBlockSize(10))

	g, _ := ugen.NewSig(s, ugen.Const(1))
	g.Play(0.03, 0.02)

	for range 6 {
		s.Tick()
		fmt.Print(g.State(), " ")
	}

	fmt.Println()

	// Output:
	// armed active active active idle idle
}

func ExampleBase_SetMul() {
	s := ugen.NewServer(core.WithBlockSize(4))

	lfo, _ := ugen.NewTape(s, ugen.TapeConfig{Samples: []float64{1, 2, 3, 4}})
	g, _ := ugen.NewSig(s, ugen.Const(0.5))
	g.SetMul(lfo)
	g.SetSub(ugen.Const(1))

	s.Tick()
	fmt.Println(g.Samples(), g.PostMode())

	// Output:
	// [-0.5 0 0.5 1] 1
}
