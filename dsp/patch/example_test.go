package patch_test

import (
	"fmt"
	"strings"

	"github.com/cwbudde/algo-ugen/dsp/core"
	"github.com/cwbudde/algo-ugen/dsp/patch"
	"github.com/cwbudde/algo-ugen/dsp/ugen"
)

func ExamplePatch_Build() {
	const src = `{"nodes": [
		{"id": "echo", "type": "sdelay", "params": {"input": "@click", "delay": 0.002}, "out": 0},
		{"id": "click", "type": "tape", "params": {"samples": [1, 0.5]}}
	]}`

	p, err := patch.Load(strings.NewReader(src))
	if err != nil {
		fmt.Println(err)
		return
	}

	s := ugen.NewServer(core.WithSampleRate(1000), core.WithBlockSize(3), core.WithChannels(1))

	g, err := p.Build(s, nil)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(g.Order())
	fmt.Println(s.Render(6)[0])
	// Output:
	// [click echo]
	// [0 0 1 0.5 0 0]
}
