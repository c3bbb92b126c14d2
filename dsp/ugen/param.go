package ugen

import "fmt"

// Handle identifies a generator on its server. Handles are never reused.
type Handle uint64

type paramKind uint8

const (
	paramConstant paramKind = iota
	paramSignal
)

// Param is a parameter binding: a constant scalar, or one lane of another
// generator's output referenced weakly by handle.
type Param struct {
	kind  paramKind
	value float64
	srv   *Server
	src   Handle
	lane  int
}

// IsSignal reports whether p reads another generator's output.
func (p Param) IsSignal() bool { return p.kind == paramSignal }

// Constant returns the bound scalar. It is meaningless for signal bindings.
func (p Param) Constant() float64 { return p.value }

// Source returns the handle and lane of a signal binding.
func (p Param) Source() (Handle, int) { return p.src, p.lane }

func (p Param) String() string {
	if p.kind == paramSignal {
		return fmt.Sprintf("signal(%d:%d)", p.src, p.lane)
	}

	return fmt.Sprintf("const(%g)", p.value)
}

// Value is anything a parameter can be bound to: Const, a Generator, or
// Lane of a multi-lane generator.
type Value interface {
	binding() Param
}

// Const is a constant parameter value.
type Const float64

func (c Const) binding() Param {
	return Param{kind: paramConstant, value: float64(c)}
}

type laneRef struct {
	srv  *Server
	src  Handle
	lane int
}

func (l laneRef) binding() Param {
	return Param{kind: paramSignal, srv: l.srv, src: l.src, lane: l.lane}
}

// Lane binds lane i of g. Lane(g, 0) is equivalent to g itself.
func Lane(g Generator, i int) Value {
	b := g.base()
	return laneRef{srv: b.server, src: b.handle, lane: i}
}

// Constant and Signal are the two lane shapes a parameter takes inside a
// processing routine. Routines are generic over them so each binding
// combination gets its own instantiation.
type (
	Constant float64
	Signal   []float64
)

// At returns the constant for every index.
func (c Constant) At(int) float64 { return float64(c) }

// At returns sample i.
func (s Signal) At(i int) float64 { return s[i] }

type lane interface {
	Constant | Signal
	At(i int) float64
}

// modeOf packs the binding kinds of ps into a dispatch mode: bit i is set
// when ps[i] is a signal.
func modeOf(ps ...*Param) int {
	mode := 0

	for i, p := range ps {
		if p.kind == paramSignal {
			mode |= 1 << i
		}
	}

	return mode
}
