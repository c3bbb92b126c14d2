package ugen

import (
	"github.com/cwbudde/algo-ugen/dsp/buffer"
	"github.com/cwbudde/algo-vecmath"
)

type mulMode uint8

const (
	mulConstant mulMode = iota
	mulSignal
	mulReciprocal
)

type addMode uint8

const (
	addConstant addMode = iota
	addSignal
	addNegated
)

// reciprocalFloor keeps a signal divisor away from zero.
const reciprocalFloor = 1e-5

// Reciprocal reads 1/s[i]; it backs SetDiv with a signal divisor. A
// removed divisor source reads as ones.
type Reciprocal []float64

// At returns the reciprocal of sample i.
func (r Reciprocal) At(i int) float64 {
	v := r[i]
	if v > -reciprocalFloor && v < reciprocalFloor {
		v = reciprocalFloor
	}

	return 1 / v
}

// Negated reads -s[i]; it backs SetSub with a signal subtrahend.
type Negated []float64

// At returns the negated sample i.
func (n Negated) At(i int) float64 { return -n[i] }

type mulLane interface {
	Constant | Signal | Reciprocal
	At(i int) float64
}

type addLane interface {
	Constant | Signal | Negated
	At(i int) float64
}

func postKernel[M mulLane, A addLane](lanes []*buffer.Buffer, m M, a A) {
	for _, l := range lanes {
		out := l.Samples()
		for i := range out {
			out[i] = out[i]*m.At(i) + a.At(i)
		}
	}
}

// PostMode returns the post-processing mode as mul + 3*add, where mul is
// 0 (constant), 1 (signal) or 2 (signal reciprocal) and add is 0
// (constant), 1 (signal) or 2 (signal negated).
func (b *Base) PostMode() int {
	return int(b.mulMode) + 3*int(b.addMode)
}

// SetMul sets the multiplier of the post-processing stage.
func (b *Base) SetMul(v Value) {
	p, ok := b.resolve("mul", v)
	if !ok {
		return
	}

	b.mul = p
	b.mulMode = mulConstant

	if p.IsSignal() {
		b.mulMode = mulSignal
	}

	b.rebindPost()
}

// SetDiv divides the output by v. A constant zero is ignored.
func (b *Base) SetDiv(v Value) {
	p, ok := b.resolve("div", v)
	if !ok {
		return
	}

	if !p.IsSignal() {
		if p.value == 0 {
			b.warn("division by zero ignored")
			return
		}

		b.mul = Const(1 / p.value).binding()
		b.mulMode = mulConstant
	} else {
		b.mul = p
		b.mulMode = mulReciprocal
	}

	b.rebindPost()
}

// SetAdd sets the offset of the post-processing stage.
func (b *Base) SetAdd(v Value) {
	p, ok := b.resolve("add", v)
	if !ok {
		return
	}

	b.add = p
	b.addMode = addConstant

	if p.IsSignal() {
		b.addMode = addSignal
	}

	b.rebindPost()
}

// SetSub subtracts v from the output.
func (b *Base) SetSub(v Value) {
	p, ok := b.resolve("sub", v)
	if !ok {
		return
	}

	if !p.IsSignal() {
		b.add = Const(-p.value).binding()
		b.addMode = addConstant
	} else {
		b.add = p
		b.addMode = addNegated
	}

	b.rebindPost()
}

//nolint:cyclop
func (b *Base) rebindPost() {
	if b.server != nil {
		b.server.dirty = true
	}

	if b.mulMode == mulConstant && b.addMode == addConstant && b.mul.value == 1 && b.add.value == 0 {
		b.post = nil
		return
	}

	switch b.PostMode() {
	case 0:
		b.post = func() { postKernel(b.lanes, Constant(b.mul.value), Constant(b.add.value)) }
	case 1:
		if b.add.value == 0 {
			b.post = func() {
				m := b.signal(b.mul)
				for _, l := range b.lanes {
					vecmath.MulBlockInPlace(l.Samples(), m)
				}
			}

			return
		}

		b.post = func() { postKernel(b.lanes, b.signal(b.mul), Constant(b.add.value)) }
	case 2:
		b.post = func() { postKernel(b.lanes, Reciprocal(b.server.divisor(b.mul)), Constant(b.add.value)) }
	case 3:
		b.post = func() { postKernel(b.lanes, Constant(b.mul.value), b.signal(b.add)) }
	case 4:
		b.post = func() { postKernel(b.lanes, b.signal(b.mul), b.signal(b.add)) }
	case 5:
		b.post = func() { postKernel(b.lanes, Reciprocal(b.server.divisor(b.mul)), b.signal(b.add)) }
	case 6:
		b.post = func() { postKernel(b.lanes, Constant(b.mul.value), Negated(b.signal(b.add))) }
	case 7:
		b.post = func() { postKernel(b.lanes, b.signal(b.mul), Negated(b.signal(b.add))) }
	case 8:
		b.post = func() { postKernel(b.lanes, Reciprocal(b.server.divisor(b.mul)), Negated(b.signal(b.add))) }
	}
}
