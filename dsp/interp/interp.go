package interp

// Linear2 interpolates between x0 and x1 at fraction t in [0,1].
func Linear2(t, x0, x1 float64) float64 {
	return x0 + t*(x1-x0)
}

// Hermite4 computes cubic 4-point interpolation.
// It interpolates from x0 to x1 using neighbor points xm1 and x2.
func Hermite4(t, xm1, x0, x1, x2 float64) float64 {
	c0 := x0
	c1 := 0.5 * (x1 - xm1)
	c2 := xm1 - 2.5*x0 + 2*x1 - 0.5*x2
	c3 := 0.5*(x2-xm1) + 1.5*(x0-x1)

	return ((c3*t+c2)*t+c1)*t + c0
}

// Lagrange5 holds the five taps of a 4th-order Lagrange fractional-delay
// filter. Tap k weights the sample delayed by k samples; the filter as a
// whole delays by the fraction it was built for.
//
// Coefficients are cached: building them is only worth doing when the
// fraction changes, not once per sample.
type Lagrange5 struct {
	frac   float64
	coeffs [5]float64
}

// NewLagrange5 returns coefficients for the fractional delay d.
func NewLagrange5(d float64) Lagrange5 {
	var l Lagrange5
	l.Set(d)

	return l
}

// Set recomputes the taps for delay d when it differs from the cached one.
func (l *Lagrange5) Set(d float64) {
	if d == l.frac && l.coeffs != [5]float64{} {
		return
	}

	l.frac = d
	l.coeffs[0] = (d - 1) * (d - 2) * (d - 3) * (d - 4) / 24
	l.coeffs[1] = -d * (d - 2) * (d - 3) * (d - 4) / 6
	l.coeffs[2] = d * (d - 1) * (d - 3) * (d - 4) / 4
	l.coeffs[3] = -d * (d - 1) * (d - 2) * (d - 4) / 6
	l.coeffs[4] = d * (d - 1) * (d - 2) * (d - 3) / 24
}

// Frac returns the fractional delay the taps were built for.
func (l *Lagrange5) Frac() float64 { return l.frac }

// Coeffs returns a copy of the taps.
func (l *Lagrange5) Coeffs() [5]float64 { return l.coeffs }

// Apply filters five consecutive delay-line samples, x[0] being the
// least delayed one.
func (l *Lagrange5) Apply(x [5]float64) float64 {
	c := &l.coeffs
	return c[0]*x[0] + c[1]*x[1] + c[2]*x[2] + c[3]*x[3] + c[4]*x[4]
}
