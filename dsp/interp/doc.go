// Package interp provides fractional-delay interpolation primitives used by
// the delay-line generators.
//
// Available methods, from cheapest to highest quality:
//
//   - [Linear2]:   2-point linear interpolation (Delay, AllpassWG)
//   - [Hermite4]:  4-point cubic Hermite
//   - [Lagrange5]: 5-tap 4th-order Lagrange FIR with cached coefficients (Waveguide)
package interp
