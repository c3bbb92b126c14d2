// Package ugen implements a buffer-synchronous unit-generator engine.
//
// A Server owns the sample rate, block size and output channels. Every
// generator registered on it owns one or more fixed-length lanes and is
// ticked exactly once per block, after every generator it reads from.
//
// Generator parameters accept a Value: either a constant (Const) or the
// output of another generator on the same server. Bindings are weak: a
// generator removed from the server reads as silence. Each binding change
// selects a processing routine specialized for that combination of
// constant and per-sample parameters, so the sample loops never branch on
// the binding kind.
//
// After its processing routine, every generator applies the affine
// post-processing stage out = mul*raw + add, where mul and add are Values
// as well.
package ugen
