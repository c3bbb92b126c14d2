package ugen

import "errors"

var (
	// ErrNilServer is returned by constructors called without a server.
	ErrNilServer = errors.New("ugen: nil server")
	// ErrServerMismatch is returned when a generator of one server is bound
	// as a parameter of a generator on another server.
	ErrServerMismatch = errors.New("ugen: value belongs to another server")
	// ErrNotPowerOfTwo is returned when an FFT size is not a power of two.
	ErrNotPowerOfTwo = errors.New("ugen: size is not a power of two")
	// ErrShapeMismatch is returned when bulk-loaded value lists disagree in length.
	ErrShapeMismatch = errors.New("ugen: shape mismatch")
	// ErrInvalidWindow is returned for an unknown window type.
	ErrInvalidWindow = errors.New("ugen: invalid window type")
	// ErrRemoved is returned when configuring a generator that was removed from its server.
	ErrRemoved = errors.New("ugen: generator removed")
)
