package core

import (
	"fmt"
	"math"
)

// ProcessorConfig is the host configuration every generator reads:
// sample rate, buffer size and number of output channels.
type ProcessorConfig struct {
	SampleRate float64
	BlockSize  int
	Channels   int
}

// ProcessorOption mutates a ProcessorConfig.
type ProcessorOption func(*ProcessorConfig)

// DefaultProcessorConfig returns 48 kHz, 256-sample blocks, stereo.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		SampleRate: 48000,
		BlockSize:  256,
		Channels:   2,
	}
}

// WithSampleRate sets the processing sample rate.
func WithSampleRate(sampleRate float64) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if sampleRate > 0 {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithBlockSize sets the processing block size.
func WithBlockSize(blockSize int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if blockSize > 0 {
			cfg.BlockSize = blockSize
		}
	}
}

// WithChannels sets the number of output channels.
func WithChannels(channels int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if channels > 0 {
			cfg.Channels = channels
		}
	}
}

// ApplyProcessorOptions applies zero or more options to the default config.
func ApplyProcessorOptions(opts ...ProcessorOption) ProcessorConfig {
	cfg := DefaultProcessorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}

// Ticks converts seconds to a buffer count for this configuration.
func (c ProcessorConfig) Ticks(seconds float64) int {
	return SecondsToTicks(seconds, c.SampleRate, c.BlockSize)
}

// Validate reports the first setting a host cannot run with.
func (c ProcessorConfig) Validate() error {
	switch {
	case !(c.SampleRate > 0) || math.IsInf(c.SampleRate, 0):
		return fmt.Errorf("core: sample rate must be positive and finite: %v", c.SampleRate)
	case c.BlockSize <= 0:
		return fmt.Errorf("core: block size must be > 0: %d", c.BlockSize)
	case c.Channels <= 0:
		return fmt.Errorf("core: channel count must be > 0: %d", c.Channels)
	}

	return nil
}

// BlockDuration returns the length of one block in seconds.
func (c ProcessorConfig) BlockDuration() float64 {
	return float64(c.BlockSize) / c.SampleRate
}
