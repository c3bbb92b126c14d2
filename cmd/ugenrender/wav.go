package main

import (
	"errors"
	"io"
	"math"
	"math/rand/v2"

	"github.com/cwbudde/algo-ugen/dsp/core"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	bitDepth   = 16
	pcmFormat  = 1
	fullScale  = 32767
	wavHeader  = 44
	maxWavSize = math.MaxUint32 - wavHeader
)

// quantizer maps samples to 16-bit integers. With a random source it adds
// triangular (TPDF) dither of one LSB peak before rounding.
type quantizer struct {
	rng *rand.Rand
}

func newQuantizer(dither bool, seed uint64) quantizer {
	if !dither {
		return quantizer{}
	}

	return quantizer{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (q quantizer) quantize(x float64) int {
	v := core.Clamp(x, -1, 1) * fullScale
	if q.rng != nil {
		v += q.rng.Float64() - q.rng.Float64()
	}

	return int(math.Round(core.Clamp(v, -fullScale, fullScale)))
}

// writeWAV interleaves channels and encodes them as 16-bit PCM. Samples
// outside [-1, 1] are clipped.
func writeWAV(w io.WriteSeeker, channels [][]float64, sampleRate int, q quantizer) error {
	if len(channels) == 0 {
		return errors.New("no channels to write")
	}

	frames := len(channels[0])
	nch := len(channels)

	if frames*nch*bitDepth/8 > maxWavSize {
		return errors.New("render too long for a WAV file")
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: nch,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, frames*nch),
		SourceBitDepth: bitDepth,
	}

	for i := range frames {
		for ch, samples := range channels {
			buf.Data[i*nch+ch] = q.quantize(samples[i])
		}
	}

	enc := wav.NewEncoder(w, sampleRate, bitDepth, nch, pcmFormat)

	if err := enc.Write(buf); err != nil {
		return err
	}

	return enc.Close()
}
