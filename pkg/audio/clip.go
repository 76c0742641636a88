// Package audio holds the PCM clip model used between the microphone
// boundary and the transcription upstream, plus a small WAV codec.
package audio

import (
	"errors"
	"fmt"
)

// Clip is a raw PCM audio sample: interleaved float32 samples in [-1, 1].
type Clip struct {
	SampleRate int
	Channels   int
	Samples    []float32
}

var (
	ErrEmptyClip      = errors.New("empty audio clip")
	ErrBadSampleRate  = errors.New("sample rate must be positive")
	ErrBadChannelData = errors.New("sample count not divisible by channel count")
)

// Validate checks the clip's shape.
func (c *Clip) Validate() error {
	if c == nil || len(c.Samples) == 0 {
		return ErrEmptyClip
	}
	if c.SampleRate <= 0 {
		return ErrBadSampleRate
	}
	if c.Channels <= 0 {
		return fmt.Errorf("channel count must be positive, got %d", c.Channels)
	}
	if len(c.Samples)%c.Channels != 0 {
		return ErrBadChannelData
	}
	return nil
}

// Duration returns the clip length in seconds.
func (c *Clip) Duration() float64 {
	if c.SampleRate <= 0 || c.Channels <= 0 {
		return 0
	}
	return float64(len(c.Samples)/c.Channels) / float64(c.SampleRate)
}

// DownmixMono averages all channels into one. Transcription upstreams take
// mono input, so multi-channel microphone captures are folded down before
// submission. Mono clips are returned as-is.
func (c *Clip) DownmixMono() *Clip {
	if c.Channels <= 1 {
		return c
	}

	frames := len(c.Samples) / c.Channels
	mono := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for ch := 0; ch < c.Channels; ch++ {
			sum += c.Samples[i*c.Channels+ch]
		}
		mono[i] = sum / float32(c.Channels)
	}

	return &Clip{
		SampleRate: c.SampleRate,
		Channels:   1,
		Samples:    mono,
	}
}
