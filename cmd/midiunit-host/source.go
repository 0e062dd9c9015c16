package main

import (
	"github.com/justyntemme/midiunit/pkg/dsp/gain"
	"github.com/justyntemme/midiunit/pkg/dsp/oscillator"
	"github.com/justyntemme/midiunit/pkg/plugin"
)

// sineSource is the upstream audio the host feeds the unit: one sine copied
// to every channel of an interleaved buffer.
type sineSource struct {
	osc       *oscillator.Oscillator
	amplitude float64
	channels  int

	// maxFrames long
	scratch []float64
}

func newSineSource(sampleRate, frequency, amplitude float64, channels, maxFrames int) *sineSource {
	osc := oscillator.New(sampleRate)
	osc.SetFrequency(frequency)
	return &sineSource{
		osc:       osc,
		amplitude: amplitude,
		channels:  channels,
		scratch:   make([]float64, maxFrames),
	}
}

// pull implements plugin.PullFunc for interleaved buses.
func (s *sineSource) pull(frames int, ts plugin.Timestamp, input [][]float32) int {
	frames = min(frames, len(s.scratch))
	mono := s.scratch[:frames]
	s.osc.Process(mono, oscillator.WaveSine)
	gain.ApplyBuffer(mono, s.amplitude)

	buf := input[0]
	for i, v := range mono {
		for ch := 0; ch < s.channels; ch++ {
			buf[i*s.channels+ch] = float32(v)
		}
	}
	return frames
}
