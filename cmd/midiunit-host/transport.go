package main

import (
	"github.com/justyntemme/midiunit/pkg/framework/process"
	"github.com/justyntemme/midiunit/pkg/plugin"
)

// transport is the host timeline: a fixed tempo in 4/4 that is always
// playing from sample 0.
type transport struct {
	sampleRate float64
	tempo      float64
}

func newTransport(sampleRate, tempo float64) *transport {
	return &transport{sampleRate: sampleRate, tempo: tempo}
}

// musicalContext implements plugin.MusicalContextFunc.
func (t *transport) musicalContext(ts plugin.Timestamp) (process.MusicalContext, bool) {
	mc := process.MusicalContext{
		Tempo:       t.tempo,
		BeatsPerBar: 4,
		BeatUnit:    4,
		Playing:     true,
	}
	if spb := mc.SamplesPerBeat(t.sampleRate); spb > 0 {
		mc.BeatPosition = float64(ts.SampleTime) / spb
	}
	return mc, t.tempo > 0
}
