package main

import (
	"fmt"

	"github.com/justyntemme/midiunit/pkg/kernel"
	"github.com/justyntemme/midiunit/pkg/midi"
	"github.com/justyntemme/midiunit/pkg/plugin"
)

// fallbackTempo is used when the host reports no tempo.
const fallbackTempo = 120.0

// arpeggiator schedules a repeating sixteenth note pattern a little ahead of
// the render position and moves the octave parameter at the start of each
// pattern. The note length follows the host tempo.
type arpeggiator struct {
	notes      []uint8
	velocity   uint8
	sampleRate float64
	musical    plugin.MusicalContextFunc

	baseOctave float64
	sweep      []float64

	next int64
	idx  int
}

func newArpeggiator(sampleRate float64, musical plugin.MusicalContextFunc, baseOctave float64) *arpeggiator {
	return &arpeggiator{
		notes:      []uint8{60, 64, 67, 72, 67, 64, 60, 55},
		velocity:   100,
		sampleRate: sampleRate,
		musical:    musical,
		baseOctave: baseOctave,
		sweep:      []float64{0, 1, 0, -1},
	}
}

// stepAt returns the samples between note-ons at sampleTime.
func (a *arpeggiator) stepAt(sampleTime int64) int64 {
	spb := 0.0
	if a.musical != nil {
		if mc, ok := a.musical(plugin.Timestamp{SampleTime: sampleTime}); ok {
			spb = mc.SamplesPerBeat(a.sampleRate)
		}
	}
	if spb <= 0 {
		spb = a.sampleRate * 60 / fallbackTempo
	}
	return max(1, int64(spb/4))
}

// schedule queues every note that starts before until.
func (a *arpeggiator) schedule(u *plugin.Unit, until int64) error {
	for a.next < until {
		if a.idx%len(a.notes) == 0 {
			bar := a.idx / len(a.notes)
			octave := a.baseOctave + a.sweep[bar%len(a.sweep)]
			if err := u.ScheduleParameterEvent(a.next, kernel.ParamOctave, octave); err != nil {
				return fmt.Errorf("sweep octave: %w", err)
			}
		}

		step := a.stepAt(a.next)
		gate := step * 3 / 4
		note := a.notes[a.idx%len(a.notes)]
		if err := u.ScheduleMIDIEvent(midi.NoteOn(a.next, 0, note, a.velocity)); err != nil {
			return fmt.Errorf("schedule note on: %w", err)
		}
		if err := u.ScheduleMIDIEvent(midi.NoteOff(a.next+gate, 0, note)); err != nil {
			return fmt.Errorf("schedule note off: %w", err)
		}

		a.next += step
		a.idx++
	}
	return nil
}

// notesScheduled is the number of note-ons queued so far.
func (a *arpeggiator) notesScheduled() int {
	return a.idx
}
