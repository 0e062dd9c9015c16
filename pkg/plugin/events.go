package plugin

import (
	"github.com/justyntemme/midiunit/pkg/midi"
)

// renderEvent is one item scheduled for the render path: a MIDI event or,
// when parameter is set, a parameter change.
type renderEvent struct {
	sampleTime int64
	parameter  bool
	address    uint64
	value      float64
	midi       midi.Event
}

func renderEventTime(e renderEvent) int64 {
	return e.sampleTime
}

func newRenderEvents(capacity int) *midi.Scheduler[renderEvent] {
	return midi.NewScheduler(capacity, renderEventTime)
}
