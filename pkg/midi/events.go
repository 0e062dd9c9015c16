// Package midi carries timestamped MIDI events from the control path to the
// render path without allocating on the render side.
package midi

import (
	"errors"
	"fmt"
	"math"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// ErrInvalidEvent is returned for events that cannot be carried: empty,
// longer than three bytes, without a status byte, or of the wrong length
// for their status.
var ErrInvalidEvent = errors.New("invalid MIDI event")

// Event is one short MIDI message stamped with the absolute sample time at
// which it takes effect. It holds no pointers so it can live in
// preallocated rings and be copied freely on the render path.
type Event struct {
	SampleTime int64
	Cable      uint8
	Length     uint8
	Data       [3]byte
}

// NewEvent builds an event from raw bytes.
func NewEvent(sampleTime int64, cable uint8, data ...byte) (Event, error) {
	e := Event{SampleTime: sampleTime, Cable: cable}
	if len(data) == 0 || len(data) > len(e.Data) {
		return Event{}, fmt.Errorf("%w: length %d", ErrInvalidEvent, len(data))
	}
	e.Length = uint8(copy(e.Data[:], data))
	if err := e.Validate(); err != nil {
		return Event{}, err
	}
	return e, nil
}

// FromMessage wraps a gomidi message.
func FromMessage(sampleTime int64, msg gomidi.Message) (Event, error) {
	return NewEvent(sampleTime, 0, []byte(msg)...)
}

// NoteOn creates a note-on event.
func NoteOn(sampleTime int64, channel, key, velocity uint8) Event {
	e, _ := FromMessage(sampleTime, gomidi.NoteOn(channel&0x0F, key&0x7F, velocity&0x7F))
	return e
}

// NoteOff creates a note-off event with zero release velocity.
func NoteOff(sampleTime int64, channel, key uint8) Event {
	e, _ := FromMessage(sampleTime, gomidi.NoteOff(channel&0x0F, key&0x7F))
	return e
}

// ControlChange creates a control change event.
func ControlChange(sampleTime int64, channel, controller, value uint8) Event {
	e, _ := FromMessage(sampleTime, gomidi.ControlChange(channel&0x0F, controller&0x7F, value&0x7F))
	return e
}

// Validate checks that the bytes form one complete short message.
func (e *Event) Validate() error {
	if e.Length == 0 || int(e.Length) > len(e.Data) {
		return fmt.Errorf("%w: length %d", ErrInvalidEvent, e.Length)
	}
	st, ok := StatusTypeFrom(e.Data[0])
	if !ok {
		return fmt.Errorf("%w: 0x%02X is not a status byte", ErrInvalidEvent, e.Data[0])
	}
	want := st.Length()
	if st == StatusSystem {
		want = systemLength(e.Data[0])
	}
	if want == 0 || int(e.Length) != want {
		return fmt.Errorf("%w: %s needs %d bytes, got %d", ErrInvalidEvent, st, want, e.Length)
	}
	for _, b := range e.Data[1:e.Length] {
		if b&0x80 != 0 {
			return fmt.Errorf("%w: data byte 0x%02X has the high bit set", ErrInvalidEvent, b)
		}
	}
	return nil
}

// Status returns the status type.
func (e *Event) Status() StatusType {
	st, _ := StatusTypeFrom(e.Data[0])
	return st
}

// Channel returns the channel of a channel voice message.
func (e *Event) Channel() uint8 {
	return e.Data[0] & 0x0F
}

// Bytes returns the message bytes. The slice aliases the event.
func (e *Event) Bytes() []byte {
	return e.Data[:e.Length]
}

// Message returns the event as a gomidi message aliasing the event's bytes.
func (e *Event) Message() gomidi.Message {
	return gomidi.Message(e.Data[:e.Length])
}

// Offset is the position of the event inside a block starting at
// blockStart. Late events report 0.
func (e *Event) Offset(blockStart int64) int {
	if e.SampleTime <= blockStart {
		return 0
	}
	return int(e.SampleTime - blockStart)
}

// String implements fmt.Stringer.
func (e Event) String() string {
	return fmt.Sprintf("%s{ch:%d, data:% X, t:%d}", e.Status(), e.Channel(), e.Data[:e.Length], e.SampleTime)
}

// NoteToFrequency converts a MIDI note number to Hz. A tuning of 0 means 440 Hz.
func NoteToFrequency(note uint8, tuningA4 float64) float64 {
	if tuningA4 == 0 {
		tuningA4 = 440.0
	}
	return tuningA4 * math.Exp2((float64(note)-69.0)/12.0)
}

// NoteNumberToName returns names like "C4" (middle C = 60).
func NoteNumberToName(note uint8) string {
	noteNames := [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	octave := int(note/12) - 1
	return fmt.Sprintf("%s%d", noteNames[note%12], octave)
}
