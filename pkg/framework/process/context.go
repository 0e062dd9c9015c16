// Package process provides the per-block view a kernel renders into.
package process

import (
	"github.com/justyntemme/midiunit/pkg/midi"
)

// Context provides a clean API for audio processing with zero allocations.
//
// Input and Output are views of preallocated scratch sized to the current
// block. Params holds the values snapshotted at block start, in parameter
// index order. Events holds the MIDI events that fall inside the block,
// sorted by sample time. Musical is the host's tempo and transport when
// HasMusical is set.
type Context struct {
	Input      [][]float64
	Output     [][]float64
	SampleRate float64
	BlockStart int64
	Params     []float64
	Events     []midi.Event
	MIDIOut    *midi.OutputBuffer
	Musical    MusicalContext
	HasMusical bool

	frames int

	// Full-size scratch; Input and Output reslice these every block
	inStore    [][]float64
	outStore   [][]float64
	workBuffer []float64
}

// MusicalContext is the host's tempo, meter and transport at block start.
type MusicalContext struct {
	Tempo        float64 // beats per minute
	BeatsPerBar  int
	BeatUnit     int
	BeatPosition float64 // beats since the start of the timeline
	Playing      bool
}

// SamplesPerBeat returns the length of one beat at sampleRate, or 0 when no
// tempo is known.
func (m MusicalContext) SamplesPerBeat(sampleRate float64) float64 {
	if m.Tempo <= 0 {
		return 0
	}
	return sampleRate * 60 / m.Tempo
}

// NewContext creates a new process context with pre-allocated buffers.
// midiCapacity bounds the MIDI events the kernel can send per block.
func NewContext(inChannels, outChannels, maxFrames, paramCount, midiCapacity int, sampleRate float64) *Context {
	c := &Context{
		SampleRate: sampleRate,
		Params:     make([]float64, paramCount),
		Events:     make([]midi.Event, 0, midiCapacity),
		MIDIOut:    midi.NewOutputBuffer(midiCapacity),
		inStore:    makeChannels(inChannels, maxFrames),
		outStore:   makeChannels(outChannels, maxFrames),
		workBuffer: make([]float64, maxFrames),
		Input:      make([][]float64, inChannels),
		Output:     make([][]float64, outChannels),
	}
	c.Prepare(maxFrames, 0)
	return c
}

func makeChannels(channels, frames int) [][]float64 {
	bufs := make([][]float64, channels)
	for ch := range bufs {
		bufs[ch] = make([]float64, frames)
	}
	return bufs
}

// Prepare sizes the views for a block of frames frames starting at absolute
// sample time blockStart and empties the event lists.
func (c *Context) Prepare(frames int, blockStart int64) {
	if frames > len(c.workBuffer) {
		frames = len(c.workBuffer)
	}
	c.frames = frames
	c.BlockStart = blockStart
	for ch := range c.inStore {
		c.Input[ch] = c.inStore[ch][:frames]
	}
	for ch := range c.outStore {
		c.Output[ch] = c.outStore[ch][:frames]
	}
	c.Events = c.Events[:0]
	c.MIDIOut.Reset()
	c.HasMusical = false
}

// MaxFrames returns the scratch capacity.
func (c *Context) MaxFrames() int {
	return len(c.workBuffer)
}

// NumSamples returns the number of samples to process
func (c *Context) NumSamples() int {
	return c.frames
}

// NumInputChannels returns the number of input channels
func (c *Context) NumInputChannels() int {
	return len(c.Input)
}

// NumOutputChannels returns the number of output channels
func (c *Context) NumOutputChannels() int {
	return len(c.Output)
}

// Param returns the snapshotted value of the parameter at index.
func (c *Context) Param(index int) float64 {
	if index < 0 || index >= len(c.Params) {
		return 0
	}
	return c.Params[index]
}

// WorkBuffer returns a slice of the pre-allocated work buffer
// sized to the current block size - no allocation!
func (c *Context) WorkBuffer() []float64 {
	return c.workBuffer[:c.frames]
}

// SendMIDI queues an event for the MIDI output port.
func (c *Context) SendMIDI(e midi.Event) bool {
	return c.MIDIOut.Send(e)
}

// PassThrough copies input to output (for bypass)
func (c *Context) PassThrough() {
	n := c.GetNumChannels()
	for ch := 0; ch < n; ch++ {
		copy(c.Output[ch], c.Input[ch])
	}
}

// Clear zeros the output buffers
func (c *Context) Clear() {
	for ch := range c.Output {
		clear(c.Output[ch])
	}
}

// ClearInput zeros the input buffers.
func (c *Context) ClearInput() {
	for ch := range c.Input {
		clear(c.Input[ch])
	}
}
