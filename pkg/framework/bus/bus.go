// Package bus describes the audio stream shape of a unit's input and output.
package bus

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

var (
	// ErrUnsupportedFormat is returned when a descriptor or an input/output
	// pair cannot be rendered.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrBusFrozen is returned when a bus is edited while render resources
	// are allocated.
	ErrBusFrozen = errors.New("bus configuration is frozen")
)

// MaxChannels is the widest bus accepted.
const MaxChannels = 8

// Direction represents the bus direction
type Direction int32

const (
	// DirectionInput represents input bus
	DirectionInput Direction = 0
	// DirectionOutput represents output bus
	DirectionOutput Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	if d == DirectionInput {
		return "input"
	}
	return "output"
}

// Format is the sample layout of the host buffers for a bus.
type Format int32

const (
	// Float32Deinterleaved is one []float32 per channel.
	Float32Deinterleaved Format = iota
	// Float32Interleaved is a single []float32 of frames*channels samples.
	Float32Interleaved
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case Float32Deinterleaved:
		return "float32-deinterleaved"
	case Float32Interleaved:
		return "float32-interleaved"
	default:
		return fmt.Sprintf("format(%d)", int32(f))
	}
}

// Descriptor is the shape of one audio bus.
type Descriptor struct {
	Name         string
	ChannelCount int
	SampleRate   float64
	Format       Format
}

// Validate checks the descriptor on its own.
func (d Descriptor) Validate() error {
	if d.ChannelCount < 1 || d.ChannelCount > MaxChannels {
		return fmt.Errorf("%w: %q has %d channels, want 1..%d", ErrUnsupportedFormat, d.Name, d.ChannelCount, MaxChannels)
	}
	if d.SampleRate <= 0 || math.IsNaN(d.SampleRate) || math.IsInf(d.SampleRate, 0) {
		return fmt.Errorf("%w: %q has sample rate %v", ErrUnsupportedFormat, d.Name, d.SampleRate)
	}
	switch d.Format {
	case Float32Deinterleaved, Float32Interleaved:
	default:
		return fmt.Errorf("%w: %q has unknown %s", ErrUnsupportedFormat, d.Name, d.Format)
	}
	return nil
}

// BufferChannels is the number of []float32 slices a host buffer for this
// bus carries.
func (d Descriptor) BufferChannels() int {
	if d.Format == Float32Interleaved {
		return 1
	}
	return d.ChannelCount
}

// BufferLength is the required slice length for frames frames.
func (d Descriptor) BufferLength(frames int) int {
	if d.Format == Float32Interleaved {
		return frames * d.ChannelCount
	}
	return frames
}

// Configuration holds the input and output bus of a unit plus the names of
// its MIDI ports. It is edited on the control path only.
type Configuration struct {
	mu          sync.Mutex
	input       Descriptor
	output      Descriptor
	midiInputs  []string
	midiOutputs []string
	frozen      bool
}

// NewConfiguration creates a configuration from an input and output bus.
func NewConfiguration(input, output Descriptor) *Configuration {
	return &Configuration{
		input:       input,
		output:      output,
		midiInputs:  []string{"In"},
		midiOutputs: []string{"Out"},
	}
}

// Input returns the input bus descriptor.
func (c *Configuration) Input() Descriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// Output returns the output bus descriptor.
func (c *Configuration) Output() Descriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.output
}

// SetInput replaces the input bus. It fails with ErrBusFrozen while frozen.
func (c *Configuration) SetInput(d Descriptor) error {
	return c.set(DirectionInput, d)
}

// SetOutput replaces the output bus. It fails with ErrBusFrozen while frozen.
func (c *Configuration) SetOutput(d Descriptor) error {
	return c.set(DirectionOutput, d)
}

func (c *Configuration) set(dir Direction, d Descriptor) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frozen {
		return fmt.Errorf("%w: cannot change %s bus", ErrBusFrozen, dir)
	}
	if dir == DirectionInput {
		c.input = d
	} else {
		c.output = d
	}
	return nil
}

// Validate checks both buses and that they agree on sample rate.
func (c *Configuration) Validate() error {
	c.mu.Lock()
	in, out := c.input, c.output
	c.mu.Unlock()

	if err := in.Validate(); err != nil {
		return fmt.Errorf("input bus: %w", err)
	}
	if err := out.Validate(); err != nil {
		return fmt.Errorf("output bus: %w", err)
	}
	if in.SampleRate != out.SampleRate {
		return fmt.Errorf("%w: input rate %v != output rate %v", ErrUnsupportedFormat, in.SampleRate, out.SampleRate)
	}
	return nil
}

// Freeze locks both buses until Thaw.
func (c *Configuration) Freeze() {
	c.mu.Lock()
	c.frozen = true
	c.mu.Unlock()
}

// Thaw makes the buses editable again.
func (c *Configuration) Thaw() {
	c.mu.Lock()
	c.frozen = false
	c.mu.Unlock()
}

// IsFrozen reports whether the buses are locked.
func (c *Configuration) IsFrozen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frozen
}

// SetMIDIPorts replaces the MIDI port names. An empty list keeps the
// current names for that direction.
func (c *Configuration) SetMIDIPorts(inputs, outputs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(inputs) > 0 {
		c.midiInputs = append([]string(nil), inputs...)
	}
	if len(outputs) > 0 {
		c.midiOutputs = append([]string(nil), outputs...)
	}
}

// MIDIInputNames returns the names of the MIDI input ports
func (c *Configuration) MIDIInputNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.midiInputs...)
}

// MIDIOutputNames returns the names of the MIDI output ports
func (c *Configuration) MIDIOutputNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.midiOutputs...)
}
