package bus

import (
	"errors"
	"fmt"
)

// Builder provides a fluent API for building bus configurations
type Builder struct {
	input       Descriptor
	output      Descriptor
	sampleRate  float64
	format      Format
	midiInputs  []string
	midiOutputs []string
	errors      []error
}

// NewBuilder creates a builder for a stereo, deinterleaved 44.1 kHz
// configuration with one MIDI port each way.
func NewBuilder() *Builder {
	return &Builder{
		input:      StereoBus("Input", DefaultSampleRate),
		output:     StereoBus("Output", DefaultSampleRate),
		sampleRate: DefaultSampleRate,
		format:     Float32Deinterleaved,
	}
}

// WithAudioInput sets the input bus
func (b *Builder) WithAudioInput(name string, channels int) *Builder {
	b.input = Descriptor{Name: name, ChannelCount: channels}
	return b
}

// WithAudioOutput sets the output bus
func (b *Builder) WithAudioOutput(name string, channels int) *Builder {
	b.output = Descriptor{Name: name, ChannelCount: channels}
	return b
}

// WithStereoInput is a convenience method for a stereo input
func (b *Builder) WithStereoInput(name string) *Builder {
	return b.WithAudioInput(name, 2)
}

// WithStereoOutput is a convenience method for a stereo output
func (b *Builder) WithStereoOutput(name string) *Builder {
	return b.WithAudioOutput(name, 2)
}

// WithMonoInput is a convenience method for a mono input
func (b *Builder) WithMonoInput(name string) *Builder {
	return b.WithAudioInput(name, 1)
}

// WithMonoOutput is a convenience method for a mono output
func (b *Builder) WithMonoOutput(name string) *Builder {
	return b.WithAudioOutput(name, 1)
}

// WithSampleRate sets the rate of both buses
func (b *Builder) WithSampleRate(rate float64) *Builder {
	b.sampleRate = rate
	return b
}

// Interleaved makes both buses carry one interleaved buffer
func (b *Builder) Interleaved() *Builder {
	b.format = Float32Interleaved
	return b
}

// WithEventInput adds a MIDI input port
func (b *Builder) WithEventInput(name string) *Builder {
	if name == "" {
		b.errors = append(b.errors, errors.New("MIDI input port needs a name"))
		return b
	}
	b.midiInputs = append(b.midiInputs, name)
	return b
}

// WithEventOutput adds a MIDI output port
func (b *Builder) WithEventOutput(name string) *Builder {
	if name == "" {
		b.errors = append(b.errors, errors.New("MIDI output port needs a name"))
		return b
	}
	b.midiOutputs = append(b.midiOutputs, name)
	return b
}

// Build validates and returns the configuration.
func (b *Builder) Build() (*Configuration, error) {
	if len(b.errors) > 0 {
		return nil, fmt.Errorf("builder errors: %w", errors.Join(b.errors...))
	}

	in, out := b.input, b.output
	in.SampleRate, out.SampleRate = b.sampleRate, b.sampleRate
	in.Format, out.Format = b.format, b.format

	c := NewConfiguration(in, out)
	c.SetMIDIPorts(b.midiInputs, b.midiOutputs)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// MustBuild is Build for static layouts; it panics on error.
func (b *Builder) MustBuild() *Configuration {
	c, err := b.Build()
	if err != nil {
		panic(err)
	}
	return c
}
