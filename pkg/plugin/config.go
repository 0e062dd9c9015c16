package plugin

import (
	"fmt"
	"time"

	"github.com/justyntemme/midiunit/pkg/framework/bus"
	"github.com/justyntemme/midiunit/pkg/framework/debug"
	"github.com/justyntemme/midiunit/pkg/midi"
	"github.com/sirupsen/logrus"
)

// Block size limits.
const (
	DefaultMaximumFrames = 512
	MaxMaximumFrames     = 8192
)

// DefaultRenderBudget lets a render call use the whole block duration.
const DefaultRenderBudget = 1.0

// Config holds construction settings for a Unit.
type Config struct {
	Info Info

	// MaximumFrames is the largest block Render accepts (1..8192).
	MaximumFrames int

	Input  bus.Descriptor
	Output bus.Descriptor

	// MIDIInputs and MIDIOutputs name the MIDI ports. Empty keeps the
	// single "In" and "Out" ports.
	MIDIInputs  []string
	MIDIOutputs []string

	// MIDIQueueCapacity bounds the MIDI and parameter events scheduled
	// ahead of the render thread.
	MIDIQueueCapacity int

	// RenderBudget is the fraction of a block's duration a render call may
	// take before its output is discarded. Zero disables the check.
	RenderBudget float64

	// MusicalContext supplies tempo and transport to the kernel. Nil means
	// the host has none.
	MusicalContext MusicalContextFunc

	Logger *logrus.Entry

	// Clock is read twice per block to time the render.
	Clock func() time.Time
}

// DefaultConfig returns the settings a unit has without options: stereo
// 44.1 kHz buses, 512 frame blocks, a 256 event MIDI queue and a render
// budget of one block.
func DefaultConfig() Config {
	buses := bus.NewDefault()
	return Config{
		MaximumFrames:     DefaultMaximumFrames,
		Input:             buses.Input(),
		Output:            buses.Output(),
		MIDIQueueCapacity: midi.DefaultQueueCapacity,
		RenderBudget:      DefaultRenderBudget,
		Logger:            debug.WithComponent("unit"),
		Clock:             time.Now,
	}
}

// Validate checks the settings that cannot wait until allocation.
func (c Config) Validate() error {
	if err := checkMaximumFrames(c.MaximumFrames); err != nil {
		return err
	}
	if c.MIDIQueueCapacity < 1 {
		return fmt.Errorf("plugin: MIDI queue capacity %d, want at least 1", c.MIDIQueueCapacity)
	}
	if c.RenderBudget < 0 {
		return fmt.Errorf("plugin: negative render budget %v", c.RenderBudget)
	}
	if c.Logger == nil || c.Clock == nil {
		return fmt.Errorf("plugin: logger and clock are required")
	}
	return nil
}

func checkMaximumFrames(n int) error {
	if n < 1 || n > MaxMaximumFrames {
		return fmt.Errorf("%w: maximum frames %d, want 1..%d", ErrUnsupportedFormat, n, MaxMaximumFrames)
	}
	return nil
}

// Option configures a Unit.
type Option func(*Config)

// WithInfo sets the unit metadata.
func WithInfo(info Info) Option {
	return func(c *Config) { c.Info = info }
}

// WithMaximumFrames sets the initial MaximumFramesToRender.
func WithMaximumFrames(n int) Option {
	return func(c *Config) { c.MaximumFrames = n }
}

// WithInputBus sets the initial input bus.
func WithInputBus(d bus.Descriptor) Option {
	return func(c *Config) { c.Input = d }
}

// WithOutputBus sets the initial output bus.
func WithOutputBus(d bus.Descriptor) Option {
	return func(c *Config) { c.Output = d }
}

// WithBuses sets both buses and the MIDI port names from a configuration
// template.
func WithBuses(buses *bus.Configuration) Option {
	return func(c *Config) {
		c.Input = buses.Input()
		c.Output = buses.Output()
		c.MIDIInputs = buses.MIDIInputNames()
		c.MIDIOutputs = buses.MIDIOutputNames()
	}
}

// WithMIDIQueueCapacity sets the MIDI queue size.
func WithMIDIQueueCapacity(n int) Option {
	return func(c *Config) { c.MIDIQueueCapacity = n }
}

// WithMusicalContext sets the source of tempo and transport for each block.
func WithMusicalContext(fn MusicalContextFunc) Option {
	return func(c *Config) { c.MusicalContext = fn }
}

// WithRenderBudget sets the render budget as a fraction of block duration.
func WithRenderBudget(fraction float64) Option {
	return func(c *Config) { c.RenderBudget = fraction }
}

// WithLogger sets the control path logger.
func WithLogger(logger *logrus.Entry) Option {
	return func(c *Config) { c.Logger = logger }
}

// WithClock replaces time.Now for render timing.
func WithClock(clock func() time.Time) Option {
	return func(c *Config) { c.Clock = clock }
}
