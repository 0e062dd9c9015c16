// Package plugin hosts a DSP kernel behind a pull-based render call.
//
// A Unit owns the parameter store, bus configuration and event queue of one
// processing unit. Control-path methods (parameters, buses, scheduling,
// allocation) may be called from any goroutine; Render must be called from
// one render goroutine at a time and never blocks, allocates or logs.
package plugin

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/justyntemme/midiunit/pkg/framework/bus"
	"github.com/justyntemme/midiunit/pkg/framework/debug"
	"github.com/justyntemme/midiunit/pkg/framework/param"
	"github.com/justyntemme/midiunit/pkg/framework/state"
	"github.com/justyntemme/midiunit/pkg/kernel"
	"github.com/justyntemme/midiunit/pkg/midi"
	"github.com/sirupsen/logrus"
)

// MIDIOutputFunc receives the MIDI events a block produced, in sample order.
// It is called on the render goroutine and must not block.
type MIDIOutputFunc func(sampleTime int64, cable uint8, data []byte) error

type midiOutput struct {
	fn MIDIOutputFunc
}

// Unit bridges a host render callback and a kernel.
type Unit struct {
	info   Info
	kernel kernel.Kernel
	params *param.Store
	buses  *bus.Configuration
	log    *logrus.Entry
	clock  func() time.Time
	budget float64
	meter  *debug.Meter

	musical MusicalContextFunc

	// lifecycle calls are serialized; render only looks at state
	mu        sync.Mutex
	state     atomic.Int32
	maxFrames atomic.Int32
	res       *resources

	// producers are serialized so the queue keeps one writer
	queueMu sync.Mutex
	events  *midi.Scheduler[renderEvent]

	midiOut atomic.Pointer[midiOutput]
}

// NewUnit creates an unallocated unit rendering k with the parameters in
// params. A nil params gives a unit without parameters.
func NewUnit(k kernel.Kernel, params *param.Store, opts ...Option) (*Unit, error) {
	if k == nil {
		return nil, fmt.Errorf("plugin: nil kernel")
	}
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Info != (Info{}) {
		if err := cfg.Info.Validate(); err != nil {
			return nil, err
		}
	}
	if params == nil {
		params = param.MustStore()
	}

	buses := bus.NewConfiguration(cfg.Input, cfg.Output)
	buses.SetMIDIPorts(cfg.MIDIInputs, cfg.MIDIOutputs)

	u := &Unit{
		info:    cfg.Info,
		kernel:  k,
		params:  params,
		buses:   buses,
		log:     cfg.Logger,
		clock:   cfg.Clock,
		budget:  cfg.RenderBudget,
		meter:   debug.NewMeter(),
		musical: cfg.MusicalContext,
		events:  newRenderEvents(cfg.MIDIQueueCapacity),
	}
	u.maxFrames.Store(int32(cfg.MaximumFrames))

	u.log.WithFields(logrus.Fields{
		"function":   "NewUnit",
		"unit":       cfg.Info.String(),
		"parameters": params.Count(),
		"max_frames": cfg.MaximumFrames,
		"queue":      u.events.Cap(),
	}).Debug("Created unit")
	return u, nil
}

// Info returns the unit metadata.
func (u *Unit) Info() Info {
	return u.info
}

// Parameters returns the parameter tree.
func (u *Unit) Parameters() *param.Store {
	return u.params
}

// Meter returns the render statistics.
func (u *Unit) Meter() *debug.Meter {
	return u.meter
}

// SetParameter sets a parameter's plain value. It can be called at any time,
// including while rendering; the change applies from the next block.
// Read-only parameters are rejected with ErrInvalidParameter.
func (u *Unit) SetParameter(address uint64, value float64) error {
	if err := u.params.SetParameter(address, value); err != nil {
		u.log.WithFields(logrus.Fields{
			"function": "SetParameter",
			"address":  address,
			"value":    value,
			"error":    err.Error(),
		}).Debug("Rejected parameter change")
		return err
	}
	return nil
}

// ValueForParameter returns a parameter's plain value.
func (u *Unit) ValueForParameter(address uint64) (float64, error) {
	return u.params.ValueForParameter(address)
}

// SaveState writes the parameter values to w.
func (u *Unit) SaveState(w io.Writer) error {
	return state.NewManager(u.params).Save(w)
}

// LoadState restores parameter values written by SaveState. Like
// SetParameter it may be called while rendering.
func (u *Unit) LoadState(r io.Reader) error {
	applied, err := state.NewManager(u.params).Load(r)
	if err != nil {
		u.log.WithFields(logrus.Fields{
			"function": "LoadState",
			"error":    err.Error(),
		}).Warn("Failed to load state")
		return err
	}
	u.log.WithFields(logrus.Fields{
		"function": "LoadState",
		"applied":  applied,
	}).Debug("State loaded")
	return nil
}

// InputBus returns the input bus descriptor.
func (u *Unit) InputBus() bus.Descriptor {
	return u.buses.Input()
}

// OutputBus returns the output bus descriptor.
func (u *Unit) OutputBus() bus.Descriptor {
	return u.buses.Output()
}

// SetInputBus replaces the input bus. It fails with ErrAlreadyAllocated
// while render resources are held.
func (u *Unit) SetInputBus(d bus.Descriptor) error {
	return u.setBus(bus.DirectionInput, d)
}

// SetOutputBus replaces the output bus. It fails with ErrAlreadyAllocated
// while render resources are held.
func (u *Unit) SetOutputBus(d bus.Descriptor) error {
	return u.setBus(bus.DirectionOutput, d)
}

func (u *Unit) setBus(dir bus.Direction, d bus.Descriptor) error {
	var err error
	if dir == bus.DirectionInput {
		err = u.buses.SetInput(d)
	} else {
		err = u.buses.SetOutput(d)
	}
	if err != nil {
		u.log.WithFields(logrus.Fields{
			"function":  "setBus",
			"direction": dir.String(),
			"bus":       d.Name,
		}).Warn("Bus change while allocated")
		return fmt.Errorf("%w: %w", ErrAlreadyAllocated, err)
	}
	return nil
}

// MIDIInputNames returns the names of the MIDI input ports.
func (u *Unit) MIDIInputNames() []string {
	return u.buses.MIDIInputNames()
}

// MIDIOutputNames returns the names of the MIDI output ports.
func (u *Unit) MIDIOutputNames() []string {
	return u.buses.MIDIOutputNames()
}

// MaximumFramesToRender returns the largest block Render accepts.
func (u *Unit) MaximumFramesToRender() int {
	return int(u.maxFrames.Load())
}

// SetMaximumFramesToRender sets the largest block Render accepts. It is only
// allowed before the first allocation or after deallocation.
func (u *Unit) SetMaximumFramesToRender(n int) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.IsAllocated() {
		return fmt.Errorf("%w: cannot change maximum frames", ErrAlreadyAllocated)
	}
	if err := checkMaximumFrames(n); err != nil {
		return err
	}
	u.maxFrames.Store(int32(n))

	u.log.WithFields(logrus.Fields{
		"function":   "SetMaximumFramesToRender",
		"max_frames": n,
	}).Debug("Maximum frames changed")
	return nil
}

// SetMIDIOutput registers fn to receive the unit's MIDI output. A nil fn
// discards it.
func (u *Unit) SetMIDIOutput(fn MIDIOutputFunc) {
	if fn == nil {
		u.midiOut.Store(nil)
		return
	}
	u.midiOut.Store(&midiOutput{fn: fn})
}

// ScheduleMIDIEvent queues an event for the render path. Events are applied
// in the block that contains their sample time; late events are applied at
// the start of the next block.
//
// MIDI and parameter events share one queue. Once MIDIQueueCapacity events
// are outstanding, including those waiting for a later block, it fails with
// midi.ErrQueueFull.
func (u *Unit) ScheduleMIDIEvent(e midi.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	return u.schedule("ScheduleMIDIEvent", renderEvent{sampleTime: e.SampleTime, midi: e})
}

// ScheduleParameterEvent queues a parameter change for the render path. The
// value is applied at the start of the block that contains sampleTime, or of
// the next block when sampleTime has passed. Changes due in the same block
// are applied in sample time order.
func (u *Unit) ScheduleParameterEvent(sampleTime int64, address uint64, value float64) error {
	if err := u.params.Validate(address, value); err != nil {
		u.log.WithFields(logrus.Fields{
			"function": "ScheduleParameterEvent",
			"address":  address,
			"value":    value,
			"error":    err.Error(),
		}).Debug("Rejected parameter event")
		return err
	}
	return u.schedule("ScheduleParameterEvent", renderEvent{
		sampleTime: sampleTime,
		parameter:  true,
		address:    address,
		value:      value,
	})
}

func (u *Unit) schedule(function string, e renderEvent) error {
	u.queueMu.Lock()
	ok := u.events.Push(e)
	u.queueMu.Unlock()

	if !ok {
		u.log.WithFields(logrus.Fields{
			"function":    function,
			"sample_time": e.sampleTime,
			"capacity":    u.events.Cap(),
		}).Warn("Event queue full")
		return fmt.Errorf("%w: %d events pending", midi.ErrQueueFull, u.events.Outstanding())
	}
	return nil
}

// ScheduleMIDIBytes queues a raw message.
func (u *Unit) ScheduleMIDIBytes(sampleTime int64, cable uint8, data ...byte) error {
	e, err := midi.NewEvent(sampleTime, cable, data...)
	if err != nil {
		return err
	}
	return u.ScheduleMIDIEvent(e)
}

// PendingMIDIEvents returns how many scheduled events the render path has
// not applied yet, counting parameter events and those held for a later
// block.
func (u *Unit) PendingMIDIEvents() int {
	return u.events.Outstanding()
}
