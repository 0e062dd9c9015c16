package plugin

import (
	"bytes"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/justyntemme/midiunit/pkg/framework/bus"
	"github.com/justyntemme/midiunit/pkg/framework/param"
	"github.com/justyntemme/midiunit/pkg/framework/state"
	"github.com/justyntemme/midiunit/pkg/kernel"
	"github.com/justyntemme/midiunit/pkg/midi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUnitDefaults(t *testing.T) {
	u, err := NewUnit(&fakeKernel{}, nil, WithLogger(quietLogger()))
	require.NoError(t, err)

	assert.Equal(t, StateUninitialized, u.State())
	assert.Equal(t, DefaultMaximumFrames, u.MaximumFramesToRender())
	assert.Equal(t, 2, u.InputBus().ChannelCount)
	assert.Equal(t, bus.DefaultSampleRate, u.OutputBus().SampleRate)
	assert.Zero(t, u.Parameters().Count())
	assert.Equal(t, midi.DefaultQueueCapacity, u.events.Cap())
	assert.Equal(t, []string{"In"}, u.MIDIInputNames())
	assert.Equal(t, []string{"Out"}, u.MIDIOutputNames())
}

func TestMIDIPortNamesFromBuses(t *testing.T) {
	buses := bus.NewBuilder().
		WithStereoInput("Main").
		WithStereoOutput("Main").
		WithSampleRate(testRate).
		WithEventInput("Keys").
		WithEventInput("Pads").
		WithEventOutput("Thru").
		MustBuild()

	u := newTestUnit(t, &fakeKernel{}, WithBuses(buses))
	assert.Equal(t, []string{"Keys", "Pads"}, u.MIDIInputNames())
	assert.Equal(t, []string{"Thru"}, u.MIDIOutputNames())
}

func TestNewUnitRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"ZeroFrames", WithMaximumFrames(0)},
		{"TooManyFrames", WithMaximumFrames(MaxMaximumFrames + 1)},
		{"EmptyQueue", WithMIDIQueueCapacity(0)},
		{"NegativeBudget", WithRenderBudget(-1)},
		{"NilClock", WithClock(nil)},
		{"NamelessInfo", WithInfo(Info{ID: "com.example.x"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUnit(&fakeKernel{}, nil, WithLogger(quietLogger()), tt.opt)
			assert.Error(t, err)
		})
	}

	_, err := NewUnit(nil, nil)
	assert.Error(t, err)
}

func TestInfo(t *testing.T) {
	info := Info{ID: "com.example.transpose", Name: "Transpose", Version: "1.0.0", Vendor: "Example"}
	assert.Equal(t, "Example Transpose 1.0.0", info.String())
	assert.NoError(t, info.Validate())
	assert.Error(t, Info{Name: "x"}.Validate())

	u := newTestUnit(t, &fakeKernel{}, WithInfo(info))
	assert.Equal(t, info, u.Info())
}

func TestLifecycle(t *testing.T) {
	k := &fakeKernel{}
	u := newTestUnit(t, k)
	out := makeOutput(2, 64)

	assert.Equal(t, StatusNotAllocated, u.Render(64, Timestamp{}, nil, out))
	assert.NoError(t, u.DeallocateRenderResources(), "deallocate before allocate is a no-op")
	assert.Zero(t, k.deallocated)

	require.NoError(t, u.AllocateRenderResources())
	assert.Equal(t, StateAllocated, u.State())
	assert.True(t, u.IsAllocated())
	assert.Equal(t, kernel.Config{SampleRate: testRate, InputChannels: 2, OutputChannels: 2, MaxFrames: DefaultMaximumFrames}, k.cfg)
	assert.Equal(t, 1, k.resets)

	assert.ErrorIs(t, u.AllocateRenderResources(), ErrAlreadyAllocated)
	assert.Equal(t, 1, k.allocated)

	assert.Equal(t, StatusOK, u.Render(64, Timestamp{}, nil, out))
	assert.Equal(t, StateAllocated, u.State())

	require.NoError(t, u.DeallocateRenderResources())
	assert.Equal(t, StateDeallocated, u.State())
	assert.Equal(t, 1, k.deallocated)
	assert.NoError(t, u.DeallocateRenderResources())
	assert.Equal(t, 1, k.deallocated)

	assert.Equal(t, StatusNotAllocated, u.Render(64, Timestamp{}, nil, out))

	require.NoError(t, u.AllocateRenderResources())
	assert.Equal(t, 2, k.allocated)
	assert.Equal(t, StatusOK, u.Render(64, Timestamp{}, nil, out))
	require.NoError(t, u.DeallocateRenderResources())
}

func TestSetMaximumFramesToRender(t *testing.T) {
	u := newTestUnit(t, &fakeKernel{})

	assert.ErrorIs(t, u.SetMaximumFramesToRender(0), ErrUnsupportedFormat)
	assert.ErrorIs(t, u.SetMaximumFramesToRender(MaxMaximumFrames+1), ErrUnsupportedFormat)
	assert.Equal(t, DefaultMaximumFrames, u.MaximumFramesToRender())

	require.NoError(t, u.SetMaximumFramesToRender(MaxMaximumFrames))
	assert.Equal(t, MaxMaximumFrames, u.MaximumFramesToRender())

	require.NoError(t, u.AllocateRenderResources())
	assert.ErrorIs(t, u.SetMaximumFramesToRender(256), ErrAlreadyAllocated)
	assert.Equal(t, MaxMaximumFrames, u.MaximumFramesToRender())

	require.NoError(t, u.DeallocateRenderResources())
	require.NoError(t, u.SetMaximumFramesToRender(256))
	assert.Equal(t, 256, u.MaximumFramesToRender())
}

func TestBusValidationLeavesUnitUnallocated(t *testing.T) {
	tests := []struct {
		name   string
		input  bus.Descriptor
		output bus.Descriptor
	}{
		{"NoChannels", bus.Descriptor{Name: "in", ChannelCount: 0, SampleRate: testRate}, bus.StereoBus("out", testRate)},
		{"TooManyChannels", bus.StereoBus("in", testRate), bus.Descriptor{Name: "out", ChannelCount: 9, SampleRate: testRate}},
		{"ZeroRate", bus.StereoBus("in", 0), bus.StereoBus("out", 0)},
		{"RateMismatch", bus.StereoBus("in", 44100), bus.StereoBus("out", 48000)},
		{"UnknownFormat", bus.StereoBus("in", testRate), bus.Descriptor{Name: "out", ChannelCount: 2, SampleRate: testRate, Format: 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := &fakeKernel{}
			u := newTestUnit(t, k, WithInputBus(tt.input), WithOutputBus(tt.output))

			err := u.AllocateRenderResources()
			assert.ErrorIs(t, err, ErrUnsupportedFormat)
			assert.Equal(t, StateUninitialized, u.State())
			assert.Zero(t, k.allocated)

			require.NoError(t, u.SetInputBus(bus.StereoBus("in", testRate)))
			require.NoError(t, u.SetOutputBus(bus.StereoBus("out", testRate)))
			require.NoError(t, u.AllocateRenderResources())
			require.NoError(t, u.DeallocateRenderResources())
		})
	}
}

func TestKernelRejectionRollsBack(t *testing.T) {
	u := newTestUnit(t, kernel.NewTranspose(), WithOutputBus(bus.MonoBus("out", testRate)))

	err := u.AllocateRenderResources()
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Equal(t, StateUninitialized, u.State())
	assert.NoError(t, u.SetOutputBus(bus.StereoBus("out", testRate)), "buses stay editable")

	failing := &fakeKernel{allocErr: errors.New("out of memory")}
	u = newTestUnit(t, failing)
	assert.ErrorContains(t, u.AllocateRenderResources(), "out of memory")
	assert.Equal(t, 1, failing.deallocated)
	assert.False(t, u.IsAllocated())
}

func TestBusesFrozenWhileAllocated(t *testing.T) {
	u := newAllocatedUnit(t, &fakeKernel{})

	err := u.SetInputBus(bus.MonoBus("in", testRate))
	assert.ErrorIs(t, err, ErrAlreadyAllocated)
	assert.ErrorIs(t, err, bus.ErrBusFrozen)
	assert.ErrorIs(t, u.SetOutputBus(bus.MonoBus("out", testRate)), ErrAlreadyAllocated)
	assert.Equal(t, 2, u.InputBus().ChannelCount)

	require.NoError(t, u.DeallocateRenderResources())
	require.NoError(t, u.SetInputBus(bus.MonoBus("in", testRate)))
	assert.Equal(t, 1, u.InputBus().ChannelCount)
}

func TestLifecycleCallsDuringRenderFail(t *testing.T) {
	u := newAllocatedUnit(t, &fakeKernel{})
	out := makeOutput(2, 64)

	var deallocErr, allocErr error
	var inner Status
	pull := func(frames int, ts Timestamp, input [][]float32) int {
		deallocErr = u.DeallocateRenderResources()
		allocErr = u.AllocateRenderResources()
		inner = u.Render(frames, ts, nil, out)
		return frames
	}

	assert.Equal(t, StatusOK, u.Render(64, Timestamp{}, pull, out))
	assert.ErrorIs(t, deallocErr, ErrRenderInProgress)
	assert.ErrorIs(t, allocErr, ErrRenderInProgress)
	assert.Equal(t, StatusNotAllocated, inner, "render is not re-entrant")
	assert.Equal(t, StateAllocated, u.State())
}

func TestParameters(t *testing.T) {
	u := newTestUnit(t, kernel.NewTranspose())

	require.NoError(t, u.SetParameter(kernel.ParamOctave, 1))
	v, err := u.ValueForParameter(kernel.ParamOctave)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	require.NoError(t, u.SetParameter(kernel.ParamOctave, 9))
	v, _ = u.ValueForParameter(kernel.ParamOctave)
	assert.Equal(t, float64(kernel.MaxOctaveShift), v)

	assert.ErrorIs(t, u.SetParameter(99, 0), param.ErrInvalidParameter)
	_, err = u.ValueForParameter(99)
	assert.ErrorIs(t, err, param.ErrInvalidParameter)

	p := u.Parameters().ByIdentifier("octave")
	require.NotNil(t, p)
	assert.Equal(t, kernel.ParamOctave, p.Address)
}

func TestScheduleMIDI(t *testing.T) {
	u := newTestUnit(t, &fakeKernel{}, WithMIDIQueueCapacity(4))

	for i := 0; i < 4; i++ {
		require.NoError(t, u.ScheduleMIDIEvent(midi.NoteOn(int64(i), 0, 60, 100)))
	}
	assert.Equal(t, 4, u.PendingMIDIEvents())
	assert.ErrorIs(t, u.ScheduleMIDIEvent(midi.NoteOn(5, 0, 60, 100)), midi.ErrQueueFull)

	assert.ErrorIs(t, u.ScheduleMIDIEvent(midi.Event{Length: 3, Data: [3]byte{0x10, 0, 0}}), midi.ErrInvalidEvent)
	assert.ErrorIs(t, u.ScheduleMIDIBytes(0, 0, 0x90, 60), midi.ErrInvalidEvent)
	assert.ErrorIs(t, u.ScheduleMIDIBytes(0, 0), midi.ErrInvalidEvent)
}

func TestScheduleParameterEvent(t *testing.T) {
	u := newTestUnit(t, &fakeKernel{}, WithMIDIQueueCapacity(4))

	require.NoError(t, u.ScheduleParameterEvent(0, kernel.ParamOctave, 1))
	assert.ErrorIs(t, u.ScheduleParameterEvent(0, 99, 1), param.ErrInvalidParameter)
	assert.ErrorIs(t, u.ScheduleParameterEvent(0, kernel.ParamGain, math.NaN()), param.ErrInvalidParameter)

	// parameter and MIDI events share the queue
	require.NoError(t, u.ScheduleMIDIEvent(midi.NoteOn(0, 0, 60, 100)))
	require.NoError(t, u.ScheduleParameterEvent(10, kernel.ParamLevel, 1))
	require.NoError(t, u.ScheduleMIDIEvent(midi.NoteOff(20, 0, 60)))
	assert.Equal(t, 4, u.PendingMIDIEvents())
	assert.ErrorIs(t, u.ScheduleParameterEvent(30, kernel.ParamLevel, 0), midi.ErrQueueFull)

	v, _ := u.ValueForParameter(kernel.ParamOctave)
	assert.Zero(t, v, "scheduled changes wait for the render path")
}

func TestReadOnlyParameterRejected(t *testing.T) {
	params := param.MustStore(
		param.New(0, "drive", "Drive").Range(0, 1).Default(0.5).Build(),
		param.New(1, "meter", "Meter").Range(0, 1).Default(0).ReadOnly().Build(),
	)
	u, err := NewUnit(&fakeKernel{}, params, WithLogger(quietLogger()))
	require.NoError(t, err)

	assert.ErrorIs(t, u.SetParameter(1, 0.5), param.ErrInvalidParameter)
	assert.ErrorIs(t, u.ScheduleParameterEvent(0, 1, 0.5), param.ErrInvalidParameter)
	v, _ := u.ValueForParameter(1)
	assert.Zero(t, v)

	require.NoError(t, u.SetParameter(0, 0.75))
}

func TestFarFutureEventsDoNotBlockTheQueue(t *testing.T) {
	u := newAllocatedUnit(t, &fakeKernel{}, WithMIDIQueueCapacity(4))
	out := makeOutput(2, 64)

	for i := 0; i < 4; i++ {
		require.NoError(t, u.ScheduleMIDIEvent(midi.ControlChange(1_000_000, 0, 7, uint8(i))))
	}
	result := u.RenderWithResult(64, Timestamp{}, nil, out)
	assert.Zero(t, result.EventsApplied)
	assert.Equal(t, 4, u.PendingMIDIEvents(), "held events still count")

	// the queue is full, so the note is refused rather than lost
	assert.ErrorIs(t, u.ScheduleMIDIEvent(midi.NoteOn(70, 0, 60, 100)), midi.ErrQueueFull)

	result = u.RenderWithResult(64, Timestamp{SampleTime: 1_000_000}, nil, out)
	assert.Equal(t, 4, result.EventsApplied)
	assert.Zero(t, u.PendingMIDIEvents())
}

func TestInBlockEventPassesHeldEvents(t *testing.T) {
	k := &fakeKernel{}
	u := newAllocatedUnit(t, k, WithMIDIQueueCapacity(4))
	out := makeOutput(2, 64)

	for i := 0; i < 3; i++ {
		require.NoError(t, u.ScheduleMIDIEvent(midi.ControlChange(1_000_000, 0, 7, uint8(i))))
	}
	u.Render(64, Timestamp{}, nil, out)

	require.NoError(t, u.ScheduleMIDIEvent(midi.NoteOn(70, 0, 60, 100)))
	result := u.RenderWithResult(64, Timestamp{SampleTime: 64}, nil, out)
	assert.Equal(t, 1, result.EventsApplied)
	assert.Equal(t, []int{6}, k.lastOffsets)
	assert.Equal(t, 3, u.PendingMIDIEvents())
}

func TestAllocateDiscardsStaleEvents(t *testing.T) {
	k := &fakeKernel{}
	u := newTestUnit(t, k)
	require.NoError(t, u.ScheduleMIDIBytes(0, 0, 0x90, 60, 100))
	require.NoError(t, u.ScheduleParameterEvent(0, kernel.ParamOctave, 2))

	require.NoError(t, u.AllocateRenderResources())
	defer u.DeallocateRenderResources()
	assert.Zero(t, u.PendingMIDIEvents())

	result := u.RenderWithResult(64, Timestamp{}, nil, makeOutput(2, 64))
	assert.Zero(t, result.EventsApplied)
	assert.Zero(t, result.ParameterEvents)
}

func TestDeallocateReportsMeter(t *testing.T) {
	clock := &stepClock{now: time.Unix(0, 0)}
	u := newAllocatedUnit(t, &fakeKernel{}, WithClock(clock.Now))
	out := makeOutput(2, 64)
	for i := 0; i < 3; i++ {
		u.Render(64, Timestamp{SampleTime: int64(i * 64)}, nil, out)
	}
	assert.Equal(t, uint64(3), u.Meter().Stats().Blocks)

	require.NoError(t, u.DeallocateRenderResources())
	require.NoError(t, u.AllocateRenderResources())
	assert.Zero(t, u.Meter().Stats().Blocks, "allocation starts a fresh meter")
}

func TestSaveLoadState(t *testing.T) {
	a := newTestUnit(t, kernel.NewTranspose())
	require.NoError(t, a.SetParameter(kernel.ParamOctave, -2))
	require.NoError(t, a.SetParameter(kernel.ParamRelease, 1.5))

	var blob bytes.Buffer
	require.NoError(t, a.SaveState(&blob))

	b := newAllocatedUnit(t, kernel.NewTranspose())
	require.NoError(t, b.LoadState(bytes.NewReader(blob.Bytes())))
	v, _ := b.ValueForParameter(kernel.ParamOctave)
	assert.Equal(t, -2.0, v)
	v, _ = b.ValueForParameter(kernel.ParamRelease)
	assert.Equal(t, 1.5, v)

	assert.ErrorIs(t, b.LoadState(bytes.NewReader([]byte("junk"))), state.ErrInvalidState)
}
