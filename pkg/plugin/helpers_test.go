package plugin

import (
	"io"
	"math"
	"testing"
	"time"

	"github.com/justyntemme/midiunit/pkg/framework/bus"
	"github.com/justyntemme/midiunit/pkg/framework/process"
	"github.com/justyntemme/midiunit/pkg/kernel"
	"github.com/justyntemme/midiunit/pkg/midi"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const (
	testRate   = 48000.0
	testFrames = 512
)

// fakeKernel copies input to output and relays every event it is given.
type fakeKernel struct {
	cfg         kernel.Config
	allocErr    error
	panics      bool
	allocated   int
	resets      int
	processed   int
	deallocated int
	lastFrames  int
	lastOffsets []int
	lastParams  []float64
	musical     process.MusicalContext
	hasMusical  bool
}

func (k *fakeKernel) Allocate(cfg kernel.Config) error {
	if k.allocErr != nil {
		return k.allocErr
	}
	k.cfg = cfg
	k.allocated++
	return nil
}

func (k *fakeKernel) Reset() { k.resets++ }

func (k *fakeKernel) Process(ctx *process.Context) {
	k.processed++
	if k.panics {
		panic("kernel blew up")
	}
	k.lastFrames = ctx.NumSamples()
	k.lastParams = append(k.lastParams[:0], ctx.Params...)
	k.musical, k.hasMusical = ctx.Musical, ctx.HasMusical
	k.lastOffsets = k.lastOffsets[:0]
	for _, e := range ctx.Events {
		k.lastOffsets = append(k.lastOffsets, e.Offset(ctx.BlockStart))
		ctx.SendMIDI(e)
	}
	ctx.PassThrough()
}

func (k *fakeKernel) Deallocate() { k.deallocated++ }

// stepClock advances by step on every reading.
type stepClock struct {
	now  time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newTestUnit(t *testing.T, k kernel.Kernel, opts ...Option) *Unit {
	t.Helper()
	base := []Option{
		WithLogger(quietLogger()),
		WithBuses(bus.NewStereo(testRate)),
	}
	u, err := NewUnit(k, kernel.NewParameters(), append(base, opts...)...)
	require.NoError(t, err)
	return u
}

func newAllocatedUnit(t *testing.T, k kernel.Kernel, opts ...Option) *Unit {
	t.Helper()
	u := newTestUnit(t, k, opts...)
	require.NoError(t, u.AllocateRenderResources())
	t.Cleanup(func() { _ = u.DeallocateRenderResources() })
	return u
}

func makeOutput(channels, frames int) [][]float32 {
	out := make([][]float32, channels)
	for ch := range out {
		out[ch] = make([]float32, frames)
	}
	return out
}

// sinePull supplies a 440 Hz sine that stays continuous across blocks.
func sinePull() PullFunc {
	return func(frames int, ts Timestamp, input [][]float32) int {
		for _, in := range input {
			for i := 0; i < frames; i++ {
				in[i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(ts.SampleTime+int64(i))/testRate))
			}
		}
		return frames
	}
}

// constPull fills the whole input with v and reports supplied frames.
func constPull(v float32, supplied int) PullFunc {
	return func(frames int, ts Timestamp, input [][]float32) int {
		for _, in := range input {
			for i := range in {
				in[i] = v
			}
		}
		return supplied
	}
}

// midiRecorder collects MIDI output.
type midiRecorder struct {
	events []midi.Event
}

func (r *midiRecorder) send(sampleTime int64, cable uint8, data []byte) error {
	e, err := midi.NewEvent(sampleTime, cable, data...)
	if err != nil {
		return err
	}
	r.events = append(r.events, e)
	return nil
}

func peak(bufs [][]float32) float32 {
	var p float32
	for _, b := range bufs {
		for _, v := range b {
			p = max(p, float32(math.Abs(float64(v))))
		}
	}
	return p
}
