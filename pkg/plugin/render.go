package plugin

import (
	"time"

	"github.com/justyntemme/midiunit/pkg/framework/bus"
	"github.com/justyntemme/midiunit/pkg/framework/process"
	"github.com/justyntemme/midiunit/pkg/midi"
)

// Timestamp places a block on the host timeline.
type Timestamp struct {
	SampleTime int64
	HostTime   uint64
}

// PullFunc fills input with up to frames frames of upstream audio, laid out
// as the input bus describes, and returns how many frames it supplied.
type PullFunc func(frames int, ts Timestamp, input [][]float32) int

// MusicalContextFunc reports the host's tempo and transport for the block at
// ts. ok is false when the host has none. It is called on the render
// goroutine once per block and must not block.
type MusicalContextFunc func(ts Timestamp) (ctx process.MusicalContext, ok bool)

// RenderFunc is the render entry point with a fixed signature, for hosts
// that keep a function value rather than the unit.
type RenderFunc func(frames int, ts Timestamp, pull PullFunc, output [][]float32) Status

// RenderResult describes one render call.
type RenderResult struct {
	Status Status

	// FramesPulled is how many input frames upstream supplied. A nil pull
	// counts as a full block of silence.
	FramesPulled int

	// EventsApplied is how many scheduled MIDI events the block consumed.
	EventsApplied int

	// ParameterEvents is how many scheduled parameter changes were applied
	// at block start.
	ParameterEvents int

	// MIDISent and MIDIDropped count the output events delivered to and
	// lost before the MIDI output callback.
	MIDISent    int
	MIDIDropped int

	Elapsed time.Duration
}

// RenderFunc returns u.Render as a function value.
func (u *Unit) RenderFunc() RenderFunc {
	return u.Render
}

// Render renders frames frames into output, which must be laid out as the
// output bus describes. See RenderWithResult.
func (u *Unit) Render(frames int, ts Timestamp, pull PullFunc, output [][]float32) Status {
	return u.RenderWithResult(frames, ts, pull, output).Status
}

// RenderWithResult renders one block:
//
//   - takes the scheduled events that fall before ts.SampleTime+frames and
//     applies the parameter changes among them
//   - snapshots the parameters and asks for the musical context
//   - pulls frames input frames from pull, padding a short pull with silence
//   - runs the kernel, writes output and hands MIDI output to the callback
//
// The kernel is not invoked when the unit is not allocated, the block is too
// large or the output buffer has the wrong shape. A kernel panic or a block
// that takes longer than its budget leaves silence in output.
func (u *Unit) RenderWithResult(frames int, ts Timestamp, pull PullFunc, output [][]float32) RenderResult {
	if !u.transition(StateAllocated, StateRendering) {
		return RenderResult{Status: StatusNotAllocated}
	}
	defer u.state.Store(int32(StateAllocated))

	return u.render(u.res, frames, ts, pull, output)
}

func (u *Unit) render(r *resources, frames int, ts Timestamp, pull PullFunc, output [][]float32) RenderResult {
	var result RenderResult
	switch {
	case frames == 0:
		return result
	case frames < 0:
		result.Status = StatusInvalidBuffer
		return result
	case frames > r.maxFrames:
		result.Status = StatusTooManyFrames
		return result
	}
	if !fits(r.output, output, frames) {
		result.Status = StatusInvalidBuffer
		return result
	}

	start := u.clock()
	ctx := r.ctx
	ctx.Prepare(frames, ts.SampleTime)

	for _, e := range u.events.Drain(ts.SampleTime, frames) {
		if e.parameter {
			u.applyParameter(e.address, e.value)
			result.ParameterEvents++
			continue
		}
		ctx.Events = append(ctx.Events, e.midi)
	}
	result.EventsApplied = len(ctx.Events)

	u.params.Snapshot(ctx.Params)
	if u.musical != nil {
		ctx.Musical, ctx.HasMusical = u.musical(ts)
	}

	result.FramesPulled = r.pullInput(frames, ts, pull)
	if result.FramesPulled < frames {
		result.Status = StatusInsufficientInput
		u.meter.Underrun()
	}

	if !u.runKernel(ctx) {
		silence(r.output, output, frames)
		result.Status = StatusKernelFault
		result.Elapsed = u.clock().Sub(start)
		u.meter.Fault()
		return result
	}

	r.storeOutput(output, frames)
	result.MIDISent, result.MIDIDropped = u.sendMIDI(ctx.MIDIOut)

	result.Elapsed = u.clock().Sub(start)
	budget := r.budget(frames)
	u.meter.Record(result.Elapsed, budget)
	if budget > 0 && result.Elapsed > budget {
		silence(r.output, output, frames)
		result.Status = StatusRenderOverrun
		u.meter.Overrun()
	}
	return result
}

// applyParameter sets a value checked when it was scheduled.
func (u *Unit) applyParameter(address uint64, value float64) {
	if p := u.params.Get(address); p != nil {
		_ = p.Set(value)
	}
}

// runKernel reports false if the kernel panicked.
func (u *Unit) runKernel(ctx *process.Context) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	u.kernel.Process(ctx)
	return true
}

func (u *Unit) sendMIDI(out *midi.OutputBuffer) (sent, dropped int) {
	dropped = out.Dropped()
	events := out.Events()
	if len(events) == 0 {
		return 0, dropped
	}

	target := u.midiOut.Load()
	if target == nil {
		return 0, dropped + len(events)
	}
	for i := range events {
		e := &events[i]
		if err := target.fn(e.SampleTime, e.Cable, e.Data[:e.Length]); err != nil {
			dropped++
			continue
		}
		sent++
	}
	return sent, dropped
}

// pullInput fills the kernel input for this block and returns how many
// frames upstream supplied.
func (r *resources) pullInput(frames int, ts Timestamp, pull PullFunc) int {
	ctx := r.ctx
	if pull == nil {
		ctx.ClearInput()
		return frames
	}

	n := r.input.BufferLength(frames)
	for i := range r.pullView {
		r.pullView[i] = r.pullStore[i][:n]
		clear(r.pullView[i])
	}

	got := max(0, min(pull(frames, ts, r.pullView), frames))

	if r.input.Format == bus.Float32Interleaved {
		process.LoadInterleaved(ctx.Input, r.pullView[0], frames)
	} else {
		process.LoadDeinterleaved(ctx.Input, r.pullView, frames)
	}
	if got < frames {
		for _, in := range ctx.Input {
			clear(in[got:])
		}
	}
	return got
}

func (r *resources) storeOutput(output [][]float32, frames int) {
	if r.output.Format == bus.Float32Interleaved {
		process.StoreInterleaved(output[0], r.ctx.Output, frames)
		return
	}
	process.StoreDeinterleaved(output, r.ctx.Output, frames)
}

// fits reports whether output can carry frames frames of d.
func fits(d bus.Descriptor, output [][]float32, frames int) bool {
	if len(output) != d.BufferChannels() {
		return false
	}
	n := d.BufferLength(frames)
	for _, b := range output {
		if len(b) < n {
			return false
		}
	}
	return true
}

func silence(d bus.Descriptor, output [][]float32, frames int) {
	n := d.BufferLength(frames)
	for _, b := range output {
		clear(b[:n])
	}
}
