package plugin

import (
	"fmt"
	"time"

	"github.com/justyntemme/midiunit/pkg/framework/bus"
	"github.com/justyntemme/midiunit/pkg/framework/process"
	"github.com/justyntemme/midiunit/pkg/kernel"
	"github.com/sirupsen/logrus"
)

// resources is everything the render path touches, built once per
// allocation.
type resources struct {
	input      bus.Descriptor
	output     bus.Descriptor
	maxFrames  int
	sampleRate float64

	ctx *process.Context

	// host-format input pulled from upstream
	pullStore [][]float32
	pullView  [][]float32

	// seconds of budget per frame, 0 when unchecked
	budgetPerFrame float64
}

func newResources(in, out bus.Descriptor, maxFrames, paramCount, queueCapacity int, budget float64) *resources {
	ctx := process.NewContext(in.ChannelCount, out.ChannelCount, maxFrames, paramCount, queueCapacity, out.SampleRate)

	r := &resources{
		input:          in,
		output:         out,
		maxFrames:      maxFrames,
		sampleRate:     out.SampleRate,
		ctx:            ctx,
		pullStore:      make([][]float32, in.BufferChannels()),
		pullView:       make([][]float32, in.BufferChannels()),
		budgetPerFrame: budget / out.SampleRate,
	}
	for i := range r.pullStore {
		r.pullStore[i] = make([]float32, in.BufferLength(maxFrames))
	}
	return r
}

// budget returns the time frames frames may take.
func (r *resources) budget(frames int) time.Duration {
	return time.Duration(r.budgetPerFrame * float64(frames) * float64(time.Second))
}

// AllocateRenderResources validates the buses, allocates the kernel and the
// render scratch, and makes the unit ready to render. Events queued before
// the call are discarded. On failure the unit is left as it was.
func (u *Unit) AllocateRenderResources() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	switch u.State() {
	case StateAllocated:
		return ErrAlreadyAllocated
	case StateRendering:
		return ErrRenderInProgress
	}

	if err := u.buses.Validate(); err != nil {
		u.log.WithFields(logrus.Fields{
			"function": "AllocateRenderResources",
			"error":    err.Error(),
		}).Warn("Bus validation failed")
		return err
	}

	in, out := u.buses.Input(), u.buses.Output()
	maxFrames := u.MaximumFramesToRender()
	cfg := kernel.Config{
		SampleRate:     out.SampleRate,
		InputChannels:  in.ChannelCount,
		OutputChannels: out.ChannelCount,
		MaxFrames:      maxFrames,
	}
	if err := u.kernel.Allocate(cfg); err != nil {
		u.kernel.Deallocate()
		u.log.WithFields(logrus.Fields{
			"function": "AllocateRenderResources",
			"error":    err.Error(),
		}).Warn("Kernel rejected configuration")
		return fmt.Errorf("allocate kernel: %w", err)
	}

	r := newResources(in, out, maxFrames, u.params.Count(), u.events.Cap(), u.budget)
	u.kernel.Reset()
	u.buses.Freeze()
	u.events.Reset()
	u.meter.Reset()

	u.res = r
	u.state.Store(int32(StateAllocated))

	u.log.WithFields(logrus.Fields{
		"function":    "AllocateRenderResources",
		"sample_rate": out.SampleRate,
		"inputs":      in.ChannelCount,
		"outputs":     out.ChannelCount,
		"input_fmt":   in.Format.String(),
		"output_fmt":  out.Format.String(),
		"max_frames":  maxFrames,
	}).Info("Render resources allocated")
	return nil
}

// DeallocateRenderResources releases the render resources. It is a no-op
// when nothing is allocated.
func (u *Unit) DeallocateRenderResources() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if !u.transition(StateAllocated, StateDeallocated) {
		if u.State() == StateRendering {
			return ErrRenderInProgress
		}
		return nil
	}

	u.kernel.Deallocate()
	u.res = nil
	u.buses.Thaw()

	stats := u.meter.Stats()
	u.log.WithFields(logrus.Fields{
		"function":  "DeallocateRenderResources",
		"blocks":    stats.Blocks,
		"overruns":  stats.Overruns,
		"underruns": stats.Underruns,
		"faults":    stats.Faults,
	}).Info("Render resources released")
	return nil
}
