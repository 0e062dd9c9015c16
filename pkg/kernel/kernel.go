// Package kernel holds the block-oriented signal processors a unit renders
// with.
package kernel

import (
	"github.com/justyntemme/midiunit/pkg/framework/process"
)

// Config is the stream shape a kernel is allocated for.
type Config struct {
	SampleRate     float64
	InputChannels  int
	OutputChannels int
	MaxFrames      int
}

// Kernel is a block-oriented signal transform.
//
// Allocate and Deallocate run on the control path and may allocate.
// Reset and Process run on the render path and must not allocate, block or
// loop without bound.
type Kernel interface {
	// Allocate prepares the kernel for cfg. It rejects shapes it cannot
	// render with an error wrapping bus.ErrUnsupportedFormat.
	Allocate(cfg Config) error
	// Reset returns all state to silence.
	Reset()
	// Process renders ctx.NumSamples() frames from ctx.Input into
	// ctx.Output, applying ctx.Events at their offsets.
	Process(ctx *process.Context)
	// Deallocate releases what Allocate acquired.
	Deallocate()
}
