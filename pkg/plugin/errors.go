package plugin

import (
	"errors"
	"fmt"

	"github.com/justyntemme/midiunit/pkg/framework/bus"
)

// Lifecycle errors returned on the control path.
var (
	ErrAlreadyAllocated = errors.New("render resources already allocated")
	ErrNotAllocated     = errors.New("render resources not allocated")
	ErrRenderInProgress = errors.New("render in progress")
)

// ErrUnsupportedFormat is returned when the buses or the block size cannot
// be rendered.
var ErrUnsupportedFormat = bus.ErrUnsupportedFormat

// Errors matching the non-OK render statuses.
var (
	ErrInsufficientInput = errors.New("insufficient input")
	ErrRenderOverrun     = errors.New("render overran its time budget")
	ErrTooManyFrames     = errors.New("too many frames to render")
	ErrInvalidBuffer     = errors.New("invalid output buffer")
	ErrKernelFault       = errors.New("kernel fault")
)

// Status is the result code of a render call. Render never returns an
// error value so that the hot path stays allocation free.
type Status int32

const (
	// StatusOK means the block was rendered normally.
	StatusOK Status = 0
	// StatusInsufficientInput means upstream supplied fewer frames than
	// requested; the rest was rendered from silence.
	StatusInsufficientInput Status = 1
	// StatusRenderOverrun means the block took longer than its budget; the
	// output was silenced.
	StatusRenderOverrun Status = 2
	// StatusTooManyFrames means the request exceeded MaximumFramesToRender.
	StatusTooManyFrames Status = -1
	// StatusNotAllocated means there were no render resources, or another
	// render call was already running.
	StatusNotAllocated Status = -2
	// StatusInvalidBuffer means the output buffer did not match the output
	// bus.
	StatusInvalidBuffer Status = -3
	// StatusKernelFault means the kernel panicked; the output was silenced.
	StatusKernelFault Status = -4
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusInsufficientInput:
		return "insufficient input"
	case StatusRenderOverrun:
		return "render overrun"
	case StatusTooManyFrames:
		return "too many frames"
	case StatusNotAllocated:
		return "not allocated"
	case StatusInvalidBuffer:
		return "invalid buffer"
	case StatusKernelFault:
		return "kernel fault"
	default:
		return fmt.Sprintf("status(%d)", int32(s))
	}
}

// Err returns the error for s, or nil for StatusOK.
func (s Status) Err() error {
	switch s {
	case StatusOK:
		return nil
	case StatusInsufficientInput:
		return ErrInsufficientInput
	case StatusRenderOverrun:
		return ErrRenderOverrun
	case StatusTooManyFrames:
		return ErrTooManyFrames
	case StatusNotAllocated:
		return ErrNotAllocated
	case StatusInvalidBuffer:
		return ErrInvalidBuffer
	case StatusKernelFault:
		return ErrKernelFault
	default:
		return fmt.Errorf("render failed: %s", s)
	}
}

// Rendered reports whether the output buffer holds kernel output. Overruns
// and faults leave silence instead.
func (s Status) Rendered() bool {
	return s == StatusOK || s == StatusInsufficientInput
}
