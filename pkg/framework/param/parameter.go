// Package param provides the parameter tree shared by the control and render paths.
package param

import (
	"fmt"
	"math"
	"strconv"
	"sync/atomic"
)

// Parameter represents one exposed control of the unit.
//
// Everything except the current value is fixed once the parameter has been
// added to a Store. The value is a plain (un-normalized) float64 held in a
// single atomic slot, so a reader on the render path never observes a torn
// write and never waits on the writer.
type Parameter struct {
	Address      uint64
	Identifier   string
	Name         string
	Unit         string
	Min          float64
	Max          float64
	DefaultValue float64
	StepCount    int32
	Flags        uint32

	index int
	value atomic.Uint64

	// Value formatting
	formatFunc func(float64) string
	parseFunc  func(string) (float64, error)
}

// Flags for parameters
const (
	IsReadable   uint32 = 1 << 0
	IsWritable   uint32 = 1 << 1
	CanAutomate  uint32 = 1 << 2
	IsHidden     uint32 = 1 << 3
	IsDiscrete   uint32 = 1 << 4
	DefaultFlags        = IsReadable | IsWritable | CanAutomate
)

// Value returns the last published plain value.
func (p *Parameter) Value() float64 {
	return math.Float64frombits(p.value.Load())
}

// Set validates, clamps and publishes a plain value.
// Non-finite values are rejected and leave the previous value in place.
func (p *Parameter) Set(value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: %q rejects non-finite value %v", ErrInvalidParameter, p.Identifier, value)
	}
	p.value.Store(math.Float64bits(p.Clamp(value)))
	return nil
}

// Reset publishes the default value.
func (p *Parameter) Reset() {
	p.value.Store(math.Float64bits(p.Clamp(p.DefaultValue)))
}

// Index is the position of the parameter inside its store, and therefore
// inside every snapshot taken from it.
func (p *Parameter) Index() int {
	return p.index
}

// Clamp limits value to [Min, Max].
func (p *Parameter) Clamp(value float64) float64 {
	if value < p.Min {
		return p.Min
	}
	if value > p.Max {
		return p.Max
	}
	return value
}

// SetFormatter sets custom value formatting
func (p *Parameter) SetFormatter(format func(float64) string, parse func(string) (float64, error)) {
	p.formatFunc = format
	p.parseFunc = parse
}

// FormatValue returns the display string for a plain value.
func (p *Parameter) FormatValue(plain float64) string {
	if p.formatFunc != nil {
		return p.formatFunc(plain)
	}
	if p.StepCount > 0 {
		return fmt.Sprintf("%.0f", plain)
	}
	return fmt.Sprintf("%.2f", plain)
}

// ParseValue parses a display string into a clamped plain value.
func (p *Parameter) ParseValue(str string) (float64, error) {
	var (
		plain float64
		err   error
	)
	if p.parseFunc != nil {
		plain, err = p.parseFunc(str)
	} else {
		plain, err = strconv.ParseFloat(str, 64)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %q cannot parse %q: %v", ErrInvalidParameter, p.Identifier, str, err)
	}
	if math.IsNaN(plain) || math.IsInf(plain, 0) {
		return 0, fmt.Errorf("%w: %q parsed non-finite value from %q", ErrInvalidParameter, p.Identifier, str)
	}
	return p.Clamp(plain), nil
}

// Normalize converts plain value to normalized (0-1)
func (p *Parameter) Normalize(plain float64) float64 {
	if p.Max <= p.Min {
		return 0
	}
	normalized := (plain - p.Min) / (p.Max - p.Min)
	if normalized < 0 {
		return 0
	}
	if normalized > 1 {
		return 1
	}
	return normalized
}

// Denormalize converts normalized (0-1) to plain value
func (p *Parameter) Denormalize(normalized float64) float64 {
	if normalized < 0 {
		normalized = 0
	} else if normalized > 1 {
		normalized = 1
	}
	return p.Min + normalized*(p.Max-p.Min)
}

// IsWritable reports whether the control path may change the value.
func (p *Parameter) IsWritable() bool {
	return p.Flags&IsWritable != 0
}
