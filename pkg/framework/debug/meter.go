package debug

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"
)

// Meter keeps render timing statistics. Record is wait-free and allocation
// free so the render path can call it once per block; the readers run on the
// control path.
type Meter struct {
	count     atomic.Uint64
	overruns  atomic.Uint64
	faults    atomic.Uint64
	underruns atomic.Uint64
	total     atomic.Int64
	last      atomic.Int64
	max       atomic.Int64
	min       atomic.Int64

	// last block load as float64 bits, 1.0 is the whole block duration
	load atomic.Uint64
}

// NewMeter creates an empty meter.
func NewMeter() *Meter {
	m := &Meter{}
	m.min.Store(math.MaxInt64)
	return m
}

// Record adds one rendered block that took elapsed and had budget to spend.
func (m *Meter) Record(elapsed, budget time.Duration) {
	m.count.Add(1)
	m.total.Add(int64(elapsed))
	m.last.Store(int64(elapsed))

	for {
		cur := m.max.Load()
		if int64(elapsed) <= cur || m.max.CompareAndSwap(cur, int64(elapsed)) {
			break
		}
	}
	for {
		cur := m.min.Load()
		if int64(elapsed) >= cur || m.min.CompareAndSwap(cur, int64(elapsed)) {
			break
		}
	}

	if budget > 0 {
		m.load.Store(math.Float64bits(float64(elapsed) / float64(budget)))
	}
}

// Overrun counts a block that blew its budget.
func (m *Meter) Overrun() { m.overruns.Add(1) }

// Fault counts a block whose kernel panicked.
func (m *Meter) Fault() { m.faults.Add(1) }

// Underrun counts a block whose input pull came up short.
func (m *Meter) Underrun() { m.underruns.Add(1) }

// Stats is a point-in-time copy of a Meter.
type Stats struct {
	Blocks    uint64
	Overruns  uint64
	Faults    uint64
	Underruns uint64
	Total     time.Duration
	Last      time.Duration
	Min       time.Duration
	Max       time.Duration
	Load      float64
}

// Average returns the mean block time.
func (s Stats) Average() time.Duration {
	if s.Blocks == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Blocks)
}

// String formats the stats as a short report.
func (s Stats) String() string {
	var sb strings.Builder
	sb.WriteString("Render Report:\n")
	fmt.Fprintf(&sb, "  Blocks:    %d\n", s.Blocks)
	fmt.Fprintf(&sb, "  Average:   %v\n", s.Average())
	fmt.Fprintf(&sb, "  Min:       %v\n", s.Min)
	fmt.Fprintf(&sb, "  Max:       %v\n", s.Max)
	fmt.Fprintf(&sb, "  Load:      %.2f%%\n", s.Load*100)
	fmt.Fprintf(&sb, "  Overruns:  %d\n", s.Overruns)
	fmt.Fprintf(&sb, "  Underruns: %d\n", s.Underruns)
	fmt.Fprintf(&sb, "  Faults:    %d\n", s.Faults)
	return sb.String()
}

// Stats returns the current statistics. Fields are read one at a time, so a
// concurrent Record may show up in some and not others.
func (m *Meter) Stats() Stats {
	s := Stats{
		Blocks:    m.count.Load(),
		Overruns:  m.overruns.Load(),
		Faults:    m.faults.Load(),
		Underruns: m.underruns.Load(),
		Total:     time.Duration(m.total.Load()),
		Last:      time.Duration(m.last.Load()),
		Max:       time.Duration(m.max.Load()),
		Load:      math.Float64frombits(m.load.Load()),
	}
	if s.Blocks > 0 {
		s.Min = time.Duration(m.min.Load())
	}
	return s
}

// Reset clears all statistics.
func (m *Meter) Reset() {
	m.count.Store(0)
	m.overruns.Store(0)
	m.faults.Store(0)
	m.underruns.Store(0)
	m.total.Store(0)
	m.last.Store(0)
	m.max.Store(0)
	m.min.Store(math.MaxInt64)
	m.load.Store(0)
}
