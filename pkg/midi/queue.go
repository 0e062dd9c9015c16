package midi

import (
	"cmp"
	"errors"
	"slices"
	"sync/atomic"
)

// ErrQueueFull is returned when the control path schedules more events than
// the render path can hold.
var ErrQueueFull = errors.New("MIDI queue full")

// DefaultQueueCapacity is the number of events that can be outstanding
// between the control path and the render path.
const DefaultQueueCapacity = 256

// Ring is a bounded single-producer/single-consumer queue.
//
// Storage is allocated once. Push and Pop are wait-free: each side owns one
// index and only reads the other's with an atomic load.
type Ring[T any] struct {
	buf  []T
	mask uint64
	head atomic.Uint64 // next slot to read, owned by the consumer
	tail atomic.Uint64 // next slot to write, owned by the producer
}

// NewRing creates a ring holding at least capacity items. The capacity is
// rounded up to a power of two.
func NewRing[T any](capacity int) *Ring[T] {
	size := 1
	for size < capacity {
		size <<= 1
	}
	return &Ring[T]{
		buf:  make([]T, size),
		mask: uint64(size - 1),
	}
}

// Push appends an item. It returns false when the ring is full.
// Producer side only.
func (r *Ring[T]) Push(e T) bool {
	tail := r.tail.Load()
	if tail-r.head.Load() == uint64(len(r.buf)) {
		return false
	}
	r.buf[tail&r.mask] = e
	r.tail.Store(tail + 1)
	return true
}

// Pop removes the oldest item. Consumer side only.
func (r *Ring[T]) Pop() (T, bool) {
	head := r.head.Load()
	if head == r.tail.Load() {
		var zero T
		return zero, false
	}
	e := r.buf[head&r.mask]
	r.head.Store(head + 1)
	return e, true
}

// Len returns the number of queued items.
func (r *Ring[T]) Len() int {
	return int(r.tail.Load() - r.head.Load())
}

// Cap returns the ring capacity.
func (r *Ring[T]) Cap() int {
	return len(r.buf)
}

// Discard drops every queued item and returns how many there were.
// Consumer side only.
func (r *Ring[T]) Discard() int {
	head := r.head.Load()
	tail := r.tail.Load()
	r.head.Store(tail)
	return int(tail - head)
}

// Scheduler hands timestamped items from one producer to the render path.
//
// The producer pushes in any time order. Each block the render side moves
// everything queued in the ring into a fixed arena, hands out the items that
// fall inside the block in time order and keeps the rest for later blocks.
//
// Push refuses an item once capacity items are outstanding, counting both
// the ring and the held-back arena. The arena therefore always has room for
// the whole ring and an item due in the current block is never stuck behind
// far-future ones.
type Scheduler[T any] struct {
	ring        *Ring[T]
	capacity    int64
	outstanding atomic.Int64
	timeOf      func(T) int64
	compare     func(a, b T) int

	// render side
	pending  []T
	npending int
	block    []T
}

// NewScheduler creates a scheduler holding up to capacity items. timeOf
// returns an item's absolute sample time.
func NewScheduler[T any](capacity int, timeOf func(T) int64) *Scheduler[T] {
	capacity = max(capacity, 1)
	return &Scheduler[T]{
		ring:     NewRing[T](capacity),
		capacity: int64(capacity),
		timeOf:   timeOf,
		compare: func(a, b T) int {
			return cmp.Compare(timeOf(a), timeOf(b))
		},
		pending: make([]T, capacity),
		block:   make([]T, capacity),
	}
}

// Push queues an item. It returns false when capacity items are already
// outstanding. Producer side only; callers serialize producers.
func (s *Scheduler[T]) Push(e T) bool {
	if s.outstanding.Load() >= s.capacity {
		return false
	}
	s.outstanding.Add(1)
	if !s.ring.Push(e) {
		s.outstanding.Add(-1)
		return false
	}
	return true
}

// Drain returns the items with a time before start+frames, sorted by time.
// Items earlier than start are late and come first. The returned slice is
// reused by the next call. It does not allocate. Consumer side only.
func (s *Scheduler[T]) Drain(start int64, frames int) []T {
	for s.npending < len(s.pending) {
		e, ok := s.ring.Pop()
		if !ok {
			break
		}
		s.pending[s.npending] = e
		s.npending++
	}

	end := start + int64(frames)
	n, keep := 0, 0
	for i := 0; i < s.npending; i++ {
		e := s.pending[i]
		if s.timeOf(e) < end {
			s.block[n] = e
			n++
			continue
		}
		s.pending[keep] = e
		keep++
	}
	s.npending = keep
	s.outstanding.Add(-int64(n))

	block := s.block[:n]
	if n > 1 {
		slices.SortStableFunc(block, s.compare)
	}
	return block
}

// Outstanding returns how many items were pushed and not yet handed out by
// Drain, whether still in the ring or held back for a later block.
func (s *Scheduler[T]) Outstanding() int {
	return int(s.outstanding.Load())
}

// Cap returns the most items that can be outstanding.
func (s *Scheduler[T]) Cap() int {
	return int(s.capacity)
}

// Reset drops held-back and queued items. Consumer side only.
func (s *Scheduler[T]) Reset() {
	dropped := s.ring.Discard() + s.npending
	s.npending = 0
	s.outstanding.Add(-int64(dropped))
}

// OutputBuffer collects the events a kernel emits during one block.
type OutputBuffer struct {
	events  []Event
	n       int
	dropped int
}

// NewOutputBuffer creates a buffer holding up to capacity events per block.
func NewOutputBuffer(capacity int) *OutputBuffer {
	return &OutputBuffer{events: make([]Event, capacity)}
}

// Send appends an event; when the buffer is full the event is dropped and
// counted.
func (b *OutputBuffer) Send(e Event) bool {
	if b.n == len(b.events) {
		b.dropped++
		return false
	}
	b.events[b.n] = e
	b.n++
	return true
}

// Events returns the events sent since the last Reset.
func (b *OutputBuffer) Events() []Event {
	return b.events[:b.n]
}

// Len returns the number of buffered events.
func (b *OutputBuffer) Len() int {
	return b.n
}

// Dropped returns how many events did not fit since the last Reset.
func (b *OutputBuffer) Dropped() int {
	return b.dropped
}

// Reset empties the buffer.
func (b *OutputBuffer) Reset() {
	b.n = 0
	b.dropped = 0
}
