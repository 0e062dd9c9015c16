package plugin

import "fmt"

// State is the lifecycle state of a Unit.
type State int32

const (
	// StateUninitialized is a unit that has never been allocated.
	StateUninitialized State = iota
	// StateAllocated is a unit ready to render.
	StateAllocated
	// StateRendering is a unit inside a render call.
	StateRendering
	// StateDeallocated is a unit whose resources were released.
	StateDeallocated
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateAllocated:
		return "allocated"
	case StateRendering:
		return "rendering"
	case StateDeallocated:
		return "deallocated"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// State returns the current lifecycle state.
func (u *Unit) State() State {
	return State(u.state.Load())
}

// IsAllocated reports whether render resources are held.
func (u *Unit) IsAllocated() bool {
	s := u.State()
	return s == StateAllocated || s == StateRendering
}

func (u *Unit) transition(from, to State) bool {
	return u.state.CompareAndSwap(int32(from), int32(to))
}
