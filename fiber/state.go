package fiber

import "sync/atomic"

// State is one of the three states a Fiber can occupy.
type State int32

const (
	// Ready indicates the fiber is constructed (or Reset) and may be Resumed.
	Ready State = iota
	// Running indicates the fiber is the one currently executing.
	Running
	// Term indicates the fiber's entry callback has returned; its stack (in
	// our case, its now-exited goroutine) is free to be reused via Reset.
	Term
)

func (s State) String() string {
	switch s {
	case Ready:
		return "Ready"
	case Running:
		return "Running"
	case Term:
		return "Term"
	default:
		return "Unknown"
	}
}

// fastState is a lock-free CAS-based state cell, the same shape as
// eventloop.FastState, scaled down to the three fiber states.
type fastState struct {
	v atomic.Int32
}

func (s *fastState) Load() State                 { return State(s.v.Load()) }
func (s *fastState) Store(v State)                { s.v.Store(int32(v)) }
func (s *fastState) CompareAndSwap(from, to State) bool {
	return s.v.CompareAndSwap(int32(from), int32(to))
}
