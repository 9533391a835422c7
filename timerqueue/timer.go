package timerqueue

import (
	"container/heap"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// Forever is the sentinel NextTimeout returns when no timer is pending.
const Forever = time.Duration(math.MaxInt64)

// RolloverThreshold is how far backwards the wall clock must jump, relative
// to the last time DrainExpired observed it, before the manager treats
// every pending timer as expired. See Manager.DrainExpired.
const RolloverThreshold = time.Hour

var nextTimerSeq atomic.Uint64

// Timer is a single scheduled callback, owned by exactly one Manager.
type Timer struct {
	seq       uint64 // insertion sequence, the tie-break for equal deadlines
	deadline  time.Time
	period    time.Duration
	recurring bool
	cb        func()
	cond      func() bool // non-nil for AddConditional; skips firing cb if it returns false

	mgr     *Manager
	index   int // position in the manager's heap; -1 when not in the heap
	removed bool
}

// Cancel nulls the timer's callback (so a racing DrainExpired sees it as
// void) and removes it from its manager.
func (t *Timer) Cancel() {
	t.mgr.mu.Lock()
	defer t.mgr.mu.Unlock()
	t.cb = nil
	t.mgr.removeLocked(t)
}

// Refresh re-arms the timer for now+period, as if it had just fired.
func (t *Timer) Refresh() {
	t.mgr.mu.Lock()
	defer t.mgr.mu.Unlock()
	t.mgr.removeLocked(t)
	t.deadline = t.mgr.now().Add(t.period)
	t.mgr.insertLocked(t)
}

// Reset changes the timer's period. If fromNow, the new deadline is
// now+period; otherwise the new deadline is the old deadline shifted by the
// delta between the new and old periods (deadline - oldPeriod + period),
// preserving phase relative to the last fire.
func (t *Timer) Reset(period time.Duration, fromNow bool) {
	t.mgr.mu.Lock()
	defer t.mgr.mu.Unlock()
	t.mgr.removeLocked(t)
	if fromNow {
		t.deadline = t.mgr.now().Add(period)
	} else {
		t.deadline = t.deadline.Add(period - t.period)
	}
	t.period = period
	t.mgr.insertLocked(t)
}

// Manager owns an ordered set of Timers, strictly sorted by deadline with
// an identity tie-break, plus rollover detection on the wall clock.
type Manager struct {
	mu      sync.RWMutex
	h       timerHeap
	tickled bool
	lastNow time.Time

	// OnInsertedAtFront is invoked at most once between consecutive
	// NextTimeout calls, whenever Add/AddConditional makes a timer the new
	// earliest deadline. ioreactor.Manager overrides this to Tickle the
	// reactor so it re-enters epoll_wait with a shorter timeout. Nil is a
	// valid no-op default.
	OnInsertedAtFront func()

	// Now returns the current time used for scheduling and rollover
	// detection. Defaults to time.Now; overridable for deterministic tests.
	Now func() time.Time
}

// New returns an empty, ready-to-use Manager.
func New() *Manager {
	return &Manager{h: make(timerHeap, 0, 16)}
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// Add schedules cb to run after d, once or, if recurring, every d
// thereafter.
func (m *Manager) Add(d time.Duration, cb func(), recurring bool) *Timer {
	return m.addLocked(d, cb, nil, recurring)
}

// AddConditional behaves like Add, but cb only runs if cond() still returns
// true at fire time — e.g. when cond checks whether some associated object
// is still reachable.
func (m *Manager) AddConditional(d time.Duration, cb func(), cond func() bool, recurring bool) *Timer {
	if cond == nil {
		panic("timerqueue: AddConditional: nil cond")
	}
	return m.addLocked(d, cb, cond, recurring)
}

func (m *Manager) addLocked(d time.Duration, cb func(), cond func() bool, recurring bool) *Timer {
	if cb == nil {
		panic("timerqueue: Add: nil callback")
	}
	t := &Timer{
		seq:       nextTimerSeq.Add(1),
		period:    d,
		recurring: recurring,
		cb:        cb,
		cond:      cond,
		mgr:       m,
		index:     -1,
	}

	m.mu.Lock()
	t.deadline = m.now().Add(d)
	wasFront := len(m.h) > 0
	var oldFront *Timer
	if wasFront {
		oldFront = m.h[0]
	}
	m.insertLocked(t)
	becameFront := m.h[0] == t && (oldFront != t)
	var hook func()
	if becameFront && !m.tickled {
		m.tickled = true
		hook = m.OnInsertedAtFront
	}
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	return t
}

func (m *Manager) insertLocked(t *Timer) {
	t.removed = false
	heap.Push(&m.h, t)
}

func (m *Manager) removeLocked(t *Timer) {
	if t.index < 0 || t.removed {
		return
	}
	heap.Remove(&m.h, t.index)
	t.removed = true
	t.index = -1
}

// NextTimeout returns 0 if the earliest timer is already overdue, Forever
// if the set is empty, or the duration until the earliest deadline
// otherwise. Calling NextTimeout clears the "tickled" flag, re-arming
// OnInsertedAtFront for the next Add that jumps the queue.
func (m *Manager) NextTimeout() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickled = false

	if len(m.h) == 0 {
		return Forever
	}
	d := m.h[0].deadline.Sub(m.now())
	if d < 0 {
		return 0
	}
	return d
}

// Len reports the number of pending timers.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.h)
}

// DrainExpired appends the callback of every now-overdue timer to out,
// removing one-shot timers and re-inserting recurring ones with a fresh
// deadline of now+period. A Timer whose Cancel raced in and nulled its
// callback contributes nothing. A Timer constructed via AddConditional
// whose cond() now returns false is removed (or re-armed, if recurring)
// without appending anything.
//
// If the wall clock has moved backwards by more than RolloverThreshold
// since the last DrainExpired call, every pending timer is treated as
// expired this tick (see the package doc and spec.md §4.2).
func (m *Manager) DrainExpired(out *[]func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	// Round(0) strips the monotonic reading, so the rollover check compares
	// wall-clock readings rather than monotonic ones.
	wall := now.Round(0)
	rolledOver := !m.lastNow.IsZero() && wall.Before(m.lastNow.Add(-RolloverThreshold))
	m.lastNow = wall

	var expired []*Timer
	if rolledOver {
		expired = append(expired, m.h...)
		m.h = m.h[:0]
		for _, t := range expired {
			t.index = -1
			t.removed = true
		}
	} else {
		for len(m.h) > 0 && !m.h[0].deadline.After(now) {
			t := heap.Pop(&m.h).(*Timer)
			t.removed = true
			expired = append(expired, t)
		}
	}

	for _, t := range expired {
		fire := t.cb != nil && (t.cond == nil || t.cond())
		if fire {
			*out = append(*out, t.cb)
		}
		if t.recurring && t.cb != nil {
			t.deadline = now.Add(t.period)
			m.insertLocked(t)
		}
	}
}
