package fiber

import (
	"sync"
	"sync/atomic"

	"github.com/weavert/weave/internal/gid"
)

var nextFiberID atomic.Uint64

// Fiber is a stackful-equivalent coroutine. See the package doc for how
// Resume/Yield are implemented without a real machine-context switch.
type Fiber struct {
	id    uint64
	state fastState

	mu             sync.Mutex // guards entry/stackSize/goroutineLive across Reset
	entry          func()
	stackSize      int
	runInScheduler bool
	isMain         bool
	goroutineLive  bool

	in  chan struct{}
	out chan struct{}
}

var (
	fibersMu sync.Mutex
	fibers   = map[uint64]*Fiber{} // gid -> the Fiber currently owning that goroutine
)

// New creates a Fiber in state Ready, wrapping cb as its one-shot entry
// callback. cb is cleared once it returns.
func New(cb func(), opts ...Option) *Fiber {
	if cb == nil {
		panic("fiber: New: nil callback")
	}
	cfg := resolveOptions(opts)
	f := &Fiber{
		id:             nextFiberID.Add(1),
		entry:          cb,
		stackSize:      cfg.stackSize,
		runInScheduler: cfg.runInScheduler,
		in:             make(chan struct{}),
		out:            make(chan struct{}),
	}
	f.state.Store(Ready)
	return f
}

// ID returns the fiber's stable identifier.
func (f *Fiber) ID() uint64 { return f.id }

// State returns the fiber's current lifecycle state.
func (f *Fiber) State() State { return f.state.Load() }

// RunInScheduler reports the flag given via WithRunInScheduler at
// construction (or the most recent Reset).
func (f *Fiber) RunInScheduler() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runInScheduler
}

// StackSize returns the informational stack size (see DefaultStackSize).
func (f *Fiber) StackSize() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stackSize
}

// IsMain reports whether this Fiber is a thread's main fiber: the one
// representing the caller's own flow of control, with no owned goroutine
// and never scheduled as a task.
func (f *Fiber) IsMain() bool { return f.isMain }

// Resume switches execution from the calling goroutine into f, blocking
// until f either Yields or reaches Term.
//
// Resume panics with *PreconditionError if f is the main fiber or is not in
// state Ready.
func (f *Fiber) Resume() {
	if f.isMain {
		panicPrecondition("Resume", f.id, "cannot resume the main fiber")
	}
	if !f.state.CompareAndSwap(Ready, Running) {
		panicPrecondition("Resume", f.id, "fiber is not Ready (state=%s)", f.state.Load())
	}

	f.mu.Lock()
	needsStart := !f.goroutineLive
	f.goroutineLive = true
	f.mu.Unlock()

	if needsStart {
		go f.trampoline()
	} else {
		f.in <- struct{}{}
	}

	<-f.out
}

// Yield switches execution from f back to whichever goroutine last called
// Resume on it, returning from that Resume call. Yield must be called from
// inside f's own goroutine.
//
// Yield panics with *PreconditionError if f is the main fiber or is not in
// state Running or Term.
func (f *Fiber) Yield() {
	s := f.state.Load()
	if f.isMain {
		panicPrecondition("Yield", f.id, "cannot yield the main fiber")
	}
	if s != Running && s != Term {
		panicPrecondition("Yield", f.id, "fiber is not Running or Term (state=%s)", s)
	}

	if s == Running {
		f.state.Store(Ready)
	}
	f.out <- struct{}{}
	if s == Term {
		// Nothing will ever Resume a terminated fiber again; the goroutine
		// that called Yield (the trampoline) is about to return and exit.
		return
	}
	<-f.in
}

// Reset rearms a Term fiber with a fresh entry callback, returning it to
// Ready so its (now-exited) goroutine slot can be reused by the next
// Resume. Reset panics with *PreconditionError if f is not in state Term.
func (f *Fiber) Reset(cb func(), opts ...Option) {
	if cb == nil {
		panic("fiber: Reset: nil callback")
	}
	if f.state.Load() != Term {
		panicPrecondition("Reset", f.id, "fiber is not Term (state=%s)", f.state.Load())
	}
	cfg := resolveOptions(opts)

	f.mu.Lock()
	f.entry = cb
	f.stackSize = cfg.stackSize
	f.runInScheduler = cfg.runInScheduler
	f.goroutineLive = false
	f.mu.Unlock()

	f.state.Store(Ready)
}

// trampoline is the body of a fiber's dedicated goroutine. It registers the
// fiber against the calling goroutine's id, runs the entry callback exactly
// once, transitions to Term, drops the callback, and yields — handing
// control back to whichever goroutine is parked in Resume.
func (f *Fiber) trampoline() {
	id := gid.Current()
	fibersMu.Lock()
	fibers[id] = f
	fibersMu.Unlock()
	defer func() {
		fibersMu.Lock()
		delete(fibers, id)
		fibersMu.Unlock()
	}()

	f.entry()

	f.mu.Lock()
	f.entry = nil
	f.mu.Unlock()
	f.state.Store(Term)

	f.Yield()
}

// GetThis returns the Fiber currently executing on the calling goroutine,
// lazily creating and registering a main fiber the first time a given
// goroutine is asked about.
func GetThis() *Fiber {
	id := gid.Current()

	fibersMu.Lock()
	f, ok := fibers[id]
	if ok {
		fibersMu.Unlock()
		return f
	}
	main := &Fiber{
		id:     nextFiberID.Add(1),
		isMain: true,
	}
	main.state.Store(Running)
	fibers[id] = main
	fibersMu.Unlock()
	return main
}

// GetFiberID returns GetThis().ID(), a convenience for callers that only
// need the identifier.
func GetFiberID() uint64 { return GetThis().ID() }
