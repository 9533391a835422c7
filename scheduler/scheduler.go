package scheduler

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/weavert/weave/fiber"
	"github.com/weavert/weave/internal/gid"
	"github.com/weavert/weave/thread"
)

// idleTickleWait bounds how long a worker's default idle fiber sleeps
// between checks of Stopping when no tickle arrives.
const idleTickleWait = 50 * time.Millisecond

var (
	currentMu sync.Mutex
	current   = map[uint64]*Scheduler{} // goroutine id -> bound scheduler
)

// GetThis returns the Scheduler bound to the calling goroutine-thread, or
// nil if none. A goroutine is bound for the lifetime of the worker loop it
// is running (see runWorker).
func GetThis() *Scheduler {
	id := gid.Current()
	currentMu.Lock()
	defer currentMu.Unlock()
	return current[id]
}

func bindCurrent(s *Scheduler) {
	id := gid.Current()
	currentMu.Lock()
	current[id] = s
	currentMu.Unlock()
}

func unbindCurrent() {
	id := gid.Current()
	currentMu.Lock()
	delete(current, id)
	currentMu.Unlock()
}

// fiberThread maps a Fiber's id to the worker threadID that most recently
// resumed it. A fiber resumed via Resume() runs on a goroutine of its own
// (see the fiber package doc), not the worker's dispatch-loop goroutine,
// so CurrentThreadID can't simply key off the calling goroutine's id the
// way GetThis does — it keys off the fiber's identity instead, which
// Resume keeps current.
var (
	fiberThreadMu sync.Mutex
	fiberThread   = map[uint64]int{}
)

func setFiberThread(fiberID uint64, threadID int) {
	fiberThreadMu.Lock()
	fiberThread[fiberID] = threadID
	fiberThreadMu.Unlock()
}

func clearFiberThread(fiberID uint64) {
	fiberThreadMu.Lock()
	delete(fiberThread, fiberID)
	fiberThreadMu.Unlock()
}

// CurrentThreadID returns the worker id of whichever worker most recently
// resumed the calling fiber, or (0, false) if the calling code is not
// running inside a fiber dispatched by a Scheduler (e.g. the main fiber,
// or a fiber the caller is driving directly without a Scheduler).
func CurrentThreadID() (int, bool) {
	f := fiber.GetThis()
	fiberThreadMu.Lock()
	defer fiberThreadMu.Unlock()
	id, ok := fiberThread[f.ID()]
	return id, ok
}

// Scheduler dispatches Tasks across N worker goroutines, optionally
// including the goroutine that calls Start (WithCaller). See the
// package doc for the dispatch-loop contract.
type Scheduler struct {
	workers   int
	useCaller bool

	mu    sync.Mutex
	queue taskQueue

	stopFlag    atomic.Bool
	started     atomic.Bool
	busyWorkers atomic.Int32

	wake chan struct{}

	idleMu      sync.Mutex
	idleFibers  []*fiber.Fiber
	callerFiber *fiber.Fiber

	threads []*thread.Thread
	wg      sync.WaitGroup

	metrics Metrics

	// Idle, if set, overrides the per-worker idle fiber body. ioreactor.Manager
	// sets this to its epoll-backed reactor loop. Must be set before Start.
	Idle func(threadID int) func()

	// TickleFunc, if set, overrides the default wake-one-idle-worker signal.
	// ioreactor.Manager sets this to a pipe-byte write. Must be set before
	// Start.
	TickleFunc func()

	// StoppingExtra, if set, is ANDed into Stopping — ioreactor.Manager sets
	// this to also require its pending-event counter be zero.
	StoppingExtra func() bool
}

// New constructs a Scheduler with the given worker count (clamped to at
// least 1). It fails if the calling goroutine already has a scheduler
// bound to its "current scheduler" slot (see GetThis).
func New(workers int, opts ...Option) (*Scheduler, error) {
	if workers < 1 {
		workers = 1
	}
	if GetThis() != nil {
		return nil, ErrAlreadyBound
	}
	cfg := resolveOptions(opts)
	s := &Scheduler{
		workers:    workers,
		useCaller:  cfg.useCaller,
		wake:       make(chan struct{}, workers),
		idleFibers: make([]*fiber.Fiber, workers),
	}
	s.metrics.enabled = cfg.metricsEnabled
	return s, nil
}

// Metrics returns a snapshot of the scheduler's optional counters.
func (s *Scheduler) Metrics() Snapshot { return s.metrics.Snapshot() }

// Schedule enqueues t, binding it to a specific worker if t.Thread is set.
// If the queue was empty, Schedule tickles one idle worker awake.
func (s *Scheduler) Schedule(t Task) error {
	t.validate()
	if s.stopFlag.Load() {
		return ErrStopped
	}
	s.mu.Lock()
	wasEmpty := s.queue.Empty()
	s.queue.Push(t)
	depth := s.queue.Len()
	s.mu.Unlock()
	s.metrics.recordQueueDepth(depth)
	if wasEmpty {
		s.tickle()
	}
	return nil
}

func (s *Scheduler) tickle() {
	if s.TickleFunc != nil {
		s.TickleFunc()
		return
	}
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Stopping reports whether the scheduler has been asked to stop, has an
// empty queue, and has no worker currently dispatching a task. ioreactor
// ANDs in StoppingExtra (its own pending-event counter).
func (s *Scheduler) Stopping() bool {
	if !s.stopFlag.Load() {
		return false
	}
	s.mu.Lock()
	empty := s.queue.Empty()
	s.mu.Unlock()
	if !empty || s.busyWorkers.Load() != 0 {
		return false
	}
	if s.StoppingExtra != nil {
		return s.StoppingExtra()
	}
	return true
}

// Start is idempotent. It spawns one worker thread per worker (each a named
// thread.Thread, per spec.md's OS-thread-wrapper). If WithCaller was set,
// only workers-1 threads are spawned and worker 0 is wrapped in a fiber
// that the calling goroutine resumes — blocking Start until that worker
// observes Stopping and terminates.
func (s *Scheduler) Start() error {
	if !s.started.CompareAndSwap(false, true) {
		return nil
	}

	first := 0
	if s.useCaller {
		first = 1
	}
	s.threads = make([]*thread.Thread, 0, s.workers-first)
	for i := first; i < s.workers; i++ {
		id := i
		t := thread.New(fmt.Sprintf("scheduler-worker-%d", id))
		t.Start(func() { s.runWorker(id) })
		s.threads = append(s.threads, t)
	}

	if s.useCaller {
		s.wg.Add(1)
		f := fiber.New(func() {
			defer s.wg.Done()
			s.runWorker(0)
		}, fiber.WithRunInScheduler(false))
		s.callerFiber = f
		f.Resume()
	}
	return nil
}

// Stop sets the stopping flag, tickles every worker awake so each notices
// the flag and its idle fiber reaches Term, then joins all of them.
func (s *Scheduler) Stop() {
	if !s.stopFlag.CompareAndSwap(false, true) {
		s.joinAll()
		return
	}
	for i := 0; i < s.workers; i++ {
		s.tickle()
	}
	s.joinAll()
}

func (s *Scheduler) joinAll() {
	for _, t := range s.threads {
		t.Join()
	}
	s.wg.Wait()
}

func (s *Scheduler) idleFiberFor(threadID int) *fiber.Fiber {
	s.idleMu.Lock()
	defer s.idleMu.Unlock()
	if s.idleFibers[threadID] == nil {
		body := s.Idle
		if body == nil {
			body = s.defaultIdleBody
		}
		f := fiber.New(body(threadID))
		setFiberThread(f.ID(), threadID)
		s.idleFibers[threadID] = f
	}
	return s.idleFibers[threadID]
}

// defaultIdleBody is the base-Scheduler idle fiber: sleep briefly (or
// until tickled), yield, repeat, until Stopping.
func (s *Scheduler) defaultIdleBody(threadID int) func() {
	return func() {
		for {
			if s.Stopping() {
				return
			}
			select {
			case <-time.After(idleTickleWait):
			case <-s.wake:
			}
			fiber.GetThis().Yield()
		}
	}
}

// runWorker is the dispatch loop described in spec.md §4.3: pop an
// eligible task (respecting thread affinity), tickling peers if any entry
// was skipped or the queue remains non-empty; resume its fiber or wrap its
// callback; or fall back to the thread-local idle fiber, exiting once the
// idle fiber reaches Term.
func (s *Scheduler) runWorker(threadID int) {
	bindCurrent(s)
	defer unbindCurrent()

	idle := s.idleFiberFor(threadID)
	for {
		s.mu.Lock()
		task, found, skip := s.queue.PopEligible(threadID)
		s.mu.Unlock()

		if skip {
			s.tickle()
		}

		if found {
			s.dispatch(task, threadID)
			continue
		}

		idle.Resume()
		s.metrics.recordIdleTick()
		if idle.State() == fiber.Term {
			return
		}
	}
}

func (s *Scheduler) dispatch(t Task, threadID int) {
	t.validate()
	s.busyWorkers.Add(1)
	defer s.busyWorkers.Add(-1)

	switch {
	case t.Fiber != nil:
		if t.Fiber.State() != fiber.Term {
			setFiberThread(t.Fiber.ID(), threadID)
			t.Fiber.Resume()
			if t.Fiber.State() == fiber.Term {
				clearFiberThread(t.Fiber.ID())
			}
		}
	case t.Callback != nil:
		f := fiber.New(t.Callback)
		setFiberThread(f.ID(), threadID)
		f.Resume()
		clearFiberThread(f.ID())
	}
	s.metrics.recordDispatch()
}
