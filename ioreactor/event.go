package ioreactor

import (
	"sync"

	"github.com/weavert/weave/fiber"
	"github.com/weavert/weave/scheduler"
)

// Event is a direction bit: Read, Write, or both. Values match
// spec.md §6's external bit assignment ({NONE=0, READ=1, WRITE=4}, mirroring
// EPOLLIN/EPOLLOUT) rather than a packed 1,2 enumeration.
type Event uint32

const (
	Read  Event = 1
	Write Event = 4
)

// has reports whether e contains bit.
func (e Event) has(bit Event) bool { return e&bit != 0 }

// eventSlot is the armed waiter for one direction (read xor write) of one
// fd: either a callback or a fiber to resume, plus the scheduler to
// dispatch it on.
type eventSlot struct {
	armed bool
	sched *scheduler.Scheduler
	cb    func()
	fib   *fiber.Fiber
}

func (s *eventSlot) fire() {
	if !s.armed {
		return
	}
	sched, cb, fib := s.sched, s.cb, s.fib
	*s = eventSlot{}
	if sched == nil {
		return
	}
	if cb != nil {
		_ = sched.Schedule(scheduler.Task{Callback: cb})
		return
	}
	if fib != nil {
		_ = sched.Schedule(scheduler.Task{Fiber: fib})
	}
}

// fdContext holds the per-fd armed-event state. Its mutex must never be
// held while the Manager's fds-slice lock is held (spec.md §5 lock
// ordering), and vice versa: fds-slice growth never touches slot content.
type fdContext struct {
	mu    sync.Mutex
	read  eventSlot
	write eventSlot
}

func (c *fdContext) armedMask() Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armedMaskLocked()
}

func (c *fdContext) armedMaskLocked() Event {
	var m Event
	if c.read.armed {
		m |= Read
	}
	if c.write.armed {
		m |= Write
	}
	return m
}

func (c *fdContext) slot(ev Event) *eventSlot {
	if ev == Read {
		return &c.read
	}
	return &c.write
}
