//go:build linux

package hook

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/weavert/weave/fiber"
	"github.com/weavert/weave/ioreactor"
	"github.com/weavert/weave/scheduler"
	"github.com/weavert/weave/timerqueue"
)

// Hooks binds the hook functions to a specific ioreactor.Manager, which
// supplies the event registration and timer facilities a yielding call
// needs.
type Hooks struct {
	mgr *ioreactor.Manager
	fds *fdTable
}

// New binds hook functions to mgr.
func New(mgr *ioreactor.Manager) *Hooks {
	return &Hooks{mgr: mgr, fds: newFDTable()}
}

// MarkSocket records fd as a socket — call after socket() or on the fd
// returned by Accept.
func (h *Hooks) MarkSocket(fd int) { h.fds.markSocket(fd) }

func (h *Hooks) hookable(fd int) bool {
	if !IsEnabled() {
		return false
	}
	meta, ok := h.fds.get(fd)
	return ok && meta.isSocket && !meta.userNonblocking
}

// Sleep is the hooked sleep(3): yields the calling fiber for the given
// number of seconds,
// returning 0 on resume. Outside a fiber, or with hooking disabled, it
// just blocks the goroutine.
func (h *Hooks) Sleep(seconds int) int {
	return h.sleepFor(time.Duration(seconds) * time.Second)
}

// Usleep is the hooked usleep(3).
func (h *Hooks) Usleep(usec int64) int {
	return h.sleepFor(time.Duration(usec) * time.Microsecond)
}

// Nanosleep is the hooked nanosleep(2): only req is honored (no partial-
// sleep remaining-time reporting, matching the source, which never
// populates its rem parameter either).
func (h *Hooks) Nanosleep(req *unix.Timespec) int {
	return h.sleepFor(time.Duration(req.Sec)*time.Second + time.Duration(req.Nsec))
}

func (h *Hooks) sleepFor(d time.Duration) int {
	f := fiber.GetThis()
	if !IsEnabled() || f.IsMain() {
		time.Sleep(d)
		return 0
	}
	h.mgr.Manager.Add(d, func() {
		_ = h.mgr.Scheduler.Schedule(scheduler.Task{Fiber: f})
	}, false)
	f.Yield()
	return 0
}

// retryOnBlock attempts op; if it reports EAGAIN/EWOULDBLOCK it arms ev on
// fd (optionally backed by a timeout timer), yields the calling fiber,
// and retries op once resumed, until op stops blocking.
func (h *Hooks) retryOnBlock(fd int, ev ioreactor.Event, timeout time.Duration, op func() (int, error)) (int, error) {
	for {
		n, err := op()
		if !isBlocking(err) {
			return n, err
		}

		f := fiber.GetThis()
		if f.IsMain() {
			return n, err
		}

		var timer *timerqueue.Timer
		timedOut := false
		if timeout > 0 {
			timer = h.mgr.Manager.Add(timeout, func() {
				timedOut = true
				_ = h.mgr.CancelEvent(fd, ev)
			}, false)
		}

		if err := h.mgr.AddEvent(fd, ev, nil); err != nil {
			if timer != nil {
				timer.Cancel()
			}
			return n, err
		}

		f.Yield()

		if timer != nil {
			timer.Cancel()
		}
		if timedOut {
			return -1, unix.EAGAIN
		}
	}
}

func isBlocking(err error) bool {
	return err == unix.EAGAIN || err == unix.EWOULDBLOCK
}
