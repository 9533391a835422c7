//go:build linux

package ioreactor

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/joeycumines/go-catrate"

	"github.com/weavert/weave/fiber"
	"github.com/weavert/weave/scheduler"
	"github.com/weavert/weave/timerqueue"
	"github.com/weavert/weave/wlog"
)

const (
	maxEpollEvents  = 256
	maxIdlePollWait = 5000 * time.Millisecond
)

// Manager is the IO manager: a scheduler.Scheduler plus a timerqueue.Manager,
// fused with an edge-triggered epoll reactor. See the package doc.
type Manager struct {
	*scheduler.Scheduler
	*timerqueue.Manager

	epfd   int
	wakeR  int
	wakeW  int
	logger wlog.Logger

	fdsMu sync.RWMutex
	fds   []*fdContext

	pending atomic.Int64

	pollErrLimiter *catrate.Limiter
}

// Option configures a Manager at construction.
type Option func(*Manager)

// WithLogger sets the structured logger used for transient-failure
// warnings. Defaults to wlog.Nop.
func WithLogger(l wlog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// New creates an epoll instance, a wake pipe, and a Scheduler with workers
// worker threads, wiring the reactor as the scheduler's idle/tickle/
// stopping overrides.
func New(workers int, opts ...Option) (*Manager, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("ioreactor: epoll_create1: %w", err)
	}

	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC); err != nil {
		_ = unix.Close(epfd)
		return nil, fmt.Errorf("ioreactor: pipe2: %w", err)
	}
	for _, fd := range fds {
		if err := unix.SetNonblock(fd, true); err != nil {
			_ = unix.Close(epfd)
			_ = unix.Close(fds[0])
			_ = unix.Close(fds[1])
			return nil, fmt.Errorf("ioreactor: set wake pipe nonblocking: %w", err)
		}
	}

	sched, err := scheduler.New(workers)
	if err != nil {
		_ = unix.Close(epfd)
		_ = unix.Close(fds[0])
		_ = unix.Close(fds[1])
		return nil, err
	}

	m := &Manager{
		Scheduler: sched,
		Manager:   timerqueue.New(),
		epfd:      epfd,
		wakeR:     fds[0],
		wakeW:     fds[1],
		logger:    wlog.Nop,
		fds:       make([]*fdContext, 0, 64),
		pollErrLimiter: catrate.NewLimiter(map[time.Duration]int{
			time.Second: 1,
		}),
	}
	for _, o := range opts {
		if o != nil {
			o(m)
		}
	}

	ev := &unix.EpollEvent{Events: unix.EPOLLIN | unix.EPOLLET, Fd: int32(m.wakeR)}
	if err := unix.EpollCtl(m.epfd, unix.EPOLL_CTL_ADD, m.wakeR, ev); err != nil {
		_ = unix.Close(epfd)
		_ = unix.Close(fds[0])
		_ = unix.Close(fds[1])
		return nil, fmt.Errorf("ioreactor: register wake pipe: %w", err)
	}

	m.Scheduler.Idle = m.idleBody
	m.Scheduler.TickleFunc = m.tickle
	m.Scheduler.StoppingExtra = func() bool { return m.pending.Load() == 0 }
	m.Manager.OnInsertedAtFront = m.tickle

	return m, nil
}

// Close releases the epoll instance and the wake pipe. Call after Stop.
func (m *Manager) Close() error {
	_ = unix.Close(m.wakeR)
	_ = unix.Close(m.wakeW)
	return unix.Close(m.epfd)
}

func (m *Manager) growLocked(fd int) {
	if fd < len(m.fds) {
		return
	}
	n := fd + 1
	grown := int(float64(n) * 1.5)
	next := make([]*fdContext, grown)
	copy(next, m.fds)
	m.fds = next
}

func (m *Manager) fdContextFor(fd int) *fdContext {
	m.fdsMu.Lock()
	defer m.fdsMu.Unlock()
	m.growLocked(fd)
	if m.fds[fd] == nil {
		m.fds[fd] = &fdContext{}
	}
	return m.fds[fd]
}

func (m *Manager) fdContextIfExists(fd int) *fdContext {
	m.fdsMu.RLock()
	defer m.fdsMu.RUnlock()
	if fd < 0 || fd >= len(m.fds) {
		return nil
	}
	return m.fds[fd]
}

func toEpoll(ev Event) uint32 {
	var e uint32
	if ev.has(Read) {
		e |= unix.EPOLLIN
	}
	if ev.has(Write) {
		e |= unix.EPOLLOUT
	}
	return e | unix.EPOLLET
}

// AddEvent arms direction ev on fd, scheduling either cb (if non-nil) or
// the calling fiber once the event fires.
func (m *Manager) AddEvent(fd int, ev Event, cb func()) error {
	if fd < 0 {
		return ErrFDOutOfRange
	}
	c := m.fdContextFor(fd)

	c.mu.Lock()
	before := c.armedMaskLocked()
	if before.has(ev) {
		c.mu.Unlock()
		return ErrEventAlreadyArmed
	}
	slot := c.slot(ev)
	slot.armed = true
	slot.sched = m.Scheduler
	if cb != nil {
		slot.cb = cb
	} else {
		f := fiber.GetThis()
		if f.IsMain() {
			c.mu.Unlock()
			return ErrNeitherCallbackNorFiber
		}
		slot.fib = f
	}
	after := before | ev
	c.mu.Unlock()

	op := unix.EPOLL_CTL_ADD
	if before != 0 {
		op = unix.EPOLL_CTL_MOD
	}
	epEv := &unix.EpollEvent{Events: toEpoll(after), Fd: int32(fd)}
	if err := unix.EpollCtl(m.epfd, op, fd, epEv); err != nil {
		c.mu.Lock()
		*slot = eventSlot{}
		c.mu.Unlock()
		return fmt.Errorf("ioreactor: epoll_ctl: %w", err)
	}
	m.pending.Add(1)
	return nil
}

// DelEvent clears ev on fd without firing its handler.
func (m *Manager) DelEvent(fd int, ev Event) error {
	c := m.fdContextIfExists(fd)
	if c == nil {
		return nil
	}
	c.mu.Lock()
	before := c.armedMaskLocked()
	if !before.has(ev) {
		c.mu.Unlock()
		return nil
	}
	*c.slot(ev) = eventSlot{}
	after := before &^ ev
	c.mu.Unlock()

	m.rearm(fd, after)
	m.pending.Add(-1)
	return nil
}

// CancelEvent clears ev on fd and fires its handler, so the waiter
// observes cancellation rather than hanging forever.
func (m *Manager) CancelEvent(fd int, ev Event) error {
	c := m.fdContextIfExists(fd)
	if c == nil {
		return nil
	}
	c.mu.Lock()
	before := c.armedMaskLocked()
	if !before.has(ev) {
		c.mu.Unlock()
		return nil
	}
	slot := c.slot(ev)
	fired := *slot
	*slot = eventSlot{}
	after := before &^ ev
	c.mu.Unlock()

	m.rearm(fd, after)
	m.pending.Add(-1)
	fired.fire()
	return nil
}

// CancelAll removes fd from epoll entirely and fires every armed handler.
func (m *Manager) CancelAll(fd int) error {
	c := m.fdContextIfExists(fd)
	if c == nil {
		return nil
	}
	c.mu.Lock()
	mask := c.armedMaskLocked()
	r, w := c.read, c.write
	c.read, c.write = eventSlot{}, eventSlot{}
	c.mu.Unlock()

	if mask != 0 {
		_ = unix.EpollCtl(m.epfd, unix.EPOLL_CTL_DEL, fd, nil)
		if r.armed {
			m.pending.Add(-1)
		}
		if w.armed {
			m.pending.Add(-1)
		}
	}
	r.fire()
	w.fire()
	return nil
}

func (m *Manager) rearm(fd int, mask Event) {
	if mask == 0 {
		_ = unix.EpollCtl(m.epfd, unix.EPOLL_CTL_DEL, fd, nil)
		return
	}
	ev := &unix.EpollEvent{Events: toEpoll(mask), Fd: int32(fd)}
	_ = unix.EpollCtl(m.epfd, unix.EPOLL_CTL_MOD, fd, ev)
}

// tickle writes one byte to the wake pipe; idempotent per epoll pass,
// since idleBody drains the pipe to EAGAIN each time it wakes.
func (m *Manager) tickle() {
	for {
		_, err := unix.Write(m.wakeW, []byte{'T'})
		if err == unix.EINTR {
			continue
		}
		return
	}
}

func (m *Manager) drainWakePipe() {
	var buf [64]byte
	for {
		_, err := unix.Read(m.wakeR, buf[:])
		if err == nil {
			continue
		}
		return
	}
}

// idleBody is the reactor's overridden idle fiber, per spec.md §4.4.
func (m *Manager) idleBody(threadID int) func() {
	return func() {
		var events [maxEpollEvents]unix.EpollEvent
		var expired []func()
		for {
			if m.Scheduler.Stopping() {
				return
			}

			timeout := m.Manager.NextTimeout()
			if timeout > maxIdlePollWait {
				timeout = maxIdlePollWait
			}
			timeoutMs := int(timeout / time.Millisecond)
			if timeout > 0 && timeoutMs == 0 {
				timeoutMs = 1
			}

			n, err := unix.EpollWait(m.epfd, events[:], timeoutMs)
			if err != nil {
				if err == unix.EINTR {
					fiber.GetThis().Yield()
					continue
				}
				if _, ok := m.pollErrLimiter.Allow("epoll_wait"); ok {
					m.logger.Log(wlog.LevelWarn, "epoll_wait failed, retrying", wlog.Err(err))
				}
				fiber.GetThis().Yield()
				continue
			}

			expired = expired[:0]
			m.Manager.DrainExpired(&expired)
			for _, cb := range expired {
				_ = m.Scheduler.Schedule(scheduler.Task{Callback: cb})
			}

			for i := 0; i < n; i++ {
				fd := int(events[i].Fd)
				if fd == m.wakeR {
					m.drainWakePipe()
					continue
				}
				m.handleEpollEvent(fd, events[i].Events)
			}

			fiber.GetThis().Yield()
		}
	}
}

func (m *Manager) handleEpollEvent(fd int, raw uint32) {
	c := m.fdContextIfExists(fd)
	if c == nil {
		return
	}

	c.mu.Lock()
	armed := c.armedMaskLocked()
	if raw&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
		raw |= unix.EPOLLIN | unix.EPOLLOUT
	}
	var reported Event
	if raw&unix.EPOLLIN != 0 {
		reported |= Read
	}
	if raw&unix.EPOLLOUT != 0 {
		reported |= Write
	}
	fired := reported & armed
	if fired == 0 {
		c.mu.Unlock()
		return
	}

	var r, w eventSlot
	if fired.has(Read) {
		r = c.read
		c.read = eventSlot{}
	}
	if fired.has(Write) {
		w = c.write
		c.write = eventSlot{}
	}
	remaining := armed &^ fired
	c.mu.Unlock()

	m.rearm(fd, remaining)
	if fired.has(Read) {
		m.pending.Add(-1)
		r.fire()
	}
	if fired.has(Write) {
		m.pending.Add(-1)
		w.fire()
	}
}
