//go:build linux

package hook_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/weavert/weave/fiber"
	"github.com/weavert/weave/hook"
	"github.com/weavert/weave/ioreactor"
	"github.com/weavert/weave/scheduler"
)

// TestSleepSuspendsOnlyCallingFiber exercises hook suspension: two fibers
// sleep for different durations, and only the shorter one has resumed by
// the time we check partway through.
func TestSleepSuspendsOnlyCallingFiber(t *testing.T) {
	m, err := ioreactor.New(2)
	require.NoError(t, err)
	require.NoError(t, m.Start())
	defer func() {
		m.Stop()
		_ = m.Close()
	}()

	h := hook.New(m)

	shortDone := make(chan struct{})
	longDone := make(chan struct{})

	require.NoError(t, m.Schedule(scheduler.Task{Fiber: fiber.New(func() {
		hook.Enable()
		defer hook.Disable()
		h.Usleep(30_000)
		close(shortDone)
	})}))
	require.NoError(t, m.Schedule(scheduler.Task{Fiber: fiber.New(func() {
		hook.Enable()
		defer hook.Disable()
		h.Usleep(300_000)
		close(longDone)
	})}))

	select {
	case <-shortDone:
	case <-time.After(2 * time.Second):
		t.Fatal("short sleep never resumed")
	}

	select {
	case <-longDone:
		t.Fatal("long sleep resumed too early")
	default:
	}

	select {
	case <-longDone:
	case <-time.After(2 * time.Second):
		t.Fatal("long sleep never resumed")
	}
}

// TestHookedReadWriteEchoThroughPipe exercises the blocking-retry path:
// a fiber's hooked Read blocks until the main goroutine writes, using a
// real pipe fd registered with the reactor.
func TestHookedReadWriteEchoThroughPipe(t *testing.T) {
	m, err := ioreactor.New(2)
	require.NoError(t, err)
	require.NoError(t, m.Start())
	defer func() {
		m.Stop()
		_ = m.Close()
	}()

	h := hook.New(m)

	var fds [2]int
	require.NoError(t, unix.Pipe(fds[:]))
	r, w := fds[0], fds[1]
	defer unix.Close(r)
	defer unix.Close(w)
	require.NoError(t, unix.SetNonblock(r, true))
	h.MarkSocket(r)

	result := make(chan string, 1)
	require.NoError(t, m.Schedule(scheduler.Task{Fiber: fiber.New(func() {
		hook.Enable()
		defer hook.Disable()
		buf := make([]byte, 16)
		n, err := h.Read(r, buf)
		if err != nil {
			result <- "error: " + err.Error()
			return
		}
		result <- string(buf[:n])
	})}))

	time.Sleep(50 * time.Millisecond)
	_, err = unix.Write(w, []byte("hello"))
	require.NoError(t, err)

	select {
	case got := <-result:
		require.Equal(t, "hello", got)
	case <-time.After(2 * time.Second):
		t.Fatal("hooked read never resumed")
	}
}

// TestCloseCancelsPendingWaiters verifies Close wakes a fiber parked in a
// hooked Read rather than leaving it stuck forever.
func TestCloseCancelsPendingWaiters(t *testing.T) {
	m, err := ioreactor.New(2)
	require.NoError(t, err)
	require.NoError(t, m.Start())
	defer func() {
		m.Stop()
		_ = m.Close()
	}()

	h := hook.New(m)

	var fds [2]int
	require.NoError(t, unix.Pipe(fds[:]))
	r, w := fds[0], fds[1]
	defer unix.Close(w)
	require.NoError(t, unix.SetNonblock(r, true))
	h.MarkSocket(r)

	done := make(chan struct{})
	require.NoError(t, m.Schedule(scheduler.Task{Fiber: fiber.New(func() {
		hook.Enable()
		defer hook.Disable()
		buf := make([]byte, 16)
		_, _ = h.Read(r, buf)
		close(done)
	})}))

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, h.Close(r))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("close did not wake the pending reader")
	}
}
