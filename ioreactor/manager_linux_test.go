//go:build linux

package ioreactor_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/weavert/weave/ioreactor"
)

func TestAddEventFiresCallbackOnReadable(t *testing.T) {
	m, err := ioreactor.New(2)
	require.NoError(t, err)
	require.NoError(t, m.Start())
	defer func() {
		m.Stop()
		_ = m.Close()
	}()

	var fds [2]int
	require.NoError(t, unix.Pipe(fds[:]))
	r, w := fds[0], fds[1]
	defer unix.Close(r)
	defer unix.Close(w)
	require.NoError(t, unix.SetNonblock(r, true))

	fired := make(chan byte, 1)
	require.NoError(t, m.AddEvent(r, ioreactor.Read, func() {
		var buf [1]byte
		n, _ := unix.Read(r, buf[:])
		if n == 1 {
			fired <- buf[0]
		}
	}))

	_, err = unix.Write(w, []byte{'T'})
	require.NoError(t, err)

	select {
	case b := <-fired:
		require.Equal(t, byte('T'), b)
	case <-time.After(2 * time.Second):
		t.Fatal("read callback never fired")
	}
}

func TestAddEventRejectsDoubleArm(t *testing.T) {
	m, err := ioreactor.New(1)
	require.NoError(t, err)
	require.NoError(t, m.Start())
	defer func() {
		m.Stop()
		_ = m.Close()
	}()

	var fds [2]int
	require.NoError(t, unix.Pipe(fds[:]))
	r, w := fds[0], fds[1]
	defer unix.Close(r)
	defer unix.Close(w)

	require.NoError(t, m.AddEvent(r, ioreactor.Read, func() {}))
	err = m.AddEvent(r, ioreactor.Read, func() {})
	require.ErrorIs(t, err, ioreactor.ErrEventAlreadyArmed)

	require.NoError(t, m.DelEvent(r, ioreactor.Read))
}

func TestCancelAllFiresHandlers(t *testing.T) {
	m, err := ioreactor.New(1)
	require.NoError(t, err)
	require.NoError(t, m.Start())
	defer func() {
		m.Stop()
		_ = m.Close()
	}()

	var fds [2]int
	require.NoError(t, unix.Pipe(fds[:]))
	r, w := fds[0], fds[1]
	defer unix.Close(r)
	defer unix.Close(w)

	called := make(chan struct{}, 2)
	require.NoError(t, m.AddEvent(r, ioreactor.Read, func() { called <- struct{}{} }))
	require.NoError(t, m.AddEvent(w, ioreactor.Write, func() { called <- struct{}{} }))

	require.NoError(t, m.CancelAll(r))
	require.NoError(t, m.CancelAll(w))

	for i := 0; i < 2; i++ {
		select {
		case <-called:
		case <-time.After(2 * time.Second):
			t.Fatal("CancelAll did not fire a handler")
		}
	}
}
