//go:build linux

package hook

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/weavert/weave/ioreactor"
)

// Socket is the hooked socket(2): creates the fd via the real socket(2)
// and records it as a socket in the metadata table up front, so the fd is
// hookable from its very first Read/Write/Connect without a separate
// MarkSocket call.
func (h *Hooks) Socket(domain, typ, proto int) (int, error) {
	fd, err := unix.Socket(domain, typ, proto)
	if err != nil {
		return fd, err
	}
	h.MarkSocket(fd)
	return fd, nil
}

// Read is the hooked read(2).
func (h *Hooks) Read(fd int, p []byte) (int, error) {
	if !h.hookable(fd) {
		return unix.Read(fd, p)
	}
	meta, _ := h.fds.get(fd)
	return h.retryOnBlock(fd, ioreactor.Read, meta.recvTimeout, func() (int, error) {
		return unix.Read(fd, p)
	})
}

// Readv is the hooked readv(2).
func (h *Hooks) Readv(fd int, iovs [][]byte) (int, error) {
	if !h.hookable(fd) {
		return unix.Readv(fd, iovs)
	}
	meta, _ := h.fds.get(fd)
	return h.retryOnBlock(fd, ioreactor.Read, meta.recvTimeout, func() (int, error) {
		return unix.Readv(fd, iovs)
	})
}

// Recv is the hooked recv(2).
func (h *Hooks) Recv(fd int, p []byte, flags int) (int, error) {
	if !h.hookable(fd) {
		return recvfromDiscardAddr(fd, p, flags)
	}
	meta, _ := h.fds.get(fd)
	return h.retryOnBlock(fd, ioreactor.Read, meta.recvTimeout, func() (int, error) {
		return recvfromDiscardAddr(fd, p, flags)
	})
}

// Recvfrom is the hooked recvfrom(2).
func (h *Hooks) Recvfrom(fd int, p []byte, flags int) (n int, from unix.Sockaddr, err error) {
	if !h.hookable(fd) {
		return unix.Recvfrom(fd, p, flags)
	}
	meta, _ := h.fds.get(fd)
	_, err = h.retryOnBlock(fd, ioreactor.Read, meta.recvTimeout, func() (int, error) {
		var rerr error
		n, from, rerr = unix.Recvfrom(fd, p, flags)
		return n, rerr
	})
	return n, from, err
}

// Recvmsg is the hooked recvmsg(2).
func (h *Hooks) Recvmsg(fd int, p, oob []byte, flags int) (n, oobn, recvflags int, from unix.Sockaddr, err error) {
	if !h.hookable(fd) {
		return unix.Recvmsg(fd, p, oob, flags)
	}
	meta, _ := h.fds.get(fd)
	_, err = h.retryOnBlock(fd, ioreactor.Read, meta.recvTimeout, func() (int, error) {
		var rerr error
		n, oobn, recvflags, from, rerr = unix.Recvmsg(fd, p, oob, flags)
		return n, rerr
	})
	return n, oobn, recvflags, from, err
}

// Write is the hooked write(2).
func (h *Hooks) Write(fd int, p []byte) (int, error) {
	if !h.hookable(fd) {
		return unix.Write(fd, p)
	}
	meta, _ := h.fds.get(fd)
	return h.retryOnBlock(fd, ioreactor.Write, meta.sendTimeout, func() (int, error) {
		return unix.Write(fd, p)
	})
}

// Writev is the hooked writev(2).
func (h *Hooks) Writev(fd int, iovs [][]byte) (int, error) {
	if !h.hookable(fd) {
		return unix.Writev(fd, iovs)
	}
	meta, _ := h.fds.get(fd)
	return h.retryOnBlock(fd, ioreactor.Write, meta.sendTimeout, func() (int, error) {
		return unix.Writev(fd, iovs)
	})
}

// Send is the hooked send(2).
func (h *Hooks) Send(fd int, p []byte, flags int) (int, error) {
	if !h.hookable(fd) {
		return len(p), unix.Sendto(fd, p, flags, nil)
	}
	meta, _ := h.fds.get(fd)
	return h.retryOnBlock(fd, ioreactor.Write, meta.sendTimeout, func() (int, error) {
		return len(p), unix.Sendto(fd, p, flags, nil)
	})
}

// Sendto is the hooked sendto(2).
func (h *Hooks) Sendto(fd int, p []byte, flags int, to unix.Sockaddr) error {
	if !h.hookable(fd) {
		return unix.Sendto(fd, p, flags, to)
	}
	meta, _ := h.fds.get(fd)
	_, err := h.retryOnBlock(fd, ioreactor.Write, meta.sendTimeout, func() (int, error) {
		return 0, unix.Sendto(fd, p, flags, to)
	})
	return err
}

// Sendmsg is the hooked sendmsg(2).
func (h *Hooks) Sendmsg(fd int, p, oob []byte, to unix.Sockaddr, flags int) error {
	if !h.hookable(fd) {
		return unix.Sendmsg(fd, p, oob, to, flags)
	}
	meta, _ := h.fds.get(fd)
	_, err := h.retryOnBlock(fd, ioreactor.Write, meta.sendTimeout, func() (int, error) {
		return 0, unix.Sendmsg(fd, p, oob, to, flags)
	})
	return err
}

// Connect is the hooked connect(2): a non-blocking socket reports
// EINPROGRESS, not EAGAIN, so it arms Write and treats EINPROGRESS as the
// blocking condition.
func (h *Hooks) Connect(fd int, sa unix.Sockaddr) error {
	if !h.hookable(fd) {
		return unix.Connect(fd, sa)
	}
	first := true
	_, err := h.retryOnBlock(fd, ioreactor.Write, 0, func() (int, error) {
		if first {
			first = false
			err := unix.Connect(fd, sa)
			if err == unix.EINPROGRESS {
				return 0, unix.EAGAIN
			}
			return 0, err
		}
		// On resume, the connect() result is surfaced via SO_ERROR.
		errno, gerr := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
		if gerr != nil {
			return 0, gerr
		}
		if errno != 0 {
			return 0, unix.Errno(errno)
		}
		return 0, nil
	})
	return err
}

// Accept is the hooked accept(2).
func (h *Hooks) Accept(fd int) (int, unix.Sockaddr, error) {
	if !h.hookable(fd) {
		return unix.Accept(fd)
	}
	meta, _ := h.fds.get(fd)
	var nfd int
	var sa unix.Sockaddr
	_, err := h.retryOnBlock(fd, ioreactor.Read, meta.recvTimeout, func() (int, error) {
		var aerr error
		nfd, sa, aerr = unix.Accept(fd)
		return nfd, aerr
	})
	if err == nil {
		h.MarkSocket(nfd)
	}
	return nfd, sa, err
}

// Close is the hooked close(2): cancels every armed event on fd (waking
// anyone parked waiting on it) before forwarding to the real close.
func (h *Hooks) Close(fd int) error {
	_ = h.mgr.CancelAll(fd)
	h.fds.delete(fd)
	return unix.Close(fd)
}

// Fcntl is the hooked fcntl(2). F_SETFL updates the fd's user-nonblocking
// flag in the metadata table; every command is forwarded to the real
// fcntl regardless.
func (h *Hooks) Fcntl(fd int, cmd int, arg int) (int, error) {
	if cmd == unix.F_SETFL {
		h.fds.setUserNonblocking(fd, arg&unix.O_NONBLOCK != 0)
	}
	return unix.FcntlInt(uintptr(fd), cmd, arg)
}

// Ioctl is the hooked ioctl(2), a narrow int-valued passthrough — the
// metadata table has nothing to learn from an arbitrary ioctl request, so
// there is no hooking behavior here beyond spec.md §4.5's declared scope.
func (h *Hooks) Ioctl(fd int, req uint, value int) error {
	return unix.IoctlSetInt(fd, req, value)
}

// Getsockopt is the hooked getsockopt(2): every option, including the two
// the metadata table tracks, is forwarded via GetsockoptInt; the table is
// neither consulted nor updated.
func (h *Hooks) Getsockopt(fd, level, opt int) (int, error) {
	return unix.GetsockoptInt(fd, level, opt)
}

// Setsockopt is the hooked setsockopt(2): SO_RCVTIMEO/SO_SNDTIMEO update
// the metadata table's timeout fields (consulted by Read/Recv*/Write/
// Send*); every option is still forwarded to the real setsockopt.
func (h *Hooks) Setsockopt(fd, level, opt int, tv unix.Timeval) error {
	if level == unix.SOL_SOCKET {
		d := time.Duration(tv.Sec)*time.Second + time.Duration(tv.Usec)*time.Microsecond
		switch opt {
		case unix.SO_RCVTIMEO:
			h.fds.setRecvTimeout(fd, d)
		case unix.SO_SNDTIMEO:
			h.fds.setSendTimeout(fd, d)
		}
	}
	return unix.SetsockoptTimeval(fd, level, opt, &tv)
}

func recvfromDiscardAddr(fd int, p []byte, flags int) (int, error) {
	n, _, err := unix.Recvfrom(fd, p, flags)
	return n, err
}
