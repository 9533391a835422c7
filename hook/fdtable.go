package hook

import (
	"sync"
	"time"
)

// fdMeta is the per-fd state spec.md §9 describes as declared-but-never-
// supplied in the source: whether the fd is a socket, whether the user
// has independently asked for O_NONBLOCK on it, and the SO_RCVTIMEO/
// SO_SNDTIMEO values most recently set.
type fdMeta struct {
	isSocket        bool
	userNonblocking bool
	recvTimeout     time.Duration
	sendTimeout     time.Duration
}

type fdTable struct {
	mu sync.Mutex
	m  map[int]*fdMeta
}

func newFDTable() *fdTable {
	return &fdTable{m: map[int]*fdMeta{}}
}

func (t *fdTable) get(fd int) (fdMeta, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.m[fd]
	if !ok {
		return fdMeta{}, false
	}
	return *m, true
}

func (t *fdTable) set(fd int, meta fdMeta) {
	t.mu.Lock()
	t.m[fd] = &meta
	t.mu.Unlock()
}

// markSocket records fd as a socket, populated on socket()/accept().
func (t *fdTable) markSocket(fd int) {
	t.mu.Lock()
	m, ok := t.m[fd]
	if !ok {
		m = &fdMeta{}
		t.m[fd] = m
	}
	m.isSocket = true
	t.mu.Unlock()
}

func (t *fdTable) setUserNonblocking(fd int, v bool) {
	t.mu.Lock()
	m, ok := t.m[fd]
	if !ok {
		m = &fdMeta{}
		t.m[fd] = m
	}
	m.userNonblocking = v
	t.mu.Unlock()
}

func (t *fdTable) setRecvTimeout(fd int, d time.Duration) {
	t.mu.Lock()
	m, ok := t.m[fd]
	if !ok {
		m = &fdMeta{}
		t.m[fd] = m
	}
	m.recvTimeout = d
	t.mu.Unlock()
}

func (t *fdTable) setSendTimeout(fd int, d time.Duration) {
	t.mu.Lock()
	m, ok := t.m[fd]
	if !ok {
		m = &fdMeta{}
		t.m[fd] = m
	}
	m.sendTimeout = d
	t.mu.Unlock()
}

func (t *fdTable) delete(fd int) {
	t.mu.Lock()
	delete(t.m, fd)
	t.mu.Unlock()
}
