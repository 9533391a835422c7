// Package ioreactor implements the IO manager: a scheduler.Scheduler fused
// with a timerqueue.Manager and an edge-triggered epoll event loop, so
// that fiber-blocking socket I/O can be served by resuming the waiting
// fiber (or running its callback) from inside the scheduler's own
// dispatch loop rather than a dedicated poller thread.
//
// The epoll binding (epoll_create1, EPOLL_CTL_ADD/MOD/DEL, edge-triggered
// registration, a self-pipe used to interrupt epoll_wait) is grounded on
// the retrieved eventloop module's FastPoller (poller_linux.go): same
// direct fd-indexed slice of per-fd state instead of a map, same
// EpollWait-then-dispatch shape. ioreactor extends it with the FdContext
// growth rule, per-direction EventContext slots, and cancel/cancel-all
// semantics spec.md §4.4 requires of a standalone IO manager (FastPoller
// has a single callback per fd, no read/write split, and no notion of a
// waiting fiber).
package ioreactor
