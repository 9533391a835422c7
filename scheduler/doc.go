// Package scheduler implements a multi-worker cooperative task dispatcher:
// N worker goroutines (plus, optionally, the goroutine that calls Start
// in "caller" mode) drain a FIFO queue of Tasks, each either a Fiber to
// resume or a callback to wrap in a fresh Fiber, falling back to a
// thread-local idle Fiber when the queue is empty.
//
// The dispatch loop, idle-fiber fallback, and tickle-on-enqueue wake signal
// are grounded on the retrieved eventloop module's Loop (loop.go): a single
// mutex-guarded queue, a run loop that processes one task per pass, and a
// wakeup mechanism used to pull a sleeping worker out of its blocking wait.
// ioreactor.Manager overrides the idle fiber with an epoll-backed one,
// exactly as eventloop.Loop's own poll step is itself pluggable.
package scheduler
