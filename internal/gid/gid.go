// Package gid provides a best-effort current-goroutine-id lookup, used as a
// substitute for OS thread-local storage: the runtime needs a stable key per
// "worker thread" lineage (running/thread-main/scheduler fiber triad,
// hook-enabled flag, current scheduler) and Go has no supported TLS API.
package gid

import "runtime"

// Current returns the id of the calling goroutine.
//
// This parses the "goroutine NNN [...]" prefix runtime.Stack writes for the
// calling goroutine when all=false; it is the same technique
// eventloop.getGoroutineID uses to detect whether Submit/SubmitInternal is
// being called from the loop's own goroutine.
func Current() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	i := len("goroutine ")
	for ; i < n; i++ {
		c := buf[i]
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + uint64(c-'0')
	}
	return id
}
