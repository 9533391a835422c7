// Package fiber implements a stackful-equivalent coroutine: an entity with
// its own flow of control, explicit Resume/Yield transfer points, and a
// three-state lifecycle (Ready, Running, Term).
//
// # Why goroutines instead of a real stack switch
//
// The system this package reimplements originally saved/restored a raw
// machine context (ucontext_t, or hand-rolled assembly) to switch between a
// fixed-size user stack and the caller's stack. Go offers no supported way
// to do that: goroutine stacks are managed by the runtime and grow/shrink on
// their own, and there is no API to point a new goroutine at caller-owned
// memory.
//
// Instead, each Fiber owns a dedicated goroutine and a pair of unbuffered
// "rendezvous" channels. Resume sends on one and blocks receiving on the
// other; Yield (called from inside the fiber's own goroutine) does the
// mirror image. Because both sides block until the handshake completes,
// control never runs on both sides of a Resume/Yield pair at once — which
// is the only property spec.md actually needs from a "context switch".
//
// # Identity
//
// GetThis reports the Fiber currently executing on the calling goroutine,
// lazily creating a "main" Fiber (one with no owned goroutine of its own —
// it represents the caller's own flow of control) the first time it is
// asked about a goroutine it has never seen. The main fiber can never be
// Resumed or Yielded; it is the root of every fiber chain.
package fiber
