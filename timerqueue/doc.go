// Package timerqueue implements an ordered set of absolute-deadline timers,
// one-shot or recurring, with wall-clock rollover detection.
//
// It is grounded on the min-heap timer design in the retrieved eventloop
// module (container/heap over a []timer, ordered by deadline), extended
// with the identity tie-break, conditional-callback, and Cancel/Refresh/
// Reset operations spec.md requires of a standalone timer manager (the
// teacher's timer heap is privately owned by its Loop and has no public
// Timer handle with those operations).
package timerqueue
