package scheduler

import "errors"

// ErrAlreadyBound is returned by New when the constructing goroutine
// already has a scheduler bound to its process-wide "current scheduler"
// slot (see GetThis).
var ErrAlreadyBound = errors.New("scheduler: current goroutine-thread already has a scheduler bound")

// ErrStopped is returned by Schedule once Stop has been called.
var ErrStopped = errors.New("scheduler: stopped")
