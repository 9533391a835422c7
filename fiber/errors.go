package fiber

import "fmt"

// PreconditionError reports a violated state-machine precondition, such as
// Resume on a Fiber that isn't Ready, or Yield on the main fiber. These are
// programmer errors: spec.md treats them as fatal to the thread, which in Go
// terms means an unrecovered panic of the calling goroutine.
type PreconditionError struct {
	Op      string // "Resume", "Yield", or "Reset"
	FiberID uint64
	Message string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("fiber: %s(%d): %s", e.Op, e.FiberID, e.Message)
}

func panicPrecondition(op string, id uint64, format string, args ...any) {
	panic(&PreconditionError{Op: op, FiberID: id, Message: fmt.Sprintf(format, args...)})
}
