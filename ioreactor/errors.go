package ioreactor

import "errors"

var (
	// ErrFDOutOfRange is returned when fd is negative.
	ErrFDOutOfRange = errors.New("ioreactor: fd out of range")
	// ErrEventAlreadyArmed is returned by AddEvent when the requested
	// direction is already armed for fd.
	ErrEventAlreadyArmed = errors.New("ioreactor: event already armed for fd")
	// ErrNeitherCallbackNorFiber is returned by AddEvent when called with no
	// callback outside of a fiber (there is nothing to arm for the waiter).
	ErrNeitherCallbackNorFiber = errors.New("ioreactor: no callback given and caller is not running in a fiber")
)
