//go:build linux

package weave

import (
	"github.com/weavert/weave/hook"
	"github.com/weavert/weave/ioreactor"
)

type (
	// Reactor is ioreactor.Manager.
	Reactor = ioreactor.Manager
	// Hooks is hook.Hooks.
	Hooks = hook.Hooks
)

// NewReactor constructs a Reactor with the given worker count, per
// ioreactor.New.
func NewReactor(workers int, opts ...ioreactor.Option) (*Reactor, error) {
	return ioreactor.New(workers, opts...)
}

// NewHooks binds the syscall hook functions to mgr, per hook.New.
func NewHooks(mgr *Reactor) *Hooks { return hook.New(mgr) }
