// Package weave is a cooperative fiber/scheduler/reactor runtime: stackful-
// equivalent coroutines (fiber), a multi-worker task scheduler (scheduler),
// an epoll-based IO reactor fusing the scheduler with a timer manager
// (ioreactor, timerqueue), and a syscall-hook adaptation layer that
// suspends a fiber on a would-block socket call instead of blocking its
// goroutine (hook).
//
// This file is a thin facade over the subpackages' constructors, for
// callers that want the common entry points without importing each
// subpackage by name.
//
//	sched, err := weave.NewScheduler(4)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := sched.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer sched.Stop()
//
//	f := weave.NewFiber(func() {
//	    // ... runs cooperatively on one of sched's workers
//	})
//	sched.Schedule(weave.Task{Fiber: f})
package weave

import (
	"log/slog"

	"github.com/weavert/weave/fiber"
	"github.com/weavert/weave/scheduler"
	"github.com/weavert/weave/thread"
	"github.com/weavert/weave/timerqueue"
	"github.com/weavert/weave/wlog"
)

type (
	// Fiber is fiber.Fiber.
	Fiber = fiber.Fiber
	// Thread is thread.Thread.
	Thread = thread.Thread
	// TimerManager is timerqueue.Manager.
	TimerManager = timerqueue.Manager
	// Timer is timerqueue.Timer.
	Timer = timerqueue.Timer
	// Scheduler is scheduler.Scheduler.
	Scheduler = scheduler.Scheduler
	// Task is scheduler.Task.
	Task = scheduler.Task
	// Logger is wlog.Logger.
	Logger = wlog.Logger
)

// NewFiber constructs a Fiber running cb, per fiber.New.
func NewFiber(cb func(), opts ...fiber.Option) *Fiber { return fiber.New(cb, opts...) }

// NewThread constructs a named, not-yet-started Thread, per thread.New.
func NewThread(name string) *Thread { return thread.New(name) }

// NewTimerManager constructs an empty TimerManager, per timerqueue.New.
func NewTimerManager() *TimerManager { return timerqueue.New() }

// NewScheduler constructs a Scheduler with the given worker count, per
// scheduler.New.
func NewScheduler(workers int, opts ...scheduler.Option) (*Scheduler, error) {
	return scheduler.New(workers, opts...)
}

// NewLogger builds a Logger that writes through handler, per wlog.NewSlog.
func NewLogger(handler slog.Handler) Logger { return wlog.NewSlog(handler) }

// NewDefaultLogger returns the default text-to-stderr Logger, per
// wlog.NewDefault.
func NewDefaultLogger() Logger { return wlog.NewDefault() }
