package scheduler

import "github.com/weavert/weave/fiber"

// AnyThread is the Task.Thread value meaning "no affinity — any worker may
// run this".
const AnyThread = -1

// Task is a single unit of schedulable work: exactly one of Fiber or
// Callback is set. A Task with Thread != AnyThread is only eligible to run
// on the worker whose id equals Thread.
type Task struct {
	Fiber    *fiber.Fiber
	Callback func()
	Thread   int
}

func (t Task) validate() {
	if t.Fiber == nil && t.Callback == nil {
		panic("scheduler: Task: both Fiber and Callback are nil")
	}
	if t.Fiber != nil && t.Callback != nil {
		panic("scheduler: Task: both Fiber and Callback are set")
	}
}
