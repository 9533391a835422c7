package fiber

// DefaultStackSize is the nominal stack size spec.md assigns a fiber when
// none is given. Go goroutine stacks grow on demand and are not
// preallocated at this size; the value is kept only so StackSize() reports
// something meaningful to callers migrating size-sensitive budgets.
const DefaultStackSize = 128 * 1024

type fiberOptions struct {
	stackSize      int
	runInScheduler bool
}

// Option configures a Fiber at construction time.
type Option interface {
	applyFiber(*fiberOptions)
}

type optionFunc func(*fiberOptions)

func (f optionFunc) applyFiber(o *fiberOptions) { f(o) }

// WithStackSize sets the informational stack size. A value of 0 (the
// default) means DefaultStackSize.
func WithStackSize(n int) Option {
	return optionFunc(func(o *fiberOptions) { o.stackSize = n })
}

// WithRunInScheduler sets whether this fiber, once it terminates, is
// expected to have been dispatched via a scheduler.Task rather than resumed
// directly by user code. The value is only recorded and reported by
// RunInScheduler; it has no effect on Resume/Yield semantics, and no
// scheduler in this module reads it.
func WithRunInScheduler(v bool) Option {
	return optionFunc(func(o *fiberOptions) { o.runInScheduler = v })
}

func resolveOptions(opts []Option) fiberOptions {
	cfg := fiberOptions{stackSize: DefaultStackSize, runInScheduler: true}
	for _, o := range opts {
		if o == nil {
			continue
		}
		o.applyFiber(&cfg)
	}
	if cfg.stackSize == 0 {
		cfg.stackSize = DefaultStackSize
	}
	return cfg
}
