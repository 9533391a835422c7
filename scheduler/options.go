package scheduler

// schedOptions holds configuration for a Scheduler, resolved at New.
type schedOptions struct {
	useCaller      bool
	metricsEnabled bool
}

// Option configures a Scheduler at construction time.
type Option interface {
	applySched(*schedOptions)
}

type optionFunc func(*schedOptions)

func (f optionFunc) applySched(o *schedOptions) { f(o) }

// WithCaller sets "use_caller" mode: the goroutine that calls Start also
// becomes worker 0, and Start blocks until Stop drains it.
func WithCaller(v bool) Option {
	return optionFunc(func(o *schedOptions) { o.useCaller = v })
}

// WithMetrics enables the queue-depth/dispatch-count/idle-tick counters
// exposed via Scheduler.Metrics.
func WithMetrics(v bool) Option {
	return optionFunc(func(o *schedOptions) { o.metricsEnabled = v })
}

func resolveOptions(opts []Option) schedOptions {
	var cfg schedOptions
	for _, o := range opts {
		if o == nil {
			continue
		}
		o.applySched(&cfg)
	}
	return cfg
}
