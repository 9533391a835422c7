package scheduler

import "sync/atomic"

// Metrics tracks low-overhead, optional runtime counters for a Scheduler,
// enabled via WithMetrics. Grounded on the retrieved eventloop module's
// opt-in Metrics design (atomics updated on the hot path, a snapshot
// struct returned by value) but scoped to what a task scheduler needs —
// queue depth and dispatch/idle counts — rather than eventloop's full
// latency-percentile surface, which has no analogue here.
type Metrics struct {
	enabled       bool
	dispatchCount atomic.Int64
	idleTicks     atomic.Int64
	maxQueueDepth atomic.Int64
}

// Snapshot is a point-in-time copy of a Scheduler's counters.
type Snapshot struct {
	DispatchCount int64
	IdleTicks     int64
	MaxQueueDepth int64
}

func (m *Metrics) recordDispatch() {
	if m == nil || !m.enabled {
		return
	}
	m.dispatchCount.Add(1)
}

func (m *Metrics) recordIdleTick() {
	if m == nil || !m.enabled {
		return
	}
	m.idleTicks.Add(1)
}

func (m *Metrics) recordQueueDepth(depth int) {
	if m == nil || !m.enabled {
		return
	}
	for {
		cur := m.maxQueueDepth.Load()
		if int64(depth) <= cur || m.maxQueueDepth.CompareAndSwap(cur, int64(depth)) {
			return
		}
	}
}

// Snapshot returns a copy of the current counters. Zero-valued if metrics
// were not enabled via WithMetrics.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		DispatchCount: m.dispatchCount.Load(),
		IdleTicks:     m.idleTicks.Load(),
		MaxQueueDepth: m.maxQueueDepth.Load(),
	}
}
