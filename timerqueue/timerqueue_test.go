package timerqueue_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/weavert/weave/timerqueue"
)

// TestTimerCancel is spec.md §8 scenario 4: a recurring 100ms timer is
// canceled after 250ms (simulated), so it fires twice or three times and
// never again.
func TestTimerCancel(t *testing.T) {
	now := time.Unix(0, 0)
	m := timerqueue.New()
	m.Now = func() time.Time { return now }

	var count int
	timer := m.Add(100*time.Millisecond, func() { count++ }, true)

	var fired []func()
	advance := func(d time.Duration) {
		now = now.Add(d)
		fired = fired[:0]
		m.DrainExpired(&fired)
		for _, cb := range fired {
			cb()
		}
	}

	advance(100 * time.Millisecond)
	advance(100 * time.Millisecond)
	require.Equal(t, 2, count)

	// Cancel partway into the third period (250ms mark).
	advance(50 * time.Millisecond)
	timer.Cancel()
	require.Contains(t, []int{2, 3}, count)

	afterCancel := count
	advance(100 * time.Millisecond)
	advance(100 * time.Millisecond)
	require.Equal(t, afterCancel, count, "canceled timer must not fire again")
	require.Equal(t, 0, m.Len())
}

// TestConditionalTimerSkipsDeadCond is spec.md §8 scenario 5: a conditional
// timer whose cond reports the watched object is already gone must not
// invoke its callback on fire.
func TestConditionalTimerSkipsDeadCond(t *testing.T) {
	now := time.Unix(0, 0)
	m := timerqueue.New()
	m.Now = func() time.Time { return now }

	alive := false
	called := false
	m.AddConditional(10*time.Millisecond, func() { called = true }, func() bool { return alive }, false)

	now = now.Add(10 * time.Millisecond)
	var fired []func()
	m.DrainExpired(&fired)
	for _, cb := range fired {
		cb()
	}

	require.False(t, called)
	require.Equal(t, 0, m.Len())
}

func TestNextTimeoutEmptyIsForever(t *testing.T) {
	m := timerqueue.New()
	require.Equal(t, timerqueue.Forever, m.NextTimeout())
}

func TestNextTimeoutOverdueIsZero(t *testing.T) {
	now := time.Unix(0, 0)
	m := timerqueue.New()
	m.Now = func() time.Time { return now }
	m.Add(5*time.Millisecond, func() {}, false)
	now = now.Add(10 * time.Millisecond)
	require.Equal(t, time.Duration(0), m.NextTimeout())
}

func TestOnInsertedAtFrontFiresOncePerQuery(t *testing.T) {
	m := timerqueue.New()
	var hooks int
	m.OnInsertedAtFront = func() { hooks++ }

	m.Add(100*time.Millisecond, func() {}, false)
	require.Equal(t, 1, hooks)

	// A later timer, not the new earliest, must not retrigger the hook.
	m.Add(200*time.Millisecond, func() {}, false)
	require.Equal(t, 1, hooks)

	// Once NextTimeout has been polled, a new earliest timer retriggers it.
	m.NextTimeout()
	m.Add(10*time.Millisecond, func() {}, false)
	require.Equal(t, 2, hooks)
}

func TestRefreshAndReset(t *testing.T) {
	now := time.Unix(0, 0)
	m := timerqueue.New()
	m.Now = func() time.Time { return now }

	timer := m.Add(100*time.Millisecond, func() {}, true)
	now = now.Add(50 * time.Millisecond)
	timer.Refresh()
	require.Equal(t, 100*time.Millisecond, m.NextTimeout())

	timer.Reset(200*time.Millisecond, true)
	require.Equal(t, 200*time.Millisecond, m.NextTimeout())
}

func TestRolloverExpiresEverything(t *testing.T) {
	now := time.Unix(10000, 0)
	m := timerqueue.New()
	m.Now = func() time.Time { return now }

	var fires int
	m.Add(time.Hour, func() { fires++ }, false)
	m.Add(2*time.Hour, func() { fires++ }, false)

	var out []func()
	m.DrainExpired(&out) // establishes lastNow, nothing expired yet
	require.Empty(t, out)

	now = now.Add(-2 * timerqueue.RolloverThreshold)
	m.DrainExpired(&out)
	for _, cb := range out {
		cb()
	}
	require.Equal(t, 2, fires)
	require.Equal(t, 0, m.Len())
}
