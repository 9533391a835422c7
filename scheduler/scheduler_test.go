package scheduler_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/weavert/weave/scheduler"
)

// TestMultiThreadDispatch is spec.md §8 scenario 6: 4 workers, 1000
// callbacks each appending their worker id to a shared slice under lock;
// after Stop, total appends is 1000 and every worker id 0..3 appears.
func TestMultiThreadDispatch(t *testing.T) {
	s, err := scheduler.New(4)
	require.NoError(t, err)
	require.NoError(t, s.Start())

	var mu sync.Mutex
	var seen []int
	var wg sync.WaitGroup
	wg.Add(1000)

	for i := 0; i < 1000; i++ {
		err := s.Schedule(scheduler.Task{Callback: func() {
			defer wg.Done()
			id, ok := scheduler.CurrentThreadID()
			mu.Lock()
			if ok {
				seen = append(seen, id)
			} else {
				seen = append(seen, -1)
			}
			mu.Unlock()
		}})
		require.NoError(t, err)
	}

	wg.Wait()
	s.Stop()

	require.Len(t, seen, 1000)
	distinct := map[int]bool{}
	for _, id := range seen {
		distinct[id] = true
	}
	for w := 0; w < 4; w++ {
		require.True(t, distinct[w], "worker %d never dispatched a task", w)
	}
}

func TestScheduleAfterStopFails(t *testing.T) {
	s, err := scheduler.New(2)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	s.Stop()

	err = s.Schedule(scheduler.Task{Callback: func() {}})
	require.ErrorIs(t, err, scheduler.ErrStopped)
}

func TestThreadAffinityPinsTask(t *testing.T) {
	s, err := scheduler.New(3)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	defer s.Stop()

	done := make(chan int, 1)
	err = s.Schedule(scheduler.Task{
		Thread: 1,
		Callback: func() {
			id, _ := scheduler.CurrentThreadID()
			done <- id
		},
	})
	require.NoError(t, err)

	select {
	case id := <-done:
		require.Equal(t, 1, id)
	case <-time.After(2 * time.Second):
		t.Fatal("pinned task never ran")
	}
}

func TestCallerModeBlocksStartUntilStop(t *testing.T) {
	s, err := scheduler.New(1, scheduler.WithCaller(true))
	require.NoError(t, err)

	started := make(chan struct{})
	returned := make(chan struct{})
	go func() {
		close(started)
		require.NoError(t, s.Start())
		close(returned)
	}()

	<-started
	select {
	case <-returned:
		t.Fatal("Start returned before Stop was called")
	case <-time.After(50 * time.Millisecond):
	}

	s.Stop()

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("Start never returned after Stop")
	}
}
