package thread_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/weavert/weave/thread"
)

func TestStartBlocksUntilRunning(t *testing.T) {
	th := thread.New("worker-0")
	var ran bool
	release := make(chan struct{})
	th.Start(func() {
		ran = true
		<-release
	})
	require.True(t, ran)
	close(release)
	th.Join()
}

func TestJoinRepanicsOnPanic(t *testing.T) {
	th := thread.New("panicky")
	th.Start(func() { panic("boom") })

	done := make(chan struct{})
	var recovered any
	go func() {
		defer close(done)
		defer func() { recovered = recover() }()
		th.Join()
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Join never returned")
	}
	require.NotNil(t, recovered)
}
