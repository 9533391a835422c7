package fiber_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/weavert/weave/fiber"
)

// TestSequenceGenerator is spec.md §8 scenario 1: a single fiber yields
// integers 1..5, then reaches Term after five resumes.
func TestSequenceGenerator(t *testing.T) {
	var produced int
	f := fiber.New(func() {
		for i := 1; i <= 5; i++ {
			produced = i
			if i < 5 {
				fiber.GetThis().Yield()
			}
		}
	})

	var got []int
	for i := 0; i < 5; i++ {
		require.Equal(t, fiber.Ready, f.State())
		f.Resume()
		got = append(got, produced)
	}

	require.Equal(t, []int{1, 2, 3, 4, 5}, got)
	require.Equal(t, fiber.Term, f.State())
}

func TestResumeOnNonReadyPanics(t *testing.T) {
	f := fiber.New(func() { fiber.GetThis().Yield() })

	require.NotPanics(t, func() { f.Resume() }) // yields once, back to Ready
	require.Equal(t, fiber.Ready, f.State())

	require.NotPanics(t, func() { f.Resume() }) // entry returns, reaches Term
	require.Equal(t, fiber.Term, f.State())

	require.Panics(t, func() { f.Resume() }) // Term is not Ready
}

func TestResetRequiresTerm(t *testing.T) {
	f := fiber.New(func() {})
	require.Panics(t, func() {
		f.Reset(func() {})
	})

	f.Resume()
	require.Equal(t, fiber.Term, f.State())

	f.Reset(func() { fiber.GetThis().Yield() })
	require.Equal(t, fiber.Ready, f.State())
	f.Resume()
	require.Equal(t, fiber.Ready, f.State())
}

func TestMainFiberCannotResumeOrYield(t *testing.T) {
	main := fiber.GetThis()
	require.True(t, main.IsMain())
	require.Panics(t, func() { main.Resume() })
	require.Panics(t, func() { main.Yield() })
}

func TestGetThisIsStableWithinAFiber(t *testing.T) {
	var seenID uint64
	f := fiber.New(func() {
		seenID = fiber.GetThis().ID()
	})
	f.Resume()
	require.Equal(t, f.ID(), seenID)
}
