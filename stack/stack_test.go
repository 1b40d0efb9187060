package stack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPushPopReusesSlots(t *testing.T) {
	var created int
	s := New(4, func() int {
		created++
		return 0
	})
	require.Equal(t, 4, created, "New must pre-populate every slot up front")

	s.Push(1)
	s.Push(2)
	require.Equal(t, 2, s.Len())
	require.Equal(t, 2, *s.Top())

	// The slot Push(2) landed in must be the same backing address Dec/Next
	// hand back later, never a freshly allocated one.
	poppedSlot := s.Top()

	s.Dec()
	require.Equal(t, 1, s.Len())
	require.Equal(t, 1, *s.Top())

	// Pushing again must reuse the slot Dec left behind, not allocate a new one.
	slot := s.Next()
	require.Same(t, poppedSlot, slot, "Next after Dec must hand back the same backing slot")
	*slot = 99
	s.Inc()
	require.Equal(t, 2, s.Len())
	require.Equal(t, 99, *s.Top())
}

func TestSwapAndGet(t *testing.T) {
	s := New(3, func() int { return 0 })
	s.Push(10)
	s.Push(20)
	s.Push(30)

	s.Swap(0, 2)
	require.Equal(t, 30, *s.Get(0))
	require.Equal(t, 20, *s.Get(1))
	require.Equal(t, 10, *s.Get(2))
}

func TestClearAndIsEmpty(t *testing.T) {
	s := New(2, func() int { return 0 })
	require.True(t, s.IsEmpty())
	s.Push(5)
	require.False(t, s.IsEmpty())
	s.Clear()
	require.True(t, s.IsEmpty())
	require.Equal(t, 0, s.Len())
}
