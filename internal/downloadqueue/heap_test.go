package downloadqueue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPop_OrdersByPriorityThenSequence(t *testing.T) {
	q := New()
	q.Push(&Task{ChunkID: 0, Priority: 5})
	q.Push(&Task{ChunkID: 1, Priority: 1})
	q.Push(&Task{ChunkID: 2, Priority: 1})

	first, ok := q.Pop(time.Second)
	require.True(t, ok)
	require.Equal(t, 1, first.ChunkID)

	second, ok := q.Pop(time.Second)
	require.True(t, ok)
	require.Equal(t, 2, second.ChunkID)

	third, ok := q.Pop(time.Second)
	require.True(t, ok)
	require.Equal(t, 0, third.ChunkID)
}

func TestPop_TimesOutOnEmptyQueue(t *testing.T) {
	q := New()
	_, ok := q.Pop(20 * time.Millisecond)
	require.False(t, ok)
}

func TestPendingAndMarkDone(t *testing.T) {
	q := New()
	q.Push(&Task{ChunkID: 0})
	require.EqualValues(t, 1, q.Pending())

	task, ok := q.Pop(time.Second)
	require.True(t, ok)
	require.EqualValues(t, 1, q.Pending())

	q.MarkDone()
	require.EqualValues(t, 0, q.Pending())
	_ = task
}

func TestDrainAll_MarksEveryRemainingTaskDone(t *testing.T) {
	q := New()
	for i := 0; i < 5; i++ {
		q.Push(&Task{ChunkID: i})
	}
	require.EqualValues(t, 5, q.Pending())
	q.DrainAll()
	require.EqualValues(t, 0, q.Pending())
	require.Equal(t, 0, q.Len())
}

func TestRequeue_AfterPopKeepsPendingStable(t *testing.T) {
	q := New()
	task := &Task{ChunkID: 0, Priority: 3}
	q.Push(task)
	popped, ok := q.Pop(time.Second)
	require.True(t, ok)

	popped.Priority--
	q.Requeue(popped)
	require.EqualValues(t, 1, q.Pending())

	again, ok := q.Pop(time.Second)
	require.True(t, ok)
	require.Equal(t, 2, again.Priority)
	q.MarkDone()
	require.EqualValues(t, 0, q.Pending())
}
