package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueuePushPopOrder(t *testing.T) {
	q := New[int]()
	q.Push(1)
	q.Push(2)
	q.Push(3)
	require.Equal(t, 3, q.Len())

	for _, want := range []int{1, 2, 3} {
		got, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestQueueNotifyCoalesces(t *testing.T) {
	q := New[string]()
	q.Push("a")
	q.Push("b")

	select {
	case <-q.NotifyCh():
	default:
		t.Fatal("expected a pending notification")
	}
	select {
	case <-q.NotifyCh():
		t.Fatal("expected notifications to coalesce into one")
	default:
	}

	// Both items remain poppable regardless of notification count.
	_, ok := q.Pop()
	require.True(t, ok)
	_, ok = q.Pop()
	require.True(t, ok)
}

func TestQueueClear(t *testing.T) {
	q := New[int]()
	q.Push(1)
	q.Push(2)
	q.Clear()
	assert.Equal(t, 0, q.Len())
	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestQueueConcurrentPush(t *testing.T) {
	q := New[int]()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q.Push(i)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 100, q.Len())
}
