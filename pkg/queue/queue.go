package queue

import (
	"sync"
)

// Queue is a generic FIFO queue with thread-safe operations and a
// single-slot notification channel, used to hand work items to a
// consuming loop without blocking the producer.
type Queue[T any] struct {
	items    []T
	mu       sync.Mutex
	notifyCh chan struct{}
}

// New creates a new Queue
func New[T any]() *Queue[T] {
	return &Queue[T]{
		items:    make([]T, 0),
		notifyCh: make(chan struct{}, 1),
	}
}

// Push appends an item and signals the consumer. The signal is coalesced:
// if a notification is already pending, no second one is queued.
func (q *Queue[T]) Push(item T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, item)
	select {
	case q.notifyCh <- struct{}{}:
	default:
	}
}

// Pop removes and returns the oldest item. The second return value is
// false when the queue is empty.
func (q *Queue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

// NotifyCh returns the channel signalled on Push.
func (q *Queue[T]) NotifyCh() <-chan struct{} {
	return q.notifyCh
}

// Len returns the current length of the queue
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Clear empties the queue
func (q *Queue[T]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = q.items[:0]
}
