package bus

import "context"

// Queue is a bounded FIFO between a producer and its single consumer.
//
// Push never blocks: the gateway event handler must not stall behind a slow
// consumer, so a full queue drops the item instead. Consumers block on
// Receive rather than sleep-polling.
type Queue[T any] struct {
	ch chan T
}

// NewQueue creates a queue with the given capacity.
func NewQueue[T any](capacity int) *Queue[T] {
	return &Queue[T]{ch: make(chan T, capacity)}
}

// TryPush enqueues item without blocking. It reports false when the queue is
// full and the item was dropped.
func (q *Queue[T]) TryPush(item T) bool {
	select {
	case q.ch <- item:
		return true
	default:
		return false
	}
}

// Receive blocks until an item arrives or ctx is done. The second return
// value is false when the wait was cancelled.
func (q *Queue[T]) Receive(ctx context.Context) (T, bool) {
	select {
	case item := <-q.ch:
		return item, true
	case <-ctx.Done():
		var zero T
		return zero, false
	}
}

// TryReceive dequeues without blocking. Used to drain a batch after a
// blocking Receive woke the consumer.
func (q *Queue[T]) TryReceive() (T, bool) {
	select {
	case item := <-q.ch:
		return item, true
	default:
		var zero T
		return zero, false
	}
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	return len(q.ch)
}
