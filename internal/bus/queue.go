package bus

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrQueueFull   = errors.New("event queue full")
	ErrQueueClosed = errors.New("event queue closed")
)

// Queue is a bounded, non-blocking event queue. The transport publishes
// into it and a single consumer drains it, so handlers see events in
// arrival order without holding transport goroutines hostage.
//
// The buffer channel itself is never closed; shutdown is signalled on a
// separate done channel. A publish racing Close lands in the buffer or
// gets ErrQueueClosed, it can never panic.
type Queue[T any] struct {
	ch   chan T
	done chan struct{}
	once sync.Once
}

// NewQueue allocates a queue with the given capacity.
func NewQueue[T any](capacity int) *Queue[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue[T]{
		ch:   make(chan T, capacity),
		done: make(chan struct{}),
	}
}

// TryPublish enqueues an event without blocking.
func (q *Queue[T]) TryPublish(e T) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}
	select {
	case q.ch <- e:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops the queue from accepting new events.
func (q *Queue[T]) Close() {
	q.once.Do(func() {
		close(q.done)
	})
}

// Run consumes events until the context is done or the queue is closed.
// On close the remaining buffered events are drained first.
func (q *Queue[T]) Run(ctx context.Context, handler func(T)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.done:
			for {
				select {
				case e := <-q.ch:
					handler(e)
				default:
					return
				}
			}
		case e := <-q.ch:
			handler(e)
		}
	}
}
