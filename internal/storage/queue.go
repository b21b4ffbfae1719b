package storage

import (
	"context"
	"errors"
	"sync"
)

// ErrQueueClosed is returned when work is submitted after Close.
var ErrQueueClosed = errors.New("queue closed")

// Queue runs submitted functions one at a time, in submission order, on a
// dedicated goroutine. The backlog is unbounded so Go never blocks, which lets
// queued functions enqueue more work on this queue or on another one.
type Queue struct {
	mu     sync.Mutex
	items  []func()
	closed bool

	wake chan struct{}
	done chan struct{}
}

// NewQueue starts a serial queue.
func NewQueue() *Queue {
	q := &Queue{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go q.loop()
	return q
}

func (q *Queue) loop() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.items) == 0 {
			if q.closed {
				q.mu.Unlock()
				return
			}
			q.mu.Unlock()
			<-q.wake
			q.mu.Lock()
		}
		fn := q.items[0]
		q.items[0] = nil
		q.items = q.items[1:]
		q.mu.Unlock()

		fn()
	}
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Go enqueues fn without waiting for it to run.
func (q *Queue) Go(fn func()) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.items = append(q.items, fn)
	q.mu.Unlock()
	q.signal()
	return nil
}

// Do enqueues fn and waits until it has run or ctx is done.
// Calling Do from inside a queued function deadlocks.
func (q *Queue) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if err := q.Go(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting work, runs everything already queued, and waits for the loop to exit.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
	<-q.done
}
