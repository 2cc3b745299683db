// Package queue provides an unbounded FIFO for decoupling producers from
// slow consumers.
package queue

import "sync"

// Unbounded buffers items without limit so Send never blocks. A background
// goroutine drains the queue into the Receive channel in order.
type Unbounded[T any] struct {
	mu     sync.Mutex
	items  []T
	cond   *sync.Cond
	closed bool
	out    chan T
}

// NewUnbounded creates a queue ready for Send.
func NewUnbounded[T any]() *Unbounded[T] {
	q := &Unbounded[T]{
		items: make([]T, 0, 64),
		out:   make(chan T, 1),
	}
	q.cond = sync.NewCond(&q.mu)
	go q.drain()
	return q
}

func (q *Unbounded[T]) drain() {
	for {
		item, ok := q.dequeue()
		if !ok {
			close(q.out)
			return
		}
		q.out <- item
	}
}

// dequeue blocks until an item is available or the queue is closed and
// empty.
func (q *Unbounded[T]) dequeue() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}

	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

// Send enqueues item without blocking. Items sent after Close are dropped.
func (q *Unbounded[T]) Send(item T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.items = append(q.items, item)
	q.cond.Signal()
}

// Receive returns the drain channel. It closes after Close once every
// pending item has been delivered.
func (q *Unbounded[T]) Receive() <-chan T {
	return q.out
}

// Close stops accepting items. Safe to call multiple times.
func (q *Unbounded[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.cond.Signal()
}

// Len reports the number of queued, undelivered items.
func (q *Unbounded[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
