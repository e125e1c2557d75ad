package command

import (
	"context"
	"errors"
	"sync"

	"github.com/pipelined/pdnode/internal/ring"
)

// ErrQueueFull is returned when the queue has no free slots.
var ErrQueueFull = errors.New("command queue is full")

// Queue carries commands from control goroutines to the render goroutine.
// Producers are serialised by a short critical section, the consumer side
// never locks.
type Queue struct {
	mu    sync.Mutex
	ring  *ring.Ring[Command]
	space chan struct{}
}

// NewQueue returns a queue with at least capacity slots.
func NewQueue(capacity int) *Queue {
	return &Queue{
		ring:  ring.New[Command](capacity),
		space: make(chan struct{}, 1),
	}
}

// Push enqueues c. ErrQueueFull is returned if there is no free slot, the
// command is never dropped silently.
func (q *Queue) Push(c Command) error {
	q.mu.Lock()
	ok := q.ring.Push(c)
	q.mu.Unlock()
	if !ok {
		return ErrQueueFull
	}
	return nil
}

// PushContext enqueues c, waiting for the consumer to free a slot if the
// queue is full. The context error is returned if ctx is done first.
func (q *Queue) PushContext(ctx context.Context, c Command) error {
	for {
		err := q.Push(c)
		if !errors.Is(err, ErrQueueFull) {
			return err
		}
		select {
		case <-q.space:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Drain pops up to max commands and passes each to fn in FIFO order. Only
// commands queued when Drain is called are considered, so producers cannot
// keep the consumer busy. Non-positive max drains all of them. It returns
// the number of processed commands. Must be called from the consumer
// goroutine only.
func (q *Queue) Drain(max int, fn func(*Command)) int {
	n := q.ring.Len()
	if max > 0 && max < n {
		n = max
	}
	for i := 0; i < n; i++ {
		fn(q.ring.Front())
		q.ring.Advance()
	}
	if n > 0 {
		// wake up a waiting producer, never block the consumer
		select {
		case q.space <- struct{}{}:
		default:
		}
	}
	return n
}

// Discard drops all queued commands and returns how many were dropped.
// Cancel hooks of dropped commands are called. Must be called from the
// consumer side.
func (q *Queue) Discard() int {
	return q.Drain(0, func(c *Command) {
		if c.Cancel != nil {
			c.Cancel()
		}
	})
}

// Len returns the number of queued commands.
func (q *Queue) Len() int {
	return q.ring.Len()
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return q.ring.Cap()
}
