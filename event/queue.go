package event

import (
	"sync"
	"sync/atomic"

	"github.com/pipelined/pdnode/internal/ring"
)

// Queue carries events from the render goroutine to control goroutines.
// Push never blocks and never allocates: events that do not fit are
// dropped and counted.
type Queue struct {
	mu      sync.Mutex
	ring    *ring.Ring[Event]
	dropped atomic.Uint64
}

// NewQueue returns a queue with at least capacity slots.
func NewQueue(capacity int) *Queue {
	return &Queue{
		ring: ring.New[Event](capacity),
	}
}

// Push enqueues e. It returns false if the event was dropped. Must be called
// from the render goroutine only.
func (q *Queue) Push(e Event) bool {
	if !q.ring.Push(e) {
		q.dropped.Add(1)
		return false
	}
	return true
}

// Drain passes every available event to fn in generation order and returns
// the number of events. Consumers are serialised.
func (q *Queue) Drain(fn func(Event)) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := q.ring.Len()
	for i := 0; i < n; i++ {
		e, _ := q.ring.Pop()
		fn(e)
	}
	return n
}

// Dropped returns the number of events lost on overflow.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	return q.ring.Len()
}
