// Package ring provides a bounded single-producer single-consumer ring
// buffer. Positions are published with atomics, so one goroutine may push
// while another pops without locks. Callers that have more than one
// producer or consumer must serialise that side themselves.
package ring

import "sync/atomic"

// Ring is a bounded FIFO of T. The zero value is not usable, use New.
type Ring[T any] struct {
	// head is the next position to read, advanced by the consumer.
	head atomic.Uint64
	_    [56]byte
	// tail is the next position to write, advanced by the producer.
	tail atomic.Uint64
	_    [56]byte

	mask  uint64
	slots []T
}

// New returns a ring that holds at least capacity elements. Capacity is
// rounded up to the next power of two. Non-positive capacity yields a ring
// of one slot.
func New[T any](capacity int) *Ring[T] {
	size := nextPowerOf2(capacity)
	return &Ring[T]{
		mask:  uint64(size - 1),
		slots: make([]T, size),
	}
}

// Push appends v. It returns false if the ring is full. Must be called
// from the producer side only.
func (r *Ring[T]) Push(v T) bool {
	tail := r.tail.Load()
	if tail-r.head.Load() == uint64(len(r.slots)) {
		return false
	}
	r.slots[tail&r.mask] = v
	r.tail.Store(tail + 1)
	return true
}

// Front returns a pointer to the oldest element or nil if the ring is
// empty. The element stays owned by the ring until Advance is called.
// Must be called from the consumer side only.
func (r *Ring[T]) Front() *T {
	head := r.head.Load()
	if head == r.tail.Load() {
		return nil
	}
	return &r.slots[head&r.mask]
}

// Advance releases the oldest element. The slot is reset to the zero value
// so references held by the element can be collected. Must be called from
// the consumer side only and only after Front returned non-nil.
func (r *Ring[T]) Advance() {
	head := r.head.Load()
	var zero T
	r.slots[head&r.mask] = zero
	r.head.Store(head + 1)
}

// Pop removes and returns the oldest element.
func (r *Ring[T]) Pop() (T, bool) {
	p := r.Front()
	if p == nil {
		var zero T
		return zero, false
	}
	v := *p
	r.Advance()
	return v, true
}

// Len returns the number of queued elements. The value is a snapshot and may
// be stale by the time it is used by the other side.
func (r *Ring[T]) Len() int {
	return int(r.tail.Load() - r.head.Load())
}

// Cap returns the number of slots.
func (r *Ring[T]) Cap() int {
	return len(r.slots)
}

func nextPowerOf2(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}
