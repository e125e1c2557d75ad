// Package future provides a one-shot result cell filled on one goroutine
// and observed on another.
package future

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

var (
	// ErrObserved is returned if the result was already taken.
	ErrObserved = errors.New("result already observed")
	// ErrTimeout is returned by AwaitTimeout if the result is not ready in
	// time.
	ErrTimeout = errors.New("result not ready before timeout")
)

type (
	// Future is a result that becomes available once. It is fulfilled
	// exactly once and observed at most once.
	Future[T any] struct {
		*result[T]
		observed atomic.Bool
	}

	// result is shared by a future and its followers.
	result[T any] struct {
		done      chan struct{}
		fulfilled atomic.Bool
		value     T
		err       error
	}
)

// New returns an empty future.
func New[T any]() *Future[T] {
	return &Future[T]{result: &result[T]{done: make(chan struct{})}}
}

// Follow returns a future that holds the same result as f but is observed
// independently. Fulfilling either of them fulfills both.
func (f *Future[T]) Follow() *Future[T] {
	return &Future[T]{result: f.result}
}

// Fulfill stores the result and wakes up waiters. Only the first call has an
// effect, false is returned for the rest. Fulfill never blocks.
func (f *Future[T]) Fulfill(value T, err error) bool {
	if !f.fulfilled.CompareAndSwap(false, true) {
		return false
	}
	f.value = value
	f.err = err
	close(f.done)
	return true
}

// Done returns a channel closed when the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the result is available or ctx is done.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.take()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// AwaitTimeout blocks until the result is available or d elapses, in which
// case ErrTimeout is returned. The result can still be awaited later.
func (f *Future[T]) AwaitTimeout(d time.Duration) (T, error) {
	select {
	case <-f.done:
		return f.take()
	default:
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-f.done:
		return f.take()
	case <-t.C:
		var zero T
		return zero, ErrTimeout
	}
}

// Poll returns the result if it is available. The returned bool is false if
// the future is not fulfilled yet.
func (f *Future[T]) Poll() (T, bool, error) {
	select {
	case <-f.done:
		v, err := f.take()
		return v, true, err
	default:
		var zero T
		return zero, false, nil
	}
}

func (f *Future[T]) take() (T, error) {
	if !f.observed.CompareAndSwap(false, true) {
		var zero T
		return zero, ErrObserved
	}
	return f.value, f.err
}

// Fulfilled returns a future that already holds the result.
func Fulfilled[T any](value T, err error) *Future[T] {
	f := New[T]()
	f.Fulfill(value, err)
	return f
}
