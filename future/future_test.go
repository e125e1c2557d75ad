package future_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"github.com/pipelined/pdnode/future"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestFulfillOnce(t *testing.T) {
	f := future.New[int]()
	assert.True(t, f.Fulfill(1, nil))
	assert.False(t, f.Fulfill(2, errors.New("second")))

	v, err := f.Await(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = f.Await(context.Background())
	assert.Equal(t, future.ErrObserved, err)
}

func TestAwaitTimeout(t *testing.T) {
	f := future.New[string]()
	_, err := f.AwaitTimeout(5 * time.Millisecond)
	assert.Equal(t, future.ErrTimeout, err)

	// timeout does not consume the result
	f.Fulfill("ok", nil)
	v, err := f.AwaitTimeout(time.Second)
	assert.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestAwaitContext(t *testing.T) {
	f := future.New[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.Await(ctx)
	assert.Equal(t, context.Canceled, err)
}

func TestPoll(t *testing.T) {
	expected := errors.New("failed")
	f := future.New[int]()
	_, ok, err := f.Poll()
	assert.False(t, ok)
	assert.NoError(t, err)

	f.Fulfill(0, expected)
	_, ok, err = f.Poll()
	assert.True(t, ok)
	assert.Equal(t, expected, err)
}

func TestConcurrent(t *testing.T) {
	f := future.New[int]()
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		observed int
	)
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			if f.Fulfill(i, nil) {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}(i)
		go func() {
			defer wg.Done()
			if _, err := f.Await(context.Background()); err == nil {
				mu.Lock()
				observed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 1, observed)
}

func TestFulfilled(t *testing.T) {
	f := future.Fulfilled(5, nil)
	select {
	case <-f.Done():
	default:
		t.Fatal("future is not done")
	}
	v, err := f.Await(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestAwaitReadyWithoutWaiting(t *testing.T) {
	v, err := future.Fulfilled("ready", nil).AwaitTimeout(0)
	assert.NoError(t, err)
	assert.Equal(t, "ready", v)
}

func TestFollow(t *testing.T) {
	f := future.New[int]()
	follower := f.Follow()
	assert.NotSame(t, f, follower)

	// follower is fulfilled through the original and vice versa.
	assert.True(t, f.Fulfill(3, nil))
	assert.False(t, follower.Fulfill(4, nil))

	v, err := f.AwaitTimeout(time.Second)
	assert.NoError(t, err)
	assert.Equal(t, 3, v)
	v, err = follower.AwaitTimeout(time.Second)
	assert.NoError(t, err)
	assert.Equal(t, 3, v)

	_, err = follower.AwaitTimeout(time.Second)
	assert.Equal(t, future.ErrObserved, err)
	v, err = f.Follow().AwaitTimeout(0)
	assert.NoError(t, err)
	assert.Equal(t, 3, v)
}
