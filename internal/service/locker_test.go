package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking/internal/redis"
)

func TestInProcessLotLocker_SerializesSameLot(t *testing.T) {
	t.Parallel()

	locker := NewInProcessLotLocker(0)

	var (
		wg      sync.WaitGroup
		inside  int32
		maxSeen int32
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(context.Background(), "lot-1")
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			n := atomic.AddInt32(&inside, 1)
			for {
				seen := atomic.LoadInt32(&maxSeen)
				if n <= seen || atomic.CompareAndSwapInt32(&maxSeen, seen, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen)
	assert.Empty(t, locker.slots)
}

func TestInProcessLotLocker_DifferentLotsDoNotBlock(t *testing.T) {
	t.Parallel()

	locker := NewInProcessLotLocker(50 * time.Millisecond)

	unlockA, err := locker.Lock(context.Background(), "lot-a")
	require.NoError(t, err)
	defer unlockA()

	unlockB, err := locker.Lock(context.Background(), "lot-b")
	require.NoError(t, err)
	unlockB()
}

func TestInProcessLotLocker_WaitElapses(t *testing.T) {
	t.Parallel()

	locker := NewInProcessLotLocker(20 * time.Millisecond)

	unlock, err := locker.Lock(context.Background(), "lot-1")
	require.NoError(t, err)

	_, err = locker.Lock(context.Background(), "lot-1")
	assert.ErrorIs(t, err, redis.ErrLockNotAcquired)

	unlock()
	// Calling unlock twice must not release someone else's hold.
	unlock()

	unlock, err = locker.Lock(context.Background(), "lot-1")
	require.NoError(t, err)
	unlock()
	assert.Empty(t, locker.slots)
}

func TestInProcessLotLocker_ContextCancelled(t *testing.T) {
	t.Parallel()

	locker := NewInProcessLotLocker(0)

	unlock, err := locker.Lock(context.Background(), "lot-1")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = locker.Lock(ctx, "lot-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInProcessLotLocker_NeverExpires(t *testing.T) {
	t.Parallel()

	assert.Zero(t, NewInProcessLotLocker(time.Second).Lease())
}
