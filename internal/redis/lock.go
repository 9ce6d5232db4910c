package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotAcquired is returned when a lot lock stays busy for the whole wait.
var ErrLockNotAcquired = errors.New("lock not acquired")

const defaultLockRetryInterval = 25 * time.Millisecond

// releaseScript deletes the lock only if it still holds the caller's token,
// so an expired-and-reacquired lock is never released by the old holder.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LotLockStore serializes booking admission per parking lot across instances.
type LotLockStore struct {
	client        *redis.Client
	ttl           time.Duration
	wait          time.Duration
	retryInterval time.Duration
}

// NewLotLockStore creates a new LotLockStore. ttl bounds how long a crashed
// holder can block a lot; wait bounds how long Lock blocks a request.
func NewLotLockStore(client *redis.Client, ttl, wait time.Duration) *LotLockStore {
	return &LotLockStore{
		client:        client,
		ttl:           ttl,
		wait:          wait,
		retryInterval: defaultLockRetryInterval,
	}
}

// Lock blocks until the lot lock is held, the wait elapses, or ctx ends.
// The returned func releases the lock and is safe to call once.
func (s *LotLockStore) Lock(ctx context.Context, lotID string) (func(), error) {
	key := lotLockKey(lotID)
	token := uuid.New().String()

	waitCtx, cancel := context.WithTimeout(ctx, s.wait)
	defer cancel()

	ticker := time.NewTicker(s.retryInterval)
	defer ticker.Stop()

	for {
		ok, err := s.client.SetNX(waitCtx, key, token, s.ttl).Result()
		if err != nil {
			if ctx.Err() == nil && waitCtx.Err() != nil {
				return nil, ErrLockNotAcquired
			}
			return nil, err
		}

		if ok {
			return func() {
				_ = s.release(context.WithoutCancel(ctx), key, token)
			}, nil
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, ErrLockNotAcquired
		case <-ticker.C:
		}
	}
}

// Lease returns the lock TTL. A holder still working past it may be
// overtaken by another instance.
func (s *LotLockStore) Lease() time.Duration {
	return s.ttl
}

// release removes the lock if the token still matches.
func (s *LotLockStore) release(ctx context.Context, key, token string) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	return releaseScript.Run(ctx, s.client, []string{key}, token).Err()
}

func lotLockKey(lotID string) string {
	return fmt.Sprintf("lock:lot:%s", lotID)
}
