package service

import (
	"context"
	"sync"
	"time"

	"parking/internal/redis"
)

// InProcessLotLocker serializes lot admission within a single process.
// It honours the same contract as redis.LotLockStore and is used in tests
// and single-instance deployments.
type InProcessLotLocker struct {
	mu    sync.Mutex
	slots map[string]*lotSlot
	wait  time.Duration
}

type lotSlot struct {
	held chan struct{}
	refs int
}

// NewInProcessLotLocker creates a locker. A zero wait blocks until ctx ends.
func NewInProcessLotLocker(wait time.Duration) *InProcessLotLocker {
	return &InProcessLotLocker{
		slots: make(map[string]*lotSlot),
		wait:  wait,
	}
}

// Lock implements redis.LotLocker.
func (l *InProcessLotLocker) Lock(ctx context.Context, lotID string) (func(), error) {
	slot := l.acquireSlot(lotID)

	var timeout <-chan time.Time
	if l.wait > 0 {
		timer := time.NewTimer(l.wait)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case slot.held <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-slot.held
				l.releaseSlot(lotID, slot)
			})
		}, nil
	case <-ctx.Done():
		l.releaseSlot(lotID, slot)
		return nil, ctx.Err()
	case <-timeout:
		l.releaseSlot(lotID, slot)
		return nil, redis.ErrLockNotAcquired
	}
}

// Lease is zero: an in-process lock never expires under its holder.
func (l *InProcessLotLocker) Lease() time.Duration {
	return 0
}

func (l *InProcessLotLocker) acquireSlot(lotID string) *lotSlot {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot, ok := l.slots[lotID]
	if !ok {
		slot = &lotSlot{held: make(chan struct{}, 1)}
		l.slots[lotID] = slot
	}
	slot.refs++
	return slot
}

// releaseSlot drops the slot once no holder or waiter references it.
func (l *InProcessLotLocker) releaseSlot(lotID string, slot *lotSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, lotID)
	}
}

var _ redis.LotLocker = (*InProcessLotLocker)(nil)
