package redis

import (
	"context"
	"time"

	"parking/internal/domain"
)

// LotLocker serializes the check-and-reserve step for a single lot.
// Lock returns ErrLockNotAcquired when the lot stays busy past the wait.
// Lease reports how long a held lock stays valid; zero means until unlock.
type LotLocker interface {
	Lock(ctx context.Context, lotID string) (unlock func(), err error)
	Lease() time.Duration
}

// LotCache defines the cache-aside operations for parking lots.
// Get methods report a miss as a nil lot with a nil error.
type LotCache interface {
	GetLot(ctx context.Context, lotID string) (*domain.ParkingLot, error)
	SetLot(ctx context.Context, lot *domain.ParkingLot) error
	GetLotsBatch(ctx context.Context, lotIDs []string) (map[string]*domain.ParkingLot, []string, error)
	SetLotsBatch(ctx context.Context, lots []*domain.ParkingLot) error
}

// Ensure concrete types implement interfaces.
var (
	_ LotLocker = (*LotLockStore)(nil)
	_ LotCache  = (*CacheStore)(nil)
)
