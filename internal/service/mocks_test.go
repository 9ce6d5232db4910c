package service_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"parking/internal/domain"
	"parking/internal/redis"
	"parking/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK BOOKING REPOSITORY
// ──────────────────────────────────────────────

// MockBookingRepository is an in-memory BookingRepository.
type MockBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*domain.Booking

	// Counters for verification
	CreateCallCount       int32
	UpdateStatusCallCount int32

	// Error injection
	CreateError       error
	CountError        error
	UpdateStatusError error

	// CountDelay widens the gap between counting and inserting.
	CountDelay time.Duration
}

// NewMockBookingRepository creates a new mock booking repository.
func NewMockBookingRepository() *MockBookingRepository {
	return &MockBookingRepository{
		bookings: make(map[string]*domain.Booking),
	}
}

// AddBooking seeds a booking.
func (m *MockBookingRepository) AddBooking(b *domain.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *b
	m.bookings[b.ID] = &copy
}

// GetBooking returns a copy of a stored booking for assertions.
func (m *MockBookingRepository) GetBooking(id string) *domain.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil
	}
	copy := *b
	return &copy
}

// CountInStatusesAt counts bookings on a lot in statuses whose window contains at.
func (m *MockBookingRepository) CountInStatusesAt(lotID string, statuses []domain.BookingStatus, at time.Time) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, b := range m.bookings {
		if b.ParkingLotID == lotID && hasStatus(statuses, b.Status) &&
			!b.StartTime.After(at) && b.EndTime.After(at) {
			count++
		}
	}
	return count
}

func (m *MockBookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *b
	m.bookings[b.ID] = &copy
	return nil
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *b
	return &copy, nil
}

func (m *MockBookingRepository) ListByUser(ctx context.Context, userID string, filter repository.BookingFilter) ([]*domain.Booking, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]*domain.Booking, 0)
	for _, b := range m.bookings {
		if b.UserID != userID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		copy := *b
		matched = append(matched, &copy)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if filter.Offset >= total {
		return []*domain.Booking{}, total, nil
	}
	end := min(filter.Offset+filter.Limit, total)
	return matched[filter.Offset:end], total, nil
}

func (m *MockBookingRepository) CountOverlapping(ctx context.Context, lotID string, statuses []domain.BookingStatus, start, end time.Time) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}

	m.mu.RLock()
	count := 0
	for _, b := range m.bookings {
		if b.ParkingLotID == lotID && hasStatus(statuses, b.Status) &&
			b.StartTime.Before(end) && b.EndTime.After(start) {
			count++
		}
	}
	m.mu.RUnlock()

	if m.CountDelay > 0 {
		select {
		case <-time.After(m.CountDelay):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	return count, nil
}

func (m *MockBookingRepository) CountActiveAt(ctx context.Context, lotID string, at time.Time) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, b := range m.bookings {
		if b.ParkingLotID == lotID && b.Status == domain.BookingStatusActive &&
			!b.StartTime.After(at) && !b.EndTime.Before(at) {
			count++
		}
	}
	return count, nil
}

func (m *MockBookingRepository) UpdateStatus(ctx context.Context, id string, expected domain.BookingStatus, update domain.BookingUpdate) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	if b.Status != expected {
		return repository.ErrStatusConflict
	}
	update.Apply(b)
	return nil
}

func hasStatus(statuses []domain.BookingStatus, status domain.BookingStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// ──────────────────────────────────────────────
// MOCK VEHICLE REPOSITORY
// ──────────────────────────────────────────────

// MockVehicleRepository is an in-memory VehicleRepository.
type MockVehicleRepository struct {
	mu       sync.RWMutex
	vehicles map[string]*domain.Vehicle

	GetByIDsCallCount int32

	GetError error
}

// NewMockVehicleRepository creates a new mock vehicle repository.
func NewMockVehicleRepository() *MockVehicleRepository {
	return &MockVehicleRepository{
		vehicles: make(map[string]*domain.Vehicle),
	}
}

// AddVehicle seeds a vehicle.
func (m *MockVehicleRepository) AddVehicle(v *domain.Vehicle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles[v.ID] = v
}

func (m *MockVehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vehicles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *v
	return &copy, nil
}

func (m *MockVehicleRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Vehicle, error) {
	atomic.AddInt32(&m.GetByIDsCallCount, 1)
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Vehicle, 0, len(ids))
	for _, id := range ids {
		if v, ok := m.vehicles[id]; ok {
			copy := *v
			result = append(result, &copy)
		}
	}
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK LOT REPOSITORY
// ──────────────────────────────────────────────

// MockLotRepository is an in-memory LotRepository.
type MockLotRepository struct {
	mu   sync.RWMutex
	lots map[string]*domain.ParkingLot

	// Counters for verification
	GetByIDCallCount  int32
	GetByIDsCallCount int32

	ListAllError error
}

// NewMockLotRepository creates a new mock lot repository.
func NewMockLotRepository() *MockLotRepository {
	return &MockLotRepository{
		lots: make(map[string]*domain.ParkingLot),
	}
}

// AddLot seeds a lot.
func (m *MockLotRepository) AddLot(lot *domain.ParkingLot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lots[lot.ID] = lot
}

func (m *MockLotRepository) GetByID(ctx context.Context, id string) (*domain.ParkingLot, error) {
	atomic.AddInt32(&m.GetByIDCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	lot, ok := m.lots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *lot
	return &copy, nil
}

func (m *MockLotRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.ParkingLot, error) {
	atomic.AddInt32(&m.GetByIDsCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.ParkingLot, 0, len(ids))
	for _, id := range ids {
		if lot, ok := m.lots[id]; ok {
			copy := *lot
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockLotRepository) List(ctx context.Context, filter repository.LotFilter) ([]*domain.ParkingLot, int, error) {
	all, _ := m.ListAll(ctx)

	matched := make([]*domain.ParkingLot, 0, len(all))
	for _, lot := range all {
		if filter.Search != "" && !strings.Contains(strings.ToLower(lot.Name), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.MinPrice != nil && lot.PricePerHour < *filter.MinPrice {
			continue
		}
		if filter.MaxPrice != nil && lot.PricePerHour > *filter.MaxPrice {
			continue
		}
		if len(filter.Features) > 0 && !anyFeature(lot.Features, filter.Features) {
			continue
		}
		matched = append(matched, lot)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })

	total := len(matched)
	if filter.Offset >= total {
		return []*domain.ParkingLot{}, total, nil
	}
	end := min(filter.Offset+filter.Limit, total)
	return matched[filter.Offset:end], total, nil
}

func (m *MockLotRepository) ListAll(ctx context.Context) ([]*domain.ParkingLot, error) {
	if m.ListAllError != nil {
		return nil, m.ListAllError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.ParkingLot, 0, len(m.lots))
	for _, lot := range m.lots {
		copy := *lot
		result = append(result, &copy)
	}
	return result, nil
}

func anyFeature(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

// ──────────────────────────────────────────────
// MOCK LOT CACHE
// ──────────────────────────────────────────────

// MockLotCache is an in-memory LotCache.
type MockLotCache struct {
	mu   sync.RWMutex
	lots map[string]*domain.ParkingLot

	// Counters for verification
	SetCallCount int32

	// Error injection
	GetError error
	SetError error
}

// NewMockLotCache creates a new mock lot cache.
func NewMockLotCache() *MockLotCache {
	return &MockLotCache{
		lots: make(map[string]*domain.ParkingLot),
	}
}

// Cached reports whether a lot is in cache.
func (m *MockLotCache) Cached(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.lots[id]
	return ok
}

func (m *MockLotCache) GetLot(ctx context.Context, lotID string) (*domain.ParkingLot, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	lot, ok := m.lots[lotID]
	if !ok {
		return nil, nil
	}
	copy := *lot
	return &copy, nil
}

func (m *MockLotCache) SetLot(ctx context.Context, lot *domain.ParkingLot) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	if m.SetError != nil {
		return m.SetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *lot
	m.lots[lot.ID] = &copy
	return nil
}

func (m *MockLotCache) GetLotsBatch(ctx context.Context, lotIDs []string) (map[string]*domain.ParkingLot, []string, error) {
	if m.GetError != nil {
		return nil, nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	hits := make(map[string]*domain.ParkingLot)
	var missing []string
	for _, id := range lotIDs {
		if lot, ok := m.lots[id]; ok {
			copy := *lot
			hits[id] = &copy
			continue
		}
		missing = append(missing, id)
	}
	return hits, missing, nil
}

func (m *MockLotCache) SetLotsBatch(ctx context.Context, lots []*domain.ParkingLot) error {
	for _, lot := range lots {
		if err := m.SetLot(ctx, lot); err != nil {
			return err
		}
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK LOCKER AND CLOCK
// ──────────────────────────────────────────────

// MockLotLocker fails every Lock call with LockError, or grants a lock
// that expires after LeaseDuration.
type MockLotLocker struct {
	LockError     error
	LockCalls     int32
	LeaseDuration time.Duration
}

func (m *MockLotLocker) Lease() time.Duration {
	return m.LeaseDuration
}

func (m *MockLotLocker) Lock(ctx context.Context, lotID string) (func(), error) {
	atomic.AddInt32(&m.LockCalls, 1)
	if m.LockError != nil {
		return nil, m.LockError
	}
	return func() {}, nil
}

var (
	_ repository.BookingRepository = (*MockBookingRepository)(nil)
	_ repository.VehicleRepository = (*MockVehicleRepository)(nil)
	_ repository.LotRepository     = (*MockLotRepository)(nil)
	_ redis.LotCache               = (*MockLotCache)(nil)
	_ redis.LotLocker              = (*MockLotLocker)(nil)
)

// testClock is a settable clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(now time.Time) *testClock {
	return &testClock{now: now}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}
