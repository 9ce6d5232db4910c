package handler

import (
	"context"
	"sort"
	"sync"
	"time"

	"parking/internal/domain"
	"parking/internal/repository"
)

// fakeStore backs the lot, vehicle and booking repositories in memory.
type fakeStore struct {
	mu       sync.RWMutex
	lots     map[string]*domain.ParkingLot
	vehicles map[string]*domain.Vehicle
	bookings map[string]*domain.Booking

	countErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		lots:     make(map[string]*domain.ParkingLot),
		vehicles: make(map[string]*domain.Vehicle),
		bookings: make(map[string]*domain.Booking),
	}
}

func (s *fakeStore) addBooking(b *domain.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *b
	s.bookings[b.ID] = &clone
}

type fakeLotRepo struct{ *fakeStore }

func (r fakeLotRepo) GetByID(ctx context.Context, id string) (*domain.ParkingLot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lot, ok := r.lots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *lot
	return &clone, nil
}

func (r fakeLotRepo) GetByIDs(ctx context.Context, ids []string) ([]*domain.ParkingLot, error) {
	var out []*domain.ParkingLot
	for _, id := range ids {
		if lot, err := r.GetByID(ctx, id); err == nil {
			out = append(out, lot)
		}
	}
	return out, nil
}

func (r fakeLotRepo) List(ctx context.Context, filter repository.LotFilter) ([]*domain.ParkingLot, int, error) {
	all, _ := r.ListAll(ctx)
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	total := len(all)
	if filter.Offset >= total {
		return []*domain.ParkingLot{}, total, nil
	}
	return all[filter.Offset:min(filter.Offset+filter.Limit, total)], total, nil
}

func (r fakeLotRepo) ListAll(ctx context.Context) ([]*domain.ParkingLot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.ParkingLot, 0, len(r.lots))
	for _, lot := range r.lots {
		clone := *lot
		out = append(out, &clone)
	}
	return out, nil
}

type fakeVehicleRepo struct{ *fakeStore }

func (r fakeVehicleRepo) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.vehicles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *v
	return &clone, nil
}

func (r fakeVehicleRepo) GetByIDs(ctx context.Context, ids []string) ([]*domain.Vehicle, error) {
	var out []*domain.Vehicle
	for _, id := range ids {
		if v, err := r.GetByID(ctx, id); err == nil {
			out = append(out, v)
		}
	}
	return out, nil
}

type fakeBookingRepo struct{ *fakeStore }

func (r fakeBookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	r.addBooking(b)
	return nil
}

func (r fakeBookingRepo) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *b
	return &clone, nil
}

func (r fakeBookingRepo) ListByUser(ctx context.Context, userID string, filter repository.BookingFilter) ([]*domain.Booking, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Booking
	for _, b := range r.bookings {
		if b.UserID == userID && (filter.Status == "" || b.Status == filter.Status) {
			clone := *b
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := len(out)
	if filter.Offset >= total {
		return []*domain.Booking{}, total, nil
	}
	return out[filter.Offset:min(filter.Offset+filter.Limit, total)], total, nil
}

func (r fakeBookingRepo) CountOverlapping(ctx context.Context, lotID string, statuses []domain.BookingStatus, start, end time.Time) (int, error) {
	if r.countErr != nil {
		return 0, r.countErr
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, b := range r.bookings {
		if b.ParkingLotID != lotID || !(b.StartTime.Before(end) && b.EndTime.After(start)) {
			continue
		}
		for _, s := range statuses {
			if b.Status == s {
				count++
				break
			}
		}
	}
	return count, nil
}

func (r fakeBookingRepo) CountActiveAt(ctx context.Context, lotID string, at time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, b := range r.bookings {
		if b.ParkingLotID == lotID && b.Status == domain.BookingStatusActive &&
			!b.StartTime.After(at) && !b.EndTime.Before(at) {
			count++
		}
	}
	return count, nil
}

func (r fakeBookingRepo) UpdateStatus(ctx context.Context, id string, expected domain.BookingStatus, update domain.BookingUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	if b.Status != expected {
		return repository.ErrStatusConflict
	}
	update.Apply(b)
	return nil
}

var (
	_ repository.LotRepository     = fakeLotRepo{}
	_ repository.VehicleRepository = fakeVehicleRepo{}
	_ repository.BookingRepository = fakeBookingRepo{}
)
