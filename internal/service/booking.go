package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/guregu/null.v4"

	"parking/internal/domain"
	"parking/internal/logger"
	"parking/internal/redis"
	"parking/internal/repository"
)

// leaseMarginDivisor reserves a fifth of the lock lease for clock skew and
// the round trip that acquired it.
const leaseMarginDivisor = 5

// LotDirectory provides the lot facts the ledger admits bookings against.
type LotDirectory interface {
	GetLot(ctx context.Context, lotID string) (*domain.ParkingLot, error)
	GetLotsBatch(ctx context.Context, lotIDs []string) (map[string]*domain.ParkingLot, error)
}

var _ LotDirectory = (*LotService)(nil)

// BookingService is the parking booking ledger.
type BookingService struct {
	bookingRepo repository.BookingRepository
	vehicleRepo repository.VehicleRepository
	lots        LotDirectory
	locker      redis.LotLocker
	log         *logger.Logger
	now         Clock
}

// NewBookingService creates a new BookingService. clock defaults to the
// system clock in UTC.
func NewBookingService(
	bookingRepo repository.BookingRepository,
	vehicleRepo repository.VehicleRepository,
	lots LotDirectory,
	locker redis.LotLocker,
	log *logger.Logger,
	clock Clock,
) *BookingService {
	if clock == nil {
		clock = systemClock
	}
	return &BookingService{
		bookingRepo: bookingRepo,
		vehicleRepo: vehicleRepo,
		lots:        lots,
		locker:      locker,
		log:         log,
		now:         clock,
	}
}

// CheckAvailability counts bookings holding capacity on the lot during [start, end).
func (s *BookingService) CheckAvailability(ctx context.Context, lotID string, start, end time.Time) (int, error) {
	if lotID == "" {
		return 0, ErrInvalidLotID
	}
	if !start.Before(end) {
		return 0, ErrInvalidRange
	}

	return s.bookingRepo.CountOverlapping(ctx, lotID, domain.OccupyingStatuses, start.UTC(), end.UTC())
}

// Availability summarizes lot occupancy for a window. Occupied counts
// confirmed and active bookings; Held adds pending ones, and Available is
// what a new booking is admitted against.
type Availability struct {
	LotID     string
	StartTime time.Time
	EndTime   time.Time
	Occupied  int
	Held      int
	Capacity  int
	Available int
}

// LotAvailability reports occupied and free spots on a lot for [start, end).
func (s *BookingService) LotAvailability(ctx context.Context, lotID string, start, end time.Time) (*Availability, error) {
	lot, err := s.lots.GetLot(ctx, lotID)
	if err != nil {
		return nil, err
	}

	occupied, err := s.CheckAvailability(ctx, lot.ID, start, end)
	if err != nil {
		return nil, err
	}

	held, err := s.bookingRepo.CountOverlapping(ctx, lot.ID, domain.HoldingStatuses, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}

	return &Availability{
		LotID:     lot.ID,
		StartTime: start.UTC(),
		EndTime:   end.UTC(),
		Occupied:  occupied,
		Held:      held,
		Capacity:  lot.TotalCapacity,
		Available: max(0, lot.TotalCapacity-held),
	}, nil
}

// CreateBookingRequest contains the parameters for creating a booking.
type CreateBookingRequest struct {
	UserID    string
	LotID     string
	VehicleID string
	StartTime time.Time
	EndTime   time.Time
}

// CreateBooking reserves capacity at a lot. The booking starts pending.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*domain.Booking, error) {
	if req.UserID == "" {
		return nil, ErrInvalidUserID
	}
	if req.LotID == "" {
		return nil, ErrInvalidLotID
	}
	if req.VehicleID == "" {
		return nil, ErrInvalidVehicleID
	}

	lot, err := s.lots.GetLot(ctx, req.LotID)
	if err != nil {
		return nil, err
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, req.VehicleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVehicleNotFound
		}
		return nil, err
	}
	if vehicle.UserID != req.UserID {
		return nil, ErrForbidden
	}

	start, end := req.StartTime.UTC(), req.EndTime.UTC()
	if !start.Before(end) {
		return nil, ErrInvalidRange
	}

	now := s.now()
	if start.Before(now) {
		return nil, ErrPastBooking
	}

	unlock, err := s.lockLot(ctx, lot.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	leaseCtx, cancel := s.withinLease(ctx)
	defer cancel()

	if err := s.admit(leaseCtx, lot, start, end); err != nil {
		return nil, leaseError(ctx, leaseCtx, err)
	}

	booking := &domain.Booking{
		ID:            uuid.New().String(),
		UserID:        req.UserID,
		ParkingLotID:  lot.ID,
		VehicleID:     vehicle.ID,
		StartTime:     start,
		EndTime:       end,
		Status:        domain.BookingStatusPending,
		TotalAmount:   BookingAmount(start, end, lot.PricePerHour),
		PaymentStatus: domain.PaymentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.bookingRepo.Create(leaseCtx, booking); err != nil {
		return nil, leaseError(ctx, leaseCtx, err)
	}

	s.log.Info("booking created",
		logger.Booking(booking.ID),
		logger.Lot(lot.ID),
		logger.User(req.UserID),
		logger.Vehicle(vehicle.ID),
		logger.Amount(booking.TotalAmount),
	)

	return booking, nil
}

// BookingActionRequest identifies a booking acted on by its owner.
type BookingActionRequest struct {
	BookingID string
	UserID    string
}

// ConfirmBooking moves a pending booking to confirmed. The spot was already
// held at creation, so no admission check is repeated.
func (s *BookingService) ConfirmBooking(ctx context.Context, req BookingActionRequest) (*domain.Booking, error) {
	booking, err := s.loadOwnedBooking(ctx, req)
	if err != nil {
		return nil, err
	}

	if booking.Status != domain.BookingStatusPending {
		return nil, ErrInvalidState
	}

	if err := s.transition(ctx, booking, domain.BookingUpdate{
		Status:    domain.BookingStatusConfirmed,
		UpdatedAt: s.now(),
	}); err != nil {
		return nil, err
	}

	return booking, nil
}

// CancelBooking cancels a pending or confirmed booking at least an hour
// before it starts.
func (s *BookingService) CancelBooking(ctx context.Context, req BookingActionRequest) (*domain.Booking, error) {
	booking, err := s.loadOwnedBooking(ctx, req)
	if err != nil {
		return nil, err
	}

	if !booking.Status.CanTransition(domain.BookingStatusCancelled) {
		return nil, ErrInvalidState
	}

	now := s.now()
	if booking.StartTime.Sub(now) < CancellationCutoff {
		return nil, ErrCancellationWindowClosed
	}

	if err := s.transition(ctx, booking, domain.BookingUpdate{
		Status:    domain.BookingStatusCancelled,
		UpdatedAt: now,
	}); err != nil {
		return nil, err
	}

	return booking, nil
}

// CheckIn activates a confirmed booking from 15 minutes before start until end.
func (s *BookingService) CheckIn(ctx context.Context, req BookingActionRequest) (*domain.Booking, error) {
	booking, err := s.loadOwnedBooking(ctx, req)
	if err != nil {
		return nil, err
	}

	if booking.Status != domain.BookingStatusConfirmed {
		return nil, ErrInvalidState
	}

	now := s.now()
	if now.Before(booking.StartTime.Add(-CheckInLeadTime)) {
		return nil, ErrTooEarly
	}
	if now.After(booking.EndTime) {
		return nil, ErrTooLate
	}

	if err := s.transition(ctx, booking, domain.BookingUpdate{
		Status:          domain.BookingStatusActive,
		ActualStartTime: null.TimeFrom(now),
		UpdatedAt:       now,
	}); err != nil {
		return nil, err
	}

	return booking, nil
}

// CheckOutResponse contains the result of checking out.
type CheckOutResponse struct {
	Booking *domain.Booking
	Bill    CheckoutBill
}

// CheckOut completes an active booking and bills any overtime.
func (s *BookingService) CheckOut(ctx context.Context, req BookingActionRequest) (*CheckOutResponse, error) {
	booking, err := s.loadOwnedBooking(ctx, req)
	if err != nil {
		return nil, err
	}

	if booking.Status != domain.BookingStatusActive {
		return nil, ErrInvalidState
	}

	lot, err := s.lots.GetLot(ctx, booking.ParkingLotID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	bill := ComputeCheckout(booking, lot.PricePerHour, now)

	if err := s.transition(ctx, booking, domain.BookingUpdate{
		Status:        domain.BookingStatusCompleted,
		ActualEndTime: null.TimeFrom(now),
		FinalAmount:   null.FloatFrom(bill.FinalAmount),
		UpdatedAt:     now,
	}); err != nil {
		return nil, err
	}

	if bill.OvertimeHours > 0 {
		s.log.Info("overtime billed",
			logger.Booking(booking.ID),
			logger.Duration(time.Duration(bill.OvertimeHours*float64(time.Hour))),
			logger.Amount(bill.OvertimeCharge),
		)
	}

	return &CheckOutResponse{Booking: booking, Bill: bill}, nil
}

// BookingDetails is a booking with its lot and vehicle. Lot or Vehicle is
// nil when the record no longer exists.
type BookingDetails struct {
	Booking *domain.Booking
	Lot     *domain.ParkingLot
	Vehicle *domain.Vehicle
}

// GetBooking retrieves a booking owned by the caller with its lot and vehicle.
func (s *BookingService) GetBooking(ctx context.Context, req BookingActionRequest) (*BookingDetails, error) {
	booking, err := s.loadOwnedBooking(ctx, req)
	if err != nil {
		return nil, err
	}

	details := &BookingDetails{Booking: booking}

	lot, err := s.lots.GetLot(ctx, booking.ParkingLotID)
	switch {
	case err == nil:
		details.Lot = lot
	case !errors.Is(err, ErrLotNotFound):
		return nil, err
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, booking.VehicleID)
	switch {
	case err == nil:
		details.Vehicle = vehicle
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	return details, nil
}

// ListBookingsRequest contains the parameters for listing a user's bookings.
type ListBookingsRequest struct {
	UserID string
	Status string // Optional
	Page   int
	Limit  int
}

// BookingPage is one page of a user's bookings with their lots and vehicles.
type BookingPage struct {
	Bookings []*domain.Booking
	Lots     map[string]*domain.ParkingLot
	Vehicles map[string]*domain.Vehicle
	Total    int
	Page     int
	Limit    int
}

// ListBookings returns the user's bookings, newest first.
func (s *BookingService) ListBookings(ctx context.Context, req ListBookingsRequest) (*BookingPage, error) {
	if req.UserID == "" {
		return nil, ErrInvalidUserID
	}
	if err := validatePage(req.Page, req.Limit); err != nil {
		return nil, err
	}

	var status domain.BookingStatus
	if req.Status != "" {
		parsed, ok := domain.ParseBookingStatus(req.Status)
		if !ok {
			return nil, ErrInvalidStatus
		}
		status = parsed
	}

	bookings, total, err := s.bookingRepo.ListByUser(ctx, req.UserID, repository.BookingFilter{
		Status: status,
		Limit:  req.Limit,
		Offset: (req.Page - 1) * req.Limit,
	})
	if err != nil {
		return nil, err
	}

	lotIDs := make([]string, 0, len(bookings))
	vehicleIDs := make([]string, 0, len(bookings))
	for _, b := range bookings {
		lotIDs = append(lotIDs, b.ParkingLotID)
		vehicleIDs = append(vehicleIDs, b.VehicleID)
	}

	lots, err := s.lots.GetLotsBatch(ctx, lotIDs)
	if err != nil {
		return nil, err
	}

	vehicles := make(map[string]*domain.Vehicle, len(vehicleIDs))
	if ids := uniqueIDs(vehicleIDs); len(ids) > 0 {
		found, err := s.vehicleRepo.GetByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, v := range found {
			vehicles[v.ID] = v
		}
	}

	return &BookingPage{
		Bookings: bookings,
		Lots:     lots,
		Vehicles: vehicles,
		Total:    total,
		Page:     req.Page,
		Limit:    req.Limit,
	}, nil
}

// admit fails with ErrCapacityExceeded when the window is already full.
// Callers must hold the lot lock.
func (s *BookingService) admit(ctx context.Context, lot *domain.ParkingLot, start, end time.Time) error {
	occupied, err := s.bookingRepo.CountOverlapping(ctx, lot.ID, domain.HoldingStatuses, start, end)
	if err != nil {
		return err
	}

	if occupied >= lot.TotalCapacity {
		s.log.Info("booking rejected",
			logger.Lot(lot.ID),
			logger.Occupied(occupied),
			logger.Capacity(lot.TotalCapacity),
		)
		return ErrCapacityExceeded
	}
	return nil
}

func (s *BookingService) lockLot(ctx context.Context, lotID string) (func(), error) {
	unlock, err := s.locker.Lock(ctx, lotID)
	if err != nil {
		if errors.Is(err, redis.ErrLockNotAcquired) {
			s.log.Warn("lot lock wait elapsed", logger.Lot(lotID))
			return nil, ErrLotBusy
		}
		return nil, fmt.Errorf("lock lot %s: %w", lotID, err)
	}
	return unlock, nil
}

// withinLease bounds the count and insert so they finish before the lot
// lock can expire and admit another holder.
func (s *BookingService) withinLease(ctx context.Context) (context.Context, context.CancelFunc) {
	lease := s.locker.Lease()
	if lease <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, lease-lease/leaseMarginDivisor)
}

// leaseError reports an exhausted lease as a busy lot unless the caller's
// own context ended first.
func leaseError(ctx, leaseCtx context.Context, err error) error {
	if errors.Is(err, ErrCapacityExceeded) {
		return err
	}
	if ctx.Err() == nil && errors.Is(leaseCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: lock lease elapsed: %v", ErrLotBusy, err)
	}
	return err
}

func (s *BookingService) loadOwnedBooking(ctx context.Context, req BookingActionRequest) (*domain.Booking, error) {
	if req.BookingID == "" {
		return nil, ErrInvalidBookingID
	}
	if req.UserID == "" {
		return nil, ErrInvalidUserID
	}

	booking, err := s.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	if booking.UserID != req.UserID {
		return nil, ErrForbidden
	}
	return booking, nil
}

// transition writes a status change only if the stored status still
// matches booking.Status; a concurrent change yields ErrInvalidState.
func (s *BookingService) transition(ctx context.Context, booking *domain.Booking, update domain.BookingUpdate) error {
	if !booking.Status.CanTransition(update.Status) {
		return ErrInvalidState
	}

	err := s.bookingRepo.UpdateStatus(ctx, booking.ID, booking.Status, update)
	switch {
	case errors.Is(err, repository.ErrStatusConflict):
		return ErrInvalidState
	case errors.Is(err, repository.ErrNotFound):
		return ErrBookingNotFound
	case err != nil:
		return err
	}

	from := booking.Status
	update.Apply(booking)

	s.log.Info("booking status changed",
		logger.Booking(booking.ID),
		logger.F("FROM", string(from)),
		logger.Status(string(booking.Status)),
	)
	return nil
}
