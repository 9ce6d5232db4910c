package repository

import (
	"context"
	"time"

	"parking/internal/domain"
)

// BookingFilter narrows a booking listing.
type BookingFilter struct {
	Status domain.BookingStatus // Optional: empty means any status
	Limit  int
	Offset int
}

// BookingRepository defines the persistence operations for parking bookings.
type BookingRepository interface {
	// Create persists a new booking.
	Create(ctx context.Context, booking *domain.Booking) error

	// GetByID retrieves a booking by ID.
	GetByID(ctx context.Context, id string) (*domain.Booking, error)

	// ListByUser returns a page of the user's bookings, newest first, and the total count.
	ListByUser(ctx context.Context, userID string, filter BookingFilter) ([]*domain.Booking, int, error)

	// CountOverlapping counts bookings on a lot in one of statuses whose
	// window intersects [start, end).
	CountOverlapping(ctx context.Context, lotID string, statuses []domain.BookingStatus, start, end time.Time) (int, error)

	// CountActiveAt counts active bookings on a lot whose window contains at.
	CountActiveAt(ctx context.Context, lotID string, at time.Time) (int, error)

	// UpdateStatus applies update only if the booking is still in expected.
	// Returns ErrStatusConflict when the booking has moved on.
	UpdateStatus(ctx context.Context, id string, expected domain.BookingStatus, update domain.BookingUpdate) error
}
