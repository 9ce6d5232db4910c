package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

// BookingStatus represents the lifecycle state of a parking booking.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusActive    BookingStatus = "active"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// OccupyingStatuses are the statuses counted as occupancy at a lot.
var OccupyingStatuses = []BookingStatus{BookingStatusConfirmed, BookingStatusActive}

// HoldingStatuses are the statuses counted when admitting a new booking.
// A pending booking holds its spot until it is confirmed or cancelled, so
// confirmation never pushes occupancy past capacity.
var HoldingStatuses = []BookingStatus{BookingStatusPending, BookingStatusConfirmed, BookingStatusActive}

// bookingTransitions lists every allowed status change.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusActive, BookingStatusCancelled},
	BookingStatusActive:    {BookingStatusCompleted},
}

// ParseBookingStatus converts a raw string into a known status.
func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch status := BookingStatus(s); status {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusActive,
		BookingStatusCompleted, BookingStatusCancelled:
		return status, true
	default:
		return "", false
	}
}

// CanTransition reports whether a booking may move from s to next.
func (s BookingStatus) CanTransition(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentStatus tracks payment for a booking. Its lifecycle is owned elsewhere.
type PaymentStatus string

// PaymentStatusPending is the status every new booking starts with.
const PaymentStatusPending PaymentStatus = "pending"

// Booking is a reservation of capacity at a lot for a time window.
type Booking struct {
	ID              string
	UserID          string
	ParkingLotID    string
	VehicleID       string
	StartTime       time.Time
	EndTime         time.Time
	Status          BookingStatus
	TotalAmount     float64
	PaymentStatus   PaymentStatus
	ActualStartTime null.Time
	ActualEndTime   null.Time
	FinalAmount     null.Float
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// BookingUpdate carries the fields a status transition may set.
type BookingUpdate struct {
	Status          BookingStatus
	ActualStartTime null.Time
	ActualEndTime   null.Time
	FinalAmount     null.Float
	UpdatedAt       time.Time
}

// Apply copies the update onto b. Unset nullable fields are left untouched.
func (u BookingUpdate) Apply(b *Booking) {
	b.Status = u.Status
	if u.ActualStartTime.Valid {
		b.ActualStartTime = u.ActualStartTime
	}
	if u.ActualEndTime.Valid {
		b.ActualEndTime = u.ActualEndTime
	}
	if u.FinalAmount.Valid {
		b.FinalAmount = u.FinalAmount
	}
	b.UpdatedAt = u.UpdatedAt
}
