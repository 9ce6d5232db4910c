package service

import "errors"

var (
	// ErrLotNotFound is returned when the parking lot does not exist.
	ErrLotNotFound = errors.New("parking lot not found")

	// ErrVehicleNotFound is returned when the vehicle does not exist.
	ErrVehicleNotFound = errors.New("vehicle not found")

	// ErrBookingNotFound is returned when the booking does not exist.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrForbidden is returned when the caller does not own the vehicle or booking.
	ErrForbidden = errors.New("resource belongs to another user")

	// ErrInvalidRange is returned when start time is not before end time.
	ErrInvalidRange = errors.New("start time must be before end time")

	// ErrPastBooking is returned when the requested start time has already passed.
	ErrPastBooking = errors.New("cannot book in the past")

	// ErrCapacityExceeded is returned when no spots are free for the window.
	ErrCapacityExceeded = errors.New("no parking spots available for the requested time")

	// ErrInvalidState is returned when the booking status does not allow the operation.
	ErrInvalidState = errors.New("operation not allowed in current booking status")

	// ErrCancellationWindowClosed is returned within one hour of the booking start.
	ErrCancellationWindowClosed = errors.New("cannot cancel booking less than 1 hour before start time")

	// ErrTooEarly is returned when checking in more than 15 minutes before start.
	ErrTooEarly = errors.New("check-in is allowed only 15 minutes before start time")

	// ErrTooLate is returned when checking in after the booking has ended.
	ErrTooLate = errors.New("booking time has expired")

	// ErrLotBusy is returned when the lot lock could not be taken in time.
	ErrLotBusy = errors.New("parking lot is busy, try again")

	// ErrInvalidUserID is returned when user ID is empty.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrInvalidLotID is returned when lot ID is empty.
	ErrInvalidLotID = errors.New("invalid parking lot id")

	// ErrInvalidVehicleID is returned when vehicle ID is empty.
	ErrInvalidVehicleID = errors.New("invalid vehicle id")

	// ErrInvalidBookingID is returned when booking ID is empty.
	ErrInvalidBookingID = errors.New("invalid booking id")

	// ErrInvalidLocation is returned when location coordinates are invalid.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrInvalidRadius is returned when the search radius is out of range.
	ErrInvalidRadius = errors.New("radius must be between 0.1 and 50 km")

	// ErrInvalidPagination is returned for a page below 1 or a limit outside 1..50.
	ErrInvalidPagination = errors.New("invalid pagination")

	// ErrInvalidStatus is returned when a status filter is not a known booking status.
	ErrInvalidStatus = errors.New("invalid booking status")
)
