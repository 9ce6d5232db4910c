package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"parking/internal/repository"
	"parking/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// errInvalidRequest marks a request the handler could not parse.
var errInvalidRequest = errors.New("invalid request")

// respondError sends an error response with the appropriate HTTP status code.
// Unmapped errors are attached to the gin context for APM reporting.
func respondError(c *gin.Context, err error) {
	status, code := mapError(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapError maps service/repository errors to an HTTP status and machine code.
func mapError(err error) (int, string) {
	switch {
	// Not found errors
	case errors.Is(err, service.ErrLotNotFound):
		return http.StatusNotFound, "LOT_NOT_FOUND"
	case errors.Is(err, service.ErrVehicleNotFound):
		return http.StatusNotFound, "VEHICLE_NOT_FOUND"
	case errors.Is(err, service.ErrBookingNotFound):
		return http.StatusNotFound, "BOOKING_NOT_FOUND"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidRange):
		return http.StatusBadRequest, "INVALID_RANGE"
	case errors.Is(err, service.ErrPastBooking):
		return http.StatusBadRequest, "PAST_BOOKING"
	case errors.Is(err, errInvalidRequest),
		errors.Is(err, service.ErrInvalidUserID),
		errors.Is(err, service.ErrInvalidLotID),
		errors.Is(err, service.ErrInvalidVehicleID),
		errors.Is(err, service.ErrInvalidBookingID),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrInvalidRadius),
		errors.Is(err, service.ErrInvalidPagination),
		errors.Is(err, service.ErrInvalidStatus):
		return http.StatusBadRequest, "INVALID_INPUT"

	// Forbidden
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN"

	// Conflict errors
	case errors.Is(err, service.ErrCapacityExceeded):
		return http.StatusConflict, "CAPACITY_EXCEEDED"
	case errors.Is(err, service.ErrInvalidState):
		return http.StatusConflict, "INVALID_STATE"
	case errors.Is(err, service.ErrCancellationWindowClosed):
		return http.StatusConflict, "CANCELLATION_WINDOW_CLOSED"
	case errors.Is(err, service.ErrTooEarly):
		return http.StatusConflict, "TOO_EARLY"
	case errors.Is(err, service.ErrTooLate):
		return http.StatusConflict, "TOO_LATE"

	// Service unavailable
	case errors.Is(err, service.ErrLotBusy):
		return http.StatusServiceUnavailable, "LOT_BUSY"

	// Default to internal server error
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
