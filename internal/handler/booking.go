package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gopkg.in/guregu/null.v4"

	"parking/internal/domain"
	"parking/internal/middleware"
	"parking/internal/service"
)

// BookingHandler handles HTTP requests for parking bookings.
type BookingHandler struct {
	bookingService *service.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookingService *service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// CreateBookingRequest is the HTTP request body for creating a booking.
type CreateBookingRequest struct {
	ParkingLotID string    `json:"parking_lot_id" binding:"required"`
	VehicleID    string    `json:"vehicle_id" binding:"required"`
	StartTime    time.Time `json:"start_time" binding:"required"`
	EndTime      time.Time `json:"end_time" binding:"required"`
}

// BookingResponse is the HTTP representation of a booking.
type BookingResponse struct {
	ID              string           `json:"id"`
	UserID          string           `json:"user_id"`
	ParkingLotID    string           `json:"parking_lot_id"`
	VehicleID       string           `json:"vehicle_id"`
	StartTime       string           `json:"start_time"`
	EndTime         string           `json:"end_time"`
	Status          string           `json:"status"`
	TotalAmount     float64          `json:"total_amount"`
	PaymentStatus   string           `json:"payment_status"`
	ActualStartTime null.String      `json:"actual_start_time"`
	ActualEndTime   null.String      `json:"actual_end_time"`
	FinalAmount     null.Float       `json:"final_amount"`
	CreatedAt       string           `json:"created_at"`
	UpdatedAt       string           `json:"updated_at"`
	ParkingLot      *LotResponse     `json:"parking_lot,omitempty"`
	Vehicle         *VehicleResponse `json:"vehicle,omitempty"`
}

// VehicleResponse is the HTTP representation of the booked vehicle.
type VehicleResponse struct {
	ID                 string `json:"id"`
	Brand              string `json:"brand"`
	Model              string `json:"model"`
	RegistrationNumber string `json:"registration_number"`
}

// CheckoutResponse is the HTTP response for checking out.
type CheckoutResponse struct {
	Booking        BookingResponse `json:"booking"`
	FinalAmount    float64         `json:"final_amount"`
	DurationHours  float64         `json:"duration_hours"`
	OriginalHours  float64         `json:"original_duration_hours"`
	OvertimeHours  float64         `json:"overtime_hours"`
	OvertimeCharge float64         `json:"overtime_charge"`
}

// ListBookingsResponse is the HTTP response for listing bookings.
type ListBookingsResponse struct {
	Bookings   []BookingResponse `json:"bookings"`
	Pagination Pagination        `json:"pagination"`
}

type listBookingsQuery struct {
	Status string `form:"status"`
	Page   int    `form:"page,default=1"`
	Limit  int    `form:"limit,default=10"`
}

// CreateBooking handles POST /v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", errInvalidRequest, err))
		return
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), service.CreateBookingRequest{
		UserID:    middleware.UserID(c),
		LotID:     req.ParkingLotID,
		VehicleID: req.VehicleID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toBookingResponse(booking))
}

// ListBookings handles GET /v1/bookings
func (h *BookingHandler) ListBookings(c *gin.Context) {
	var q listBookingsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, fmt.Errorf("%w: %v", errInvalidRequest, err))
		return
	}

	page, err := h.bookingService.ListBookings(c.Request.Context(), service.ListBookingsRequest{
		UserID: middleware.UserID(c),
		Status: q.Status,
		Page:   q.Page,
		Limit:  q.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response := ListBookingsResponse{
		Bookings:   make([]BookingResponse, 0, len(page.Bookings)),
		Pagination: newPagination(page.Page, page.Limit, page.Total),
	}
	for _, b := range page.Bookings {
		item := toBookingResponse(b)
		if lot, ok := page.Lots[b.ParkingLotID]; ok {
			summary := toLotResponse(lot)
			item.ParkingLot = &summary
		}
		if vehicle, ok := page.Vehicles[b.VehicleID]; ok {
			item.Vehicle = toVehicleResponse(vehicle)
		}
		response.Bookings = append(response.Bookings, item)
	}

	respondJSON(c, http.StatusOK, response)
}

// GetBooking handles GET /v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	details, err := h.bookingService.GetBooking(c.Request.Context(), actionRequest(c))
	if err != nil {
		respondError(c, err)
		return
	}

	response := toBookingResponse(details.Booking)
	if details.Lot != nil {
		lot := toLotResponse(details.Lot)
		response.ParkingLot = &lot
	}
	if details.Vehicle != nil {
		response.Vehicle = toVehicleResponse(details.Vehicle)
	}

	respondJSON(c, http.StatusOK, response)
}

// ConfirmBooking handles POST /v1/bookings/:id/confirm
func (h *BookingHandler) ConfirmBooking(c *gin.Context) {
	booking, err := h.bookingService.ConfirmBooking(c.Request.Context(), actionRequest(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// CancelBooking handles POST /v1/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	booking, err := h.bookingService.CancelBooking(c.Request.Context(), actionRequest(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// CheckIn handles POST /v1/bookings/:id/checkin
func (h *BookingHandler) CheckIn(c *gin.Context) {
	booking, err := h.bookingService.CheckIn(c.Request.Context(), actionRequest(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// CheckOut handles POST /v1/bookings/:id/checkout
func (h *BookingHandler) CheckOut(c *gin.Context) {
	result, err := h.bookingService.CheckOut(c.Request.Context(), actionRequest(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, CheckoutResponse{
		Booking:        toBookingResponse(result.Booking),
		FinalAmount:    result.Bill.FinalAmount,
		DurationHours:  result.Bill.DurationHours,
		OriginalHours:  result.Bill.OriginalHours,
		OvertimeHours:  result.Bill.OvertimeHours,
		OvertimeCharge: result.Bill.OvertimeCharge,
	})
}

func actionRequest(c *gin.Context) service.BookingActionRequest {
	return service.BookingActionRequest{
		BookingID: c.Param("id"),
		UserID:    middleware.UserID(c),
	}
}

func toBookingResponse(b *domain.Booking) BookingResponse {
	return BookingResponse{
		ID:              b.ID,
		UserID:          b.UserID,
		ParkingLotID:    b.ParkingLotID,
		VehicleID:       b.VehicleID,
		StartTime:       formatTime(b.StartTime),
		EndTime:         formatTime(b.EndTime),
		Status:          string(b.Status),
		TotalAmount:     b.TotalAmount,
		PaymentStatus:   string(b.PaymentStatus),
		ActualStartTime: formatNullTime(b.ActualStartTime),
		ActualEndTime:   formatNullTime(b.ActualEndTime),
		FinalAmount:     b.FinalAmount,
		CreatedAt:       formatTime(b.CreatedAt),
		UpdatedAt:       formatTime(b.UpdatedAt),
	}
}

func toVehicleResponse(v *domain.Vehicle) *VehicleResponse {
	return &VehicleResponse{
		ID:                 v.ID,
		Brand:              v.Brand,
		Model:              v.Model,
		RegistrationNumber: v.RegistrationNumber,
	}
}

func formatNullTime(t null.Time) null.String {
	if !t.Valid {
		return null.String{}
	}
	return null.StringFrom(formatTime(t.Time))
}
