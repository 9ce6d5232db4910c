package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"parking/internal/domain"
	"parking/internal/service"
)

// LotHandler handles HTTP requests for parking lots.
type LotHandler struct {
	lotService     *service.LotService
	bookingService *service.BookingService
}

// NewLotHandler creates a new LotHandler.
func NewLotHandler(lotService *service.LotService, bookingService *service.BookingService) *LotHandler {
	return &LotHandler{
		lotService:     lotService,
		bookingService: bookingService,
	}
}

// LotResponse is the HTTP representation of a parking lot.
type LotResponse struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Location      string   `json:"location"`
	Address       string   `json:"address"`
	Latitude      float64  `json:"latitude"`
	Longitude     float64  `json:"longitude"`
	TotalCapacity int      `json:"total_capacity"`
	PricePerHour  float64  `json:"price_per_hour"`
	Features      []string `json:"features"`
	Rating        float64  `json:"rating"`

	DistanceKm            *float64 `json:"distance,omitempty"`
	CurrentAvailableSpots *int     `json:"current_available_spots,omitempty"`
}

// Pagination describes a page of a listing.
type Pagination struct {
	CurrentPage  int `json:"current_page"`
	TotalPages   int `json:"total_pages"`
	TotalItems   int `json:"total_items"`
	ItemsPerPage int `json:"items_per_page"`
}

// ListLotsResponse is the HTTP response for listing lots.
type ListLotsResponse struct {
	Lots       []LotResponse `json:"lots"`
	Pagination Pagination    `json:"pagination"`
}

// NearbyLotsResponse is the HTTP response for a proximity search.
type NearbyLotsResponse struct {
	Lots         []LotResponse `json:"lots"`
	SearchCenter struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"search_center"`
	RadiusKm float64 `json:"radius_km"`
}

// AvailabilityResponse is the HTTP response for a lot availability check.
type AvailabilityResponse struct {
	LotID     string `json:"parking_lot_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Occupied  int    `json:"occupied"`
	Held      int    `json:"held"`
	Capacity  int    `json:"total_capacity"`
	Available int    `json:"available_spots"`
}

type listLotsQuery struct {
	Search   string   `form:"search"`
	MinPrice *float64 `form:"min_price"`
	MaxPrice *float64 `form:"max_price"`
	Features []string `form:"features"`
	Page     int      `form:"page,default=1"`
	Limit    int      `form:"limit,default=10"`
}

type nearbyLotsQuery struct {
	Latitude  *float64 `form:"latitude"`
	Longitude *float64 `form:"longitude"`
	Radius    float64  `form:"radius,default=5"`
	Limit     int      `form:"limit,default=10"`
}

// ListLots handles GET /v1/lots
func (h *LotHandler) ListLots(c *gin.Context) {
	var q listLotsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, fmt.Errorf("%w: %v", errInvalidRequest, err))
		return
	}

	page, err := h.lotService.ListLots(c.Request.Context(), service.ListLotsRequest{
		Search:   q.Search,
		MinPrice: q.MinPrice,
		MaxPrice: q.MaxPrice,
		Features: splitFeatures(q.Features),
		Page:     q.Page,
		Limit:    q.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response := ListLotsResponse{
		Lots:       make([]LotResponse, 0, len(page.Lots)),
		Pagination: newPagination(page.Page, page.Limit, page.Total),
	}
	for _, lot := range page.Lots {
		response.Lots = append(response.Lots, toLotResponse(lot))
	}

	respondJSON(c, http.StatusOK, response)
}

// NearbyLots handles GET /v1/lots/nearby
func (h *LotHandler) NearbyLots(c *gin.Context) {
	var q nearbyLotsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, fmt.Errorf("%w: %v", errInvalidRequest, err))
		return
	}
	if q.Latitude == nil || q.Longitude == nil {
		respondError(c, fmt.Errorf("%w: latitude and longitude are required", errInvalidRequest))
		return
	}

	nearby, err := h.lotService.NearbyLots(c.Request.Context(), service.NearbyLotsRequest{
		Latitude:  *q.Latitude,
		Longitude: *q.Longitude,
		RadiusKm:  q.Radius,
		Limit:     q.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response := NearbyLotsResponse{
		Lots:     make([]LotResponse, 0, len(nearby)),
		RadiusKm: q.Radius,
	}
	response.SearchCenter.Latitude = *q.Latitude
	response.SearchCenter.Longitude = *q.Longitude
	for _, n := range nearby {
		lot := toLotResponse(n.Lot)
		distance := n.DistanceKm
		lot.DistanceKm = &distance
		response.Lots = append(response.Lots, lot)
	}

	respondJSON(c, http.StatusOK, response)
}

// GetLot handles GET /v1/lots/:id
func (h *LotHandler) GetLot(c *gin.Context) {
	details, err := h.lotService.GetLotDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := toLotResponse(details.Lot)
	response.CurrentAvailableSpots = &details.CurrentAvailableSpots

	respondJSON(c, http.StatusOK, response)
}

// GetAvailability handles GET /v1/lots/:id/availability
func (h *LotHandler) GetAvailability(c *gin.Context) {
	start, err := parseTimeQuery(c, "start_time")
	if err != nil {
		respondError(c, err)
		return
	}
	end, err := parseTimeQuery(c, "end_time")
	if err != nil {
		respondError(c, err)
		return
	}

	avail, err := h.bookingService.LotAvailability(c.Request.Context(), c.Param("id"), start, end)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, AvailabilityResponse{
		LotID:     avail.LotID,
		StartTime: formatTime(avail.StartTime),
		EndTime:   formatTime(avail.EndTime),
		Occupied:  avail.Occupied,
		Held:      avail.Held,
		Capacity:  avail.Capacity,
		Available: avail.Available,
	})
}

func toLotResponse(lot *domain.ParkingLot) LotResponse {
	features := lot.Features
	if features == nil {
		features = []string{}
	}
	return LotResponse{
		ID:            lot.ID,
		Name:          lot.Name,
		Location:      lot.Location,
		Address:       lot.Address,
		Latitude:      lot.Latitude,
		Longitude:     lot.Longitude,
		TotalCapacity: lot.TotalCapacity,
		PricePerHour:  lot.PricePerHour,
		Features:      features,
		Rating:        lot.Rating,
	}
}

func newPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalItems:   total,
		ItemsPerPage: limit,
	}
}

// splitFeatures accepts both repeated and comma-separated feature params.
func splitFeatures(raw []string) []string {
	var features []string
	for _, r := range raw {
		for _, f := range strings.Split(r, ",") {
			if f = strings.TrimSpace(f); f != "" {
				features = append(features, f)
			}
		}
	}
	return features
}

func parseTimeQuery(c *gin.Context, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", errInvalidRequest, name)
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be RFC 3339", errInvalidRequest, name)
	}
	return t, nil
}
