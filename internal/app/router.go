package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"parking/internal/handler"
	"parking/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	LotHandler     *handler.LotHandler
	BookingHandler *handler.BookingHandler
	RedisClient    *redis.Client // Optional: nil disables idempotency replay
	NewRelicApp    *newrelic.Application
	JWTSecret      []byte
	JWTIssuer      string
	RequestTimeout time.Duration
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
		router.Use(middleware.NewRelicErrorsMiddleware())
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))
	v1.Use(middleware.TimeoutMiddleware(deps.RequestTimeout))
	if deps.RedisClient != nil {
		v1.Use(middleware.IdempotencyMiddleware(deps.RedisClient))
	}
	{
		// Parking lot routes.
		lots := v1.Group("/lots")
		{
			lots.GET("", deps.LotHandler.ListLots)
			lots.GET("/nearby", deps.LotHandler.NearbyLots)
			lots.GET("/:id", deps.LotHandler.GetLot)
			lots.GET("/:id/availability", deps.LotHandler.GetAvailability)
		}

		// Booking routes.
		bookings := v1.Group("/bookings")
		{
			bookings.POST("", deps.BookingHandler.CreateBooking)
			bookings.GET("", deps.BookingHandler.ListBookings)
			bookings.GET("/:id", deps.BookingHandler.GetBooking)
			bookings.POST("/:id/confirm", deps.BookingHandler.ConfirmBooking)
			bookings.POST("/:id/cancel", deps.BookingHandler.CancelBooking)
			bookings.POST("/:id/checkin", deps.BookingHandler.CheckIn)
			bookings.POST("/:id/checkout", deps.BookingHandler.CheckOut)
		}
	}

	return router
}
