package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"parking/internal/app"
	"parking/internal/config"
	"parking/internal/handler"
	"parking/internal/logger"
	internalRedis "parking/internal/redis"
	"parking/internal/repository/postgres"
	"parking/internal/service"
)

func main() {
	// Load configuration.
	cfg, err := config.LoadWithFile(".env")
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
			nrApp = nil
		} else {
			log.Printf("New Relic enabled: app=%s", cfg.NewRelic.AppName)
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("failed to apply schema: %v", err)
	}

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	server := wireServer(db, redisClient, nrApp, cfg)

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}

	if nrApp != nil {
		nrApp.Shutdown(cfg.Server.ShutdownTimeout)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) *http.Server {
	appLog := logger.New()

	// Initialize Redis stores.
	lockStore := internalRedis.NewLotLockStore(redisClient, cfg.Booking.LotLockTTL, cfg.Booking.LotLockWait)
	cacheStore := internalRedis.NewCacheStore(redisClient, cfg.Booking.LotCacheTTL)

	// Initialize repositories.
	lotRepo := postgres.NewLotRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	vehicleRepo := postgres.NewVehicleRepository(db)

	// Initialize services.
	lotService := service.NewLotService(lotRepo, bookingRepo, cacheStore, appLog.With(logger.F("COMPONENT", "lots")), nil)
	bookingService := service.NewBookingService(bookingRepo, vehicleRepo, lotService, lockStore, appLog.With(logger.F("COMPONENT", "ledger")), nil)

	// Initialize handlers.
	lotHandler := handler.NewLotHandler(lotService, bookingService)
	bookingHandler := handler.NewBookingHandler(bookingService)

	router := app.NewRouter(app.RouterDeps{
		LotHandler:     lotHandler,
		BookingHandler: bookingHandler,
		RedisClient:    redisClient,
		NewRelicApp:    nrApp,
		JWTSecret:      []byte(cfg.Auth.JWTSecret),
		JWTIssuer:      cfg.Auth.Issuer,
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
