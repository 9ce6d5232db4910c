package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	Auth     AuthConfig
	Booking  BookingConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration // Deadline for one request; must stay under the lot lock TTL
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// DSN renders the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// AuthConfig holds bearer token verification settings.
type AuthConfig struct {
	JWTSecret string
	Issuer    string // Optional: empty skips the issuer check
}

// BookingConfig tunes the booking ledger's serialization and caching.
type BookingConfig struct {
	LotLockTTL  time.Duration // Upper bound on how long a lot stays locked
	LotLockWait time.Duration // How long a request waits for a busy lot
	LotCacheTTL time.Duration
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second),
			RequestTimeout:  getDurationEnv("SERVER_REQUEST_TIMEOUT", 5*time.Second),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			DBName:       getEnv("DB_NAME", "parking"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns: getIntEnv("DB_MAX_IDLE_CONNS", 25),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "parking-booking-service"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			Issuer:    getEnv("JWT_ISSUER", ""),
		},
		Booking: BookingConfig{
			LotLockTTL:  getDurationEnv("BOOKING_LOT_LOCK_TTL", 10*time.Second),
			LotLockWait: getDurationEnv("BOOKING_LOT_LOCK_WAIT", 3*time.Second),
			LotCacheTTL: getDurationEnv("BOOKING_LOT_CACHE_TTL", 60*time.Second),
		},
	}
}

// LoadWithFile loads an optional .env file before reading the environment.
// A missing file is not an error; variables already set take precedence.
func LoadWithFile(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that have no safe default.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Booking.LotLockTTL <= 0 {
		return errors.New("BOOKING_LOT_LOCK_TTL must be positive")
	}
	if c.Booking.LotLockWait <= 0 {
		return errors.New("BOOKING_LOT_LOCK_WAIT must be positive")
	}
	if c.Booking.LotLockWait > c.Booking.LotLockTTL {
		return errors.New("BOOKING_LOT_LOCK_WAIT must not exceed BOOKING_LOT_LOCK_TTL")
	}
	if c.Server.RequestTimeout <= 0 {
		return errors.New("SERVER_REQUEST_TIMEOUT must be positive")
	}
	if c.Server.RequestTimeout >= c.Booking.LotLockTTL {
		return errors.New("SERVER_REQUEST_TIMEOUT must be shorter than BOOKING_LOT_LOCK_TTL")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return errors.New("DB_MAX_IDLE_CONNS must not exceed DB_MAX_OPEN_CONNS")
	}
	if c.NewRelic.Enabled && c.NewRelic.LicenseKey == "" {
		return errors.New("NEW_RELIC_LICENSE_KEY is required when NEW_RELIC_ENABLED is set")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
