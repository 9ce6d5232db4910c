package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"parking/internal/domain"
)

const lotCachePrefix = "cache:lot:"

// DefaultLotCacheTTL applies when the store is built with a zero TTL.
// Capacity is changed administratively, so entries must not live long.
const DefaultLotCacheTTL = 60 * time.Second

// CacheStore caches parking lot records in Redis.
type CacheStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client, ttl time.Duration) *CacheStore {
	if ttl <= 0 {
		ttl = DefaultLotCacheTTL
	}
	return &CacheStore{client: client, ttl: ttl}
}

// CachedLot is the JSON shape of a cached lot.
type CachedLot struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Location      string    `json:"location"`
	Address       string    `json:"address"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	TotalCapacity int       `json:"total_capacity"`
	PricePerHour  float64   `json:"price_per_hour"`
	Features      []string  `json:"features"`
	Rating        float64   `json:"rating"`
	CreatedAt     time.Time `json:"created_at"`
}

func toCachedLot(lot *domain.ParkingLot) *CachedLot {
	return &CachedLot{
		ID:            lot.ID,
		Name:          lot.Name,
		Location:      lot.Location,
		Address:       lot.Address,
		Latitude:      lot.Latitude,
		Longitude:     lot.Longitude,
		TotalCapacity: lot.TotalCapacity,
		PricePerHour:  lot.PricePerHour,
		Features:      lot.Features,
		Rating:        lot.Rating,
		CreatedAt:     lot.CreatedAt,
	}
}

func (c *CachedLot) toDomain() *domain.ParkingLot {
	return &domain.ParkingLot{
		ID:            c.ID,
		Name:          c.Name,
		Location:      c.Location,
		Address:       c.Address,
		Latitude:      c.Latitude,
		Longitude:     c.Longitude,
		TotalCapacity: c.TotalCapacity,
		PricePerHour:  c.PricePerHour,
		Features:      c.Features,
		Rating:        c.Rating,
		CreatedAt:     c.CreatedAt,
	}
}

// GetLot retrieves a lot from cache. A miss returns nil, nil.
func (s *CacheStore) GetLot(ctx context.Context, lotID string) (*domain.ParkingLot, error) {
	data, err := s.client.Get(ctx, lotCachePrefix+lotID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var cached CachedLot
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	return cached.toDomain(), nil
}

// SetLot stores a lot in cache.
func (s *CacheStore) SetLot(ctx context.Context, lot *domain.ParkingLot) error {
	data, err := json.Marshal(toCachedLot(lot))
	if err != nil {
		return err
	}
	return s.client.Set(ctx, lotCachePrefix+lot.ID, data, s.ttl).Err()
}

// GetLotsBatch retrieves several lots with one pipeline.
// Returns the hits keyed by ID and the IDs that missed.
func (s *CacheStore) GetLotsBatch(ctx context.Context, lotIDs []string) (map[string]*domain.ParkingLot, []string, error) {
	result := make(map[string]*domain.ParkingLot, len(lotIDs))
	if len(lotIDs) == 0 {
		return result, nil, nil
	}

	pipe := s.client.Pipeline()
	cmds := make(map[string]*redis.StringCmd, len(lotIDs))
	for _, id := range lotIDs {
		cmds[id] = pipe.Get(ctx, lotCachePrefix+id)
	}

	// Exec reports redis.Nil when any key is missing; per-command results
	// are inspected below.
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, nil, err
	}

	var missing []string
	for _, id := range lotIDs {
		data, err := cmds[id].Bytes()
		if err != nil {
			missing = append(missing, id)
			continue
		}

		var cached CachedLot
		if err := json.Unmarshal(data, &cached); err != nil {
			missing = append(missing, id)
			continue
		}
		result[id] = cached.toDomain()
	}

	return result, missing, nil
}

// SetLotsBatch stores several lots with one pipeline.
func (s *CacheStore) SetLotsBatch(ctx context.Context, lots []*domain.ParkingLot) error {
	if len(lots) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, lot := range lots {
		data, err := json.Marshal(toCachedLot(lot))
		if err != nil {
			continue
		}
		pipe.Set(ctx, lotCachePrefix+lot.ID, data, s.ttl)
	}

	_, err := pipe.Exec(ctx)
	return err
}
