package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"parking/internal/domain"
	"parking/internal/geo"
	"parking/internal/logger"
	"parking/internal/redis"
	"parking/internal/repository"
)

const (
	// DefaultPageLimit is used when a listing does not name a limit.
	DefaultPageLimit = 10

	// MaxPageLimit caps every listing.
	MaxPageLimit = 50

	// DefaultNearbyRadiusKm is used when a nearby search does not name a radius.
	DefaultNearbyRadiusKm = 5.0

	minNearbyRadiusKm = 0.1
	maxNearbyRadiusKm = 50.0
)

// Clock returns the current time.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

// LotService serves read-only parking lot facts.
type LotService struct {
	lotRepo     repository.LotRepository
	bookingRepo repository.BookingRepository
	cache       redis.LotCache
	log         *logger.Logger
	now         Clock
}

// NewLotService creates a new LotService. cache may be nil; clock defaults
// to the system clock in UTC.
func NewLotService(
	lotRepo repository.LotRepository,
	bookingRepo repository.BookingRepository,
	cache redis.LotCache,
	log *logger.Logger,
	clock Clock,
) *LotService {
	if clock == nil {
		clock = systemClock
	}
	return &LotService{
		lotRepo:     lotRepo,
		bookingRepo: bookingRepo,
		cache:       cache,
		log:         log,
		now:         clock,
	}
}

// GetLot retrieves a lot, reading through the cache.
func (s *LotService) GetLot(ctx context.Context, lotID string) (*domain.ParkingLot, error) {
	if lotID == "" {
		return nil, ErrInvalidLotID
	}

	if s.cache != nil {
		lot, err := s.cache.GetLot(ctx, lotID)
		if err != nil {
			s.log.Warn("lot cache read failed", logger.Lot(lotID), logger.Error(err))
		} else if lot != nil {
			return lot, nil
		}
	}

	lot, err := s.lotRepo.GetByID(ctx, lotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLotNotFound
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetLot(ctx, lot); err != nil {
			s.log.Warn("lot cache write failed", logger.Lot(lotID), logger.Error(err))
		}
	}

	return lot, nil
}

// GetLotsBatch retrieves several lots keyed by ID. Unknown IDs are omitted.
func (s *LotService) GetLotsBatch(ctx context.Context, lotIDs []string) (map[string]*domain.ParkingLot, error) {
	ids := uniqueIDs(lotIDs)
	result := make(map[string]*domain.ParkingLot, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	missing := ids
	if s.cache != nil {
		cached, miss, err := s.cache.GetLotsBatch(ctx, ids)
		if err != nil {
			s.log.Warn("lot cache batch read failed", logger.Error(err))
		} else {
			for id, lot := range cached {
				result[id] = lot
			}
			missing = miss
		}
	}

	if len(missing) == 0 {
		return result, nil
	}

	lots, err := s.lotRepo.GetByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	for _, lot := range lots {
		result[lot.ID] = lot
	}

	if s.cache != nil {
		if err := s.cache.SetLotsBatch(ctx, lots); err != nil {
			s.log.Warn("lot cache batch write failed", logger.Error(err))
		}
	}

	return result, nil
}

// ListLotsRequest contains the parameters for listing lots.
type ListLotsRequest struct {
	Search   string
	MinPrice *float64
	MaxPrice *float64
	Features []string
	Page     int
	Limit    int
}

// LotPage is one page of a lot listing.
type LotPage struct {
	Lots  []*domain.ParkingLot
	Total int
	Page  int
	Limit int
}

// ListLots returns a filtered, paginated listing ordered by name.
func (s *LotService) ListLots(ctx context.Context, req ListLotsRequest) (*LotPage, error) {
	if err := validatePage(req.Page, req.Limit); err != nil {
		return nil, err
	}

	lots, total, err := s.lotRepo.List(ctx, repository.LotFilter{
		Search:   req.Search,
		MinPrice: req.MinPrice,
		MaxPrice: req.MaxPrice,
		Features: req.Features,
		Limit:    req.Limit,
		Offset:   (req.Page - 1) * req.Limit,
	})
	if err != nil {
		return nil, err
	}

	return &LotPage{Lots: lots, Total: total, Page: req.Page, Limit: req.Limit}, nil
}

// NearbyLotsRequest contains the parameters for a proximity search.
type NearbyLotsRequest struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
	Limit     int
}

// NearbyLots returns lots within the radius, closest first.
func (s *LotService) NearbyLots(ctx context.Context, req NearbyLotsRequest) ([]domain.NearbyLot, error) {
	if !geo.ValidCoordinate(req.Latitude, req.Longitude) {
		return nil, ErrInvalidLocation
	}
	if req.RadiusKm < minNearbyRadiusKm || req.RadiusKm > maxNearbyRadiusKm {
		return nil, ErrInvalidRadius
	}
	if req.Limit < 1 || req.Limit > MaxPageLimit {
		return nil, ErrInvalidPagination
	}

	lots, err := s.lotRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	nearby := make([]domain.NearbyLot, 0)
	for _, lot := range lots {
		distance := geo.Haversine(req.Latitude, req.Longitude, lot.Latitude, lot.Longitude)
		if distance <= req.RadiusKm {
			nearby = append(nearby, domain.NearbyLot{Lot: lot, DistanceKm: round2(distance)})
		}
	}

	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})

	if len(nearby) > req.Limit {
		nearby = nearby[:req.Limit]
	}
	return nearby, nil
}

// LotDetails is a lot with its live free spot count.
type LotDetails struct {
	Lot                   *domain.ParkingLot
	CurrentAvailableSpots int
}

// GetLotDetails returns the lot with spots free right now.
func (s *LotService) GetLotDetails(ctx context.Context, lotID string) (*LotDetails, error) {
	lot, err := s.GetLot(ctx, lotID)
	if err != nil {
		return nil, err
	}

	active, err := s.bookingRepo.CountActiveAt(ctx, lot.ID, s.now())
	if err != nil {
		return nil, err
	}

	return &LotDetails{
		Lot:                   lot,
		CurrentAvailableSpots: max(0, lot.TotalCapacity-active),
	}, nil
}

func validatePage(page, limit int) error {
	if page < 1 || limit < 1 || limit > MaxPageLimit {
		return ErrInvalidPagination
	}
	return nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
