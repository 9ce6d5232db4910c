package repository

import (
	"context"

	"parking/internal/domain"
)

// LotFilter narrows a lot listing.
type LotFilter struct {
	Search   string
	MinPrice *float64
	MaxPrice *float64
	Features []string
	Limit    int
	Offset   int
}

// LotRepository defines the read operations for parking lots.
type LotRepository interface {
	// GetByID retrieves a lot by ID.
	GetByID(ctx context.Context, id string) (*domain.ParkingLot, error)

	// GetByIDs retrieves the lots that exist among ids.
	GetByIDs(ctx context.Context, ids []string) ([]*domain.ParkingLot, error)

	// List returns a filtered page of lots and the total match count.
	List(ctx context.Context, filter LotFilter) ([]*domain.ParkingLot, int, error)

	// ListAll retrieves every lot.
	ListAll(ctx context.Context) ([]*domain.ParkingLot, error)
}
