package repository

import (
	"context"

	"parking/internal/domain"
)

// VehicleRepository exposes the vehicle ownership facts the ledger needs.
type VehicleRepository interface {
	// GetByID retrieves a vehicle by ID.
	GetByID(ctx context.Context, id string) (*domain.Vehicle, error)
	// GetByIDs retrieves the vehicles that exist among ids.
	GetByIDs(ctx context.Context, ids []string) ([]*domain.Vehicle, error)
}
