package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"parking/internal/domain"
	"parking/internal/repository"
)

// VehicleRepository implements repository.VehicleRepository using PostgreSQL.
type VehicleRepository struct {
	db *sql.DB
}

// NewVehicleRepository creates a new VehicleRepository.
func NewVehicleRepository(db *sql.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

const vehicleColumns = `id, user_id, brand, model, registration_number`

// GetByID retrieves a vehicle by ID.
func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1`

	v, err := scanVehicle(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// GetByIDs retrieves the vehicles that exist among ids.
func (r *VehicleRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Vehicle, error) {
	if len(ids) == 0 {
		return []*domain.Vehicle{}, nil
	}

	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []*domain.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

func scanVehicle(row rowScanner) (*domain.Vehicle, error) {
	var v domain.Vehicle
	if err := row.Scan(&v.ID, &v.UserID, &v.Brand, &v.Model, &v.RegistrationNumber); err != nil {
		return nil, err
	}
	return &v, nil
}

var _ repository.VehicleRepository = (*VehicleRepository)(nil)
