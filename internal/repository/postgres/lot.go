package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"parking/internal/domain"
	"parking/internal/repository"
)

const lotColumns = `id, name, location, address, latitude, longitude, total_capacity, price_per_hour, features, rating, created_at`

// LotRepository is a PostgreSQL implementation of repository.LotRepository.
type LotRepository struct {
	q Querier
}

// NewLotRepository creates a new PostgreSQL lot repository.
func NewLotRepository(db *sql.DB) *LotRepository {
	return &LotRepository{q: db}
}

// GetByID retrieves a lot by ID.
func (r *LotRepository) GetByID(ctx context.Context, id string) (*domain.ParkingLot, error) {
	query := `SELECT ` + lotColumns + ` FROM parking_lots WHERE id = $1`

	lot, err := scanLot(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return lot, nil
}

// GetByIDs retrieves the lots that exist among ids.
func (r *LotRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.ParkingLot, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + lotColumns + ` FROM parking_lots WHERE id = ANY($1)`
	return r.queryLots(ctx, query, pq.Array(ids))
}

// List returns a filtered page of lots and the total match count.
func (r *LotRepository) List(ctx context.Context, filter repository.LotFilter) ([]*domain.ParkingLot, int, error) {
	where, args := buildLotFilter(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM parking_lots` + where
	if err := r.q.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM parking_lots%s ORDER BY name LIMIT $%d OFFSET $%d`,
		lotColumns, where, len(args)-1, len(args))

	lots, err := r.queryLots(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return lots, total, nil
}

// ListAll retrieves every lot.
func (r *LotRepository) ListAll(ctx context.Context) ([]*domain.ParkingLot, error) {
	return r.queryLots(ctx, `SELECT `+lotColumns+` FROM parking_lots`)
}

func (r *LotRepository) queryLots(ctx context.Context, query string, args ...any) ([]*domain.ParkingLot, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lots []*domain.ParkingLot
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	return lots, rows.Err()
}

// buildLotFilter renders the WHERE clause for a lot listing.
func buildLotFilter(filter repository.LotFilter) (string, []any) {
	var clauses []string
	var args []any

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR location ILIKE $%d OR address ILIKE $%d)", n, n, n))
	}
	if filter.MinPrice != nil {
		args = append(args, *filter.MinPrice)
		clauses = append(clauses, fmt.Sprintf("price_per_hour >= $%d", len(args)))
	}
	if filter.MaxPrice != nil {
		args = append(args, *filter.MaxPrice)
		clauses = append(clauses, fmt.Sprintf("price_per_hour <= $%d", len(args)))
	}
	if len(filter.Features) > 0 {
		args = append(args, pq.Array(filter.Features))
		clauses = append(clauses, fmt.Sprintf("features && $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanLot(row rowScanner) (*domain.ParkingLot, error) {
	var lot domain.ParkingLot
	err := row.Scan(
		&lot.ID,
		&lot.Name,
		&lot.Location,
		&lot.Address,
		&lot.Latitude,
		&lot.Longitude,
		&lot.TotalCapacity,
		&lot.PricePerHour,
		pq.Array(&lot.Features),
		&lot.Rating,
		&lot.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &lot, nil
}

// Ensure LotRepository implements repository.LotRepository.
var _ repository.LotRepository = (*LotRepository)(nil)
