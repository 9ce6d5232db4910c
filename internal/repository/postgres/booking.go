package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"parking/internal/domain"
	"parking/internal/repository"
)

const bookingColumns = `id, user_id, parking_lot_id, vehicle_id, start_time, end_time, status,
		total_amount, payment_status, actual_start_time, actual_end_time, final_amount, created_at, updated_at`

// BookingRepository is a PostgreSQL implementation of repository.BookingRepository.
type BookingRepository struct {
	q Querier
}

// NewBookingRepository creates a new PostgreSQL booking repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{q: db}
}

// Create persists a new booking.
func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	query := `
		INSERT INTO parking_bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.q.ExecContext(ctx, query,
		b.ID,
		b.UserID,
		b.ParkingLotID,
		b.VehicleID,
		b.StartTime,
		b.EndTime,
		b.Status,
		b.TotalAmount,
		b.PaymentStatus,
		b.ActualStartTime,
		b.ActualEndTime,
		b.FinalAmount,
		b.CreatedAt,
		b.UpdatedAt,
	)

	return err
}

// GetByID retrieves a booking by ID.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM parking_bookings WHERE id = $1`

	booking, err := scanBooking(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return booking, nil
}

// ListByUser returns a page of the user's bookings, newest first, and the total count.
func (r *BookingRepository) ListByUser(ctx context.Context, userID string, filter repository.BookingFilter) ([]*domain.Booking, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM parking_bookings WHERE user_id = $1 AND ($2 = '' OR status = $2)`
	if err := r.q.QueryRowContext(ctx, countQuery, userID, filter.Status).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + bookingColumns + `
		FROM parking_bookings
		WHERE user_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.q.QueryContext(ctx, query, userID, filter.Status, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		bookings = append(bookings, booking)
	}

	return bookings, total, rows.Err()
}

// CountOverlapping counts bookings on a lot in one of statuses whose window
// intersects [start, end). Touching windows do not overlap.
func (r *BookingRepository) CountOverlapping(ctx context.Context, lotID string, statuses []domain.BookingStatus, start, end time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM parking_bookings
		WHERE parking_lot_id = $1
		  AND status = ANY($2)
		  AND start_time < $3
		  AND end_time > $4
	`

	raw := make([]string, len(statuses))
	for i, s := range statuses {
		raw[i] = string(s)
	}

	var count int
	err := r.q.QueryRowContext(ctx, query, lotID, pq.Array(raw), end, start).Scan(&count)
	return count, err
}

// CountActiveAt counts active bookings on a lot whose window contains at.
func (r *BookingRepository) CountActiveAt(ctx context.Context, lotID string, at time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM parking_bookings
		WHERE parking_lot_id = $1 AND status = $2 AND start_time <= $3 AND end_time >= $3
	`

	var count int
	err := r.q.QueryRowContext(ctx, query, lotID, domain.BookingStatusActive, at).Scan(&count)
	return count, err
}

// UpdateStatus applies update only while the booking is still in expected.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, expected domain.BookingStatus, update domain.BookingUpdate) error {
	query := `
		UPDATE parking_bookings
		SET status = $1,
		    actual_start_time = COALESCE($2, actual_start_time),
		    actual_end_time = COALESCE($3, actual_end_time),
		    final_amount = COALESCE($4, final_amount),
		    updated_at = $5
		WHERE id = $6 AND status = $7
	`

	result, err := r.q.ExecContext(ctx, query,
		update.Status,
		update.ActualStartTime,
		update.ActualEndTime,
		update.FinalAmount,
		update.UpdatedAt,
		id,
		expected,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		// Distinguish a missing booking from a lost race.
		var exists bool
		if err := r.q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM parking_bookings WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return repository.ErrNotFound
		}
		return repository.ErrStatusConflict
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.ParkingLotID,
		&b.VehicleID,
		&b.StartTime,
		&b.EndTime,
		&b.Status,
		&b.TotalAmount,
		&b.PaymentStatus,
		&b.ActualStartTime,
		&b.ActualEndTime,
		&b.FinalAmount,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.StartTime = b.StartTime.UTC()
	b.EndTime = b.EndTime.UTC()
	if b.ActualStartTime.Valid {
		b.ActualStartTime.Time = b.ActualStartTime.Time.UTC()
	}
	if b.ActualEndTime.Valid {
		b.ActualEndTime.Time = b.ActualEndTime.Time.UTC()
	}

	return &b, nil
}

// Ensure BookingRepository implements repository.BookingRepository.
var _ repository.BookingRepository = (*BookingRepository)(nil)
