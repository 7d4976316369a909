package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/natours/internal/domain"
	"github.com/aryan0dhankhar/natours/internal/query"
)

// PostgresBookingRepository implements domain.BookingRepository
type PostgresBookingRepository struct {
	db    *sql.DB
	store *BookingStore
}

// NewPostgresBookingRepository creates a new booking repository
func NewPostgresBookingRepository(db *sql.DB, store *BookingStore) *PostgresBookingRepository {
	return &PostgresBookingRepository{db: db, store: store}
}

// Create inserts a booking.
func (r *PostgresBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	return r.store.Create(ctx, booking)
}

// TourIDsForUser returns the distinct tours a user has booked.
func (r *PostgresBookingRepository) TourIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT tour_id FROM bookings WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query booked tours: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan booked tour: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListForUser returns a user's bookings, newest first, with tours populated.
func (r *PostgresBookingRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	q := query.Query{
		Sort:  []query.SortField{{Field: "createdAt", Desc: true}},
		Limit: query.DefaultLimit,
	}
	return r.store.Find(ctx, map[string]any{"user_id": userID}, q, "tour")
}
