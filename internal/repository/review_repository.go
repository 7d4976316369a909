package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/natours/internal/domain"
)

// PostgresReviewRepository implements domain.ReviewRepository
type PostgresReviewRepository struct {
	db *sql.DB
}

// NewPostgresReviewRepository creates a new review repository
func NewPostgresReviewRepository(db *sql.DB) *PostgresReviewRepository {
	return &PostgresReviewRepository{db: db}
}

// RatingSummary counts and averages every review of a tour.
func (r *PostgresReviewRepository) RatingSummary(ctx context.Context, tourID uuid.UUID) (domain.RatingSummary, error) {
	var s domain.RatingSummary
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(AVG(rating), 0) FROM reviews WHERE tour_id = $1`, tourID,
	).Scan(&s.Quantity, &s.Average)
	if err != nil {
		return domain.RatingSummary{}, fmt.Errorf("failed to summarize ratings: %w", err)
	}
	return s, nil
}

// ReviewedTourIDs lists the distinct tours a user has reviewed.
func (r *PostgresReviewRepository) ReviewedTourIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT tour_id FROM reviews WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviewed tours: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan reviewed tour: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
