package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/aryan0dhankhar/natours/internal/domain"
)

// PostgresTourRepository implements domain.TourRepository. Aggregates run
// as raw SQL; entity reads go through the generic store.
type PostgresTourRepository struct {
	db     *sql.DB
	store  *TourStore
	logger *slog.Logger
}

// NewPostgresTourRepository creates a new tour repository
func NewPostgresTourRepository(db *sql.DB, store *TourStore, logger *slog.Logger) *PostgresTourRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTourRepository{db: db, store: store, logger: logger}
}

// Stats groups visible tours rated at least minRating by difficulty.
func (r *PostgresTourRepository) Stats(ctx context.Context, minRating float64) ([]domain.TourStat, error) {
	query := `
		SELECT upper(difficulty), COUNT(*), COALESCE(SUM(ratings_quantity), 0),
		       AVG(ratings_average), AVG(price), MIN(price), MAX(price)
		FROM tours
		WHERE ratings_average >= $1 AND NOT secret_tour
		GROUP BY upper(difficulty)
		ORDER BY AVG(price) ASC
	`

	rows, err := r.db.QueryContext(ctx, query, minRating)
	if err != nil {
		return nil, fmt.Errorf("failed to query tour stats: %w", err)
	}
	defer rows.Close()

	stats := []domain.TourStat{}
	for rows.Next() {
		var s domain.TourStat
		if err := rows.Scan(&s.Difficulty, &s.NumTours, &s.NumRatings, &s.AvgRating, &s.AvgPrice, &s.MinPrice, &s.MaxPrice); err != nil {
			return nil, fmt.Errorf("failed to scan tour stats: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// MonthlyPlan counts tour starts per month of year, busiest month first.
func (r *PostgresTourRepository) MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlan, error) {
	query := `
		SELECT EXTRACT(MONTH FROM d.start_date)::int AS month,
		       COUNT(*) AS num_tour_starts,
		       array_agg(t.name ORDER BY t.name) AS tours
		FROM tours t
		CROSS JOIN LATERAL jsonb_array_elements_text(
		    CASE WHEN jsonb_typeof(t.start_dates) = 'array' THEN t.start_dates ELSE '[]'::jsonb END
		) AS s(raw)
		CROSS JOIN LATERAL (SELECT s.raw::timestamptz AS start_date) d
		WHERE NOT t.secret_tour AND d.start_date >= $1 AND d.start_date < $2
		GROUP BY month
		ORDER BY num_tour_starts DESC, month ASC
		LIMIT 12
	`

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly plan: %w", err)
	}
	defer rows.Close()

	plan := []domain.MonthlyPlan{}
	for rows.Next() {
		var p domain.MonthlyPlan
		if err := rows.Scan(&p.Month, &p.NumTourStarts, pq.Array(&p.Tours)); err != nil {
			return nil, fmt.Errorf("failed to scan monthly plan: %w", err)
		}
		plan = append(plan, p)
	}
	return plan, rows.Err()
}

// Locations returns the start location of every visible tour.
func (r *PostgresTourRepository) Locations(ctx context.Context) ([]domain.TourLocation, error) {
	query := `SELECT id, name, start_location FROM tours WHERE NOT secret_tour AND start_location IS NOT NULL`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tour locations: %w", err)
	}
	defer rows.Close()

	var out []domain.TourLocation
	for rows.Next() {
		var loc domain.TourLocation
		var raw []byte
		if err := rows.Scan(&loc.ID, &loc.Name, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan tour location: %w", err)
		}
		if err := json.Unmarshal(raw, &loc.StartLocation); err != nil {
			r.logger.Warn("skipping tour with unreadable start location",
				slog.String("tour_id", loc.ID.String()),
				slog.String("error", err.Error()),
			)
			continue
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

// GetBySlug loads a visible tour with guides and reviews populated.
func (r *PostgresTourRepository) GetBySlug(ctx context.Context, slug string) (*domain.Tour, error) {
	return r.store.FindOne(ctx, map[string]any{"slug": slug}, "guides", "reviews")
}

// GetByID loads a visible tour.
func (r *PostgresTourRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tour, error) {
	return r.store.FindOne(ctx, map[string]any{"id": id})
}

// ListByIDs loads the visible tours among ids.
func (r *PostgresTourRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Tour, error) {
	tours := []domain.Tour{}
	if len(ids) == 0 {
		return tours, nil
	}
	if err := r.store.Scoped(ctx).Where("id IN ?", ids).Order("name").Find(&tours).Error; err != nil {
		return nil, classify(err)
	}
	return tours, nil
}

// SetRating writes both aggregate columns in one statement.
func (r *PostgresTourRepository) SetRating(ctx context.Context, id uuid.UUID, quantity int, average float64) error {
	query := `
		UPDATE tours
		SET ratings_quantity = $1, ratings_average = $2
		WHERE id = $3
	`

	if _, err := r.db.ExecContext(ctx, query, quantity, average, id); err != nil {
		r.logger.Error("failed to set tour rating",
			slog.String("tour_id", id.String()),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to set tour rating: %w", err)
	}
	return nil
}
