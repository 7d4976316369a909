package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/natours/internal/domain"
)

// RatingWriter persists a tour's rating aggregate.
type RatingWriter interface {
	SetRating(ctx context.Context, id uuid.UUID, quantity int, average float64) error
}

// RatingAggregator keeps a tour's ratingsQuantity and ratingsAverage in line
// with its reviews.
type RatingAggregator struct {
	reviews  domain.ReviewRepository
	tours    RatingWriter
	onChange func(tourID uuid.UUID)
	logger   *slog.Logger
}

// NewRatingAggregator creates an aggregator. onChange, when set, runs after
// every successful recompute.
func NewRatingAggregator(reviews domain.ReviewRepository, tours RatingWriter, onChange func(uuid.UUID), logger *slog.Logger) *RatingAggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &RatingAggregator{reviews: reviews, tours: tours, onChange: onChange, logger: logger}
}

// Recompute recalculates the aggregate from the tour's current reviews. A
// tour without reviews goes back to the defaults.
func (a *RatingAggregator) Recompute(ctx context.Context, tourID uuid.UUID) error {
	sum, err := a.reviews.RatingSummary(ctx, tourID)
	if err != nil {
		return fmt.Errorf("rating summary for tour %s: %w", tourID, err)
	}

	quantity, average := sum.Quantity, roundRating(sum.Average)
	if quantity == 0 {
		quantity, average = domain.DefaultRatingsQuantity, domain.DefaultRatingsAverage
	}

	if err := a.tours.SetRating(ctx, tourID, quantity, average); err != nil {
		return fmt.Errorf("set rating for tour %s: %w", tourID, err)
	}
	a.logger.Debug("tour rating recomputed",
		slog.String("tour_id", tourID.String()),
		slog.Int("quantity", quantity),
		slog.Float64("average", average),
	)
	if a.onChange != nil {
		a.onChange(tourID)
	}
	return nil
}

// ToursReviewedBy lists the tours whose rating depends on userID's reviews.
func (a *RatingAggregator) ToursReviewedBy(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	ids, err := a.reviews.ReviewedTourIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("tours reviewed by %s: %w", userID, err)
	}
	return ids, nil
}

func roundRating(v float64) float64 {
	return math.Round(v*10) / 10
}
