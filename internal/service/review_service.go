package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aryan0dhankhar/natours/internal/domain"
	"github.com/aryan0dhankhar/natours/internal/security"
	"github.com/aryan0dhankhar/natours/internal/security/auth"
)

// ReviewService is the review CRUD factory. Every write recomputes the
// reviewed tour's rating before returning.
type ReviewService struct {
	*Factory[domain.Review, *domain.Review]
	aggregator *RatingAggregator
}

func NewReviewService(store EntityStore[domain.Review, *domain.Review], aggregator *RatingAggregator, v *validator.Validate, logger *slog.Logger) *ReviewService {
	s := &ReviewService{aggregator: aggregator}
	recompute := func(ctx context.Context, r *domain.Review) error {
		return s.aggregator.Recompute(ctx, r.TourID)
	}
	s.Factory = NewFactory(store, FactoryConfig[domain.Review]{
		Hooks: Hooks[domain.Review]{
			BeforeSave:  s.beforeSave,
			AfterCreate: recompute,
			AfterUpdate: recompute,
			AfterDelete: recompute,
			CanModify: func(ctx context.Context, r *domain.Review) error {
				return security.AuthorizeOwner(r.UserID, auth.PrincipalFrom(ctx))
			},
		},
		ReadPopulate: []string{"user"},
	}, v, logger)
	return s
}

// beforeSave binds a new review to the caller. The tour comes from the
// nested route or the payload.
func (s *ReviewService) beforeSave(ctx context.Context, r *domain.Review, creating bool) error {
	r.Review = strings.TrimSpace(r.Review)
	if !creating {
		return nil
	}
	p := auth.PrincipalFrom(ctx)
	if p == nil {
		return domain.Unauthenticated("You are not logged in! Please log in to get access.")
	}
	r.UserID = p.ID
	r.User = nil
	return nil
}

// Update edits the text and rating of a review. The tour and author of a
// review never change.
func (s *ReviewService) Update(ctx context.Context, id string, patch []byte) (*domain.Review, error) {
	clean, err := dropKeys(patch, "tourId", "tour", "userId", "user")
	if err != nil {
		return nil, err
	}
	return s.Factory.Update(ctx, id, clean)
}
