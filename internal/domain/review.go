package domain

import (
	"context"

	"github.com/google/uuid"
)

// Review is one principal's rating of one tour. (TourID, UserID) is unique.
type Review struct {
	Model
	Review string    `json:"review" validate:"required"`
	Rating float64   `json:"rating" validate:"required,gte=1,lte=5"`
	TourID uuid.UUID `json:"tourId" gorm:"type:uuid" validate:"required"`
	UserID uuid.UUID `json:"userId" gorm:"type:uuid" validate:"required"`
	User   *UserRef  `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// RatingSummary is the aggregate over a tour's reviews.
type RatingSummary struct {
	Quantity int
	Average  float64
}

// ReviewRepository computes review aggregates.
type ReviewRepository interface {
	RatingSummary(ctx context.Context, tourID uuid.UUID) (RatingSummary, error)
	// ReviewedTourIDs lists the tours userID has reviewed.
	ReviewedTourIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}
