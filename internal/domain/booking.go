package domain

import (
	"context"

	"github.com/google/uuid"
)

// Booking records a paid reservation with a price snapshot.
type Booking struct {
	Model
	TourID uuid.UUID `json:"tourId" gorm:"type:uuid" validate:"required"`
	UserID uuid.UUID `json:"userId" gorm:"type:uuid" validate:"required"`
	Price  float64   `json:"price" validate:"required,gt=0"`
	Paid   bool      `json:"paid" gorm:"default:true"`
	Tour   *TourRef  `json:"tour,omitempty" gorm:"foreignKey:TourID"`
	User   *UserRef  `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// BookingRepository holds booking queries outside the generic store.
type BookingRepository interface {
	Create(ctx context.Context, booking *Booking) error
	TourIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]Booking, error)
}
