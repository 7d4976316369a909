package repository

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aryan0dhankhar/natours/internal/domain"
	"github.com/aryan0dhankhar/natours/internal/query"
)

type (
	TourStore    = Store[domain.Tour, *domain.Tour]
	UserStore    = Store[domain.User, *domain.User]
	ReviewStore  = Store[domain.Review, *domain.Review]
	BookingStore = Store[domain.Booking, *domain.Booking]
)

// TourFields lists what tour list queries may filter and sort on.
var TourFields = query.Registry{
	"id":              {Column: "id", Kind: query.UUID},
	"name":            {Column: "name", Kind: query.String},
	"slug":            {Column: "slug", Kind: query.String},
	"duration":        {Column: "duration", Kind: query.Integer},
	"maxGroupSize":    {Column: "max_group_size", Kind: query.Integer},
	"difficulty":      {Column: "difficulty", Kind: query.String},
	"ratingsAverage":  {Column: "ratings_average", Kind: query.Number},
	"ratingsQuantity": {Column: "ratings_quantity", Kind: query.Integer},
	"price":           {Column: "price", Kind: query.Number},
	"priceDiscount":   {Column: "price_discount", Kind: query.Number},
	"createdAt":       {Column: "created_at", Kind: query.Time},
}

// TourMultiValue are the tour fields that accept repeated query values.
var TourMultiValue = []string{"duration", "ratingsQuantity", "ratingsAverage", "maxGroupSize", "difficulty", "price"}

var UserFields = query.Registry{
	"id":        {Column: "id", Kind: query.UUID},
	"name":      {Column: "name", Kind: query.String},
	"email":     {Column: "email", Kind: query.String},
	"role":      {Column: "role", Kind: query.String},
	"createdAt": {Column: "created_at", Kind: query.Time},
}

var ReviewFields = query.Registry{
	"id":        {Column: "id", Kind: query.UUID},
	"rating":    {Column: "rating", Kind: query.Number},
	"tour":      {Column: "tour_id", Kind: query.UUID},
	"tourId":    {Column: "tour_id", Kind: query.UUID},
	"user":      {Column: "user_id", Kind: query.UUID},
	"userId":    {Column: "user_id", Kind: query.UUID},
	"createdAt": {Column: "created_at", Kind: query.Time},
}

var BookingFields = query.Registry{
	"id":        {Column: "id", Kind: query.UUID},
	"tour":      {Column: "tour_id", Kind: query.UUID},
	"tourId":    {Column: "tour_id", Kind: query.UUID},
	"user":      {Column: "user_id", Kind: query.UUID},
	"userId":    {Column: "user_id", Kind: query.UUID},
	"price":     {Column: "price", Kind: query.Number},
	"paid":      {Column: "paid", Kind: query.Bool},
	"createdAt": {Column: "created_at", Kind: query.Time},
}

func selectUserRef(tx *gorm.DB) *gorm.DB {
	return tx.Select("id", "name", "photo")
}

// NewTourStore stores tours. Secret tours are invisible to every read.
func NewTourStore(db *gorm.DB, logger *slog.Logger) *TourStore {
	return NewStore[domain.Tour, *domain.Tour](db, tourDescriptor(), logger)
}

func tourDescriptor() Descriptor[domain.Tour] {
	return Descriptor[domain.Tour]{
		Name:   "tour",
		Fields: TourFields,
		Scope: func(tx *gorm.DB) *gorm.DB {
			return tx.Where("secret_tour = ?", false)
		},
		Populate: map[string]Population[domain.Tour]{
			"guides": {After: populateGuides},
			"reviews": {Preload: func(tx *gorm.DB) *gorm.DB {
				return tx.Preload("Reviews", func(db *gorm.DB) *gorm.DB {
					return db.Order("created_at DESC")
				}).Preload("Reviews.User", selectUserRef)
			}},
		},
		Protected: []string{"ratings_average", "ratings_quantity"},
	}
}

// populateGuides replaces guide ids with active guide profiles.
func populateGuides(ctx context.Context, db *gorm.DB, tours []*domain.Tour) error {
	seen := map[uuid.UUID]bool{}
	var ids []uuid.UUID
	for _, t := range tours {
		for _, id := range t.Guides.IDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 {
		for _, t := range tours {
			t.Guides.Populated = []domain.UserRef{}
		}
		return nil
	}

	var refs []domain.UserRef
	if err := db.WithContext(ctx).Where("id IN ? AND active", ids).Find(&refs).Error; err != nil {
		return err
	}
	byID := make(map[uuid.UUID]domain.UserRef, len(refs))
	for _, r := range refs {
		byID[r.ID] = r
	}
	for _, t := range tours {
		t.Guides.Populated = make([]domain.UserRef, 0, len(t.Guides.IDs))
		for _, id := range t.Guides.IDs {
			if r, ok := byID[id]; ok {
				t.Guides.Populated = append(t.Guides.Populated, r)
			}
		}
	}
	return nil
}

// NewUserStore stores users. Deactivated users are invisible to every read.
func NewUserStore(db *gorm.DB, logger *slog.Logger) *UserStore {
	return NewStore[domain.User, *domain.User](db, Descriptor[domain.User]{
		Name:   "user",
		Fields: UserFields,
		Scope: func(tx *gorm.DB) *gorm.DB {
			return tx.Where("active = ?", true)
		},
		Protected: []string{
			"password_hash", "password_changed_at", "password_reset_token",
			"password_reset_expires", "active",
		},
	}, logger)
}

// NewReviewStore stores reviews. A review never moves to another tour or user.
func NewReviewStore(db *gorm.DB, logger *slog.Logger) *ReviewStore {
	return NewStore[domain.Review, *domain.Review](db, Descriptor[domain.Review]{
		Name:   "review",
		Fields: ReviewFields,
		Populate: map[string]Population[domain.Review]{
			"user": {Preload: func(tx *gorm.DB) *gorm.DB {
				return tx.Preload("User", selectUserRef)
			}},
		},
		Immutable: []string{"tour_id", "user_id"},
	}, logger)
}

// NewBookingStore stores bookings.
func NewBookingStore(db *gorm.DB, logger *slog.Logger) *BookingStore {
	return NewStore[domain.Booking, *domain.Booking](db, Descriptor[domain.Booking]{
		Name:   "booking",
		Fields: BookingFields,
		Populate: map[string]Population[domain.Booking]{
			"user": {Preload: func(tx *gorm.DB) *gorm.DB {
				return tx.Preload("User", selectUserRef)
			}},
			"tour": {Preload: func(tx *gorm.DB) *gorm.DB {
				return tx.Preload("Tour", func(db *gorm.DB) *gorm.DB {
					return db.Select("id", "name", "slug", "image_cover", "price")
				})
			}},
		},
	}, logger)
}
