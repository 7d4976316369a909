package domain

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Difficulty of a tour.
type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyMedium    Difficulty = "medium"
	DifficultyDifficult Difficulty = "difficult"
)

// Default aggregate rating for a tour without reviews.
const (
	DefaultRatingsAverage  = 4.5
	DefaultRatingsQuantity = 0
)

// GeoPoint is a GeoJSON point. Coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
	Address     string    `json:"address,omitempty"`
	Description string    `json:"description,omitempty"`
	Day         int       `json:"day,omitempty"`
}

// LatLng returns the point as latitude, longitude.
func (p GeoPoint) LatLng() (lat, lng float64, ok bool) {
	if len(p.Coordinates) != 2 {
		return 0, 0, false
	}
	return p.Coordinates[1], p.Coordinates[0], true
}

// Tour is a bookable listing. RatingsAverage and RatingsQuantity are owned
// by the rating aggregator and never written from request payloads.
type Tour struct {
	Model
	Name            string                         `json:"name" validate:"required,min=10,max=40"`
	Slug            string                         `json:"slug"`
	Duration        int                            `json:"duration" validate:"required,gt=0"`
	MaxGroupSize    int                            `json:"maxGroupSize" validate:"required,gt=0"`
	Difficulty      Difficulty                     `json:"difficulty" validate:"required,oneof=easy medium difficult"`
	RatingsAverage  float64                        `json:"ratingsAverage" gorm:"default:4.5"`
	RatingsQuantity int                            `json:"ratingsQuantity" gorm:"default:0"`
	Price           float64                        `json:"price" validate:"required,gt=0"`
	PriceDiscount   float64                        `json:"priceDiscount,omitempty" validate:"omitempty,gte=0,ltfield=Price"`
	Summary         string                         `json:"summary" validate:"required"`
	Description     string                         `json:"description,omitempty"`
	ImageCover      string                         `json:"imageCover" validate:"required"`
	Images          datatypes.JSONSlice[string]    `json:"images" gorm:"type:jsonb"`
	StartDates      datatypes.JSONSlice[time.Time] `json:"startDates" gorm:"type:jsonb"`
	SecretTour      bool                           `json:"secretTour,omitempty"`
	StartLocation   datatypes.JSONType[GeoPoint]   `json:"startLocation" gorm:"type:jsonb"`
	Locations       datatypes.JSONSlice[GeoPoint]  `json:"locations" gorm:"type:jsonb"`
	Guides          GuideRefs                      `json:"guides" gorm:"type:uuid[]"`
	Reviews         []Review                       `json:"reviews,omitempty" gorm:"foreignKey:TourID"`
}

// DurationWeeks is derived, never stored.
func (t Tour) DurationWeeks() float64 {
	return math.Round(float64(t.Duration)/7*100) / 100
}

// MarshalJSON adds the derived durationWeeks field.
func (t Tour) MarshalJSON() ([]byte, error) {
	type plain Tour
	return json.Marshal(struct {
		plain
		DurationWeeks float64 `json:"durationWeeks"`
	}{plain(t), t.DurationWeeks()})
}

// TourRef is the populated view of a tour embedded in bookings.
type TourRef struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	ImageCover string    `json:"imageCover"`
	Price      float64   `json:"price"`
}

func (TourRef) TableName() string { return "tours" }

// GuideRefs stores guide ids in a uuid[] column. Populated is filled when
// guides are populated on read and then replaces the ids in JSON output.
type GuideRefs struct {
	IDs       []uuid.UUID
	Populated []UserRef
}

func (g GuideRefs) Value() (driver.Value, error) {
	ids := make(pq.StringArray, len(g.IDs))
	for i, id := range g.IDs {
		ids[i] = id.String()
	}
	return ids.Value()
}

func (g *GuideRefs) Scan(src any) error {
	var raw pq.StringArray
	if err := raw.Scan(src); err != nil {
		return err
	}
	g.IDs = make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return fmt.Errorf("scan guide id %q: %w", s, err)
		}
		g.IDs = append(g.IDs, id)
	}
	return nil
}

func (g GuideRefs) MarshalJSON() ([]byte, error) {
	if g.Populated != nil {
		return json.Marshal(g.Populated)
	}
	if g.IDs == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(g.IDs)
}

// UnmarshalJSON accepts a list of ids or a list of objects carrying an id.
func (g *GuideRefs) UnmarshalJSON(data []byte) error {
	var ids []uuid.UUID
	if err := json.Unmarshal(data, &ids); err == nil {
		g.IDs, g.Populated = ids, nil
		return nil
	}
	var refs []UserRef
	if err := json.Unmarshal(data, &refs); err != nil {
		return fmt.Errorf("guides must be a list of user ids")
	}
	g.IDs = make([]uuid.UUID, len(refs))
	for i, r := range refs {
		g.IDs[i] = r.ID
	}
	g.Populated = nil
	return nil
}

// TourStat is one difficulty bucket of the tour statistics report.
type TourStat struct {
	Difficulty string  `json:"_id"`
	NumTours   int     `json:"numTours"`
	NumRatings int     `json:"numRatings"`
	AvgRating  float64 `json:"avgRating"`
	AvgPrice   float64 `json:"avgPrice"`
	MinPrice   float64 `json:"minPrice"`
	MaxPrice   float64 `json:"maxPrice"`
}

// MonthlyPlan lists the tours starting in one month of a year.
type MonthlyPlan struct {
	Month         int      `json:"month"`
	NumTourStarts int      `json:"numTourStarts"`
	Tours         []string `json:"tours"`
}

// TourLocation is the minimal projection used for geospatial queries.
type TourLocation struct {
	ID            uuid.UUID
	Name          string
	StartLocation GeoPoint
}

// TourRepository holds the tour queries the generic store does not cover.
type TourRepository interface {
	Stats(ctx context.Context, minRating float64) ([]TourStat, error)
	MonthlyPlan(ctx context.Context, year int) ([]MonthlyPlan, error)
	Locations(ctx context.Context) ([]TourLocation, error)
	GetBySlug(ctx context.Context, slug string) (*Tour, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Tour, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]Tour, error)
	SetRating(ctx context.Context, id uuid.UUID, quantity int, average float64) error
}
