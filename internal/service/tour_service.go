package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/datatypes"

	"github.com/aryan0dhankhar/natours/internal/domain"
	"github.com/aryan0dhankhar/natours/internal/query"
	"github.com/aryan0dhankhar/natours/pkg/cache"
)

const (
	statsCacheKey  = "tours:stats"
	statsMinRating = 4.5
)

// TourDistance is one row of the distances report.
type TourDistance struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Distance float64   `json:"distance"`
}

// TourService is the tour CRUD factory plus the tour reports.
type TourService struct {
	*Factory[domain.Tour, *domain.Tour]
	repo   domain.TourRepository
	stats  *cache.Cache[[]domain.TourStat]
	logger *slog.Logger
}

// NewTourService wires the tour factory. Stats are cached for statsTTL and
// dropped on every tour write.
func NewTourService(store EntityStore[domain.Tour, *domain.Tour], repo domain.TourRepository, multiValue []string, statsTTL time.Duration, v *validator.Validate, logger *slog.Logger) *TourService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &TourService{repo: repo, stats: cache.New[[]domain.TourStat](statsTTL), logger: logger}
	invalidate := func(context.Context, *domain.Tour) error {
		s.InvalidateStats()
		return nil
	}
	s.Factory = NewFactory(store, FactoryConfig[domain.Tour]{
		Hooks: Hooks[domain.Tour]{
			BeforeSave:  s.beforeSave,
			AfterCreate: invalidate,
			AfterUpdate: invalidate,
			AfterDelete: invalidate,
		},
		Query:        query.Options{MultiValue: multiValue},
		ReadPopulate: []string{"guides"},
	}, v, logger)
	return s
}

func (s *TourService) beforeSave(_ context.Context, t *domain.Tour, creating bool) error {
	t.Name = strings.TrimSpace(t.Name)
	t.Summary = strings.TrimSpace(t.Summary)
	t.Description = strings.TrimSpace(t.Description)
	t.Slug = slug.Make(t.Name)
	if creating {
		t.RatingsAverage = domain.DefaultRatingsAverage
		t.RatingsQuantity = domain.DefaultRatingsQuantity
	}
	if t.StartLocation.Data().Type == "" && len(t.StartLocation.Data().Coordinates) > 0 {
		loc := t.StartLocation.Data()
		loc.Type = "Point"
		t.StartLocation = datatypes.NewJSONType(loc)
	}
	return nil
}

// InvalidateStats drops the cached statistics.
func (s *TourService) InvalidateStats() {
	s.stats.Invalidate("tours:")
}

// Stats groups highly rated tours by difficulty.
func (s *TourService) Stats(ctx context.Context) ([]domain.TourStat, error) {
	return s.stats.GetOrLoad(statsCacheKey, func() ([]domain.TourStat, error) {
		return s.repo.Stats(ctx, statsMinRating)
	})
}

// MonthlyPlan lists how many tours start in each month of year.
func (s *TourService) MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlan, error) {
	if year < 1970 || year > 9999 {
		return nil, domain.Errorf(domain.KindValidation, "Invalid year: %d", year)
	}
	return s.repo.MonthlyPlan(ctx, year)
}

// GetBySlug loads a tour for its detail page.
func (s *TourService) GetBySlug(ctx context.Context, tourSlug string) (*domain.Tour, error) {
	t, err := s.repo.GetBySlug(ctx, tourSlug)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return nil, domain.NotFound("There is no tour with that name.")
		}
		return nil, err
	}
	return t, nil
}

// Within returns the tours starting within distance of latlng. unit is
// "mi" or "km".
func (s *TourService) Within(ctx context.Context, distance float64, latlng, unit string) ([]domain.Tour, error) {
	lat, lng, err := ParseLatLng(latlng)
	if err != nil {
		return nil, err
	}
	if distance <= 0 {
		return nil, domain.Validation("Distance must be a positive number.")
	}
	radius := distance / earthRadius(unit)

	locs, err := s.repo.Locations(ctx)
	if err != nil {
		return nil, err
	}
	var ids []uuid.UUID
	for _, l := range locs {
		tlat, tlng, ok := l.StartLocation.LatLng()
		if !ok {
			continue
		}
		if centralAngle(lat, lng, tlat, tlng) <= radius {
			ids = append(ids, l.ID)
		}
	}
	if len(ids) == 0 {
		return []domain.Tour{}, nil
	}
	return s.repo.ListByIDs(ctx, ids)
}

// Distances lists every tour with its distance from latlng, nearest first.
func (s *TourService) Distances(ctx context.Context, latlng, unit string) ([]TourDistance, error) {
	lat, lng, err := ParseLatLng(latlng)
	if err != nil {
		return nil, err
	}
	locs, err := s.repo.Locations(ctx)
	if err != nil {
		return nil, fmt.Errorf("tour locations: %w", err)
	}
	multiplier := distanceMultiplier(unit)
	out := make([]TourDistance, 0, len(locs))
	for _, l := range locs {
		tlat, tlng, ok := l.StartLocation.LatLng()
		if !ok {
			continue
		}
		meters := centralAngle(lat, lng, tlat, tlng) * earthRadiusKm * 1000
		out = append(out, TourDistance{ID: l.ID, Name: l.Name, Distance: meters * multiplier})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out, nil
}
