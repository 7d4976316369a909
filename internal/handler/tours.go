package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/aryan0dhankhar/natours/internal/domain"
	"github.com/aryan0dhankhar/natours/internal/service"
)

// TourQueries is the tour surface beyond plain CRUD.
type TourQueries interface {
	Stats(ctx context.Context) ([]domain.TourStat, error)
	MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlan, error)
	Within(ctx context.Context, distance float64, latlng, unit string) ([]domain.Tour, error)
	Distances(ctx context.Context, latlng, unit string) ([]service.TourDistance, error)
}

// TopCheap is the fixed query of GET /tours/top-5-cheap.
var TopCheap = url.Values{
	"limit":  {"5"},
	"sort":   {"-ratingsAverage,price"},
	"fields": {"name,price,ratingsAverage,summary,difficulty"},
}

// TourHandler serves the aggregate and geospatial tour endpoints.
type TourHandler struct {
	tours    TourQueries
	writeErr func(w http.ResponseWriter, r *http.Request, err error)
	logger   *slog.Logger
}

func NewTourHandler(tours TourQueries, errs *Errors, logger *slog.Logger) *TourHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TourHandler{tours: tours, writeErr: errs.Write, logger: logger}
}

// Stats handles GET /tours/tour-stats.
func (h *TourHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.tours.Stats(r.Context())
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"stats": stats})
}

// MonthlyPlan handles GET /tours/monthly-plan/{year}.
func (h *TourHandler) MonthlyPlan(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "year")
	year, err := strconv.Atoi(raw)
	if err != nil {
		h.writeErr(w, r, domain.Errorf(domain.KindValidation, "Invalid year: %s", raw))
		return
	}
	plan, err := h.tours.MonthlyPlan(r.Context(), year)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"plan": plan})
}

// Within handles GET /tours/tours-within/{distance}/center/{latlng}/unit/{unit}.
func (h *TourHandler) Within(w http.ResponseWriter, r *http.Request) {
	unit, err := distanceUnit(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	raw := chi.URLParam(r, "distance")
	distance, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		h.writeErr(w, r, domain.Errorf(domain.KindValidation, "Invalid distance: %s", raw))
		return
	}
	tours, err := h.tours.Within(r.Context(), distance, chi.URLParam(r, "latlng"), unit)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeList(w, len(tours), tours)
}

// Distances handles GET /tours/distances/{latlng}/unit/{unit}.
func (h *TourHandler) Distances(w http.ResponseWriter, r *http.Request) {
	unit, err := distanceUnit(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	distances, err := h.tours.Distances(r.Context(), chi.URLParam(r, "latlng"), unit)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"data": distances})
}

func distanceUnit(r *http.Request) (string, error) {
	switch unit := chi.URLParam(r, "unit"); unit {
	case "mi", "km":
		return unit, nil
	default:
		return "", domain.Errorf(domain.KindValidation, "Invalid unit: %s. Please use mi or km.", unit)
	}
}
