package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aryan0dhankhar/natours/internal/domain"
	"github.com/aryan0dhankhar/natours/internal/repository"
)

// ReviewScope limits review lists to the tour of /tours/{tourId}/reviews.
func ReviewScope(r *http.Request) (map[string]any, error) {
	raw := chi.URLParam(r, "tourId")
	if raw == "" {
		return nil, nil
	}
	id, err := repository.ParseID(raw)
	if err != nil {
		return nil, err
	}
	return map[string]any{"tour_id": id}, nil
}

// PrepareReview takes the tour from the nested route when present.
func PrepareReview(r *http.Request, rv *domain.Review) error {
	raw := chi.URLParam(r, "tourId")
	if raw == "" {
		return nil
	}
	id, err := repository.ParseID(raw)
	if err != nil {
		return err
	}
	rv.TourID = id
	return nil
}
