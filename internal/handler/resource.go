package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/aryan0dhankhar/natours/internal/domain"
	"github.com/aryan0dhankhar/natours/internal/query"
)

// crudService is the generic factory surface the resource handler drives.
type crudService[T any, PT interface {
	*T
	domain.Entity
}] interface {
	Create(ctx context.Context, e PT) (PT, error)
	Get(ctx context.Context, id string, populate ...string) (PT, error)
	List(ctx context.Context, where map[string]any, params url.Values, populate ...string) ([]T, query.Query, error)
	Update(ctx context.Context, id string, patch []byte) (PT, error)
	Delete(ctx context.Context, id string) error
}

// Resource serves the five CRUD endpoints of one entity.
type Resource[T any, PT interface {
	*T
	domain.Entity
}] struct {
	svc      crudService[T, PT]
	writeErr func(w http.ResponseWriter, r *http.Request, err error)
	// populate applies to single reads.
	populate []string
	// scope returns the ambient filter of a nested route, e.g. the tour
	// of /tours/{tourId}/reviews.
	scope func(r *http.Request) (map[string]any, error)
	// prepare fills request-derived fields on a new entity.
	prepare func(r *http.Request, e PT) error
	logger  *slog.Logger
}

func NewResource[T any, PT interface {
	*T
	domain.Entity
}](svc crudService[T, PT], errs *Errors, logger *slog.Logger) *Resource[T, PT] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resource[T, PT]{svc: svc, writeErr: errs.Write, logger: logger}
}

// Populate sets the population directives of single reads.
func (h *Resource[T, PT]) Populate(names ...string) *Resource[T, PT] {
	h.populate = names
	return h
}

// Scoped sets the ambient filter of a nested route.
func (h *Resource[T, PT]) Scoped(scope func(r *http.Request) (map[string]any, error)) *Resource[T, PT] {
	h.scope = scope
	return h
}

// Prepared sets the hook that fills request-derived fields on create.
func (h *Resource[T, PT]) Prepared(prepare func(r *http.Request, e PT) error) *Resource[T, PT] {
	h.prepare = prepare
	return h
}

// Create handles POST /.
func (h *Resource[T, PT]) Create(w http.ResponseWriter, r *http.Request) {
	e := PT(new(T))
	if err := decodeJSON(r, e); err != nil {
		h.writeErr(w, r, err)
		return
	}
	if h.prepare != nil {
		if err := h.prepare(r, e); err != nil {
			h.writeErr(w, r, err)
			return
		}
	}
	created, err := h.svc.Create(r.Context(), e)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, map[string]any{"data": created})
}

// Get handles GET /{id}.
func (h *Resource[T, PT]) Get(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"), h.populate...)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"data": e})
}

// List handles GET / with the filter, sort, fields and page parameters.
func (h *Resource[T, PT]) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, r.URL.Query())
}

// Alias serves List with fixed query parameters that override the caller's.
func (h *Resource[T, PT]) Alias(fixed url.Values) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.list(w, r, query.Alias(r.URL.Query(), fixed))
	}
}

func (h *Resource[T, PT]) list(w http.ResponseWriter, r *http.Request, params url.Values) {
	var where map[string]any
	if h.scope != nil {
		var err error
		if where, err = h.scope(r); err != nil {
			h.writeErr(w, r, err)
			return
		}
	}
	items, q, err := h.svc.List(r.Context(), where, params)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	var out any = items
	if len(q.Fields.Include) > 0 || len(q.Fields.Exclude) > 0 {
		if out, err = query.Project(items, q.Fields); err != nil {
			h.writeErr(w, r, err)
			return
		}
	}
	writeList(w, len(items), out)
}

// Update handles PATCH /{id} with a JSON merge body.
func (h *Resource[T, PT]) Update(w http.ResponseWriter, r *http.Request) {
	patch, err := readBody(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	if len(patch) > 0 && !json.Valid(patch) {
		h.writeErr(w, r, domain.Validation("Invalid input data. Malformed JSON"))
		return
	}
	e, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"data": e})
}

// Delete handles DELETE /{id}.
func (h *Resource[T, PT]) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.logger.Debug("resource deleted", slog.String("id", id))
	w.WriteHeader(http.StatusNoContent)
}
