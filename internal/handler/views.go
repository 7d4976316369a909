package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aryan0dhankhar/natours/internal/domain"
	"github.com/aryan0dhankhar/natours/internal/query"
	"github.com/aryan0dhankhar/natours/internal/security/auth"
	"github.com/aryan0dhankhar/natours/internal/service"
	"github.com/aryan0dhankhar/natours/internal/views"
)

// Catalog is what the pages read about tours.
type Catalog interface {
	List(ctx context.Context, where map[string]any, params url.Values, populate ...string) ([]domain.Tour, query.Query, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Tour, error)
}

// BookedTours lists the tours a user paid for.
type BookedTours interface {
	BookedTours(ctx context.Context, userID uuid.UUID) ([]domain.Tour, error)
}

// ViewHandler serves the server-rendered pages.
type ViewHandler struct {
	catalog  Catalog
	booked   BookedTours
	profiles Profiles
	render   *views.Renderer
	writeErr func(w http.ResponseWriter, r *http.Request, err error)
	logger   *slog.Logger
}

func NewViewHandler(catalog Catalog, booked BookedTours, profiles Profiles, renderer *views.Renderer, errs *Errors, logger *slog.Logger) *ViewHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ViewHandler{
		catalog:  catalog,
		booked:   booked,
		profiles: profiles,
		render:   renderer,
		writeErr: errs.Write,
		logger:   logger,
	}
}

func (h *ViewHandler) page(r *http.Request, title string) views.Page {
	return views.Page{
		Title: title,
		User:  auth.PrincipalFrom(r.Context()),
		Alert: views.AlertFor(r.URL.Query().Get("alert")),
	}
}

// Overview handles GET /.
func (h *ViewHandler) Overview(w http.ResponseWriter, r *http.Request) {
	tours, _, err := h.catalog.List(r.Context(), nil, url.Values{"sort": {"-createdAt"}})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	p := h.page(r, "All Tours")
	p.Tours = tours
	h.render.Render(w, http.StatusOK, views.PageOverview, p)
}

// Tour handles GET /tour/{slug}.
func (h *ViewHandler) Tour(w http.ResponseWriter, r *http.Request) {
	tour, err := h.catalog.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	p := h.page(r, tour.Name+" Tour")
	p.Tour = tour
	h.render.Render(w, http.StatusOK, views.PageTour, p)
}

// Login handles GET /login.
func (h *ViewHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, http.StatusOK, views.PageLogin, h.page(r, "Log into your account"))
}

// Signup handles GET /signup.
func (h *ViewHandler) Signup(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, http.StatusOK, views.PageSignup, h.page(r, "Create your account"))
}

// Account handles GET /me.
func (h *ViewHandler) Account(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, http.StatusOK, views.PageAccount, h.page(r, "Your account"))
}

// MyTours handles GET /my-tours.
func (h *ViewHandler) MyTours(w http.ResponseWriter, r *http.Request) {
	p := h.page(r, "My Tours")
	if p.User == nil {
		h.writeErr(w, r, domain.Unauthenticated("You are not logged in! Please log in to get access."))
		return
	}
	tours, err := h.booked.BookedTours(r.Context(), p.User.ID)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	p.Tours = tours
	h.render.Render(w, http.StatusOK, views.PageOverview, p)
}

// SubmitUserData handles POST /submit-user-data from the account form.
func (h *ViewHandler) SubmitUserData(w http.ResponseWriter, r *http.Request) {
	p := h.page(r, "Your account")
	if p.User == nil {
		h.writeErr(w, r, domain.Unauthenticated("You are not logged in! Please log in to get access."))
		return
	}
	if err := r.ParseForm(); err != nil {
		h.writeErr(w, r, domain.Validation("Invalid form data").Wrap(err))
		return
	}
	name, email := r.PostFormValue("name"), r.PostFormValue("email")
	updated, err := h.profiles.UpdateMe(r.Context(), p.User.ID, service.ProfileUpdate{Name: &name, Email: &email})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	p.User = updated
	h.render.Render(w, http.StatusOK, views.PageAccount, p)
}
