package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aryan0dhankhar/natours/internal/domain"
	"github.com/aryan0dhankhar/natours/internal/payment"
	"github.com/aryan0dhankhar/natours/internal/security/auth"
	"github.com/aryan0dhankhar/natours/internal/service"
)

// maxWebhookBytes caps webhook payloads.
const maxWebhookBytes = 64 << 10

// Checkouts is the payment surface of the booking service.
type Checkouts interface {
	Tour(ctx context.Context, tourID string) (*domain.Tour, error)
	CheckoutSession(ctx context.Context, tour *domain.Tour, user *domain.User, urls service.CheckoutURLs) (*payment.Session, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	Mine(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error)
}

// BookingHandler serves checkout and the payment webhook.
type BookingHandler struct {
	checkouts Checkouts
	errs      *Errors
	logger    *slog.Logger
}

func NewBookingHandler(checkouts Checkouts, errs *Errors, logger *slog.Logger) *BookingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookingHandler{checkouts: checkouts, errs: errs, logger: logger}
}

// CheckoutSession handles GET /bookings/checkout-session/{tourId}.
func (h *BookingHandler) CheckoutSession(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFrom(r.Context())
	if p == nil {
		h.errs.Write(w, r, domain.Unauthenticated("You are not logged in! Please log in to get access."))
		return
	}
	tour, err := h.checkouts.Tour(r.Context(), chi.URLParam(r, "tourId"))
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	base := baseURL(r)
	session, err := h.checkouts.CheckoutSession(r.Context(), tour, p, service.CheckoutURLs{
		Success: base + "/my-tours?alert=booking",
		Cancel:  base + "/tour/" + tour.Slug,
		Image:   base + "/img/tours/" + tour.ImageCover,
	})
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "session": session})
}

// Mine handles GET /bookings/mine.
func (h *BookingHandler) Mine(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFrom(r.Context())
	if p == nil {
		h.errs.Write(w, r, domain.Unauthenticated("You are not logged in! Please log in to get access."))
		return
	}
	bookings, err := h.checkouts.Mine(r.Context(), p.ID)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	writeList(w, len(bookings), bookings)
}

// Webhook handles POST /webhook-checkout. The body is read raw because the
// signature covers its exact bytes.
func (h *BookingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		h.errs.WriteJSON(w, r, bodyError(err))
		return
	}
	if err := h.checkouts.HandleWebhook(r.Context(), payload, r.Header.Get(payment.SignatureHeader)); err != nil {
		h.errs.WriteJSON(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"received": true})
}
