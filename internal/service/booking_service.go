package service

import (
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/aryan0dhankhar/natours/internal/domain"
	"github.com/aryan0dhankhar/natours/internal/payment"
)

// PaymentGateway creates checkout sessions and verifies webhooks.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (*payment.Session, error)
	ParseWebhook(payload []byte, signature string) (*payment.CompletedCheckout, error)
}

// CheckoutURLs are the absolute URLs handed to the payment page.
type CheckoutURLs struct {
	Success string
	Cancel  string
	Image   string
}

// BookingService is the booking CRUD factory plus checkout.
type BookingService struct {
	*Factory[domain.Booking, *domain.Booking]
	bookings domain.BookingRepository
	tours    domain.TourRepository
	users    domain.UserRepository
	payments PaymentGateway
	onBooked func(*domain.Booking)
	logger   *slog.Logger
}

func NewBookingService(
	store EntityStore[domain.Booking, *domain.Booking],
	bookings domain.BookingRepository,
	tours domain.TourRepository,
	users domain.UserRepository,
	payments PaymentGateway,
	v *validator.Validate,
	logger *slog.Logger,
) *BookingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookingService{
		Factory: NewFactory(store, FactoryConfig[domain.Booking]{
			ReadPopulate: []string{"user", "tour"},
		}, v, logger),
		bookings: bookings,
		tours:    tours,
		users:    users,
		payments: payments,
		logger:   logger,
	}
}

// OnBooked registers a callback for bookings created from payments.
func (s *BookingService) OnBooked(fn func(*domain.Booking)) {
	s.onBooked = fn
}

// Tour loads the tour about to be booked.
func (s *BookingService) Tour(ctx context.Context, tourID string) (*domain.Tour, error) {
	id, err := parseRef(tourID)
	if err != nil {
		return nil, err
	}
	return s.tours.GetByID(ctx, id)
}

// CheckoutSession opens a payment session for the user on the tour.
func (s *BookingService) CheckoutSession(ctx context.Context, tour *domain.Tour, user *domain.User, urls CheckoutURLs) (*payment.Session, error) {
	return s.payments.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		Tour:       tour,
		User:       user,
		SuccessURL: urls.Success,
		CancelURL:  urls.Cancel,
		ImageURL:   urls.Image,
	})
}

// HandleWebhook verifies a raw webhook body and records the booking of a
// completed checkout. Nothing is written when verification fails.
func (s *BookingService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	done, err := s.payments.ParseWebhook(payload, signature)
	if err != nil {
		s.logger.Warn("webhook rejected", slog.String("error", err.Error()))
		return err
	}
	if done == nil {
		return nil
	}

	tourID, err := parseRef(done.TourID)
	if err != nil {
		return err
	}
	user, err := s.users.GetByEmail(ctx, done.CustomerEmail)
	if err != nil {
		return err
	}
	booking := &domain.Booking{
		TourID: tourID,
		UserID: user.ID,
		Price:  done.Amount,
		Paid:   true,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		return err
	}
	s.logger.Info("booking created",
		slog.String("booking_id", booking.ID.String()),
		slog.String("tour_id", tourID.String()),
		slog.String("user_id", user.ID.String()),
	)
	if s.onBooked != nil {
		s.onBooked(booking)
	}
	return nil
}

// Mine lists the caller's bookings, newest first.
func (s *BookingService) Mine(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	return s.bookings.ListForUser(ctx, userID)
}

// BookedTours returns the tours the user has booked.
func (s *BookingService) BookedTours(ctx context.Context, userID uuid.UUID) ([]domain.Tour, error) {
	ids, err := s.bookings.TourIDsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.Tour{}, nil
	}
	return s.tours.ListByIDs(ctx, ids)
}

func parseRef(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.Errorf(domain.KindMalformedReference, "Invalid id: %s", raw)
	}
	return id, nil
}
