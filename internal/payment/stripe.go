package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/aryan0dhankhar/natours/internal/domain"
)

// SignatureHeader carries the webhook signature.
const SignatureHeader = "Stripe-Signature"

// CheckoutRequest describes a one-tour checkout.
type CheckoutRequest struct {
	Tour       *domain.Tour
	User       *domain.User
	SuccessURL string
	CancelURL  string
	// ImageURL is the absolute URL of the tour cover shown on the checkout page.
	ImageURL string
}

// Session is a created checkout session.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CompletedCheckout is the data of a checkout.session.completed event.
type CompletedCheckout struct {
	CustomerEmail string
	TourID        string
	// Amount is in major currency units.
	Amount float64
}

// Gateway talks to Stripe.
type Gateway struct {
	api           *client.API
	currency      string
	webhookSecret string
	logger        *slog.Logger
}

func NewGateway(secretKey, webhookSecret, currency string, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	if currency == "" {
		currency = "aud"
	}
	return &Gateway{
		api:           client.New(secretKey, nil),
		currency:      currency,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// CreateCheckoutSession opens a hosted checkout for one seat on the tour.
// The tour id travels as the client reference and comes back in the webhook.
func (g *Gateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error) {
	product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name:        stripe.String(req.Tour.Name + " Tour"),
		Description: stripe.String(req.Tour.Summary),
	}
	if req.ImageURL != "" {
		product.Images = stripe.StringSlice([]string{req.ImageURL})
	}
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		CustomerEmail:      stripe.String(req.User.Email),
		ClientReferenceID:  stripe.String(req.Tour.ID.String()),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(g.currency),
				UnitAmount:  stripe.Int64(int64(math.Round(req.Tour.Price * 100))),
				ProductData: product,
			},
		}},
	}
	params.Context = ctx

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	g.logger.Info("checkout session created",
		slog.String("session_id", s.ID),
		slog.String("tour_id", req.Tour.ID.String()),
	)
	return &Session{ID: s.ID, URL: s.URL}, nil
}

// ParseWebhook verifies the signature of a raw webhook body. It returns nil
// without error for verified events other than checkout.session.completed.
func (g *Gateway) ParseWebhook(payload []byte, signature string) (*CompletedCheckout, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, domain.Errorf(domain.KindPaymentVerification, "Webhook error: %s", err.Error()).Wrap(err)
	}
	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		g.logger.Debug("webhook event ignored", slog.String("type", string(event.Type)))
		return nil, nil
	}

	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return nil, domain.Errorf(domain.KindPaymentVerification, "Webhook error: %s", err.Error()).Wrap(err)
	}
	return &CompletedCheckout{
		CustomerEmail: s.CustomerEmail,
		TourID:        s.ClientReferenceID,
		Amount:        float64(s.AmountTotal) / 100,
	}, nil
}
