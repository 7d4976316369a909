package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/natours/internal/domain"
	"github.com/aryan0dhankhar/natours/internal/observability/metrics"
	"github.com/aryan0dhankhar/natours/internal/reliability/circuitbreaker"
	"github.com/aryan0dhankhar/natours/internal/reliability/retry"
)

// Mailer renders account emails and sends them through a transport guarded
// by retries and a circuit breaker.
type Mailer struct {
	from      string
	transport Transport
	templates *renderer
	breaker   *circuitbreaker.CircuitBreaker
	retry     *retry.Config
	logger    *slog.Logger
}

func NewMailer(from string, transport Transport, logger *slog.Logger) (*Mailer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r, err := newRenderer()
	if err != nil {
		return nil, err
	}
	cfg := retry.DefaultConfig()
	cfg.MaxBackoff = 2 * time.Second
	cfg.Permanent = func(err error) bool { return errors.Is(err, circuitbreaker.ErrOpen) }

	breaker := circuitbreaker.New(circuitbreaker.Settings{
		Name:             "mail",
		FailureThreshold: 5,
		SuccessThreshold: 1,
		Cooldown:         30 * time.Second,
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	return &Mailer{
		from:      from,
		transport: transport,
		templates: r,
		breaker:   breaker,
		retry:     cfg,
		logger:    logger,
	}, nil
}

// Welcome greets a new user with a link to their profile.
func (m *Mailer) Welcome(ctx context.Context, u *domain.User, url string) error {
	return m.send(ctx, TemplateWelcome, u, url)
}

// PasswordReset sends the reset link.
func (m *Mailer) PasswordReset(ctx context.Context, u *domain.User, url string) error {
	return m.send(ctx, TemplatePasswordReset, u, url)
}

func (m *Mailer) send(ctx context.Context, template string, u *domain.User, url string) error {
	subject, html, text, err := m.templates.render(template, Data{FirstName: firstName(u.Name), URL: url})
	if err != nil {
		return err
	}
	msg := Message{From: m.from, To: u.Email, Subject: subject, HTML: html, Text: text}

	_, err = retry.Do(ctx, m.retry, m.logger, "send "+template+" email", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, m.breaker.Execute(func() error {
			return m.transport.Send(ctx, msg)
		})
	})
	metrics.ObserveEmail(template, metrics.Result(err))
	if err != nil {
		return fmt.Errorf("send %s email: %w", template, err)
	}
	return nil
}
