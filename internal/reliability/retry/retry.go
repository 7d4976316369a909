package retry

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

// Config holds retry strategy configuration
type Config struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	// Jitter spreads each wait over [backoff*(1-Jitter), backoff]. Zero waits
	// exactly the computed backoff.
	Jitter float64
	// Permanent reports errors that must not be retried. Nil retries all.
	Permanent func(error) bool
}

// DefaultConfig returns the policy used for outbound calls.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:       3,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            0.2,
	}
}

// Retryable is a function that can be retried
type Retryable[T any] func(ctx context.Context) (T, error)

// Do runs fn until it succeeds, returns a permanent error, runs out of
// attempts or ctx ends. The last error is wrapped with op.
func Do[T any](ctx context.Context, cfg *Config, log *slog.Logger, op string, fn Retryable[T]) (T, error) {
	var zero T
	if log == nil {
		log = slog.Default()
	}
	attempts := max(cfg.MaxAttempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if cfg.Permanent != nil && cfg.Permanent(err) {
			return zero, err
		}
		lastErr = err
		if attempt == attempts {
			break
		}

		wait := cfg.wait(attempt - 1)
		log.Warn("operation failed, retrying",
			slog.String("operation", op),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.Duration("backoff", wait),
			slog.String("error", err.Error()),
		)
		if err := sleep(ctx, wait); err != nil {
			return zero, err
		}
	}
	return zero, fmt.Errorf("%s failed after %d attempts: %w", op, attempts, lastErr)
}

// backoff is the capped exponential delay before retry n (zero based).
func (c *Config) backoff(n int) time.Duration {
	d := float64(c.InitialBackoff)
	for range n {
		d *= c.BackoffMultiplier
		if d >= float64(c.MaxBackoff) {
			return c.MaxBackoff
		}
	}
	return min(time.Duration(d), c.MaxBackoff)
}

func (c *Config) wait(n int) time.Duration {
	d := c.backoff(n)
	if c.Jitter <= 0 || d <= 0 {
		return d
	}
	spread := float64(d) * min(c.Jitter, 1)
	return d - time.Duration(rand.Float64()*spread)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
