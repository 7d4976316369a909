package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/natours/internal/observability/metrics"
	"github.com/aryan0dhankhar/natours/internal/reliability/retry"
)

// ResetTokenStore clears password reset tokens whose expiry has passed.
type ResetTokenStore interface {
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

// CleanupWorker periodically clears expired password reset tokens. Expired
// tokens are already rejected on use; the sweep keeps the columns tidy.
type CleanupWorker struct {
	store    ResetTokenStore
	logger   *slog.Logger
	interval time.Duration
	retry    *retry.Config
	now      func() time.Time
}

// NewCleanupWorker creates a new cleanup worker
func NewCleanupWorker(store ResetTokenStore, logger *slog.Logger, interval time.Duration) *CleanupWorker {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &CleanupWorker{
		store:    store,
		logger:   logger,
		interval: interval,
		retry:    retry.DefaultConfig(),
		now:      time.Now,
	}
}

// Start runs the sweep on every tick until ctx is cancelled.
func (w *CleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("cleanup worker started", slog.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep clears the expired tokens once and returns how many were cleared.
func (w *CleanupWorker) Sweep(ctx context.Context) int64 {
	now := w.now()
	n, err := retry.Do(ctx, w.retry, w.logger, "clear_expired_reset_tokens", func(ctx context.Context) (int64, error) {
		return w.store.ClearExpiredResetTokens(ctx, now)
	})
	if err != nil {
		w.logger.Error("failed to clear expired reset tokens", slog.String("error", err.Error()))
		return 0
	}
	if n > 0 {
		metrics.AddResetTokensCleared(n)
		w.logger.Info("expired reset tokens cleared", slog.Int64("count", n))
	}
	return n
}
