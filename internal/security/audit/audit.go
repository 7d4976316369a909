package audit

import (
	"context"
	"log/slog"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Actions recorded in the audit trail.
const (
	ActionLogin          = "login"
	ActionLogout         = "logout"
	ActionSignup         = "signup"
	ActionPasswordChange = "password_change"
	ActionPasswordReset  = "password_reset"
	ActionDeactivate     = "deactivate"
	ActionBooking        = "booking"
	ActionDelete         = "delete"
	ActionDenied         = "access_denied"
)

type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger.With(slog.String("channel", "audit"))}
}

func (al *Logger) LogAction(ctx context.Context, userID, action, resource, resourceID, status, details string) {
	al.logger.InfoContext(ctx, "audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("user_id", userID),
		slog.String("status", status),
		slog.String("details", details),
		slog.String("request_id", chimw.GetReqID(ctx)),
		slog.Time("timestamp", time.Now()),
	)
}

// LogAuth records an authentication event for a user.
func (al *Logger) LogAuth(ctx context.Context, userID, action, status string) {
	al.LogAction(ctx, userID, action, "user", userID, status, "")
}

// LogDeletion records an administrative delete.
func (al *Logger) LogDeletion(ctx context.Context, userID, resource, resourceID string) {
	al.LogAction(ctx, userID, ActionDelete, resource, resourceID, "success", "")
}

func (al *Logger) LogDenied(ctx context.Context, userID, reason string) {
	al.LogAction(ctx, userID, ActionDenied, "api", "", "denied", reason)
}
