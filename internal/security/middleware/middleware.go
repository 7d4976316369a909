package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/aryan0dhankhar/natours/internal/domain"
	"github.com/aryan0dhankhar/natours/internal/observability/metrics"
	"github.com/aryan0dhankhar/natours/internal/security"
	"github.com/aryan0dhankhar/natours/internal/security/audit"
	"github.com/aryan0dhankhar/natours/internal/security/auth"
	"github.com/aryan0dhankhar/natours/internal/security/ratelimit"
)

// ErrorWriter renders a failure for the request.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Authenticator resolves a session token to an active, non-stale user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// Protect rejects requests without a valid session and stores the principal
// on the request context.
func Protect(a Authenticator, writeErr ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := a.Authenticate(r.Context(), auth.ExtractToken(r))
			if err != nil {
				writeErr(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), user)))
		})
	}
}

// IsLoggedIn resolves the principal when possible and never fails. Pages use
// it to render the signed-in state.
func IsLoggedIn(a Authenticator, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.ExtractToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			user, err := a.Authenticate(r.Context(), token)
			if err != nil {
				log.Debug("soft auth ignored token", slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), user)))
		})
	}
}

// RestrictTo lets through principals holding one of roles. It must run
// after Protect.
func RestrictTo(writeErr ErrorWriter, auditLog *audit.Logger, roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := auth.PrincipalFrom(r.Context())
			if err := security.Authorize(roles, p); err != nil {
				if auditLog != nil && p != nil {
					auditLog.LogDenied(r.Context(), p.ID.String(), r.Method+" "+r.URL.Path)
				}
				writeErr(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit rejects clients over the limiter's budget, keyed by client IP.
// Limiter failures let the request through.
func RateLimit(limiter ratelimit.Allower, name, message string, writeErr ErrorWriter, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := limiter.Allow(r.Context(), name+":"+ClientIP(r))
			if err != nil {
				log.Warn("rate limiter unavailable",
					slog.String("limiter", name),
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				metrics.IncRateLimited(name)
				writeErr(w, r, domain.NewError(domain.KindRateLimited, message))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP is the remote address without its port.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// AuditDeletes records successful administrative deletes of resource.
func AuditDeletes(auditLog *audit.Logger, resource string, idParam func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete {
				next.ServeHTTP(w, r)
				return
			}
			sw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			if sw.status == http.StatusNoContent {
				userID := ""
				if p := auth.PrincipalFrom(r.Context()); p != nil {
					userID = p.ID.String()
				}
				auditLog.LogDeletion(r.Context(), userID, resource, idParam(r))
			}
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }
