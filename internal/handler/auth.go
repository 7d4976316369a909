package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aryan0dhankhar/natours/internal/domain"
	"github.com/aryan0dhankhar/natours/internal/observability/metrics"
	"github.com/aryan0dhankhar/natours/internal/security/audit"
	"github.com/aryan0dhankhar/natours/internal/security/auth"
	"github.com/aryan0dhankhar/natours/internal/service"
)

const (
	sessionCookie   = "jwt"
	loggedOutValue  = "loggedout"
	loggedOutMaxAge = 10 * time.Second
)

// Accounts is the credential surface of the auth service.
type Accounts interface {
	Signup(ctx context.Context, in service.SignupInput, profileURL string) (*service.Session, error)
	Login(ctx context.Context, email, password string) (*service.Session, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, current, password, confirm string) (*service.Session, error)
	ForgotPassword(ctx context.Context, email string, resetURL func(token string) string) error
	ResetPassword(ctx context.Context, token, password, confirm string) (*service.Session, error)
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordRequest carries a new password and, for updates, the current one.
type PasswordRequest struct {
	PasswordCurrent string `json:"passwordCurrent"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// AuthHandler issues and clears sessions.
type AuthHandler struct {
	accounts  Accounts
	audit     *audit.Logger
	cookieTTL time.Duration
	secure    bool
	writeErr  func(w http.ResponseWriter, r *http.Request, err error)
	logger    *slog.Logger
}

// NewAuthHandler creates a new auth handler. secure forces the Secure
// cookie attribute; otherwise it follows the request scheme.
func NewAuthHandler(accounts Accounts, auditLog *audit.Logger, cookieTTL time.Duration, secure bool, errs *Errors, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		accounts:  accounts,
		audit:     auditLog,
		cookieTTL: cookieTTL,
		secure:    secure,
		writeErr:  errs.Write,
		logger:    logger,
	}
}

// Signup handles POST /users/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var in service.SignupInput
	if err := decodeJSON(r, &in); err != nil {
		h.writeErr(w, r, err)
		return
	}
	session, err := h.accounts.Signup(r.Context(), in, baseURL(r)+"/me")
	metrics.ObserveAuth("signup", metrics.Result(err))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.audit.LogAuth(r.Context(), session.User.ID.String(), audit.ActionSignup, "success")
	h.sendSession(w, r, http.StatusCreated, session)
}

// Login handles POST /users/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeErr(w, r, err)
		return
	}
	session, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	metrics.ObserveAuth("login", metrics.Result(err))
	if err != nil {
		h.logger.Warn("authentication failed",
			slog.String("email", req.Email),
			slog.String("error", err.Error()),
		)
		h.audit.LogAuth(r.Context(), "", audit.ActionLogin, "failure")
		h.writeErr(w, r, err)
		return
	}
	h.audit.LogAuth(r.Context(), session.User.ID.String(), audit.ActionLogin, "success")
	h.sendSession(w, r, http.StatusOK, session)
}

// Logout handles GET /users/logout by overwriting the session cookie with a
// short-lived placeholder.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    loggedOutValue,
		Path:     "/",
		Expires:  time.Now().Add(loggedOutMaxAge),
		HttpOnly: true,
	})
	userID := ""
	if p := auth.PrincipalFrom(r.Context()); p != nil {
		userID = p.ID.String()
	}
	h.audit.LogAuth(r.Context(), userID, audit.ActionLogout, "success")
	writeJSON(w, http.StatusOK, map[string]any{"status": "success"})
}

// ForgotPassword handles POST /users/forgotPassword.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeErr(w, r, err)
		return
	}
	base := baseURL(r)
	err := h.accounts.ForgotPassword(r.Context(), req.Email, func(token string) string {
		return base + "/api/v1/users/resetPassword/" + token
	})
	metrics.ObserveAuth("forgot_password", metrics.Result(err))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "message": "Token sent to email!"})
}

// ResetPassword handles PATCH /users/resetPassword/{token}.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req PasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeErr(w, r, err)
		return
	}
	session, err := h.accounts.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.Password, req.PasswordConfirm)
	metrics.ObserveAuth("reset_password", metrics.Result(err))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.audit.LogAuth(r.Context(), session.User.ID.String(), audit.ActionPasswordReset, "success")
	h.sendSession(w, r, http.StatusOK, session)
}

// UpdatePassword handles PATCH /users/updateMyPassword.
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFrom(r.Context())
	if p == nil {
		h.writeErr(w, r, domain.Unauthenticated("You are not logged in! Please log in to get access."))
		return
	}
	var req PasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeErr(w, r, err)
		return
	}
	session, err := h.accounts.UpdatePassword(r.Context(), p.ID, req.PasswordCurrent, req.Password, req.PasswordConfirm)
	metrics.ObserveAuth("update_password", metrics.Result(err))
	if err != nil {
		h.audit.LogAuth(r.Context(), p.ID.String(), audit.ActionPasswordChange, "failure")
		h.writeErr(w, r, err)
		return
	}
	h.audit.LogAuth(r.Context(), p.ID.String(), audit.ActionPasswordChange, "success")
	h.sendSession(w, r, http.StatusOK, session)
}

// sendSession sets the session cookie and writes the token envelope.
func (h *AuthHandler) sendSession(w http.ResponseWriter, r *http.Request, status int, s *service.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    s.Token,
		Path:     "/",
		Expires:  time.Now().Add(h.cookieTTL),
		HttpOnly: true,
		Secure:   h.secure || r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, status, map[string]any{
		"status": "success",
		"token":  s.Token,
		"data":   map[string]any{"user": s.User},
	})
}

// baseURL is the scheme and host the client used.
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
