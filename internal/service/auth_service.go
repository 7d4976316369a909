package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/aryan0dhankhar/natours/internal/domain"
	"github.com/aryan0dhankhar/natours/internal/featureflags"
	"github.com/aryan0dhankhar/natours/internal/security/auth"
)

// Notifier sends the account emails.
type Notifier interface {
	Welcome(ctx context.Context, u *domain.User, url string) error
	PasswordReset(ctx context.Context, u *domain.User, url string) error
}

const minPasswordLength = 8

// AuthService handles authentication operations
type AuthService struct {
	users      domain.UserRepository
	tokens     *auth.TokenManager
	notifier   Notifier
	flags      featureflags.Set
	validate   *validator.Validate
	bcryptCost int
	resetTTL   time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// AuthConfig holds the tunables of the auth service.
type AuthConfig struct {
	BcryptCost    int
	ResetTokenTTL time.Duration
	Flags         featureflags.Set
}

// NewAuthService creates a new authentication service
func NewAuthService(
	users domain.UserRepository,
	tokens *auth.TokenManager,
	notifier Notifier,
	cfg AuthConfig,
	v *validator.Validate,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	if v == nil {
		v = NewValidator()
	}
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = 10 * time.Minute
	}

	return &AuthService{
		users:      users,
		tokens:     tokens,
		notifier:   notifier,
		flags:      cfg.Flags,
		validate:   v,
		bcryptCost: cfg.BcryptCost,
		resetTTL:   cfg.ResetTokenTTL,
		now:        time.Now,
		logger:     logger,
	}
}

// SignupInput is the signup payload.
type SignupInput struct {
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	Password        string      `json:"password"`
	PasswordConfirm string      `json:"passwordConfirm"`
	Role            domain.Role `json:"role"`
}

// Session is a signed token and the user it was issued for.
type Session struct {
	Token string
	User  *domain.User
}

// Signup creates an account and signs the new user in. The welcome email is
// best effort.
func (s *AuthService) Signup(ctx context.Context, in SignupInput, profileURL string) (*Session, error) {
	if err := checkNewPassword(in.Password, in.PasswordConfirm); err != nil {
		return nil, err
	}

	role := domain.RoleUser
	if in.Role != "" && s.flags.Enabled(featureflags.SignupRole) {
		role = in.Role
	}
	user := &domain.User{
		Name:   strings.TrimSpace(in.Name),
		Email:  strings.ToLower(strings.TrimSpace(in.Email)),
		Photo:  domain.DefaultPhoto,
		Role:   role,
		Active: true,
	}
	if err := validateEntity(s.validate, user); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user signed up", slog.String("user_id", user.ID.String()))

	if s.notifier != nil {
		if err := s.notifier.Welcome(context.WithoutCancel(ctx), user, profileURL); err != nil {
			s.logger.Warn("welcome email failed",
				slog.String("user_id", user.ID.String()),
				slog.String("error", err.Error()),
			)
		}
	}
	return s.session(user)
}

// Login authenticates a user by email and password
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, domain.Validation("Please provide email and password!")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil && !domain.IsKind(err, domain.KindNotFound) {
		return nil, err
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, password) {
		s.logger.Info("login failed", slog.String("email", email))
		return nil, domain.Unauthenticated("Incorrect email or password")
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID.String()))
	return s.session(user)
}

// Authenticate resolves a token to its user. The user must still be active
// and must not have changed their password after the token was issued.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.Unauthenticated("You are not logged in! Please log in to get access.")
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, domain.Unauthenticated("Invalid token. Please log in again!").Wrap(err)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return nil, domain.Unauthenticated("The user belonging to this token does no longer exist.")
		}
		return nil, err
	}
	if user.ChangedPasswordAfter(claims.IssuedAtTime()) {
		return nil, domain.Unauthenticated("User recently changed password! Please log in again.")
	}
	return user, nil
}

// UpdatePassword changes the caller's password after checking the current one.
func (s *AuthService) UpdatePassword(ctx context.Context, userID uuid.UUID, current, password, confirm string) (*Session, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, current) {
		return nil, domain.Unauthenticated("Your current password is wrong.")
	}
	if err := s.setPassword(user, password, confirm); err != nil {
		return nil, err
	}
	if err := s.users.UpdateCredentials(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("password changed", slog.String("user_id", user.ID.String()))
	return s.session(user)
}

// ForgotPassword emails a single-use reset link. resetURL builds the link
// from the plain token. When the email cannot be sent the token is cleared.
func (s *AuthService) ForgotPassword(ctx context.Context, email string, resetURL func(token string) string) error {
	if email == "" {
		return domain.Validation("Please provide your email address.")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return domain.NotFound("There is no user with email address.")
		}
		return err
	}

	plain, hashed, err := auth.NewResetToken()
	if err != nil {
		return err
	}
	expires := s.now().Add(s.resetTTL)
	user.PasswordResetToken = &hashed
	user.PasswordResetExpires = &expires
	if err := s.users.UpdateCredentials(ctx, user); err != nil {
		return err
	}

	ctx = context.WithoutCancel(ctx)
	sendErr := errors.New("no notifier configured")
	if s.notifier != nil {
		sendErr = s.notifier.PasswordReset(ctx, user, resetURL(plain))
	}
	if sendErr != nil {
		s.logger.Error("password reset email failed",
			slog.String("user_id", user.ID.String()),
			slog.String("error", sendErr.Error()),
		)
		user.PasswordResetToken = nil
		user.PasswordResetExpires = nil
		if err := s.users.UpdateCredentials(ctx, user); err != nil {
			s.logger.Error("failed to clear reset token", slog.String("error", err.Error()))
		}
		return domain.NewError(domain.KindInternal, "There was an error sending the email. Try again later!").Wrap(sendErr)
	}
	return nil
}

// ResetPassword consumes a reset token and sets a new password.
func (s *AuthService) ResetPassword(ctx context.Context, token, password, confirm string) (*Session, error) {
	user, err := s.users.GetByResetToken(ctx, auth.HashResetToken(token), s.now())
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return nil, domain.Validation("Token is invalid or has expired")
		}
		return nil, err
	}
	if err := s.setPassword(user, password, confirm); err != nil {
		return nil, err
	}
	user.PasswordResetToken = nil
	user.PasswordResetExpires = nil
	if err := s.users.UpdateCredentials(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("password reset", slog.String("user_id", user.ID.String()))
	return s.session(user)
}

// setPassword hashes a confirmed password. The change instant is backdated a
// second so a token issued right after still verifies.
func (s *AuthService) setPassword(user *domain.User, password, confirm string) error {
	if err := checkNewPassword(password, confirm); err != nil {
		return err
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return err
	}
	// Backdated so the session token issued right after this still verifies.
	changed := s.now().Add(-time.Second)
	user.PasswordHash = hash
	user.PasswordChangedAt = &changed
	return nil
}

func (s *AuthService) session(user *domain.User) (*Session, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}

// checkNewPassword runs before any hashing.
func checkNewPassword(password, confirm string) error {
	if password == "" {
		return domain.Validation("Invalid input data. Please provide a password")
	}
	if len(password) < minPasswordLength {
		return domain.Errorf(domain.KindValidation, "Invalid input data. password must have at least %d characters", minPasswordLength)
	}
	if password != confirm {
		return domain.Validation("Invalid input data. Passwords are not the same!")
	}
	return nil
}
