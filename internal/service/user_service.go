package service

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/aryan0dhankhar/natours/internal/domain"
)

// PhotoStore turns an upload into a stored photo file name.
type PhotoStore interface {
	SaveUserPhoto(ctx context.Context, userID uuid.UUID, r io.Reader) (string, error)
}

// UserService is the admin user CRUD plus the self-service account operations.
type UserService struct {
	*Factory[domain.User, *domain.User]
	users   domain.UserRepository
	photos  PhotoStore
	ratings *RatingAggregator
	v       *validator.Validate
	logger  *slog.Logger
}

// NewUserService wires the user factory. ratings recomputes the tours whose
// reviews disappear with a deleted user.
func NewUserService(store EntityStore[domain.User, *domain.User], users domain.UserRepository, photos PhotoStore, ratings *RatingAggregator, v *validator.Validate, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	if v == nil {
		v = NewValidator()
	}
	return &UserService{
		Factory: NewFactory(store, FactoryConfig[domain.User]{
			Hooks: Hooks[domain.User]{
				BeforeSave: func(_ context.Context, u *domain.User, _ bool) error {
					u.Email = strings.ToLower(strings.TrimSpace(u.Email))
					u.Name = strings.TrimSpace(u.Name)
					return nil
				},
			},
		}, v, logger),
		users:   users,
		photos:  photos,
		ratings: ratings,
		v:       v,
		logger:  logger,
	}
}

// Delete removes a user. The user's reviews are deleted with them, so every
// tour they reviewed has its rating recomputed once the delete commits.
func (s *UserService) Delete(ctx context.Context, id string) error {
	u, err := s.Factory.Get(ctx, id)
	if err != nil {
		return err
	}
	var tourIDs []uuid.UUID
	if s.ratings != nil {
		if tourIDs, err = s.ratings.ToursReviewedBy(ctx, u.ID); err != nil {
			return err
		}
	}
	if err := s.Factory.Delete(ctx, id); err != nil {
		return err
	}

	ctx = context.WithoutCancel(ctx)
	for _, tourID := range tourIDs {
		if err := s.ratings.Recompute(ctx, tourID); err != nil {
			s.logger.Error("rating recompute after user delete failed",
				slog.String("user_id", u.ID.String()),
				slog.String("tour_id", tourID.String()),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// ProfileUpdate carries the fields a user may change on their own account.
// Nil fields are left untouched.
type ProfileUpdate struct {
	Name  *string
	Email *string
	Photo io.Reader
}

// UpdateMe applies a profile update for the given user.
func (s *UserService) UpdateMe(ctx context.Context, userID uuid.UUID, in ProfileUpdate) (*domain.User, error) {
	fields := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := s.v.Var(name, "required,max=100"); err != nil {
			return nil, domain.Validation("Invalid input data. name is required")
		}
		fields["name"] = name
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if err := s.v.Var(email, "required,email"); err != nil {
			return nil, domain.Validation("Invalid input data. Please provide a valid email")
		}
		fields["email"] = email
	}
	if in.Photo != nil && s.photos != nil {
		name, err := s.photos.SaveUserPhoto(ctx, userID, in.Photo)
		if err != nil {
			return nil, err
		}
		fields["photo"] = name
	}
	return s.users.UpdateProfile(ctx, userID, fields)
}

// DeleteMe deactivates the account. Deactivated users disappear from every read.
func (s *UserService) DeleteMe(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.Deactivate(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("user deactivated", slog.String("user_id", userID.String()))
	return nil
}
