package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role is a principal's authorization level.
type Role string

const (
	RoleUser      Role = "user"
	RoleGuide     Role = "guide"
	RoleLeadGuide Role = "lead-guide"
	RoleAdmin     Role = "admin"
)

// DefaultPhoto is assigned to users who never uploaded one.
const DefaultPhoto = "default.jpg"

// User is a registered principal. PasswordHash and the reset fields are
// never serialized.
type User struct {
	Model
	Name                 string     `json:"name" validate:"required,max=100"`
	Email                string     `json:"email" gorm:"uniqueIndex" validate:"required,email"`
	Photo                string     `json:"photo"`
	Role                 Role       `json:"role" validate:"required,oneof=user guide lead-guide admin"`
	PasswordHash         string     `json:"-"`
	PasswordChangedAt    *time.Time `json:"-"`
	PasswordResetToken   *string    `json:"-"`
	PasswordResetExpires *time.Time `json:"-"`
	Active               bool       `json:"-" gorm:"default:true"`
}

// ChangedPasswordAfter reports whether the password changed after a token
// issued at iat. Comparison is at second precision, like JWT iat. Password
// changes are stamped one second early so the token issued alongside the
// change stays valid; a token issued up to about a second before the change
// is accepted too, and that window is deliberate.
func (u *User) ChangedPasswordAfter(iat time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Unix() > iat.Unix()
}

// UserRef is the populated view of a user embedded in reviews and bookings.
type UserRef struct {
	ID    uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name  string    `json:"name"`
	Photo string    `json:"photo"`
	Email string    `json:"-"`
}

func (UserRef) TableName() string { return "users" }

// UserRepository holds the user queries the generic store does not cover.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByResetToken(ctx context.Context, hashedToken string, now time.Time) (*User, error)
	Create(ctx context.Context, user *User) error
	UpdateCredentials(ctx context.Context, user *User) error
	UpdateProfile(ctx context.Context, id uuid.UUID, fields map[string]any) (*User, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}
