package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/natours/internal/domain"
)

const userColumns = `id, name, email, photo, role, password_hash, password_changed_at,
	password_reset_token, password_reset_expires, active, created_at, version`

// profileColumns are the columns a user may change on their own account.
var profileColumns = map[string]bool{"name": true, "email": true, "photo": true}

// PostgresUserRepository implements domain.UserRepository using PostgreSQL
type PostgresUserRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresUserRepository creates a new user repository
func NewPostgresUserRepository(db *sql.DB, logger *slog.Logger) *PostgresUserRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserRepository{
		db:     db,
		logger: logger,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	user := &domain.User{}
	var changedAt, resetExpires sql.NullTime
	var resetToken sql.NullString
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Photo,
		&user.Role,
		&user.PasswordHash,
		&changedAt,
		&resetToken,
		&resetExpires,
		&user.Active,
		&user.CreatedAt,
		&user.Version,
	)
	if err != nil {
		return nil, err
	}
	if changedAt.Valid {
		user.PasswordChangedAt = &changedAt.Time
	}
	if resetToken.Valid {
		user.PasswordResetToken = &resetToken.String
	}
	if resetExpires.Valid {
		user.PasswordResetExpires = &resetExpires.Time
	}
	return user, nil
}

func (r *PostgresUserRepository) getOne(ctx context.Context, op, where string, args ...any) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("user not found")
		}
		r.logger.Error("failed to "+op, slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to %s: %w", op, classify(err))
	}
	return user, nil
}

// GetByID retrieves an active user by ID
func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getOne(ctx, "get user by id", `id = $1 AND active`, id)
}

// GetByEmail retrieves an active user by email, case-insensitively
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "get user by email", `lower(email) = lower($1) AND active`, strings.TrimSpace(email))
}

// GetByResetToken finds the user holding an unexpired reset token hash
func (r *PostgresUserRepository) GetByResetToken(ctx context.Context, hashedToken string, now time.Time) (*domain.User, error) {
	return r.getOne(ctx, "get user by reset token",
		`password_reset_token = $1 AND password_reset_expires > $2 AND active`, hashedToken, now)
}

// Create creates a new user
func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Photo == "" {
		user.Photo = domain.DefaultPhoto
	}
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	user.Active = true

	query := `
		INSERT INTO users (id, name, email, photo, role, password_hash, password_changed_at, active)
		VALUES ($1, $2, lower($3), $4, $5, $6, $7, true)
		RETURNING email, created_at, version
	`

	err := r.db.QueryRowContext(ctx, query,
		user.ID,
		user.Name,
		strings.TrimSpace(user.Email),
		user.Photo,
		user.Role,
		user.PasswordHash,
		user.PasswordChangedAt,
	).Scan(&user.Email, &user.CreatedAt, &user.Version)

	if err != nil {
		r.logger.Error("failed to create user",
			slog.String("email", user.Email),
			slog.String("error", err.Error()),
		)
		return classify(err)
	}

	return nil
}

// UpdateCredentials persists the password hash and reset token fields
func (r *PostgresUserRepository) UpdateCredentials(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET password_hash = $1, password_changed_at = $2, password_reset_token = $3,
		    password_reset_expires = $4, version = version + 1
		WHERE id = $5 AND active
		RETURNING version
	`

	err := r.db.QueryRowContext(ctx, query,
		user.PasswordHash,
		user.PasswordChangedAt,
		user.PasswordResetToken,
		user.PasswordResetExpires,
		user.ID,
	).Scan(&user.Version)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound("user not found")
		}
		return fmt.Errorf("failed to update credentials: %w", classify(err))
	}

	return nil
}

// UpdateProfile changes the self-service profile columns and returns the
// updated user. Keys outside name, email and photo are rejected.
func (r *PostgresUserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, fields map[string]any) (*domain.User, error) {
	if len(fields) == 0 {
		return r.GetByID(ctx, id)
	}

	cols := make([]string, 0, len(fields))
	for col := range fields {
		if !profileColumns[col] {
			return nil, domain.Errorf(domain.KindValidation, "Field %s cannot be updated here", col)
		}
		cols = append(cols, col)
	}
	// Deterministic statement text.
	sort.Strings(cols)

	sets := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+1)
	for i, col := range cols {
		if col == "email" {
			sets = append(sets, fmt.Sprintf("email = lower($%d)", i+1))
		} else {
			sets = append(sets, fmt.Sprintf("%s = $%d", col, i+1))
		}
		args = append(args, fields[col])
	}
	sets = append(sets, "version = version + 1")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d AND active RETURNING %s`,
		strings.Join(sets, ", "), len(args), userColumns)

	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("user not found")
		}
		return nil, classify(err)
	}
	return user, nil
}

// Deactivate soft-deletes a user (sets active to false)
func (r *PostgresUserRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE users
		SET active = false, version = version + 1
		WHERE id = $1 AND active
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.NotFound("user not found")
	}

	return nil
}

// ClearExpiredResetTokens drops reset tokens whose expiry has passed
func (r *PostgresUserRepository) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE users
		SET password_reset_token = NULL, password_reset_expires = NULL
		WHERE password_reset_expires IS NOT NULL AND password_reset_expires <= $1
	`

	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to clear reset tokens: %w", err)
	}
	return result.RowsAffected()
}
