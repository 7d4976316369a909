package auth

import (
	"context"

	"github.com/aryan0dhankhar/natours/internal/domain"
)

type principalKey struct{}

// WithPrincipal stores the authenticated user on ctx.
func WithPrincipal(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, principalKey{}, u)
}

// PrincipalFrom returns the authenticated user, or nil for anonymous requests.
func PrincipalFrom(ctx context.Context) *domain.User {
	if u, ok := ctx.Value(principalKey{}).(*domain.User); ok {
		return u
	}
	return nil
}
