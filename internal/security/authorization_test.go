package security

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/aryan0dhankhar/natours/internal/domain"
)

func principal(role domain.Role) *domain.User {
	u := &domain.User{Role: role}
	u.ID = uuid.New()
	return u
}

func TestAuthorize(t *testing.T) {
	manage := RolesFor(PermManageTours)

	assert.NoError(t, Authorize(manage, principal(domain.RoleAdmin)))
	assert.NoError(t, Authorize(manage, principal(domain.RoleLeadGuide)))
	assert.Equal(t, domain.KindForbidden, domain.KindOf(Authorize(manage, principal(domain.RoleGuide))))
	assert.Equal(t, domain.KindForbidden, domain.KindOf(Authorize(manage, principal(domain.RoleUser))))
	assert.Equal(t, domain.KindUnauthenticated, domain.KindOf(Authorize(manage, nil)))
}

func TestOnlyRegularUsersWriteReviews(t *testing.T) {
	write := RolesFor(PermWriteReviews)
	assert.NoError(t, Authorize(write, principal(domain.RoleUser)))
	assert.Error(t, Authorize(write, principal(domain.RoleAdmin)))
}

func TestAuthorizeOwner(t *testing.T) {
	owner := principal(domain.RoleUser)
	other := principal(domain.RoleUser)

	assert.NoError(t, AuthorizeOwner(owner.ID, owner))
	assert.NoError(t, AuthorizeOwner(owner.ID, principal(domain.RoleAdmin)))
	assert.Equal(t, domain.KindForbidden, domain.KindOf(AuthorizeOwner(owner.ID, other)))
}
