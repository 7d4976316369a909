package security

import (
	"slices"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/natours/internal/domain"
)

// Permission names an action gated by role.
type Permission string

const (
	PermManageTours     Permission = "manage_tours"
	PermViewMonthlyPlan Permission = "view_monthly_plan"
	PermWriteReviews    Permission = "write_reviews"
	PermModifyReviews   Permission = "modify_reviews"
	PermManageUsers     Permission = "manage_users"
	PermManageBookings  Permission = "manage_bookings"
)

// RolePermissions maps each permission to the roles holding it
var RolePermissions = map[Permission][]domain.Role{
	PermManageTours:     {domain.RoleAdmin, domain.RoleLeadGuide},
	PermViewMonthlyPlan: {domain.RoleAdmin, domain.RoleLeadGuide, domain.RoleGuide},
	PermWriteReviews:    {domain.RoleUser},
	PermModifyReviews:   {domain.RoleUser, domain.RoleAdmin},
	PermManageUsers:     {domain.RoleAdmin},
	PermManageBookings:  {domain.RoleAdmin, domain.RoleLeadGuide},
}

// RolesFor returns the roles granted a permission.
func RolesFor(p Permission) []domain.Role {
	return RolePermissions[p]
}

const forbiddenMessage = "You do not have permission to perform this action"

// Authorize is the role gate: it rejects principals whose role is not in
// allowed. A nil principal is unauthenticated.
func Authorize(allowed []domain.Role, p *domain.User) error {
	if p == nil {
		return domain.Unauthenticated("You are not logged in! Please log in to get access.")
	}
	if !slices.Contains(allowed, p.Role) {
		return domain.Forbidden(forbiddenMessage)
	}
	return nil
}

// AuthorizeOwner allows the resource owner or an administrator.
func AuthorizeOwner(ownerID uuid.UUID, p *domain.User) error {
	if p == nil {
		return domain.Unauthenticated("You are not logged in! Please log in to get access.")
	}
	if p.Role == domain.RoleAdmin || p.ID == ownerID {
		return nil
	}
	return domain.Forbidden(forbiddenMessage)
}
