package users

import (
	"strings"
	"time"

	"github.com/platinummonkey/taskdeck/pkg/apperrors"
	"github.com/platinummonkey/taskdeck/pkg/auth"
)

// User is one account. TenantID is empty only for super admins.
type User struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenantId,omitempty"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	Role         auth.Role `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Principal converts the user row into its request identity.
func (u *User) Principal() auth.Principal {
	return auth.Principal{ID: u.ID, TenantID: u.TenantID, Role: u.Role}
}

// CreateRequest adds a user to a tenant.
type CreateRequest struct {
	Email    string    `json:"email"`
	Password string    `json:"password"`
	FullName string    `json:"fullName"`
	Role     auth.Role `json:"role"`
}

// Validate checks the request, normalizing the email and defaulting the
// role to a plain member.
func (r *CreateRequest) Validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if r.Email == "" {
		return apperrors.Validation("email is required")
	}
	if !strings.Contains(r.Email, "@") {
		return apperrors.Validation("email is not a valid email address")
	}
	if len(r.Password) < 8 {
		return apperrors.Validation("password must be at least 8 characters")
	}
	if strings.TrimSpace(r.FullName) == "" {
		return apperrors.Validation("fullName is required")
	}
	if r.Role == "" {
		r.Role = auth.RoleUser
	}
	if r.Role != auth.RoleUser && r.Role != auth.RoleTenantAdmin {
		return apperrors.Validation("role must be user or tenant_admin")
	}
	return nil
}

// UpdateRequest mutates a user. Nil fields are left unchanged. Role and
// IsActive are privileged; handlers gate them through the policy before
// calling the service.
type UpdateRequest struct {
	FullName *string    `json:"fullName"`
	Role     *auth.Role `json:"role"`
	IsActive *bool      `json:"isActive"`
}

// Privileged reports whether the update touches admin-only fields.
func (r *UpdateRequest) Privileged() bool {
	return r.Role != nil || r.IsActive != nil
}

// Validate checks an update request.
func (r *UpdateRequest) Validate() error {
	if r.FullName != nil && strings.TrimSpace(*r.FullName) == "" {
		return apperrors.Validation("fullName must not be empty")
	}
	if r.Role != nil && *r.Role != auth.RoleUser && *r.Role != auth.RoleTenantAdmin {
		return apperrors.Validation("role must be user or tenant_admin")
	}
	return nil
}

// ListFilter narrows user listings within a tenant.
type ListFilter struct {
	Search string
	Role   auth.Role
	Limit  int
	Offset int
}
