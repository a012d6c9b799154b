package tenants

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/platinummonkey/taskdeck/pkg/apperrors"
)

// Status is the lifecycle state of a tenant.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusSuspended
}

// Plan defaults for newly registered tenants.
const (
	DefaultPlan        = "free"
	DefaultMaxUsers    = 5
	DefaultMaxProjects = 3
)

// Tenant is an isolated organizational unit owning its own users,
// projects, tasks, and resource quotas.
type Tenant struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Subdomain        string    `json:"subdomain"`
	Status           Status    `json:"status"`
	SubscriptionPlan string    `json:"subscriptionPlan"`
	MaxUsers         int       `json:"maxUsers"`
	MaxProjects      int       `json:"maxProjects"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Stats summarizes current resource usage for one tenant.
type Stats struct {
	UserCount    int `json:"userCount"`
	ProjectCount int `json:"projectCount"`
	TaskCount    int `json:"taskCount"`
}

// AdminUser is the first administrator created during registration.
type AdminUser struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

// RegisterRequest provisions a new tenant with its first administrator.
type RegisterRequest struct {
	TenantName    string `json:"tenantName"`
	Subdomain     string `json:"subdomain"`
	AdminEmail    string `json:"adminEmail"`
	AdminFullName string `json:"adminFullName"`
	AdminPassword string `json:"adminPassword"`
}

// RegisterResult is the outcome of a successful registration.
type RegisterResult struct {
	TenantID  string    `json:"tenantId"`
	Subdomain string    `json:"subdomain"`
	AdminUser AdminUser `json:"adminUser"`
}

// UpdateRequest mutates a tenant. Nil fields are left unchanged. Fields
// other than Name may only be set by a super admin; handlers enforce that
// before calling the service.
type UpdateRequest struct {
	Name             *string `json:"name"`
	Status           *Status `json:"status"`
	SubscriptionPlan *string `json:"subscriptionPlan"`
	MaxUsers         *int    `json:"maxUsers"`
	MaxProjects      *int    `json:"maxProjects"`
}

// ListFilter narrows tenant listings.
type ListFilter struct {
	Status   Status
	Plan     string
	Limit    int
	Offset   int
}

// subdomainPattern accepts lowercase alphanumerics with interior single
// hyphens, no leading/trailing hyphen.
var subdomainPattern = regexp.MustCompile(`^[a-z0-9](-?[a-z0-9])*$`)

// NormalizeSubdomain lowercases and validates a requested subdomain.
func NormalizeSubdomain(raw string) (string, error) {
	sub := strings.ToLower(strings.TrimSpace(raw))
	if len(sub) < 3 || len(sub) > 63 {
		return "", apperrors.Validation("subdomain must be between 3 and 63 characters")
	}
	if !subdomainPattern.MatchString(sub) {
		return "", apperrors.Validation(fmt.Sprintf("invalid subdomain %q: only lowercase letters, digits and interior hyphens are allowed", sub))
	}
	return sub, nil
}

// Validate checks a registration request, normalizing the subdomain.
func (r *RegisterRequest) Validate() error {
	if strings.TrimSpace(r.TenantName) == "" {
		return apperrors.Validation("tenantName is required")
	}
	sub, err := NormalizeSubdomain(r.Subdomain)
	if err != nil {
		return err
	}
	r.Subdomain = sub
	if strings.TrimSpace(r.AdminEmail) == "" {
		return apperrors.Validation("adminEmail is required")
	}
	if !strings.Contains(r.AdminEmail, "@") {
		return apperrors.Validation("adminEmail is not a valid email address")
	}
	if strings.TrimSpace(r.AdminFullName) == "" {
		return apperrors.Validation("adminFullName is required")
	}
	if len(r.AdminPassword) < 8 {
		return apperrors.Validation("adminPassword must be at least 8 characters")
	}
	return nil
}

// Validate checks an update request.
func (r *UpdateRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return apperrors.Validation("name must not be empty")
	}
	if r.Status != nil && !r.Status.Valid() {
		return apperrors.Validation(fmt.Sprintf("invalid status %q", *r.Status))
	}
	if r.MaxUsers != nil && *r.MaxUsers < 0 {
		return apperrors.Validation("maxUsers must not be negative")
	}
	if r.MaxProjects != nil && *r.MaxProjects < 0 {
		return apperrors.Validation("maxProjects must not be negative")
	}
	return nil
}

// Privileged reports whether the update touches fields only a super admin
// may change.
func (r *UpdateRequest) Privileged() bool {
	return r.Status != nil || r.SubscriptionPlan != nil || r.MaxUsers != nil || r.MaxProjects != nil
}
