package auth

// Role represents the access level of a principal.
type Role string

const (
	RoleSuperAdmin  Role = "super_admin"  // Platform operator, no tenant binding
	RoleTenantAdmin Role = "tenant_admin" // Full access within one tenant
	RoleUser        Role = "user"         // Member access within one tenant
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleTenantAdmin, RoleUser:
		return true
	}
	return false
}

// Principal is the resolved identity attached to one request. It is derived
// fresh from each credential and never retained across requests.
type Principal struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id,omitempty"` // empty only for super_admin
	Role     Role   `json:"role"`
}

// IsSuperAdmin reports whether the principal bypasses tenant isolation.
func (p Principal) IsSuperAdmin() bool { return p.Role == RoleSuperAdmin }

// IsTenantAdmin reports whether the principal administers its tenant.
func (p Principal) IsTenantAdmin() bool { return p.Role == RoleTenantAdmin }

// SameTenant reports whether the principal belongs to the given tenant.
func (p Principal) SameTenant(tenantID string) bool {
	return p.TenantID != "" && p.TenantID == tenantID
}
