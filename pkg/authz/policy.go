package authz

import (
	"github.com/platinummonkey/taskdeck/pkg/auth"
)

// Action classifies the operation being authorized.
type Action string

const (
	ActionRead   Action = "read"
	ActionList   Action = "list"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Mutating reports whether the action changes state.
func (a Action) Mutating() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// Resource describes the target of an operation for policy evaluation.
type Resource struct {
	// TenantID is the tenant owning the resource. Empty only for
	// platform-level targets reachable by super admins alone.
	TenantID string

	// OwnerID is the user who owns the resource, when ownership is
	// meaningful (a user row's own id, a project's creator).
	OwnerID string

	// Action is the operation being attempted.
	Action Action

	// PrivilegedFields is set when the mutation touches fields only
	// administrators may change (user role, user active flag).
	PrivilegedFields bool

	// SelfTarget is set when the target is the principal's own account.
	SelfTarget bool
}

// Decision is the policy outcome. Reason is stable text for logs and
// audit records, never shown to end users verbatim.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow(reason string) Decision { return Decision{Allowed: true, Reason: reason} }
func deny(reason string) Decision  { return Decision{Allowed: false, Reason: reason} }

// Decide evaluates the policy rules in order and returns the first match.
//
// Self-deletion is denied before any role grant so that not even a
// platform administrator can remove their own account mid-session and
// leave a tenant without its acting admin.
func Decide(p auth.Principal, res Resource) Decision {
	if res.Action == ActionDelete && res.SelfTarget {
		return deny("self-deletion is not permitted")
	}

	if p.IsSuperAdmin() {
		return allow("super_admin")
	}

	if !p.SameTenant(res.TenantID) {
		return deny("cross-tenant access")
	}

	if p.IsTenantAdmin() {
		return allow("tenant_admin within tenant")
	}

	// Plain user from here on.
	if res.PrivilegedFields {
		return deny("privileged fields require an admin role")
	}
	if !res.Action.Mutating() {
		return allow("read within tenant")
	}
	if res.SelfTarget || (res.OwnerID != "" && res.OwnerID == p.ID) {
		return allow("owner")
	}
	return deny("mutation requires ownership")
}
