// Package tenants owns the tenant model, the registration flow that
// provisions a tenant together with its first administrator, and the
// transactional quota enforcement for tenant-scoped resource creation.
package tenants
