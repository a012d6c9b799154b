// Package middleware provides HTTP middleware for authentication, rate
// limiting, and request tracing.
//
// # Middleware Components
//
// AuthMiddleware: bearer token authentication
//
//	authed := middleware.NewAuthMiddleware(issuer, metrics)
//	router.Use(authed.Handler)
//	// Extracts Bearer token, verifies it, adds the principal to the request
//
// RequireRole: role gating on top of AuthMiddleware
//
//	router.Handle("/api/tenants", middleware.RequireRole(auth.RoleSuperAdmin)(handler))
//
// DistributedRateLimitMiddleware: Redis-backed fixed window rate limiting,
// shared across instances; fails open on Redis errors.
//
// RequestID: assigns a request id to every request and echoes it in the
// X-Request-ID response header.
//
// # Related Packages
//
//   - pkg/auth: token verification
//   - pkg/authz: per-resource access decisions made by handlers
package middleware
