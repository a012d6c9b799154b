// Package api provides the HTTP server and request handlers.
//
// # Overview
//
// The server mounts everything under /api on a gorilla/mux router. The
// register-tenant and login endpoints plus the health probes are public;
// everything else sits behind bearer token authentication and, when Redis
// is configured, distributed rate limiting.
//
// Handlers resolve the principal from the request context, consult
// pkg/authz for the access decision, call the domain service, and map
// errors to status codes through pkg/apperrors. Mutations emit audit
// events through the best-effort recorder.
//
// # Related Packages
//
//   - pkg/middleware: authentication, rate limiting, request ids
//   - pkg/authz: access policy
//   - pkg/audit: mutation trail
package api
