package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/platinummonkey/taskdeck/pkg/auth"
	"github.com/platinummonkey/taskdeck/pkg/contextkeys"
	"github.com/platinummonkey/taskdeck/pkg/httputil"
	"github.com/platinummonkey/taskdeck/pkg/observability"
)

// AuthMiddleware verifies bearer tokens and attaches the resolved principal
// to the request context. Every failure mode answers 401; there is no
// anonymous fallthrough.
type AuthMiddleware struct {
	issuer  *auth.Issuer
	metrics *observability.Metrics
}

// NewAuthMiddleware creates a new authentication middleware.
func NewAuthMiddleware(issuer *auth.Issuer, metrics *observability.Metrics) *AuthMiddleware {
	return &AuthMiddleware{issuer: issuer, metrics: metrics}
}

// Handler wraps an HTTP handler with authentication.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			m.reject(w, "missing", "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			m.reject(w, "malformed", "invalid authorization header format")
			return
		}

		principal, err := m.issuer.Verify(parts[1])
		if err != nil {
			m.reject(w, failureReason(err), "invalid or expired token")
			return
		}

		ctx := contextkeys.WithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) reject(w http.ResponseWriter, reason, message string) {
	if m.metrics != nil {
		m.metrics.TokenFailuresTotal.WithLabelValues(reason).Inc()
	}
	httputil.WriteUnauthorized(w, message)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return "expired"
	case errors.Is(err, auth.ErrTokenSignature):
		return "signature"
	default:
		return "malformed"
	}
}

// GetPrincipal extracts the authenticated principal from a request.
func GetPrincipal(r *http.Request) (auth.Principal, bool) {
	return contextkeys.PrincipalFrom(r.Context())
}

// RequireRole creates middleware that requires one of the given roles. It
// assumes AuthMiddleware already ran.
func RequireRole(roles ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := GetPrincipal(r)
			if !ok {
				httputil.WriteUnauthorized(w, "authentication required")
				return
			}
			for _, role := range roles {
				if principal.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			httputil.WriteForbidden(w, "insufficient role permissions")
		})
	}
}
