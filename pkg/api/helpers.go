package api

import (
	"net/http"

	"github.com/platinummonkey/taskdeck/pkg/audit"
	"github.com/platinummonkey/taskdeck/pkg/auth"
	"github.com/platinummonkey/taskdeck/pkg/authz"
	"github.com/platinummonkey/taskdeck/pkg/httputil"
	"github.com/platinummonkey/taskdeck/pkg/middleware"
	"github.com/platinummonkey/taskdeck/pkg/observability"
)

// requirePrincipal pulls the authenticated identity out of the request.
// The auth middleware guarantees it is present on protected routes; the
// fallback 401 covers handlers wired outside that chain.
func (s *Server) requirePrincipal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	principal, ok := middleware.GetPrincipal(r)
	if !ok {
		httputil.WriteUnauthorized(w, "authentication required")
		return auth.Principal{}, false
	}
	return principal, true
}

// authorize runs the policy and answers 403 on denial. The denial reason
// goes to logs and metrics, never to the client.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request, p auth.Principal, res authz.Resource) bool {
	decision := authz.Decide(p, res)
	if s.metrics != nil {
		outcome := "deny"
		if decision.Allowed {
			outcome = "allow"
		}
		s.metrics.AuthzDecisionsTotal.WithLabelValues(string(res.Action), outcome).Inc()
	}
	if decision.Allowed {
		return true
	}
	s.log(r).WithFields(map[string]interface{}{
		"action": string(res.Action),
		"reason": decision.Reason,
	}).Info("access denied")
	httputil.WriteForbidden(w, "forbidden")
	return false
}

// log returns the request-scoped logger.
func (s *Server) log(r *http.Request) *observability.Logger {
	return observability.WithTraceContext(r.Context(), observability.FromContext(r.Context()))
}

// recordAudit emits a best-effort audit event for a mutation.
func (s *Server) recordAudit(r *http.Request, p auth.Principal, action audit.Action, entityType, entityID, tenantID string) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(audit.Event{
		TenantID:   tenantID,
		ActorID:    p.ID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		IPAddress:  middleware.ClientIP(r),
	})
}
