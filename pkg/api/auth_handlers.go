package api

import (
	"net/http"

	"github.com/platinummonkey/taskdeck/pkg/apperrors"
	"github.com/platinummonkey/taskdeck/pkg/audit"
	"github.com/platinummonkey/taskdeck/pkg/auth"
	"github.com/platinummonkey/taskdeck/pkg/httputil"
	"github.com/platinummonkey/taskdeck/pkg/tenants"
	"github.com/platinummonkey/taskdeck/pkg/users"
)

// registerTenant handles POST /api/auth/register-tenant
func (s *Server) registerTenant(w http.ResponseWriter, r *http.Request) {
	var req tenants.RegisterRequest
	if err := httputil.ParseJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := s.tenantService.RegisterTenant(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	s.recordAudit(r, auth.Principal{}, audit.ActionRegisterTenant, "tenant", result.TenantID, result.TenantID)
	if s.metrics != nil {
		s.metrics.TenantsTotal.Inc()
	}
	httputil.WriteCreated(w, result)
}

type loginRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	TenantSubdomain string `json:"tenantSubdomain"`
	TenantID        string `json:"tenantId"`
}

type loginResponse struct {
	User      *users.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresIn int         `json:"expiresIn"`
}

// login handles POST /api/auth/login
//
// The tenant is resolved first so an unknown tenant answers 404 and a
// suspended one 403 before any credential work happens. When no tenant is
// named the attempt can only match a platform super admin.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httputil.ParseJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		httputil.WriteError(w, apperrors.Validation("email and password are required"))
		return
	}

	var tenant *tenants.Tenant
	var err error
	switch {
	case req.TenantID != "":
		tenant, err = s.tenantService.Get(r.Context(), req.TenantID)
	case req.TenantSubdomain != "":
		tenant, err = s.tenantService.GetBySubdomain(r.Context(), req.TenantSubdomain)
	}
	if err != nil {
		s.countLogin("tenant_not_found")
		httputil.WriteError(w, err)
		return
	}
	if tenant != nil && tenant.Status == tenants.StatusSuspended {
		s.countLogin("tenant_suspended")
		httputil.WriteError(w, apperrors.Forbidden("tenant is suspended"))
		return
	}

	tenantID := ""
	if tenant != nil {
		tenantID = tenant.ID
	}
	user, err := s.userService.Authenticate(r.Context(), req.Email, req.Password, tenantID)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindUnauthenticated) {
			s.countLogin("invalid_credentials")
		} else if apperrors.IsKind(err, apperrors.KindForbidden) {
			s.countLogin("inactive")
		} else {
			s.countLogin("error")
		}
		httputil.WriteError(w, err)
		return
	}

	token, err := s.issuer.Issue(user.Principal())
	if err != nil {
		s.countLogin("error")
		httputil.WriteError(w, apperrors.Wrap(apperrors.KindInternal, "failed to issue token", err))
		return
	}

	s.countLogin("success")
	s.recordAudit(r, user.Principal(), audit.ActionLogin, "user", user.ID, user.TenantID)
	httputil.WriteSuccess(w, loginResponse{
		User:      user,
		Token:     token,
		ExpiresIn: int(auth.TokenTTL.Seconds()),
	})
}

func (s *Server) countLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.LoginAttemptsTotal.WithLabelValues(outcome).Inc()
	}
}

type meResponse struct {
	User   *users.User     `json:"user"`
	Tenant *tenants.Tenant `json:"tenant,omitempty"`
}

// me handles GET /api/auth/me
func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.requirePrincipal(w, r)
	if !ok {
		return
	}

	user, err := s.userService.Get(r.Context(), principal.ID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := meResponse{User: user}
	if principal.TenantID != "" {
		tenant, err := s.tenantService.Get(r.Context(), principal.TenantID)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		resp.Tenant = tenant
	}
	httputil.WriteSuccess(w, resp)
}

// logout handles POST /api/auth/logout
//
// Tokens are stateless so logout is an audit marker; the client drops its
// copy of the credential.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.requirePrincipal(w, r)
	if !ok {
		return
	}
	s.recordAudit(r, principal, audit.ActionLogout, "user", principal.ID, principal.TenantID)
	httputil.WriteSuccess(w, map[string]string{"message": "logged out"})
}
