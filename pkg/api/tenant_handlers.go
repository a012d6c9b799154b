package api

import (
	"net/http"

	"github.com/platinummonkey/taskdeck/pkg/apperrors"
	"github.com/platinummonkey/taskdeck/pkg/audit"
	"github.com/platinummonkey/taskdeck/pkg/authz"
	"github.com/platinummonkey/taskdeck/pkg/httputil"
	"github.com/platinummonkey/taskdeck/pkg/tenants"
)

type tenantListResponse struct {
	Tenants  []*tenants.Tenant `json:"tenants"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}

// listTenants handles GET /api/tenants
func (s *Server) listTenants(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.requirePrincipal(w, r)
	if !ok {
		return
	}
	if !s.authorize(w, r, principal, authz.Resource{Action: authz.ActionList}) {
		return
	}

	page, err := httputil.ParsePagination(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	list, total, err := s.tenantService.List(r.Context(), tenants.ListFilter{
		Status: tenants.Status(httputil.ParseQueryString(r, "status", "")),
		Plan:   httputil.ParseQueryString(r, "plan", ""),
		Limit:  page.PageSize,
		Offset: page.Offset(),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, tenantListResponse{
		Tenants:  list,
		Total:    total,
		Page:     page.Page,
		PageSize: page.PageSize,
	})
}

type tenantDetailResponse struct {
	Tenant *tenants.Tenant `json:"tenant"`
	Stats  *tenants.Stats  `json:"stats"`
}

// getTenant handles GET /api/tenants/{tenantId}
func (s *Server) getTenant(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.requirePrincipal(w, r)
	if !ok {
		return
	}
	tenantID, err := httputil.ParsePathString(r, "tenantId")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !s.authorize(w, r, principal, authz.Resource{TenantID: tenantID, Action: authz.ActionRead}) {
		return
	}

	tenant, err := s.tenantService.Get(r.Context(), tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	stats, err := s.tenantService.GetStats(r.Context(), tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, tenantDetailResponse{Tenant: tenant, Stats: stats})
}

// updateTenant handles PUT /api/tenants/{tenantId}
//
// Renaming is open to the tenant's admin; status, plan, and limits are
// reserved to super admins.
func (s *Server) updateTenant(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.requirePrincipal(w, r)
	if !ok {
		return
	}
	tenantID, err := httputil.ParsePathString(r, "tenantId")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req tenants.UpdateRequest
	if err := httputil.ParseJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	// Status, plan, and limits are platform-level knobs.
	if req.Privileged() && !principal.IsSuperAdmin() {
		httputil.WriteError(w, apperrors.Forbidden("forbidden"))
		return
	}
	if !s.authorize(w, r, principal, authz.Resource{
		TenantID: tenantID,
		Action:   authz.ActionUpdate,
	}) {
		return
	}

	tenant, err := s.tenantService.Update(r.Context(), tenantID, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	s.recordAudit(r, principal, audit.ActionUpdateTenant, "tenant", tenantID, tenantID)
	httputil.WriteSuccess(w, tenant)
}
