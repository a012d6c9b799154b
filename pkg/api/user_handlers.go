package api

import (
	"net/http"

	"github.com/platinummonkey/taskdeck/pkg/apperrors"
	"github.com/platinummonkey/taskdeck/pkg/audit"
	"github.com/platinummonkey/taskdeck/pkg/auth"
	"github.com/platinummonkey/taskdeck/pkg/authz"
	"github.com/platinummonkey/taskdeck/pkg/httputil"
	"github.com/platinummonkey/taskdeck/pkg/users"
)

// createUser handles POST /api/tenants/{tenantId}/users
func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.requirePrincipal(w, r)
	if !ok {
		return
	}
	tenantID, err := httputil.ParsePathString(r, "tenantId")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !s.authorize(w, r, principal, authz.Resource{TenantID: tenantID, Action: authz.ActionCreate}) {
		return
	}

	var req users.CreateRequest
	if err := httputil.ParseJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	user, err := s.userService.Create(r.Context(), tenantID, req)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindQuotaExceeded) && s.metrics != nil {
			s.metrics.QuotaDenialsTotal.WithLabelValues("user").Inc()
		}
		httputil.WriteError(w, err)
		return
	}
	s.recordAudit(r, principal, audit.ActionCreateUser, "user", user.ID, tenantID)
	httputil.WriteCreated(w, user)
}

type userListResponse struct {
	Users    []*users.User `json:"users"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
}

// listUsers handles GET /api/tenants/{tenantId}/users
func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.requirePrincipal(w, r)
	if !ok {
		return
	}
	tenantID, err := httputil.ParsePathString(r, "tenantId")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !s.authorize(w, r, principal, authz.Resource{TenantID: tenantID, Action: authz.ActionList}) {
		return
	}

	page, err := httputil.ParsePagination(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	list, total, err := s.userService.List(r.Context(), tenantID, users.ListFilter{
		Search: httputil.ParseQueryString(r, "search", ""),
		Role:   auth.Role(httputil.ParseQueryString(r, "role", "")),
		Limit:  page.PageSize,
		Offset: page.Offset(),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, userListResponse{
		Users:    list,
		Total:    total,
		Page:     page.Page,
		PageSize: page.PageSize,
	})
}

// updateUser handles PUT /api/users/{userId}
//
// A member may edit their own profile fields; role and active flag
// changes need an admin of the same tenant.
func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.requirePrincipal(w, r)
	if !ok {
		return
	}
	userID, err := httputil.ParsePathString(r, "userId")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req users.UpdateRequest
	if err := httputil.ParseJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	target, err := s.userService.Get(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if !s.authorize(w, r, principal, authz.Resource{
		TenantID:         target.TenantID,
		OwnerID:          target.ID,
		Action:           authz.ActionUpdate,
		PrivilegedFields: req.Privileged(),
		SelfTarget:       target.ID == principal.ID,
	}) {
		return
	}

	user, err := s.userService.Update(r.Context(), userID, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	s.recordAudit(r, principal, audit.ActionUpdateUser, "user", userID, target.TenantID)
	httputil.WriteSuccess(w, user)
}

// deleteUser handles DELETE /api/users/{userId}
//
// Deleting an account never succeeds against yourself, whatever the role.
// The target's open tasks are unassigned, not removed.
func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.requirePrincipal(w, r)
	if !ok {
		return
	}
	userID, err := httputil.ParsePathString(r, "userId")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	target, err := s.userService.Get(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if !s.authorize(w, r, principal, authz.Resource{
		TenantID:   target.TenantID,
		Action:     authz.ActionDelete,
		SelfTarget: target.ID == principal.ID,
	}) {
		return
	}
	if err := s.userService.Delete(r.Context(), userID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	s.recordAudit(r, principal, audit.ActionDeleteUser, "user", userID, target.TenantID)
	httputil.WriteNoContent(w)
}
