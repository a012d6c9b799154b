package api

import (
	"net/http"

	"github.com/platinummonkey/taskdeck/pkg/apperrors"
	"github.com/platinummonkey/taskdeck/pkg/audit"
	"github.com/platinummonkey/taskdeck/pkg/authz"
	"github.com/platinummonkey/taskdeck/pkg/httputil"
	"github.com/platinummonkey/taskdeck/pkg/projects"
)

// createProject handles POST /api/projects
//
// Any member may start a project inside their own tenant; the tenant's
// project quota is checked inside the service transaction.
func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.requirePrincipal(w, r)
	if !ok {
		return
	}
	if principal.TenantID == "" {
		httputil.WriteError(w, apperrors.Validation("projects belong to a tenant"))
		return
	}
	if !s.authorize(w, r, principal, authz.Resource{
		TenantID: principal.TenantID,
		OwnerID:  principal.ID,
		Action:   authz.ActionCreate,
	}) {
		return
	}

	var req projects.CreateRequest
	if err := httputil.ParseJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	project, err := s.projectService.Create(r.Context(), principal.TenantID, principal.ID, req)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindQuotaExceeded) && s.metrics != nil {
			s.metrics.QuotaDenialsTotal.WithLabelValues("project").Inc()
		}
		httputil.WriteError(w, err)
		return
	}
	s.recordAudit(r, principal, audit.ActionCreateProject, "project", project.ID, principal.TenantID)
	httputil.WriteCreated(w, project)
}

type projectListResponse struct {
	Projects []*projects.Summary `json:"projects"`
	Total    int                 `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"pageSize"`
}

// listProjects handles GET /api/projects
func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.requirePrincipal(w, r)
	if !ok {
		return
	}
	tenantID := principal.TenantID
	if principal.IsSuperAdmin() {
		tenantID = httputil.ParseQueryString(r, "tenantId", "")
		if tenantID == "" {
			httputil.WriteError(w, apperrors.Validation("tenantId query parameter is required"))
			return
		}
	}
	if !s.authorize(w, r, principal, authz.Resource{TenantID: tenantID, Action: authz.ActionList}) {
		return
	}

	page, err := httputil.ParsePagination(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	list, total, err := s.projectService.List(r.Context(), tenantID, projects.ListFilter{
		Status: httputil.ParseQueryString(r, "status", ""),
		Search: httputil.ParseQueryString(r, "search", ""),
		Limit:  page.PageSize,
		Offset: page.Offset(),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, projectListResponse{
		Projects: list,
		Total:    total,
		Page:     page.Page,
		PageSize: page.PageSize,
	})
}

// updateProject handles PUT /api/projects/{projectId}
func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.requirePrincipal(w, r)
	if !ok {
		return
	}
	projectID, err := httputil.ParsePathString(r, "projectId")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req projects.UpdateRequest
	if err := httputil.ParseJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	project, err := s.projectService.Get(r.Context(), projectID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !s.authorize(w, r, principal, authz.Resource{
		TenantID: project.TenantID,
		OwnerID:  project.CreatedBy,
		Action:   authz.ActionUpdate,
	}) {
		return
	}

	updated, err := s.projectService.Update(r.Context(), projectID, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	s.recordAudit(r, principal, audit.ActionUpdateProject, "project", projectID, project.TenantID)
	httputil.WriteSuccess(w, updated)
}

// deleteProject handles DELETE /api/projects/{projectId}
func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.requirePrincipal(w, r)
	if !ok {
		return
	}
	projectID, err := httputil.ParsePathString(r, "projectId")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	project, err := s.projectService.Get(r.Context(), projectID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !s.authorize(w, r, principal, authz.Resource{
		TenantID: project.TenantID,
		OwnerID:  project.CreatedBy,
		Action:   authz.ActionDelete,
	}) {
		return
	}

	if err := s.projectService.Delete(r.Context(), projectID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	s.recordAudit(r, principal, audit.ActionDeleteProject, "project", projectID, project.TenantID)
	httputil.WriteNoContent(w)
}
