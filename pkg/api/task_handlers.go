package api

import (
	"net/http"

	"github.com/platinummonkey/taskdeck/pkg/audit"
	"github.com/platinummonkey/taskdeck/pkg/authz"
	"github.com/platinummonkey/taskdeck/pkg/httputil"
	"github.com/platinummonkey/taskdeck/pkg/tasks"
)

// createTask handles POST /api/projects/{projectId}/tasks
func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
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
		OwnerID:  principal.ID,
		Action:   authz.ActionCreate,
	}) {
		return
	}

	var req tasks.CreateRequest
	if err := httputil.ParseJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	task, err := s.taskService.Create(r.Context(), projectID, project.TenantID, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	s.recordAudit(r, principal, audit.ActionCreateTask, "task", task.ID, project.TenantID)
	httputil.WriteCreated(w, task)
}

type taskListResponse struct {
	Tasks    []*tasks.Task `json:"tasks"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
}

// listTasks handles GET /api/projects/{projectId}/tasks
func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
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
	if !s.authorize(w, r, principal, authz.Resource{TenantID: project.TenantID, Action: authz.ActionList}) {
		return
	}

	page, err := httputil.ParsePagination(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	list, total, err := s.taskService.List(r.Context(), projectID, tasks.ListFilter{
		Status:     tasks.Status(httputil.ParseQueryString(r, "status", "")),
		Priority:   tasks.Priority(httputil.ParseQueryString(r, "priority", "")),
		AssignedTo: httputil.ParseQueryString(r, "assignedTo", ""),
		Search:     httputil.ParseQueryString(r, "search", ""),
		Limit:      page.PageSize,
		Offset:     page.Offset(),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, taskListResponse{
		Tasks:    list,
		Total:    total,
		Page:     page.Page,
		PageSize: page.PageSize,
	})
}

// updateTask handles PUT /api/tasks/{taskId}
func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.requirePrincipal(w, r)
	if !ok {
		return
	}
	taskID, err := httputil.ParsePathString(r, "taskId")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req tasks.UpdateRequest
	if err := httputil.ParseJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	task, err := s.taskService.Get(r.Context(), taskID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !s.authorize(w, r, principal, authz.Resource{
		TenantID: task.TenantID,
		OwnerID:  principal.ID,
		Action:   authz.ActionUpdate,
	}) {
		return
	}

	updated, err := s.taskService.Update(r.Context(), taskID, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	s.recordAudit(r, principal, audit.ActionUpdateTask, "task", taskID, task.TenantID)
	httputil.WriteSuccess(w, updated)
}

// updateTaskStatus handles PATCH /api/tasks/{taskId}/status
func (s *Server) updateTaskStatus(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.requirePrincipal(w, r)
	if !ok {
		return
	}
	taskID, err := httputil.ParsePathString(r, "taskId")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req struct {
		Status tasks.Status `json:"status"`
	}
	if err := httputil.ParseJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	task, err := s.taskService.Get(r.Context(), taskID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !s.authorize(w, r, principal, authz.Resource{
		TenantID: task.TenantID,
		OwnerID:  principal.ID,
		Action:   authz.ActionUpdate,
	}) {
		return
	}

	updated, err := s.taskService.UpdateStatus(r.Context(), taskID, req.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	s.recordAudit(r, principal, audit.ActionUpdateTask, "task", taskID, task.TenantID)
	httputil.WriteSuccess(w, updated)
}
