package api

import (
	"net/http"
	"time"

	"github.com/platinummonkey/taskdeck/pkg/apperrors"
	"github.com/platinummonkey/taskdeck/pkg/audit"
	"github.com/platinummonkey/taskdeck/pkg/authz"
	"github.com/platinummonkey/taskdeck/pkg/httputil"
)

type auditListResponse struct {
	Events   []audit.Event `json:"events"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
}

// listAuditLogs handles GET /api/audit-logs
func (s *Server) listAuditLogs(w http.ResponseWriter, r *http.Request) {
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

	filter := audit.SearchFilter{
		TenantID:   httputil.ParseQueryString(r, "tenantId", ""),
		ActorID:    httputil.ParseQueryString(r, "actorId", ""),
		Action:     audit.Action(httputil.ParseQueryString(r, "action", "")),
		EntityType: httputil.ParseQueryString(r, "entityType", ""),
		Limit:      page.PageSize,
		Offset:     page.Offset(),
	}
	if since := httputil.ParseQueryString(r, "since", ""); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			httputil.WriteError(w, apperrors.Validation("since must be an RFC 3339 timestamp"))
			return
		}
		filter.Since = t
	}
	if until := httputil.ParseQueryString(r, "until", ""); until != "" {
		t, err := time.Parse(time.RFC3339, until)
		if err != nil {
			httputil.WriteError(w, apperrors.Validation("until must be an RFC 3339 timestamp"))
			return
		}
		filter.Until = t
	}

	events, total, err := s.auditStore.Search(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	httputil.WriteSuccess(w, auditListResponse{
		Events:   events,
		Total:    total,
		Page:     page.Page,
		PageSize: page.PageSize,
	})
}
