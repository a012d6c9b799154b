package projects

import (
	"strings"
	"time"

	"github.com/platinummonkey/taskdeck/pkg/apperrors"
)

// Project is a tenant-scoped container for tasks.
type Project struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenantId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedBy   string    `json:"createdBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Summary is the list representation, carrying creator identity and task
// progress counts.
type Summary struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	Status             string    `json:"status"`
	CreatedBy          Creator   `json:"createdBy"`
	TaskCount          int       `json:"taskCount"`
	CompletedTaskCount int       `json:"completedTaskCount"`
	CreatedAt          time.Time `json:"createdAt"`
}

// Creator identifies who created a project.
type Creator struct {
	ID       string `json:"id,omitempty"`
	FullName string `json:"fullName,omitempty"`
}

// CreateRequest creates a project.
type CreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// Validate checks the request and applies defaults.
func (r *CreateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return apperrors.Validation("name is required")
	}
	if r.Status == "" {
		r.Status = "active"
	}
	return nil
}

// UpdateRequest mutates a project. Nil fields are left unchanged.
type UpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

// Validate checks an update request.
func (r *UpdateRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return apperrors.Validation("name must not be empty")
	}
	return nil
}

// ListFilter narrows project listings within a tenant.
type ListFilter struct {
	Status string
	Search string
	Limit  int
	Offset int
}
