package tasks

import (
	"fmt"
	"strings"
	"time"

	"github.com/platinummonkey/taskdeck/pkg/apperrors"
)

// Status is the workflow state of a task.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Priority orders tasks within a project.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is one unit of work inside a project.
type Task struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"projectId"`
	TenantID    string     `json:"tenantId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	AssignedTo  *Assignee  `json:"assignedTo"`
	DueDate     *time.Time `json:"dueDate"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Assignee identifies who a task is assigned to.
type Assignee struct {
	ID       string `json:"id"`
	FullName string `json:"fullName,omitempty"`
	Email    string `json:"email,omitempty"`
}

// CreateRequest creates a task inside a project.
type CreateRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	AssignedTo  string     `json:"assignedTo"`
	DueDate     *time.Time `json:"dueDate"`
}

// Validate checks the request and applies defaults.
func (r *CreateRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return apperrors.Validation("title is required")
	}
	if r.Priority == "" {
		r.Priority = PriorityMedium
	}
	if !r.Priority.Valid() {
		return apperrors.Validation(fmt.Sprintf("invalid priority %q", r.Priority))
	}
	return nil
}

// UpdateRequest mutates a task. Nil fields are left unchanged; a non-nil
// empty AssignedTo unassigns the task.
type UpdateRequest struct {
	Title       *string     `json:"title"`
	Description *string     `json:"description"`
	Status      *Status     `json:"status"`
	Priority    *Priority   `json:"priority"`
	AssignedTo  *string     `json:"assignedTo"`
	DueDate     *time.Time  `json:"dueDate"`
}

// Validate checks an update request.
func (r *UpdateRequest) Validate() error {
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return apperrors.Validation("title must not be empty")
	}
	if r.Status != nil && !r.Status.Valid() {
		return apperrors.Validation(fmt.Sprintf("invalid status %q", *r.Status))
	}
	if r.Priority != nil && !r.Priority.Valid() {
		return apperrors.Validation(fmt.Sprintf("invalid priority %q", *r.Priority))
	}
	return nil
}

// ListFilter narrows task listings within a project.
type ListFilter struct {
	Status     Status
	Priority   Priority
	AssignedTo string
	Search     string
	Limit      int
	Offset     int
}
