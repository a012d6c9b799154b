package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/platinummonkey/taskdeck/pkg/apperrors"
)

// PostgresService implements task management over PostgreSQL.
type PostgresService struct {
	db *sql.DB
}

// NewPostgresService creates a new PostgresService.
func NewPostgresService(db *sql.DB) *PostgresService {
	return &PostgresService{db: db}
}

const taskColumns = `id, project_id, tenant_id, title, description, status, priority, assigned_to, due_date, created_at, updated_at`

func scanTask(row interface{ Scan(...interface{}) error }) (*Task, error) {
	var t Task
	var description sql.NullString
	var assignedTo sql.NullString
	var dueDate sql.NullTime
	err := row.Scan(&t.ID, &t.ProjectID, &t.TenantID, &t.Title, &description,
		&t.Status, &t.Priority, &assignedTo, &dueDate, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Description = description.String
	if assignedTo.Valid {
		t.AssignedTo = &Assignee{ID: assignedTo.String}
	}
	if dueDate.Valid {
		t.DueDate = &dueDate.Time
	}
	return &t, nil
}

// validateAssignee checks that the proposed assignee is a member of the
// task's tenant.
func (s *PostgresService) validateAssignee(ctx context.Context, assigneeID, tenantID string) error {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1 AND tenant_id = $2)`,
		assigneeID, tenantID).Scan(&exists)
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "failed to check assignee", err)
	}
	if !exists {
		return apperrors.Validation("assignedTo user does not belong to the same tenant")
	}
	return nil
}

// Create adds a task to a project. New tasks always start in todo.
func (s *PostgresService) Create(ctx context.Context, projectID, tenantID string, req CreateRequest) (*Task, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.AssignedTo != "" {
		if err := s.validateAssignee(ctx, req.AssignedTo, tenantID); err != nil {
			return nil, err
		}
	}

	var assignedTo interface{}
	if req.AssignedTo != "" {
		assignedTo = req.AssignedTo
	}
	var dueDate interface{}
	if req.DueDate != nil {
		dueDate = *req.DueDate
	}

	t, err := scanTask(s.db.QueryRowContext(ctx,
		`INSERT INTO tasks(id, project_id, tenant_id, title, description, status, priority, assigned_to, due_date)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+taskColumns,
		uuid.NewString(), projectID, tenantID, req.Title, req.Description,
		StatusTodo, req.Priority, assignedTo, dueDate))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to insert task", err)
	}
	return t, nil
}

// Get fetches a task by id.
func (s *PostgresService) Get(ctx context.Context, id string) (*Task, error) {
	t, err := scanTask(s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("task not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to fetch task", err)
	}
	return t, nil
}

// List returns the project's tasks with assignee identity, ordered by
// priority then due date.
func (s *PostgresService) List(ctx context.Context, projectID string, filter ListFilter) ([]*Task, int, error) {
	where := []string{"t.project_id = $1"}
	args := []interface{}{projectID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("t.status = $%d", len(args)))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		where = append(where, fmt.Sprintf("t.priority = $%d", len(args)))
	}
	if filter.AssignedTo != "" {
		args = append(args, filter.AssignedTo)
		where = append(where, fmt.Sprintf("t.assigned_to = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		where = append(where, fmt.Sprintf("LOWER(t.title) LIKE $%d", len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := strings.ReplaceAll(whereClause, "t.", "")
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE `+countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, apperrors.Wrap(apperrors.KindInternal, "failed to count tasks", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT t.id, t.project_id, t.tenant_id, t.title, t.description, t.status,
		       t.priority, t.due_date, t.created_at, t.updated_at,
		       u.id, u.full_name, u.email
		FROM tasks t
		LEFT JOIN users u ON u.id = t.assigned_to
		WHERE %s
		ORDER BY t.priority DESC, t.due_date ASC NULLS LAST
		LIMIT $%d OFFSET $%d`, whereClause, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, apperrors.Wrap(apperrors.KindInternal, "failed to list tasks", err)
	}
	defer rows.Close()

	var result []*Task
	for rows.Next() {
		var t Task
		var description sql.NullString
		var dueDate sql.NullTime
		var assigneeID, assigneeName, assigneeEmail sql.NullString
		err := rows.Scan(&t.ID, &t.ProjectID, &t.TenantID, &t.Title, &description,
			&t.Status, &t.Priority, &dueDate, &t.CreatedAt, &t.UpdatedAt,
			&assigneeID, &assigneeName, &assigneeEmail)
		if err != nil {
			return nil, 0, apperrors.Wrap(apperrors.KindInternal, "failed to scan task", err)
		}
		t.Description = description.String
		if dueDate.Valid {
			t.DueDate = &dueDate.Time
		}
		if assigneeID.Valid {
			t.AssignedTo = &Assignee{
				ID:       assigneeID.String,
				FullName: assigneeName.String,
				Email:    assigneeEmail.String,
			}
		}
		result = append(result, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.Wrap(apperrors.KindInternal, "failed to iterate tasks", err)
	}
	return result, total, nil
}

// Update applies the non-nil fields of req, validating any new assignee
// against the task's tenant.
func (s *PostgresService) Update(ctx context.Context, id string, req UpdateRequest) (*Task, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.AssignedTo != nil && *req.AssignedTo != "" {
		if err := s.validateAssignee(ctx, *req.AssignedTo, existing.TenantID); err != nil {
			return nil, err
		}
	}

	set := []string{"updated_at = NOW()"}
	args := []interface{}{}
	addSet := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if req.Title != nil {
		addSet("title", *req.Title)
	}
	if req.Description != nil {
		addSet("description", *req.Description)
	}
	if req.Status != nil {
		addSet("status", *req.Status)
	}
	if req.Priority != nil {
		addSet("priority", *req.Priority)
	}
	if req.AssignedTo != nil {
		if *req.AssignedTo == "" {
			addSet("assigned_to", nil)
		} else {
			addSet("assigned_to", *req.AssignedTo)
		}
	}
	if req.DueDate != nil {
		addSet("due_date", *req.DueDate)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE tasks SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(set, ", "), len(args), taskColumns)

	t, err := scanTask(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("task not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to update task", err)
	}
	return t, nil
}

// UpdateStatus moves a task through its workflow.
func (s *PostgresService) UpdateStatus(ctx context.Context, id string, status Status) (*Task, error) {
	if !status.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("invalid status %q", status))
	}

	t, err := scanTask(s.db.QueryRowContext(ctx,
		`UPDATE tasks SET status = $1, updated_at = NOW() WHERE id = $2 RETURNING `+taskColumns,
		status, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("task not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to update task status", err)
	}
	return t, nil
}
