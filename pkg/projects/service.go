package projects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/platinummonkey/taskdeck/pkg/apperrors"
)

// QuotaEnforcer admits creation of one project within the given
// transaction or returns a quota error.
type QuotaEnforcer interface {
	AdmitProject(ctx context.Context, tx *sql.Tx, tenantID string) error
}

// PostgresService implements project management over PostgreSQL.
type PostgresService struct {
	db     *sql.DB
	quotas QuotaEnforcer
}

// NewPostgresService creates a new PostgresService.
func NewPostgresService(db *sql.DB, quotas QuotaEnforcer) *PostgresService {
	return &PostgresService{db: db, quotas: quotas}
}

const projectColumns = `id, tenant_id, name, description, status, created_by, created_at, updated_at`

func scanProject(row interface{ Scan(...interface{}) error }) (*Project, error) {
	var p Project
	var description sql.NullString
	var createdBy sql.NullString
	err := row.Scan(&p.ID, &p.TenantID, &p.Name, &description, &p.Status,
		&createdBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Description = description.String
	p.CreatedBy = createdBy.String
	return &p, nil
}

// Create adds a project to the tenant, admitting it against the project
// quota inside the same transaction as the insert.
func (s *PostgresService) Create(ctx context.Context, tenantID, creatorID string, req CreateRequest) (*Project, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	if err := s.quotas.AdmitProject(ctx, tx, tenantID); err != nil {
		return nil, err
	}

	p, err := scanProject(tx.QueryRowContext(ctx,
		`INSERT INTO projects(id, tenant_id, name, description, status, created_by)
		 VALUES($1, $2, $3, $4, $5, $6)
		 RETURNING `+projectColumns,
		uuid.NewString(), tenantID, req.Name, req.Description, req.Status, creatorID))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to insert project", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to commit project creation", err)
	}
	return p, nil
}

// Get fetches a project by id.
func (s *PostgresService) Get(ctx context.Context, id string) (*Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("project not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to fetch project", err)
	}
	return p, nil
}

// List returns the tenant's projects with creator names and task counts.
func (s *PostgresService) List(ctx context.Context, tenantID string, filter ListFilter) ([]*Summary, int, error) {
	where := []string{"pr.tenant_id = $1"}
	args := []interface{}{tenantID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("pr.status = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		where = append(where, fmt.Sprintf("LOWER(pr.name) LIKE $%d", len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := strings.ReplaceAll(whereClause, "pr.", "")
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM projects WHERE `+countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, apperrors.Wrap(apperrors.KindInternal, "failed to count projects", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT pr.id, pr.name, pr.description, pr.status, pr.created_at,
		       u.id, u.full_name,
		       (SELECT COUNT(*) FROM tasks t WHERE t.project_id = pr.id),
		       (SELECT COUNT(*) FROM tasks t WHERE t.project_id = pr.id AND t.status = 'completed')
		FROM projects pr
		LEFT JOIN users u ON u.id = pr.created_by
		WHERE %s
		ORDER BY pr.created_at DESC
		LIMIT $%d OFFSET $%d`, whereClause, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, apperrors.Wrap(apperrors.KindInternal, "failed to list projects", err)
	}
	defer rows.Close()

	var result []*Summary
	for rows.Next() {
		var sum Summary
		var description, creatorID, creatorName sql.NullString
		err := rows.Scan(&sum.ID, &sum.Name, &description, &sum.Status, &sum.CreatedAt,
			&creatorID, &creatorName, &sum.TaskCount, &sum.CompletedTaskCount)
		if err != nil {
			return nil, 0, apperrors.Wrap(apperrors.KindInternal, "failed to scan project", err)
		}
		sum.Description = description.String
		sum.CreatedBy = Creator{ID: creatorID.String, FullName: creatorName.String}
		result = append(result, &sum)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.Wrap(apperrors.KindInternal, "failed to iterate projects", err)
	}
	return result, total, nil
}

// Update applies the non-nil fields of req and returns the updated project.
func (s *PostgresService) Update(ctx context.Context, id string, req UpdateRequest) (*Project, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	set := []string{"updated_at = NOW()"}
	args := []interface{}{}
	addSet := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if req.Name != nil {
		addSet("name", *req.Name)
	}
	if req.Description != nil {
		addSet("description", *req.Description)
	}
	if req.Status != nil {
		addSet("status", *req.Status)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE projects SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(set, ", "), len(args), projectColumns)

	p, err := scanProject(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("project not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to update project", err)
	}
	return p, nil
}

// Delete removes a project; its tasks go with it via the cascade.
func (s *PostgresService) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "failed to delete project", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "failed to check delete result", err)
	}
	if affected == 0 {
		return apperrors.NotFound("project not found")
	}
	return nil
}
