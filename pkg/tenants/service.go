package tenants

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/lib/pq"

	"github.com/platinummonkey/taskdeck/pkg/apperrors"
	"github.com/platinummonkey/taskdeck/pkg/auth"
)

const (
	subdomainCacheSize = 256
	subdomainCacheTTL  = 5 * time.Minute
)

// PostgresService implements tenant registration, lookup, mutation, and
// quota enforcement over PostgreSQL.
type PostgresService struct {
	db    *sql.DB
	cache *expirable.LRU[string, *Tenant]
}

// NewPostgresService creates a new PostgresService. Subdomain lookups are
// cached briefly since every login resolves the tenant by subdomain.
func NewPostgresService(db *sql.DB) *PostgresService {
	return &PostgresService{
		db:    db,
		cache: expirable.NewLRU[string, *Tenant](subdomainCacheSize, nil, subdomainCacheTTL),
	}
}

// RegisterTenant provisions a tenant and its first administrator in one
// transaction. Any failure rolls the whole registration back so a tenant
// row never exists without its admin.
func (s *PostgresService) RegisterTenant(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(req.AdminPassword)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to hash password", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM tenants WHERE subdomain = $1)`,
		req.Subdomain).Scan(&exists)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to check subdomain", err)
	}
	if exists {
		return nil, apperrors.Conflict(fmt.Sprintf("subdomain %q is already taken", req.Subdomain))
	}

	tenantID := uuid.NewString()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO tenants(id, name, subdomain, status, subscription_plan, max_users, max_projects)
		 VALUES($1, $2, $3, $4, $5, $6, $7)`,
		tenantID, req.TenantName, req.Subdomain, StatusActive,
		DefaultPlan, DefaultMaxUsers, DefaultMaxProjects)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Conflict(fmt.Sprintf("subdomain %q is already taken", req.Subdomain))
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to insert tenant", err)
	}

	adminID := uuid.NewString()
	email := strings.ToLower(strings.TrimSpace(req.AdminEmail))
	_, err = tx.ExecContext(ctx,
		`INSERT INTO users(id, tenant_id, email, password_hash, full_name, role, is_active)
		 VALUES($1, $2, $3, $4, $5, $6, TRUE)`,
		adminID, tenantID, email, passwordHash, req.AdminFullName, auth.RoleTenantAdmin)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Conflict(fmt.Sprintf("email %q is already registered", email))
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to insert admin user", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to commit registration", err)
	}

	return &RegisterResult{
		TenantID:  tenantID,
		Subdomain: req.Subdomain,
		AdminUser: AdminUser{
			ID:       adminID,
			Email:    email,
			FullName: req.AdminFullName,
			Role:     string(auth.RoleTenantAdmin),
		},
	}, nil
}

const tenantColumns = `id, name, subdomain, status, subscription_plan, max_users, max_projects, created_at, updated_at`

func scanTenant(row interface{ Scan(...interface{}) error }) (*Tenant, error) {
	var t Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Subdomain, &t.Status, &t.SubscriptionPlan,
		&t.MaxUsers, &t.MaxProjects, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Get fetches a tenant by id.
func (s *PostgresService) Get(ctx context.Context, id string) (*Tenant, error) {
	t, err := scanTenant(s.db.QueryRowContext(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("tenant not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to fetch tenant", err)
	}
	return t, nil
}

// GetBySubdomain fetches a tenant by subdomain, serving repeat lookups
// from an expiring cache.
func (s *PostgresService) GetBySubdomain(ctx context.Context, subdomain string) (*Tenant, error) {
	sub := strings.ToLower(strings.TrimSpace(subdomain))
	if t, ok := s.cache.Get(sub); ok {
		return t, nil
	}

	t, err := scanTenant(s.db.QueryRowContext(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE subdomain = $1`, sub))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("tenant not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to fetch tenant", err)
	}

	s.cache.Add(sub, t)
	return t, nil
}

// GetStats returns current usage counts for a tenant.
func (s *PostgresService) GetStats(ctx context.Context, id string) (*Stats, error) {
	var stats Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users WHERE tenant_id = $1),
			(SELECT COUNT(*) FROM projects WHERE tenant_id = $1),
			(SELECT COUNT(*) FROM tasks WHERE tenant_id = $1)`,
		id).Scan(&stats.UserCount, &stats.ProjectCount, &stats.TaskCount)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to fetch tenant stats", err)
	}
	return &stats, nil
}

// List returns tenants matching the filter plus the total match count.
func (s *PostgresService) List(ctx context.Context, filter ListFilter) ([]*Tenant, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Plan != "" {
		args = append(args, filter.Plan)
		where = append(where, fmt.Sprintf("subscription_plan = $%d", len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tenants WHERE `+whereClause, args...).Scan(&total)
	if err != nil {
		return nil, 0, apperrors.Wrap(apperrors.KindInternal, "failed to count tenants", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM tenants WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		tenantColumns, whereClause, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, apperrors.Wrap(apperrors.KindInternal, "failed to list tenants", err)
	}
	defer rows.Close()

	var result []*Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, 0, apperrors.Wrap(apperrors.KindInternal, "failed to scan tenant", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.Wrap(apperrors.KindInternal, "failed to iterate tenants", err)
	}
	return result, total, nil
}

// Update applies the non-nil fields of req and returns the updated tenant.
// The subdomain cache entry is invalidated so suspended tenants stop
// resolving promptly.
func (s *PostgresService) Update(ctx context.Context, id string, req UpdateRequest) (*Tenant, error) {
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
	if req.Status != nil {
		addSet("status", *req.Status)
	}
	if req.SubscriptionPlan != nil {
		addSet("subscription_plan", *req.SubscriptionPlan)
	}
	if req.MaxUsers != nil {
		addSet("max_users", *req.MaxUsers)
	}
	if req.MaxProjects != nil {
		addSet("max_projects", *req.MaxProjects)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE tenants SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(set, ", "), len(args), tenantColumns)

	t, err := scanTenant(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("tenant not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to update tenant", err)
	}

	s.cache.Remove(t.Subdomain)
	return t, nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (class 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
