package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/platinummonkey/taskdeck/pkg/apperrors"
	"github.com/platinummonkey/taskdeck/pkg/auth"
)

// QuotaEnforcer admits creation of one user within the given transaction
// or returns a quota error.
type QuotaEnforcer interface {
	AdmitUser(ctx context.Context, tx *sql.Tx, tenantID string) error
}

// PostgresService implements user management over PostgreSQL.
type PostgresService struct {
	db     *sql.DB
	quotas QuotaEnforcer
}

// NewPostgresService creates a new PostgresService.
func NewPostgresService(db *sql.DB, quotas QuotaEnforcer) *PostgresService {
	return &PostgresService{db: db, quotas: quotas}
}

const userColumns = `id, tenant_id, email, password_hash, full_name, role, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*User, error) {
	var u User
	var tenantID sql.NullString
	err := row.Scan(&u.ID, &tenantID, &u.Email, &u.PasswordHash, &u.FullName,
		&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.TenantID = tenantID.String
	return &u, nil
}

// Create adds a user to the tenant, admitting it against the tenant's user
// quota inside the same transaction as the insert. A quota denial or a
// duplicate email rolls everything back.
func (s *PostgresService) Create(ctx context.Context, tenantID string, req CreateRequest) (*User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to hash password", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	if err := s.quotas.AdmitUser(ctx, tx, tenantID); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	u, err := scanUser(tx.QueryRowContext(ctx,
		`INSERT INTO users(id, tenant_id, email, password_hash, full_name, role, is_active)
		 VALUES($1, $2, $3, $4, $5, $6, TRUE)
		 RETURNING `+userColumns,
		id, tenantID, req.Email, passwordHash, req.FullName, req.Role))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Conflict(fmt.Sprintf("email %q already exists in this tenant", req.Email))
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to insert user", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to commit user creation", err)
	}
	return u, nil
}

// Get fetches a user by id.
func (s *PostgresService) Get(ctx context.Context, id string) (*User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("user not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to fetch user", err)
	}
	return u, nil
}

// List returns the tenant's users matching the filter plus the total count.
func (s *PostgresService) List(ctx context.Context, tenantID string, filter ListFilter) ([]*User, int, error) {
	where := []string{"tenant_id = $1"}
	args := []interface{}{tenantID}
	if filter.Role != "" {
		args = append(args, filter.Role)
		where = append(where, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		where = append(where, fmt.Sprintf("(LOWER(full_name) LIKE $%d OR LOWER(email) LIKE $%d)", len(args), len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE `+whereClause, args...).Scan(&total)
	if err != nil {
		return nil, 0, apperrors.Wrap(apperrors.KindInternal, "failed to count users", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		userColumns, whereClause, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, apperrors.Wrap(apperrors.KindInternal, "failed to list users", err)
	}
	defer rows.Close()

	var result []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, apperrors.Wrap(apperrors.KindInternal, "failed to scan user", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.Wrap(apperrors.KindInternal, "failed to iterate users", err)
	}
	return result, total, nil
}

// Update applies the non-nil fields of req and returns the updated user.
func (s *PostgresService) Update(ctx context.Context, id string, req UpdateRequest) (*User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	set := []string{"updated_at = NOW()"}
	args := []interface{}{}
	addSet := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if req.FullName != nil {
		addSet("full_name", *req.FullName)
	}
	if req.Role != nil {
		addSet("role", *req.Role)
	}
	if req.IsActive != nil {
		addSet("is_active", *req.IsActive)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(set, ", "), len(args), userColumns)

	u, err := scanUser(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("user not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to update user", err)
	}
	return u, nil
}

// Delete removes a user, unassigning their tasks in the same transaction
// so the tasks survive unowned.
func (s *PostgresService) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE tasks SET assigned_to = NULL WHERE assigned_to = $1`, id); err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "failed to unassign tasks", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "failed to delete user", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "failed to check delete result", err)
	}
	if affected == 0 {
		return apperrors.NotFound("user not found")
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "failed to commit user deletion", err)
	}
	return nil
}

// FindForLogin resolves the account for a login attempt: the tenant-scoped
// user wins, and only when the tenant has no such email does a platform
// super admin with that email match. This keeps behavior deterministic
// when both exist.
func (s *PostgresService) FindForLogin(ctx context.Context, email, tenantID string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 AND tenant_id = $2`,
		email, tenantID))
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to look up user", err)
	}

	u, err = scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 AND tenant_id IS NULL AND role = $2`,
		email, auth.RoleSuperAdmin))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("user not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to look up user", err)
	}
	return u, nil
}

// Authenticate verifies a login attempt against the tenant. Unknown emails
// and wrong passwords are indistinguishable to the caller; inactive
// accounts are rejected explicitly.
func (s *PostgresService) Authenticate(ctx context.Context, email, password, tenantID string) (*User, error) {
	u, err := s.FindForLogin(ctx, email, tenantID)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindNotFound) {
			return nil, apperrors.Unauthenticated("invalid credentials")
		}
		return nil, err
	}

	if err := auth.ComparePassword(password, u.PasswordHash); err != nil {
		return nil, apperrors.Unauthenticated("invalid credentials")
	}
	if !u.IsActive {
		return nil, apperrors.Forbidden("account inactive")
	}
	return u, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
