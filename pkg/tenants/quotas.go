package tenants

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/platinummonkey/taskdeck/pkg/apperrors"
)

// QuotaKind names a tenant-scoped resource subject to a creation limit.
type QuotaKind string

const (
	QuotaUsers    QuotaKind = "user"
	QuotaProjects QuotaKind = "project"
)

// CheckAndAdmit enforces the tenant's creation quota inside the caller's
// transaction. The tenant row is locked FOR UPDATE so concurrent creations
// on the same tenant serialize at the check; the caller must insert the new
// row in the same transaction and roll back on error.
func (s *PostgresService) CheckAndAdmit(ctx context.Context, tx *sql.Tx, tenantID string, kind QuotaKind) error {
	var maxUsers, maxProjects int
	err := tx.QueryRowContext(ctx,
		`SELECT max_users, max_projects FROM tenants WHERE id = $1 FOR UPDATE`,
		tenantID).Scan(&maxUsers, &maxProjects)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound("tenant not found")
	}
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "failed to lock tenant for quota check", err)
	}

	var limit int
	var countQuery string
	switch kind {
	case QuotaUsers:
		limit = maxUsers
		countQuery = `SELECT COUNT(*) FROM users WHERE tenant_id = $1`
	case QuotaProjects:
		limit = maxProjects
		countQuery = `SELECT COUNT(*) FROM projects WHERE tenant_id = $1`
	default:
		return apperrors.New(apperrors.KindInternal, fmt.Sprintf("unknown quota kind %q", kind))
	}

	var count int
	if err := tx.QueryRowContext(ctx, countQuery, tenantID).Scan(&count); err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "failed to count tenant resources", err)
	}

	if count >= limit {
		return apperrors.QuotaExceeded(fmt.Sprintf("%s limit reached (%d of %d)", kind, count, limit))
	}
	return nil
}

// AdmitUser admits creation of one user within the transaction.
func (s *PostgresService) AdmitUser(ctx context.Context, tx *sql.Tx, tenantID string) error {
	return s.CheckAndAdmit(ctx, tx, tenantID, QuotaUsers)
}

// AdmitProject admits creation of one project within the transaction.
func (s *PostgresService) AdmitProject(ctx context.Context, tx *sql.Tx, tenantID string) error {
	return s.CheckAndAdmit(ctx, tx, tenantID, QuotaProjects)
}
