package users

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/crypto/bcrypt"

	"github.com/platinummonkey/taskdeck/pkg/apperrors"
	"github.com/platinummonkey/taskdeck/pkg/auth"
)

// allowQuota admits everything; denyQuota simulates a full tenant.
type allowQuota struct{}

func (allowQuota) AdmitUser(ctx context.Context, tx *sql.Tx, tenantID string) error { return nil }

type denyQuota struct{}

func (denyQuota) AdmitUser(ctx context.Context, tx *sql.Tx, tenantID string) error {
	return apperrors.QuotaExceeded("user limit reached (5 of 5)")
}

func fastBcrypt(t *testing.T) {
	t.Helper()
	orig := auth.HashCost
	auth.HashCost = bcrypt.MinCost
	t.Cleanup(func() { auth.HashCost = orig })
}

func newServiceWithMock(t *testing.T, quotas QuotaEnforcer) (*PostgresService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresService(db, quotas), mock
}

func userRows(id, tenantID string, role auth.Role, active bool, passwordHash string) *sqlmock.Rows {
	now := time.Now()
	var tid interface{}
	if tenantID != "" {
		tid = tenantID
	}
	return sqlmock.NewRows([]string{
		"id", "tenant_id", "email", "password_hash", "full_name",
		"role", "is_active", "created_at", "updated_at",
	}).AddRow(id, tid, "member@acme.com", passwordHash, "Acme Member", role, active, now, now)
}

func TestCreateUser(t *testing.T) {
	fastBcrypt(t)
	svc, mock := newServiceWithMock(t, allowQuota{})

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(sqlmock.AnyArg(), "t1", "member@acme.com", sqlmock.AnyArg(),
			"Acme Member", auth.RoleUser).
		WillReturnRows(userRows("u1", "t1", auth.RoleUser, true, "x"))
	mock.ExpectCommit()

	u, err := svc.Create(context.Background(), "t1", CreateRequest{
		Email:    "Member@Acme.com",
		Password: "Secret@123",
		FullName: "Acme Member",
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "t1", u.TenantID)
	assert.Equal(t, auth.RoleUser, u.Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserQuotaDenied(t *testing.T) {
	fastBcrypt(t)
	svc, mock := newServiceWithMock(t, denyQuota{})

	mock.ExpectBegin()
	// No insert: the quota denial rolls the transaction back untouched.
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), "t1", CreateRequest{
		Email:    "member@acme.com",
		Password: "Secret@123",
		FullName: "Acme Member",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindQuotaExceeded, apperrors.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserValidation(t *testing.T) {
	svc, _ := newServiceWithMock(t, allowQuota{})

	tests := []struct {
		name string
		req  CreateRequest
	}{
		{"missing email", CreateRequest{Password: "Secret@123", FullName: "X"}},
		{"bad email", CreateRequest{Email: "nope", Password: "Secret@123", FullName: "X"}},
		{"short password", CreateRequest{Email: "a@b.com", Password: "short", FullName: "X"}},
		{"missing name", CreateRequest{Email: "a@b.com", Password: "Secret@123"}},
		{"super_admin role", CreateRequest{Email: "a@b.com", Password: "Secret@123", FullName: "X", Role: auth.RoleSuperAdmin}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "t1", tt.req)
			require.Error(t, err)
			assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
		})
	}
}

func TestDeleteUnassignsTasksFirst(t *testing.T) {
	svc, mock := newServiceWithMock(t, allowQuota{})

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE tasks SET assigned_to = NULL WHERE assigned_to = \$1`).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.Delete(context.Background(), "u1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMissingUser(t *testing.T) {
	svc, mock := newServiceWithMock(t, allowQuota{})

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE tasks SET assigned_to = NULL`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM users`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestFindForLoginPrefersTenantUser(t *testing.T) {
	svc, mock := newServiceWithMock(t, allowQuota{})

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1 AND tenant_id = \$2`).
		WithArgs("member@acme.com", "t1").
		WillReturnRows(userRows("u1", "t1", auth.RoleUser, true, "x"))

	u, err := svc.FindForLogin(context.Background(), "member@acme.com", "t1")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindForLoginFallsBackToSuperAdmin(t *testing.T) {
	svc, mock := newServiceWithMock(t, allowQuota{})

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1 AND tenant_id = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1 AND tenant_id IS NULL AND role = \$2`).
		WithArgs("root@system.com", auth.RoleSuperAdmin).
		WillReturnRows(userRows("root-1", "", auth.RoleSuperAdmin, true, "x"))

	u, err := svc.FindForLogin(context.Background(), "root@system.com", "t1")
	require.NoError(t, err)
	assert.True(t, u.Principal().IsSuperAdmin())
	assert.Empty(t, u.TenantID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthenticate(t *testing.T) {
	fastBcrypt(t)
	hash, err := auth.HashPassword("Secret@123")
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		svc, mock := newServiceWithMock(t, allowQuota{})
		mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1 AND tenant_id = \$2`).
			WillReturnRows(userRows("u1", "t1", auth.RoleUser, true, hash))

		u, err := svc.Authenticate(context.Background(), "member@acme.com", "Secret@123", "t1")
		require.NoError(t, err)
		assert.Equal(t, "u1", u.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, mock := newServiceWithMock(t, allowQuota{})
		mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1 AND tenant_id = \$2`).
			WillReturnRows(userRows("u1", "t1", auth.RoleUser, true, hash))

		_, err := svc.Authenticate(context.Background(), "member@acme.com", "wrong", "t1")
		require.Error(t, err)
		assert.Equal(t, apperrors.KindUnauthenticated, apperrors.KindOf(err))
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, mock := newServiceWithMock(t, allowQuota{})
		mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1 AND tenant_id = \$2`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1 AND tenant_id IS NULL`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := svc.Authenticate(context.Background(), "ghost@acme.com", "Secret@123", "t1")
		require.Error(t, err)
		assert.Equal(t, apperrors.KindUnauthenticated, apperrors.KindOf(err))
	})

	t.Run("inactive account", func(t *testing.T) {
		svc, mock := newServiceWithMock(t, allowQuota{})
		mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1 AND tenant_id = \$2`).
			WillReturnRows(userRows("u1", "t1", auth.RoleUser, false, hash))

		_, err := svc.Authenticate(context.Background(), "member@acme.com", "Secret@123", "t1")
		require.Error(t, err)
		assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	})
}
