package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/crypto/bcrypt"

	"github.com/platinummonkey/taskdeck/pkg/auth"
)

func fastBcrypt(t *testing.T) {
	t.Helper()
	orig := auth.HashCost
	auth.HashCost = bcrypt.MinCost
	t.Cleanup(func() { auth.HashCost = orig })
}

func TestSeedSkipsWhenSuperAdminExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users WHERE role = 'super_admin'`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	require.NoError(t, Seed(context.Background(), db, DefaultSeedOptions()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedCreatesSuperAdmin(t *testing.T) {
	fastBcrypt(t)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users WHERE role = 'super_admin'`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(sqlmock.AnyArg(), "superadmin@system.com", sqlmock.AnyArg(), "System Super Admin").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, Seed(context.Background(), db, DefaultSeedOptions()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedDemoDataRollsBackOnFailure(t *testing.T) {
	fastBcrypt(t)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	opts := DefaultSeedOptions()
	opts.DemoData = true

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users WHERE role = 'super_admin'`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO users`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO tenants`).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err = Seed(context.Background(), db, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "demo tenant")
	require.NoError(t, mock.ExpectationsWereMet())
}
