package api

import (
	"net/http"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/taskdeck/pkg/auth"
)

func TestListTenantsSuperAdminOnly(t *testing.T) {
	s, mock := newTestServer(t)

	t.Run("tenant admin is denied", func(t *testing.T) {
		token := issueToken(t, s, auth.Principal{ID: "admin-1", TenantID: "tenant-1", Role: auth.RoleTenantAdmin})
		rec := doJSON(t, s, http.MethodGet, "/api/tenants", token, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("super admin lists", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tenants`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery(`SELECT (.+) FROM tenants`).
			WillReturnRows(tenantRow("tenant-1", "Acme Corp", "acme", "active"))

		token := issueToken(t, s, auth.Principal{ID: "root-1", Role: auth.RoleSuperAdmin})
		rec := doJSON(t, s, http.MethodGet, "/api/tenants?page=1&pageSize=10", token, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp struct {
			Tenants []struct {
				Subdomain string `json:"subdomain"`
			} `json:"tenants"`
			Total int `json:"total"`
		}
		decodeBody(t, rec, &resp)
		assert.Equal(t, 1, resp.Total)
		require.Len(t, resp.Tenants, 1)
		assert.Equal(t, "acme", resp.Tenants[0].Subdomain)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetTenantCrossTenantDenied(t *testing.T) {
	s, _ := newTestServer(t)
	token := issueToken(t, s, auth.Principal{ID: "admin-1", TenantID: "tenant-1", Role: auth.RoleTenantAdmin})

	rec := doJSON(t, s, http.MethodGet, "/api/tenants/tenant-2", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetTenantWithStats(t *testing.T) {
	s, mock := newTestServer(t)
	token := issueToken(t, s, auth.Principal{ID: "user-1", TenantID: "tenant-1", Role: auth.RoleUser})

	mock.ExpectQuery(`SELECT (.+) FROM tenants WHERE id`).
		WithArgs("tenant-1").
		WillReturnRows(tenantRow("tenant-1", "Acme Corp", "acme", "active"))
	mock.ExpectQuery(`SELECT`).
		WithArgs("tenant-1").
		WillReturnRows(sqlmock.NewRows([]string{"user_count", "project_count", "task_count"}).AddRow(4, 2, 9))

	rec := doJSON(t, s, http.MethodGet, "/api/tenants/tenant-1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Tenant struct {
			ID string `json:"id"`
		} `json:"tenant"`
		Stats struct {
			UserCount    int `json:"userCount"`
			ProjectCount int `json:"projectCount"`
			TaskCount    int `json:"taskCount"`
		} `json:"stats"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, "tenant-1", resp.Tenant.ID)
	assert.Equal(t, 4, resp.Stats.UserCount)
	assert.Equal(t, 9, resp.Stats.TaskCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTenantRename(t *testing.T) {
	s, mock := newTestServer(t)
	token := issueToken(t, s, auth.Principal{ID: "admin-1", TenantID: "tenant-1", Role: auth.RoleTenantAdmin})

	mock.ExpectQuery(`UPDATE tenants SET`).
		WithArgs("Acme Renamed", "tenant-1").
		WillReturnRows(tenantRow("tenant-1", "Acme Renamed", "acme", "active"))

	rec := doJSON(t, s, http.MethodPut, "/api/tenants/tenant-1", token, map[string]string{
		"name": "Acme Renamed",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTenantPrivilegedFieldsSuperAdminOnly(t *testing.T) {
	s, mock := newTestServer(t)

	t.Run("tenant admin cannot change limits", func(t *testing.T) {
		token := issueToken(t, s, auth.Principal{ID: "admin-1", TenantID: "tenant-1", Role: auth.RoleTenantAdmin})
		rec := doJSON(t, s, http.MethodPut, "/api/tenants/tenant-1", token, map[string]interface{}{
			"maxUsers": 50,
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("super admin can", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE tenants SET`).
			WithArgs(50, "tenant-1").
			WillReturnRows(tenantRow("tenant-1", "Acme Corp", "acme", "active"))

		token := issueToken(t, s, auth.Principal{ID: "root-1", Role: auth.RoleSuperAdmin})
		rec := doJSON(t, s, http.MethodPut, "/api/tenants/tenant-1", token, map[string]interface{}{
			"maxUsers": 50,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
