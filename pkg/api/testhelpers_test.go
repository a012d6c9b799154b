package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/platinummonkey/taskdeck/pkg/auth"
)

const testSecret = "test-signing-secret"

// fastBcrypt drops the hash cost so login tests stay quick.
func fastBcrypt(t *testing.T) {
	t.Helper()
	orig := auth.HashCost
	auth.HashCost = bcrypt.MinCost
	t.Cleanup(func() { auth.HashCost = orig })
}

func newTestServer(t *testing.T) (*Server, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	issuer, err := auth.NewIssuer([]byte(testSecret))
	require.NoError(t, err)

	return NewServer(Options{DB: db, Issuer: issuer}), mock
}

func issueToken(t *testing.T, s *Server, p auth.Principal) string {
	t.Helper()
	token, err := s.issuer.Issue(p)
	require.NoError(t, err)
	return token
}

// doJSON sends a request through the full router, middleware included.
func doJSON(t *testing.T, s *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dest))
}

func tenantRow(id, name, subdomain, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "name", "subdomain", "status", "subscription_plan",
		"max_users", "max_projects", "created_at", "updated_at",
	}).AddRow(id, name, subdomain, status, "free", 5, 3, now, now)
}

func userRow(id, tenantID, email, hash, fullName string, role auth.Role, active bool) *sqlmock.Rows {
	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "tenant_id", "email", "password_hash", "full_name",
		"role", "is_active", "created_at", "updated_at",
	})
	if tenantID == "" {
		rows.AddRow(id, nil, email, hash, fullName, string(role), active, now, now)
	} else {
		rows.AddRow(id, tenantID, email, hash, fullName, string(role), active, now, now)
	}
	return rows
}

func projectRow(id, tenantID, name, createdBy string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "tenant_id", "name", "description", "status", "created_by",
		"created_at", "updated_at",
	}).AddRow(id, tenantID, name, "", "active", createdBy, now, now)
}

func taskRow(id, projectID, tenantID, title, status, priority string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "project_id", "tenant_id", "title", "description", "status",
		"priority", "assigned_to", "due_date", "created_at", "updated_at",
	}).AddRow(id, projectID, tenantID, title, "", status, priority, nil, nil, now, now)
}

// mustHash produces a password hash for seeding mock rows.
func mustHash(t *testing.T, plain string) string {
	t.Helper()
	hash, err := auth.HashPassword(plain)
	require.NoError(t, err)
	return hash
}
