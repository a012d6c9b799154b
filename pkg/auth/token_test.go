package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-signing-secret")

func newTestIssuer(t *testing.T, now time.Time) *Issuer {
	t.Helper()
	issuer, err := NewIssuer(testSecret)
	require.NoError(t, err)
	return issuer.WithClock(func() time.Time { return now })
}

func TestIssueAndVerify(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer := newTestIssuer(t, now)

	principal := Principal{ID: "user-1", TenantID: "tenant-1", Role: RoleTenantAdmin}
	token, err := issuer.Issue(principal)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, principal, got)
}

func TestVerifySuperAdminWithoutTenant(t *testing.T) {
	now := time.Now()
	issuer := newTestIssuer(t, now)

	token, err := issuer.Issue(Principal{ID: "root-1", Role: RoleSuperAdmin})
	require.NoError(t, err)

	got, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Empty(t, got.TenantID)
	assert.True(t, got.IsSuperAdmin())
}

func TestVerifyValidityWindow(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	issuer := newTestIssuer(t, issuedAt)

	token, err := issuer.Issue(Principal{ID: "user-1", TenantID: "tenant-1", Role: RoleUser})
	require.NoError(t, err)

	// Still valid one minute before the 24h boundary.
	issuer.WithClock(func() time.Time { return issuedAt.Add(24*time.Hour - time.Minute) })
	_, err = issuer.Verify(token)
	assert.NoError(t, err)

	// Expired one minute after.
	issuer.WithClock(func() time.Time { return issuedAt.Add(24*time.Hour + time.Minute) })
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyMalformed(t *testing.T) {
	issuer := newTestIssuer(t, time.Now())

	for _, credential := range []string{"", "not-a-token", "a.b.c"} {
		_, err := issuer.Verify(credential)
		assert.ErrorIs(t, err, ErrTokenMalformed, "credential %q", credential)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	now := time.Now()
	issuer := newTestIssuer(t, now)

	token, err := issuer.Issue(Principal{ID: "user-1", TenantID: "tenant-1", Role: RoleUser})
	require.NoError(t, err)

	other, err := NewIssuer([]byte("a-different-secret"))
	require.NoError(t, err)
	other.WithClock(func() time.Time { return now })

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrTokenSignature)
}

func TestVerifyRejectsMissingTenantForUser(t *testing.T) {
	now := time.Now()
	issuer := newTestIssuer(t, now)

	// Forge a user token with no tenant claim by issuing through the
	// internals: Issue only validates the role, not the tenant binding.
	token, err := issuer.Issue(Principal{ID: "user-1", Role: RoleUser})
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestIssueRejectsInvalidInput(t *testing.T) {
	issuer := newTestIssuer(t, time.Now())

	_, err := issuer.Issue(Principal{Role: RoleUser})
	assert.Error(t, err)

	_, err = issuer.Issue(Principal{ID: "user-1", Role: Role("owner")})
	assert.Error(t, err)
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	_, err := NewIssuer(nil)
	assert.Error(t, err)
}
