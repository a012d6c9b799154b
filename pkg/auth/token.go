package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the fixed validity window of every issued credential.
const TokenTTL = 24 * time.Hour

// Verification failure reasons. Callers treat all three as 401; the split
// exists for audit and log visibility.
var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenSignature = errors.New("token signature invalid")
)

// claims is the JWT payload carried by taskdeck credentials.
type claims struct {
	jwt.RegisteredClaims
	TenantID string `json:"tenant_id,omitempty"`
	Role     Role   `json:"role"`
}

// Issuer issues and verifies signed bearer credentials. The signing secret is
// process-wide configuration: loaded once at startup, never mutated.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an Issuer over the shared signing secret.
func NewIssuer(secret []byte) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("signing secret is required")
	}
	return &Issuer{secret: secret, ttl: TokenTTL, now: time.Now}, nil
}

// WithClock overrides the issuer's clock. Test hook.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// Issue signs a credential embedding the principal's identity claims,
// valid for TokenTTL from now.
func (i *Issuer) Issue(p Principal) (string, error) {
	if p.ID == "" {
		return "", fmt.Errorf("principal id is required")
	}
	if !p.Role.Valid() {
		return "", fmt.Errorf("invalid role %q", p.Role)
	}

	issuedAt := i.now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(i.ttl)),
		},
		TenantID: p.TenantID,
		Role:     p.Role,
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the credential's signature and validity window and returns
// the embedded principal. Deterministic given the signing secret.
func (i *Issuer) Verify(credential string) (Principal, error) {
	var parsed claims
	_, err := jwt.ParseWithClaims(credential, &parsed, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Principal{}, mapJWTError(err)
	}

	p := Principal{
		ID:       parsed.Subject,
		TenantID: parsed.TenantID,
		Role:     parsed.Role,
	}
	if p.ID == "" || !p.Role.Valid() {
		return Principal{}, ErrTokenMalformed
	}
	if p.TenantID == "" && p.Role != RoleSuperAdmin {
		return Principal{}, ErrTokenMalformed
	}
	return p, nil
}

// mapJWTError translates jwt library failures into the package taxonomy.
func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrTokenSignature
	default:
		return ErrTokenMalformed
	}
}
