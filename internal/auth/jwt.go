// Package auth issues and verifies Nova admin tokens and runs the login flow.
//
// The auth package handles:
//   - JWT token issuance and verification (HS256, shared secret)
//   - Email/password authentication against an admin.Store
//   - Carrying the authenticated admin id through a request context
//
// Tokens are stateless. There is no refresh and no revocation; a token is
// valid until it expires.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// DefaultTokenTTL is the lifetime of an admin token when none is configured.
	DefaultTokenTTL = 30 * 24 * time.Hour

	// Issuer is the JWT issuer claim for admin tokens.
	Issuer = "nova"
)

// ErrInvalidToken is returned by Verify for any token that is not acceptable:
// bad signature, wrong algorithm, expired, missing expiry or foreign issuer.
var ErrInvalidToken = errors.New("invalid token")

// TokenManager signs and verifies admin tokens.
//
// The secret and lifetime are fixed at construction; the manager holds no
// other state and is safe for concurrent use.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Claims represents the JWT claims for an admin token.
//
// Claims include standard JWT registered claims plus:
//   - AdminID: the id of the authenticated admin (also carried in sub)
type Claims struct {
	AdminID string `json:"id"`
	jwt.RegisteredClaims
}

// NewTokenManager creates a token manager for secret.
//
// A zero ttl selects DefaultTokenTTL.
//
// Example:
//
//	tokens, err := auth.NewTokenManager([]byte(cfg.JWTSecret), cfg.TokenTTL)
//	token, err := tokens.Issue(admin.ID)
func NewTokenManager(secret []byte, ttl time.Duration) (*TokenManager, error) {
	if len(secret) == 0 {
		return nil, errors.New("secret key is empty")
	}
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	if ttl < 0 {
		return nil, errors.New("token ttl must be positive")
	}
	return &TokenManager{secret: secret, ttl: ttl, now: time.Now}, nil
}

// TTL returns the configured token lifetime.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue returns a signed token for adminID.
//
// The token includes:
//   - id and sub: adminID
//   - iss: "nova"
//   - iat: now
//   - exp: now + TTL
//   - jti: a random UUID
func (m *TokenManager) Issue(adminID string) (string, error) {
	if adminID == "" {
		return "", errors.New("admin id is empty")
	}

	now := m.now()
	claims := &Claims{
		AdminID: adminID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminID,
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify parses tokenString and returns its claims.
//
// Every failure is reported as ErrInvalidToken; the underlying reason is
// not exposed to callers.
func (m *TokenManager) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(Issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.AdminID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
