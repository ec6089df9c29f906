package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mohamedmalandi/nova/internal/admin"
)

// ErrInvalidCredentials is returned for an unknown email and for a wrong
// password alike.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Session is the result of a successful login.
type Session struct {
	Admin *admin.Admin
	Token string
}

// Authenticator checks admin credentials and issues tokens.
type Authenticator struct {
	admins admin.Store
	hasher *admin.Hasher
	tokens *TokenManager

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthenticator wires the login flow.
func NewAuthenticator(admins admin.Store, hasher *admin.Hasher, tokens *TokenManager) *Authenticator {
	return &Authenticator{admins: admins, hasher: hasher, tokens: tokens}
}

// Authenticate verifies email and password and returns a fresh token.
// The email must match the stored address exactly.
//
// When no admin has the given email a bcrypt comparison against a dummy
// hash still runs, so both failure branches cost the same.
func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	found, err := a.admins.FindAdminByEmail(ctx, email)
	if errors.Is(err, admin.ErrNotFound) {
		a.hasher.Verify(password, a.dummy())
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up admin: %w", err)
	}

	if !a.hasher.Verify(password, found.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := a.tokens.Issue(found.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &Session{Admin: found, Token: token}, nil
}

func (a *Authenticator) dummy() string {
	a.dummyOnce.Do(func() {
		// The error case leaves an empty hash, which Verify rejects immediately.
		a.dummyHash, _ = a.hasher.Hash("nova-timing-equaliser")
	})
	return a.dummyHash
}
