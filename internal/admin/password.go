// Package admin provides administrator accounts and password handling for Nova.
//
// This package handles:
//   - Password hashing and verification using bcrypt
//   - The Store contract implemented by every persistence backend
//   - Provisioning and password changes, the only writes to an admin record
//
// # Security
//
// Passwords are hashed using bcrypt with a cost factor of 10 (bcrypt.DefaultCost)
// unless configured otherwise. bcrypt embeds its own salt and cost in the hash, so
// two hashes of the same password differ and both verify.
//
// Hashing is always explicit: stores persist whatever PasswordHash they are
// given and never hash on write.
package admin

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the default cost factor for bcrypt hashing.
	// Each increment doubles the time required to hash a password.
	BcryptCost = bcrypt.DefaultCost
)

// Hasher hashes and verifies passwords at a fixed bcrypt cost.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher using cost, or BcryptCost when cost is zero.
//
// Returns an error if cost is outside bcrypt's accepted range.
func NewHasher(cost int) (*Hasher, error) {
	if cost == 0 {
		cost = BcryptCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Hasher{cost: cost}, nil
}

// Cost returns the configured work factor.
func (h *Hasher) Cost() int {
	return h.cost
}

// Hash hashes a plain-text password using bcrypt.
//
// The bcrypt algorithm automatically generates a salt and includes it in
// the returned hash. The hash can be stored directly.
//
// Example:
//
//	hash, err := hasher.Hash("my-password")
//	if err != nil {
//	    return err
//	}
//	// Store hash
func (h *Hasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether password matches hash.
//
// The comparison is bcrypt's constant-time check. A malformed or empty hash
// never matches.
func (h *Hasher) Verify(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
