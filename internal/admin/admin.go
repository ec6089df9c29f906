package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrNotFound is returned by a Store when no admin matches the lookup.
	ErrNotFound = errors.New("admin not found")
	// ErrAlreadyExists is returned by a Store when the username or email is taken.
	ErrAlreadyExists = errors.New("admin already exists")
)

var validate = validator.New()

// ValidateEmail reports whether email is a usable admin address.
func ValidateEmail(email string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return fmt.Errorf("invalid email %q", email)
	}
	return nil
}

// Admin is an administrator account. There is a single role.
type Admin struct {
	ID           string    `json:"_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Store persists admin records. Implementations store PasswordHash as given.
type Store interface {
	FindAdminByEmail(ctx context.Context, email string) (*Admin, error)
	FindAdminByID(ctx context.Context, id string) (*Admin, error)
	// InsertAdmin assigns ID, CreatedAt and UpdatedAt on a.
	InsertAdmin(ctx context.Context, a *Admin) error
	UpdateAdminPassword(ctx context.Context, id, hash string) error
	ListAdmins(ctx context.Context) ([]Admin, error)
}

// Provision creates an admin unless one with the same email exists.
//
// The returned bool reports whether a new record was written. An existing
// admin is returned untouched; its password is not changed.
func Provision(ctx context.Context, store Store, hasher *Hasher, username, email, password string) (*Admin, bool, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)
	if err := ValidateEmail(email); err != nil {
		return nil, false, err
	}
	if password == "" {
		return nil, false, fmt.Errorf("password is required")
	}
	if username == "" {
		username = strings.SplitN(email, "@", 2)[0]
	}

	existing, err := store.FindAdminByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, fmt.Errorf("failed to look up admin: %w", err)
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return nil, false, fmt.Errorf("failed to hash password: %w", err)
	}

	a := &Admin{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := store.InsertAdmin(ctx, a); err != nil {
		return nil, false, fmt.Errorf("failed to create admin: %w", err)
	}
	return a, true, nil
}

// ChangePassword replaces the password of the admin with the given email.
func ChangePassword(ctx context.Context, store Store, hasher *Hasher, email, password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}

	a, err := store.FindAdminByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return err
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := store.UpdateAdminPassword(ctx, a.ID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}
