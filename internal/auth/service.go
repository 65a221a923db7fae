// internal/auth/service.go
package auth

import (
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// AdminUsername is the fixed basic-auth user for admin routes.
const AdminUsername = "admin"

const minPasswordLength = 8

var ErrPasswordTooShort = errors.New("password must be at least 8 characters")

// Admin checks basic-auth credentials against a bcrypt hash.
type Admin struct {
	hash []byte
}

func NewAdmin(passwordHash string) *Admin {
	return &Admin{hash: []byte(passwordHash)}
}

// Enabled reports whether an admin password has been configured.
func (a *Admin) Enabled() bool {
	return a != nil && len(a.hash) > 0
}

func (a *Admin) Authenticate(username, password string) error {
	if !a.Enabled() {
		return ErrNotConfigured
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(AdminUsername)) == 1
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(password)); err != nil || !userOK {
		return ErrInvalidCredentials
	}
	return nil
}

// HashPassword returns the bcrypt hash to store in NEWSFLOW_ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
