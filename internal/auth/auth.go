// internal/auth/auth.go
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"newsflow/internal/database"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrNotConfigured      = errors.New("authentication not configured")
)

// SessionTTL is the lifetime of session tokens issued after login.
const SessionTTL = 7 * 24 * time.Hour

// Claims carries the identity provider's profile fields.
type Claims struct {
	Email           string `json:"email,omitempty"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 identity tokens shared with the identity provider
// and issues session tokens in the same format.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), now: time.Now}
}

// Verify parses tokenString and returns the user it identifies.
func (v *Verifier) Verify(tokenString string) (*database.User, error) {
	if len(v.secret) == 0 {
		return nil, ErrNotConfigured
	}
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(v.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims.user(), nil
}

// Issue signs a session token for u valid for ttl.
func (v *Verifier) Issue(u *database.User, ttl time.Duration) (string, error) {
	if len(v.secret) == 0 {
		return "", ErrNotConfigured
	}
	now := v.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if u.Email != nil {
		claims.Email = *u.Email
	}
	if u.FirstName != nil {
		claims.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		claims.LastName = *u.LastName
	}
	if u.ProfileImageURL != nil {
		claims.ProfileImageURL = *u.ProfileImageURL
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func (c *Claims) user() *database.User {
	return &database.User{
		ID:              c.Subject,
		Email:           optional(c.Email),
		FirstName:       optional(c.FirstName),
		LastName:        optional(c.LastName),
		ProfileImageURL: optional(c.ProfileImageURL),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
