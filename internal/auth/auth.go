package auth

import (
	"net/http"
	"time"

	"github.com/frahmantamala/hospital-management/internal"
	"github.com/frahmantamala/hospital-management/internal/user"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the verified content of a session token.
type Claims struct {
	UserID   int64    `json:"uid"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
	Branches []string `json:"branches,omitempty"`
	jwt.RegisteredClaims
}

// Principal converts verified claims into the request identity.
func (c *Claims) Principal() *internal.Principal {
	return &internal.Principal{
		UserID:   c.UserID,
		Email:    c.Email,
		Roles:    c.Roles,
		Branches: c.Branches,
	}
}

// IssuedToken is a signed token and the moment it stops being accepted.
type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuthResult is returned by register and login.
type AuthResult struct {
	User      user.UserResponse `json:"user"`
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// TokenGenerator issues and verifies session tokens.
type TokenGenerator interface {
	Issue(u *user.User) (IssuedToken, error)
	Verify(tokenString string) (*Claims, error)
}

// PasswordHasher hashes and checks plaintext passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) (bool, error)
}

func tokenError(message string) *internal.AppError {
	return &internal.AppError{
		Type:       internal.ErrorTypeUnauthorized,
		Code:       internal.ErrCodeInvalidToken,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
		Cause:      internal.ErrInvalidToken,
	}
}

// Token failures. All of them wrap internal.ErrInvalidToken.
var (
	ErrTokenExpired   = tokenError("token expired")
	ErrTokenMalformed = tokenError("token malformed")
	ErrTokenSignature = tokenError("token signature mismatch")
)
