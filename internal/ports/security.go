package ports

import (
	"time"

	"github.com/disasterline/alert-backend/internal/domain"
)

// PasswordHasher produces salted one-way digests. Verify never fails loudly:
// a mismatch or a malformed digest both report false.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// AuthClaims is the decoded content of a verified session token.
type AuthClaims struct {
	UserID    int64       `json:"user_id"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	IssuedAt  time.Time   `json:"issued_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// TokenService issues and verifies signed bearer tokens.
// Every verification failure is reported as domain.ErrTokenInvalid.
type TokenService interface {
	Issue(userID int64, email string, role domain.Role) (string, error)
	Verify(token string) (AuthClaims, error)
}
