package security

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/disasterline/alert-backend/internal/domain"
	"github.com/disasterline/alert-backend/internal/ports"
	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the fixed validity window of every issued session token.
const TokenTTL = 24 * time.Hour

// HMACTokenService signs and verifies HS256 session tokens with a shared secret.
// The secret is read-only after construction, so one instance serves all requests.
type HMACTokenService struct {
	secret []byte
	nowFn  func() time.Time
}

// NewHMACTokenService builds a token service around secret. A nil nowFn uses the wall clock.
func NewHMACTokenService(secret []byte, nowFn func() time.Time) (*HMACTokenService, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret is required")
	}
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &HMACTokenService{secret: key, nowFn: nowFn}, nil
}

type sessionClaims struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
	jwt.RegisteredClaims
}

func (s *HMACTokenService) Issue(userID int64, email string, role domain.Role) (string, error) {
	issuedAt := s.nowFn()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(TokenTTL)),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry. Any failure matches domain.ErrTokenInvalid.
func (s *HMACTokenService) Verify(raw string) (ports.AuthClaims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &sessionClaims{}, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.nowFn),
	)
	if err != nil {
		return ports.AuthClaims{}, fmt.Errorf("%w: %w", domain.ErrTokenInvalid, err)
	}
	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid {
		return ports.AuthClaims{}, fmt.Errorf("%w: unexpected claims", domain.ErrTokenInvalid)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return ports.AuthClaims{}, fmt.Errorf("%w: parse subject: %w", domain.ErrTokenInvalid, err)
	}

	out := ports.AuthClaims{
		UserID:    userID,
		Email:     claims.Email,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	return out, nil
}
