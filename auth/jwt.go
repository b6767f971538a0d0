// Package auth issues and validates the bearer tokens that gate the API.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Distinct failure kinds: the HTTP layer maps expiry to 401 with its own
// error code and everything else to 403.
var (
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenInvalid      = errors.New("invalid token")
	ErrTokenVerification = errors.New("token verification failed")
)

// Claims is the payload embedded in every issued token.
type Claims struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	RoleID   int    `json:"role_id,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs and verifies HS256 tokens with a configured secret and
// lifetime.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl}
}

func (m *Manager) Issue(claims Claims) (string, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify parses and validates a token, returning its claims or one of
// the sentinel errors above.
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, m.keyFunc)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed),
			errors.Is(err, jwt.ErrTokenSignatureInvalid),
			errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, ErrTokenInvalid
		default:
			return nil, ErrTokenVerification
		}
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Status is the structured result of token introspection. Unlike Verify
// it never fails: bad input comes back as a Status, not an error.
type Status struct {
	Valid     bool
	Expired   bool
	Decoded   *Claims
	ExpiredAt *time.Time
	Message   string
}

// CheckStatus backs the validate-token endpoint.
func (m *Manager) CheckStatus(tokenString string) Status {
	claims, err := m.Verify(tokenString)
	switch {
	case err == nil:
		return Status{Valid: true, Decoded: claims, Message: "Token is valid"}
	case errors.Is(err, ErrTokenExpired):
		status := Status{Expired: true, Message: "Token has expired"}
		// Best-effort expiry timestamp from the unverified payload.
		expired := &Claims{}
		if _, _, decodeErr := jwt.NewParser().ParseUnverified(tokenString, expired); decodeErr == nil {
			if expired.ExpiresAt != nil {
				t := expired.ExpiresAt.Time
				status.ExpiredAt = &t
			}
		}
		return status
	case errors.Is(err, ErrTokenInvalid):
		return Status{Message: "Invalid token"}
	default:
		return Status{Message: "Token verification failed"}
	}
}

func (m *Manager) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	return m.secret, nil
}
