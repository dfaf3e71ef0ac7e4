package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the kind of caller a token was issued to
type Role string

const (
	RoleChild  Role = "child"
	RoleParent Role = "parent"
)

const tokenIssuer = "galactischevrienden"

// ErrInvalidToken is returned for any token that fails verification
var ErrInvalidToken = errors.New("invalid token")

// Claims identifies the player a request acts for
type Claims struct {
	jwt.RegisteredClaims
	Role Role `json:"role"`
}

// UserID returns the player id carried in the subject
func (c *Claims) UserID() string {
	return c.Subject
}

// TokenManager issues and verifies HS256 bearer tokens
type TokenManager struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewTokenManager creates a token manager
func NewTokenManager(secret string, lifetime time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), lifetime: lifetime, now: time.Now}
}

// Issue signs a token for the player with the given role
func (m *TokenManager) Issue(userID string, role Role) (string, time.Time, error) {
	now := m.now()
	expires := now.Add(m.lifetime)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Role: role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expires, nil
}

// Parse verifies a token and returns its claims
func (m *TokenManager) Parse(token string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)

	claims := &Claims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || (claims.Role != RoleChild && claims.Role != RoleParent) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
