package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the verified identity carried by a session token.
type Claims struct {
	UserID string
	Email  string
	Role   string
}

// TokenManager signs and verifies HS256 session tokens. A session exists
// exactly between a successful login (token issued) and its expiry or the
// client discarding it; there is no ambient server-side session state.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// Generate issues a signed token for the given account.
func (m *TokenManager) Generate(userID, email, role string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"role":  role,
		"iat":   now.Unix(),
		"exp":   now.Add(m.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify parses a token string and returns its claims.
func (m *TokenManager) Verify(tokenString string) (Claims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: unexpected signing method %v", ErrInvalidToken, token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	userID, ok := mapClaims["sub"].(string)
	if !ok || userID == "" {
		return Claims{}, ErrInvalidToken
	}
	email, _ := mapClaims["email"].(string)
	role, ok := mapClaims["role"].(string)
	if !ok || role == "" {
		return Claims{}, ErrInvalidToken
	}

	return Claims{UserID: userID, Email: email, Role: role}, nil
}
