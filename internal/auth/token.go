// Package auth issues and verifies the HS256 access tokens that carry a
// session's identity. The verified identity is handed to every lifecycle
// call explicitly; it lives exactly as long as the token.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"barberagenda/internal/domain"
)

var ErrInvalidToken = errors.New("invalid token")

type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

func (m *TokenManager) Issue(id domain.Identity) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   id.ID,
		"name":  id.DisplayName,
		"email": id.Email,
		"role":  string(id.Role),
		"iat":   now.Unix(),
		"exp":   now.Add(m.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Parse verifies raw and reconstructs the identity it carries.
func (m *TokenManager) Parse(raw string) (domain.Identity, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !tok.Valid {
		return domain.Identity{}, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Identity{}, ErrInvalidToken
	}

	id := domain.Identity{
		ID:          stringClaim(claims, "sub"),
		DisplayName: stringClaim(claims, "name"),
		Email:       stringClaim(claims, "email"),
		Role:        domain.Role(stringClaim(claims, "role")),
	}
	if id.ID == "" || !id.Role.Valid() {
		return domain.Identity{}, ErrInvalidToken
	}
	return id, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}
