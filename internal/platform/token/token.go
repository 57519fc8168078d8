// Package token validates bearer tokens issued by the external identity
// service. Session issuance itself lives outside this system; all we need
// here is the actor identity carried in the claims.
package token

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of JWT claims this system consumes.
type Claims struct {
	ActorID string
	Role    string
}

// Validator verifies HMAC-signed tokens against the shared signing key.
type Validator struct {
	key []byte
}

func NewValidator(signingKey string) *Validator {
	return &Validator{key: []byte(signingKey)}
}

// ValidateToken parses and verifies a token string, returning the actor
// claims on success.
func (v *Validator) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("token missing subject")
	}

	out := &Claims{ActorID: sub}
	if role, ok := claims["role"].(string); ok {
		out.Role = role
	}
	return out, nil
}
