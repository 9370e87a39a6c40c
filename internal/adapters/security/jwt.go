package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the identity the gateway mints for internal services.
type Claims struct {
	SubjectID string
	Role      string
}

// TokenVerifier validates HS256 tokens signed with the mesh-internal shared
// secret. Verification only; this service never mints tokens.
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(secret string) (*TokenVerifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &TokenVerifier{secret: []byte(secret)}, nil
}

type meshClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (v *TokenVerifier) Verify(raw string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &meshClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(30*time.Second))
	if err != nil {
		return Claims{}, err
	}
	claims, ok := parsed.Claims.(*meshClaims)
	if !ok || !parsed.Valid {
		return Claims{}, errors.New("invalid token claims")
	}
	subject := strings.TrimSpace(claims.UserID)
	if subject == "" {
		subject = strings.TrimSpace(claims.Subject)
	}
	if subject == "" {
		return Claims{}, errors.New("token carries no subject")
	}
	return Claims{SubjectID: subject, Role: strings.ToLower(strings.TrimSpace(claims.Role))}, nil
}
