package jwtauth

import (
	"context"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"pet-health-sync/internal/ports/auth"
)

var (
	ErrTokenEmpty   = errors.New("token is empty")
	ErrNoSecret     = errors.New("jwt secret not configured")
	ErrTokenInvalid = errors.New("token invalid")
)

type tokenClaims struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	jwt.RegisteredClaims
}

// Verifier implementa auth.AuthVerifier con JWT HS256 firmado por el
// servicio de identidad. El sub/user_id del token es el caller id estable
// que usa todo el core de sync.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil || len(v.secret) == 0 {
		return auth.Claims{}, ErrNoSecret
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return v.secret, nil
	})
	if err != nil {
		return auth.Claims{}, err
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return auth.Claims{}, jwt.ErrTokenInvalidClaims
	}

	userID := strings.TrimSpace(claims.UserID)
	if userID == "" {
		// fallback al subject estándar
		userID = strings.TrimSpace(claims.Subject)
	}
	if userID == "" {
		return auth.Claims{}, jwt.ErrTokenInvalidClaims
	}

	return auth.Claims{
		UserID:      userID,
		DisplayName: strings.TrimSpace(claims.DisplayName),
	}, nil
}
