package identity

import (
	"fmt"
	"strconv"
	"time"

	"campus-canteen-api/apperr"
	"campus-canteen-api/models"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 session tokens
type TokenIssuer struct {
	Secret []byte
	TTL    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{Secret: []byte(secret), TTL: ttl, now: time.Now}
}

// Issue creates a signed token for p
func (t *TokenIssuer) Issue(p models.Principal) (string, error) {
	now := t.now()
	claims := Claims{
		Role: p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(p.ID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.Secret)
}

// Parse validates signature and expiry and returns the principal
func (t *TokenIssuer) Parse(tokenStr string) (models.Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(tk *jwt.Token) (interface{}, error) {
		return t.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil || !token.Valid {
		return models.Principal{}, fmt.Errorf("%w: Invalid or expired token", apperr.ErrUnauthorized)
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || !claims.Role.Valid() {
		return models.Principal{}, fmt.Errorf("%w: malformed token claims", apperr.ErrUnauthorized)
	}
	return models.Principal{ID: uint(id), Role: claims.Role}, nil
}
