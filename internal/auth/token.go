package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hongminglow/lapse-be/internal/models"
)

var (
	// ErrNoToken means the request carried no usable bearer token.
	ErrNoToken = errors.New("no token provided")
	// ErrInvalidToken covers bad signatures, wrong algorithms and malformed payloads.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken means the token's exp is in the past.
	ErrExpiredToken = errors.New("token expired")
)

// Claims is the identity asserted by a token.
type Claims struct {
	UserID int64       `json:"id"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the claims carry the admin role.
func (c Claims) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}

// TokenManager issues and verifies signed JWTs for authenticated users.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a manager with the provided secret, issuer, and lifetime.
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock returns a copy of the manager that reads time from now.
func (t *TokenManager) WithClock(now func() time.Time) *TokenManager {
	cp := *t
	cp.now = now
	return &cp
}

// TTL is the lifetime given to every issued token.
func (t *TokenManager) TTL() time.Duration {
	return t.ttl
}

// Generate issues a signed JWT string for the provided user.
func (t *TokenManager) Generate(user models.User) (string, error) {
	now := t.now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer and expiry and returns the embedded claims.
// An expired token reports ErrExpiredToken even when its signature is bad.
func (t *TokenManager) Verify(raw string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, t.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err == nil {
		if claims.UserID <= 0 {
			return Claims{}, ErrInvalidToken
		}
		return claims, nil
	}
	if errors.Is(err, jwt.ErrTokenExpired) || t.expiredUnverified(raw) {
		return Claims{}, ErrExpiredToken
	}
	return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
}

func (t *TokenManager) keyFunc(token *jwt.Token) (any, error) {
	return t.secret, nil
}

// expiredUnverified reads exp from a structurally valid token without
// checking its signature.
func (t *TokenManager) expiredUnverified(raw string) bool {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !t.now().Before(claims.ExpiresAt.Time)
}
