package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/lapse-be/internal/models"
)

func testUser() models.User {
	return models.User{ID: 42, Username: "alice", Email: "alice@x.com", Role: models.RoleAdmin}
}

func TestGenerateVerifyRoundTrip(t *testing.T) {
	tokens := NewTokenManager("s3cret", "lapse-test", time.Hour)

	raw, err := tokens.Generate(testUser())
	require.NoError(t, err)

	claims, err := tokens.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "alice@x.com", claims.Email)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "lapse-test", claims.Issuer)
	assert.True(t, claims.IsAdmin())
}

func TestVerifyExpired(t *testing.T) {
	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tokens := NewTokenManager("s3cret", "lapse-test", time.Hour).WithClock(func() time.Time { return issuedAt })

	raw, err := tokens.Generate(testUser())
	require.NoError(t, err)

	later := tokens.WithClock(func() time.Time { return issuedAt.Add(2 * time.Hour) })
	_, err = later.Verify(raw)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyExpiredWithForeignSignature(t *testing.T) {
	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	other := NewTokenManager("someone-else", "lapse-test", time.Hour).WithClock(func() time.Time { return issuedAt })
	raw, err := other.Generate(testUser())
	require.NoError(t, err)

	tokens := NewTokenManager("s3cret", "lapse-test", time.Hour).WithClock(func() time.Time { return issuedAt.Add(3 * time.Hour) })
	_, err = tokens.Verify(raw)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyRejectsTampering(t *testing.T) {
	tokens := NewTokenManager("s3cret", "lapse-test", time.Hour)

	tests := []struct {
		name string
		raw  func(t *testing.T) string
	}{
		{
			name: "wrong secret",
			raw: func(t *testing.T) string {
				raw, err := NewTokenManager("other", "lapse-test", time.Hour).Generate(testUser())
				require.NoError(t, err)
				return raw
			},
		},
		{
			name: "wrong issuer",
			raw: func(t *testing.T) string {
				raw, err := NewTokenManager("s3cret", "someone", time.Hour).Generate(testUser())
				require.NoError(t, err)
				return raw
			},
		},
		{
			name: "garbage",
			raw:  func(*testing.T) string { return "not-a-jwt" },
		},
		{
			name: "modified payload",
			raw: func(t *testing.T) string {
				raw, err := tokens.Generate(testUser())
				require.NoError(t, err)
				parts := strings.Split(raw, ".")
				other, err := tokens.Generate(models.User{ID: 7, Email: "mallory@x.com", Role: models.RoleAdmin})
				require.NoError(t, err)
				parts[1] = strings.Split(other, ".")[1]
				return strings.Join(parts, ".")
			},
		},
		{
			name: "alg none",
			raw: func(t *testing.T) string {
				claims := Claims{
					UserID: 1,
					Role:   models.RoleAdmin,
					RegisteredClaims: jwt.RegisteredClaims{
						Issuer:    "lapse-test",
						ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
					},
				}
				raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
				require.NoError(t, err)
				return raw
			},
		},
		{
			name: "missing expiry",
			raw: func(t *testing.T) string {
				claims := Claims{UserID: 1, RegisteredClaims: jwt.RegisteredClaims{Issuer: "lapse-test"}}
				raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s3cret"))
				require.NoError(t, err)
				return raw
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tokens.Verify(tc.raw(t))
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestClaimsContext(t *testing.T) {
	_, ok := ClaimsFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithClaims(context.Background(), Claims{UserID: 3, Role: models.RoleStandard})
	got, ok := ClaimsFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(3), got.UserID)
	assert.False(t, got.IsAdmin())
}
