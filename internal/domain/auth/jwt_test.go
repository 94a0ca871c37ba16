package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "foodchain/internal/core/context"
	"foodchain/internal/core/id"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("secret"))
	uid := id.New()

	token, exp, err := svc.GenerateAccessToken(uid, "ret@example.com", appctx.RoleRetailer)
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	user, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uid, user.UserID)
	assert.Equal(t, appctx.RoleRetailer, user.Role)
	assert.Equal(t, "ret@example.com", user.Email)
	assert.NotEmpty(t, user.SessionID)
}

func TestJWTService_RejectsWrongSecret(t *testing.T) {
	token, _, err := NewJWTService(DefaultJWTConfig("a")).
		GenerateAccessToken(id.New(), "", appctx.RoleAdmin)
	require.NoError(t, err)

	_, err = NewJWTService(DefaultJWTConfig("b")).ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_RejectsExpired(t *testing.T) {
	cfg := DefaultJWTConfig("secret")
	cfg.AccessTokenTTL = -time.Minute
	svc := NewJWTService(cfg)

	token, _, err := svc.GenerateAccessToken(id.New(), "", appctx.RoleManufacturer)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_RejectsUnknownRole(t *testing.T) {
	cfg := DefaultJWTConfig("secret")
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
		UserID: id.New().String(),
		Role:   "AUDITOR",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	require.NoError(t, err)

	_, err = NewJWTService(cfg).ValidateToken(token)
	assert.ErrorContains(t, err, "unknown role")
}
