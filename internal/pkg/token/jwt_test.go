package token_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocatalog/internal/pkg/token"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := token.NewService("segredo", time.Hour)

	raw, err := svc.GenerateToken("ops-1", "editor")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(raw)
	require.NoError(t, err)
	assert.Equal(t, "ops-1", claims.UserID)
	assert.Equal(t, "editor", claims.Role)
	assert.Equal(t, token.Issuer, claims.Issuer)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	raw, err := token.NewService("a", time.Hour).GenerateToken("ops-1", "admin")
	require.NoError(t, err)

	_, err = token.NewService("b", time.Hour).ValidateToken(raw)
	assert.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	svc := token.NewService("segredo", -time.Minute)
	raw, err := svc.GenerateToken("ops-1", "admin")
	require.NoError(t, err)

	_, err = svc.ValidateToken(raw)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestValidateToken_ForeignIssuer(t *testing.T) {
	claims := token.CustomClaims{
		UserID:           "ops-1",
		Role:             "admin",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "outro", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("segredo"))
	require.NoError(t, err)

	_, err = token.NewService("segredo", time.Hour).ValidateToken(raw)
	assert.Error(t, err)
}
