package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	userID := uuid.New()
	tok, err := GenerateJWT("secret", userID, "creator", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT("secret", tok)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "creator", claims.Role)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	tok, err := GenerateJWT("secret", uuid.New(), "creator", time.Hour)
	require.NoError(t, err)

	_, err = ParseJWT("other", tok)
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	claims := Claims{
		UserID: uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			Issuer:    issuer,
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = ParseJWT("secret", tok)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseRejectsMissingUser(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			Issuer:    issuer,
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = ParseJWT("secret", tok)
	assert.Error(t, err)
}
