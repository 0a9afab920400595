package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestParseValidToken(t *testing.T) {
	v := NewVerifier("test-secret")
	tokenString := signToken(t, "test-secret", Claims{
		UserID: "user-1",
		Tier:   "business",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := v.Parse(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "business", claims.Tier)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	v := NewVerifier("right-secret")
	tokenString := signToken(t, "wrong-secret", Claims{UserID: "user-1"})

	_, err := v.Parse(tokenString)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	v := NewVerifier("test-secret")
	tokenString := signToken(t, "test-secret", Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	_, err := v.Parse(tokenString)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsGarbage(t *testing.T) {
	v := NewVerifier("test-secret")
	_, err := v.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
