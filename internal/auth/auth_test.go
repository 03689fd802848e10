package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	details, err := GenerateJWT("reporting-job", ScopeToken, "s3cret", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", details.TokenType)
	assert.Equal(t, "3600", details.ExpiresIn)

	claims, err := ValidateJWT(details.Token, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "reporting-job", claims.Subject)
	assert.Equal(t, ScopeToken, claims.Scope)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	details, err := GenerateJWT("reporting-job", ScopeToken, "s3cret", time.Hour)
	require.NoError(t, err)

	_, err = ValidateJWT(details.Token, "other")
	assert.Error(t, err)
}

func TestValidateRejectsExpired(t *testing.T) {
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "reporting-job",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	_, err = ValidateJWT(signed, "s3cret")
	assert.Error(t, err)
}

func TestGenerateValidatesInput(t *testing.T) {
	_, err := GenerateJWT("", ScopeToken, "s3cret", time.Hour)
	assert.Error(t, err)
	_, err = GenerateJWT("job", ScopeToken, "", time.Hour)
	assert.Error(t, err)
	_, err = GenerateJWT("job", ScopeToken, "s3cret", 0)
	assert.Error(t, err)
	_, err = ValidateJWT("", "s3cret")
	assert.Error(t, err)
}
