package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("kunci-rahasia")

func TestGenerateAndValidateJWT(t *testing.T) {
	token, err := GenerateJWTToken(testSecret, 12, "Resepsionis", []int{1, 3}, "rina", time.Now().Add(time.Hour))
	require.NoError(t, err)

	claims, err := ValidateJWTToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, 12, claims.IDKaryawan)
	assert.Equal(t, "Resepsionis", claims.Role)
	assert.Equal(t, "rina", claims.Username)
	assert.True(t, claims.HasPrivilege(3))
	assert.False(t, claims.HasPrivilege(2))
}

func TestValidateJWTRejectsExpired(t *testing.T) {
	token, err := GenerateJWTToken(testSecret, 1, "Admin", nil, "admin", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = ValidateJWTToken(testSecret, token)
	assert.Error(t, err)
}

func TestValidateJWTRejectsWrongSecret(t *testing.T) {
	token, err := GenerateJWTToken(testSecret, 1, "Admin", nil, "admin", time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = ValidateJWTToken([]byte("lain"), token)
	assert.Error(t, err)
}

func TestValidateJWTRejectsOtherAlgorithm(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	s, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ValidateJWTToken(testSecret, s)
	assert.Error(t, err)
}

func TestMissingSecret(t *testing.T) {
	_, err := GenerateJWTToken(nil, 1, "Admin", nil, "admin", time.Now())
	assert.Error(t, err)
	_, err = ValidateJWTToken(nil, "x")
	assert.Error(t, err)
}
