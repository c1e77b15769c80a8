package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	m, err := NewManager("s3cr3t", "thumbnailer")
	require.NoError(t, err)

	token, err := m.GenerateToken("minio", time.Hour)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "minio", claims.Subject)
	assert.Equal(t, "thumbnailer", claims.Issuer)
	require.NotNil(t, claims.ExpiresAt)
}

func TestTokenWithoutExpiry(t *testing.T) {
	m, err := NewManager("s3cr3t", "")
	require.NoError(t, err)

	token, err := m.GenerateToken("minio", 0)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Nil(t, claims.ExpiresAt)
}

func TestValidateRejects(t *testing.T) {
	m, err := NewManager("s3cr3t", "thumbnailer")
	require.NoError(t, err)
	other, err := NewManager("other", "thumbnailer")
	require.NoError(t, err)
	foreign, err := NewManager("s3cr3t", "someone-else")
	require.NoError(t, err)

	wrongKey, err := other.GenerateToken("minio", time.Hour)
	require.NoError(t, err)
	_, err = m.ValidateToken(wrongKey)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer, err := foreign.GenerateToken("minio", time.Hour)
	require.NoError(t, err)
	_, err = m.ValidateToken(wrongIssuer)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "thumbnailer",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}).SignedString([]byte("s3cr3t"))
	require.NoError(t, err)
	_, err = m.ValidateToken(expired)
	assert.ErrorIs(t, err, ErrExpiredToken)

	_, err = m.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewManagerRequiresSecret(t *testing.T) {
	_, err := NewManager("", "x")
	assert.ErrorIs(t, err, ErrEmptySecret)
}
