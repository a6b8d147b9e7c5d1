package utils

import (
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, VerifyPassword("correct horse", hash))
	assert.False(t, VerifyPassword("wrong", hash))
}

func TestAdminToken(t *testing.T) {
	now := time.Now()
	token, err := GenerateAdminToken("secret", "syntagma", now, time.Hour)
	require.NoError(t, err)

	claims, err := ParseAdminToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, AdminSubject, claims.Subject)
	assert.Equal(t, "syntagma", claims.Issuer)

	_, err = ParseAdminToken("other", token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseAdminToken("secret", "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAdminToken_Expired(t *testing.T) {
	token, err := GenerateAdminToken("secret", "syntagma", time.Now().Add(-2*time.Hour), time.Hour)
	require.NoError(t, err)

	_, err = ParseAdminToken("secret", token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTOTP(t *testing.T) {
	secret, url, err := GenerateTOTPSecret("syntagma", "admin")
	require.NoError(t, err)
	assert.NotEmpty(t, secret)
	assert.Contains(t, url, "otpauth://totp/")

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	code, err := totp.GenerateCode(secret, now)
	require.NoError(t, err)

	assert.True(t, ValidateTOTP(code, secret, now))
	assert.True(t, ValidateTOTP(code, secret, now.Add(30*time.Second)))
	assert.False(t, ValidateTOTP(code, secret, now.Add(5*time.Minute)))
	assert.False(t, ValidateTOTP("000000x", secret, now))
}
