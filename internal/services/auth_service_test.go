package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginAndVerify(t *testing.T) {
	auth, err := NewAuthService("open sesame", "", "test-secret", time.Hour)
	require.NoError(t, err)

	_, _, err = auth.Login("wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)

	token, exp, err := auth.Login("open sesame")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := auth.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)

	_, err = auth.Verify(token + "x")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerifyRejectsExpiredAndForeignTokens(t *testing.T) {
	auth, err := NewAuthService("pw", "", "test-secret", time.Minute)
	require.NoError(t, err)
	token, _, err := auth.Login("pw")
	require.NoError(t, err)

	as := auth.(*authService)
	as.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = auth.Verify(token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	other, err := NewAuthService("pw", "", "other-secret", time.Minute)
	require.NoError(t, err)
	foreign, _, err := other.Login("pw")
	require.NoError(t, err)
	as.now = time.Now
	_, err = auth.Verify(foreign)
	assert.ErrorIs(t, err, ErrUnauthorized)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "admin"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = auth.Verify(unsigned)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestNewAuthServiceFromHash(t *testing.T) {
	hash, err := HashPassphrase("kitchen")
	require.NoError(t, err)

	auth, err := NewAuthService("", string(hash), "s", time.Hour)
	require.NoError(t, err)
	_, _, err = auth.Login("kitchen")
	assert.NoError(t, err)

	_, err = NewAuthService("", "", "s", time.Hour)
	assert.Error(t, err)
}

func TestNewAuthServiceRefusesMissingOrPlaceholderSecret(t *testing.T) {
	_, err := NewAuthService("pw", "", "", time.Hour)
	assert.Error(t, err)

	_, err = NewAuthService("pw", "", "your_jwt_secret", time.Hour)
	assert.Error(t, err)

	_, err = NewAuthService("pw", "", "CHANGEME", time.Hour)
	assert.Error(t, err)
}
