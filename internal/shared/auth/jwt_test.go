package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	issuer, err := NewIssuer("secret", time.Hour)
	require.NoError(t, err)

	token, err := issuer.Sign("ada@example.com")
	require.NoError(t, err)

	sub, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", sub)
}

func TestVerifyRejectsExpired(t *testing.T) {
	issuer, err := NewIssuer("secret", time.Hour)
	require.NoError(t, err)
	past := time.Now().Add(-2 * time.Hour)

	token, err := issuer.WithClock(func() time.Time { return past }).Sign("ada@example.com")
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyRejectsForeignSecretAndAlg(t *testing.T) {
	issuer, err := NewIssuer("secret", time.Hour)
	require.NoError(t, err)
	other, err := NewIssuer("other", time.Hour)
	require.NoError(t, err)

	token, err := other.Sign("ada@example.com")
	require.NoError(t, err)
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "x"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.Verify(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Verify("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	_, err := NewIssuer("  ", time.Hour)
	assert.Error(t, err)
}
