package helpers

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWT_RoundTrip(t *testing.T) {
	m := NewJWTManager("secret", 24*time.Hour)

	token, exp, err := m.Generate("alice")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), exp, time.Minute)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice", claims.Subject)
}

func TestJWT_Expired(t *testing.T) {
	m := NewJWTManager("secret", -time.Minute)

	token, _, err := m.Generate("alice")
	require.NoError(t, err)

	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWT_WrongSecret(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	other := NewJWTManager("a different secret", time.Hour)

	token, _, err := m.Generate("alice")
	require.NoError(t, err)

	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWT_Malformed(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)

	for _, bad := range []string{"", "not-a-token", "a.b.c"} {
		_, err := m.Parse(bad)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestJWT_MissingSubjectClaim(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)

	// A structurally valid token signed with the right secret but no
	// username claim must still be rejected.
	tkn := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	s, err := tkn.SignedString(m.Secret)
	require.NoError(t, err)

	_, err = m.Parse(s)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWT_RejectsUnexpectedSigningMethod(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)

	tkn := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"username": "alice"})
	s, err := tkn.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.Parse(s)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
