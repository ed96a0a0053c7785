package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rtg123uk/storyai/internal/domain"
	"github.com/rtg123uk/storyai/internal/session"
)

func TestJWTVerifier(t *testing.T) {
	v, err := session.NewJWTVerifier("top-secret", zap.NewNop())
	require.NoError(t, err)

	token, err := v.Sign(session.User{ID: "user-42", Email: "kid@example.com"}, time.Hour)
	require.NoError(t, err)

	u, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, session.User{ID: "user-42", Email: "kid@example.com"}, u)
}

func TestJWTVerifier_Rejects(t *testing.T) {
	v, err := session.NewJWTVerifier("top-secret", nil)
	require.NoError(t, err)
	other, err := session.NewJWTVerifier("another-secret", nil)
	require.NoError(t, err)

	expired, err := v.Sign(session.User{ID: "u"}, -time.Minute)
	require.NoError(t, err)
	foreign, err := other.Sign(session.User{ID: "u"}, time.Hour)
	require.NoError(t, err)
	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, session.Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("top-secret"))
	require.NoError(t, err)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, session.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":      expired,
		"wrong secret": foreign,
		"missing sub":  noSubject,
		"alg none":     unsigned,
		"garbage":      "not.a.token",
		"empty":        "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), token)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}

func TestNewJWTVerifier_EmptySecret(t *testing.T) {
	_, err := session.NewJWTVerifier("", nil)
	assert.Error(t, err)
}
