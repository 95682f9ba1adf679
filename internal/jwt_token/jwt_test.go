package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "selfid/pkg/domain"
	dErrors "selfid/pkg/domain-errors"
)

func newTestTokenService() *Service {
	return NewService("test-signing-key", "selfid", "selfid-api")
}

func TestCallerTokenRoundTrip(t *testing.T) {
	svc := newTestTokenService()

	token, err := svc.GenerateCallerToken("0xdeadbeef", time.Minute)
	require.NoError(t, err)

	caller, err := svc.CallerFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, id.Address("0xdeadbeef"), caller)
}

func TestValidateToken(t *testing.T) {
	svc := newTestTokenService()

	t.Run("rejects expired token", func(t *testing.T) {
		token, err := svc.GenerateCallerToken("0xdeadbeef", -time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("rejects token signed with another key", func(t *testing.T) {
		other := NewService("other-signing-key", "selfid", "selfid-api")
		token, err := other.GenerateCallerToken("0xdeadbeef", time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-jwt")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("valid token carries the address claim", func(t *testing.T) {
		token, err := svc.GenerateCallerToken("0xaabb", time.Minute)
		require.NoError(t, err)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "0xaabb", claims.Address)
		assert.Equal(t, "selfid", claims.Issuer)
	})
}

func TestCallerFromTokenRejectsBadAddress(t *testing.T) {
	svc := newTestTokenService()

	token, err := svc.GenerateCallerToken("not-an-address", time.Minute)
	require.NoError(t, err)

	_, err = svc.CallerFromToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
