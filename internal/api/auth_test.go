package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_hashPassword_verifyPassword(t *testing.T) {
	hash, err := hashPassword("s3cret-password")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-password", hash)

	assert.True(t, verifyPassword(hash, "s3cret-password"))
	assert.False(t, verifyPassword(hash, "wrong-password"))
}

func Test_jwtRoundTrip(t *testing.T) {
	s := &SynapsoApp{signingKey: []byte("test-signing-key")}

	token, err := s.createJwtForSession(42, time.Minute)
	require.NoError(t, err)

	userId, err := s.extractUserIdFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, 42, userId)
}

func Test_extractUserIdFromToken_invalid(t *testing.T) {
	s := &SynapsoApp{signingKey: []byte("test-signing-key")}

	t.Run("garbage token", func(t *testing.T) {
		_, err := s.extractUserIdFromToken("not-a-token")
		assert.Error(t, err)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := &SynapsoApp{signingKey: []byte("other-key")}
		token, err := other.createJwtForSession(42, time.Minute)
		require.NoError(t, err)

		_, err = s.extractUserIdFromToken(token)
		assert.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := s.createJwtForSession(42, -time.Minute)
		require.NoError(t, err)

		_, err = s.extractUserIdFromToken(token)
		assert.Error(t, err)
	})
}
