package auth_test

import (
	"testing"
	"time"

	"github.com/Houeta/homecare-api/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	t.Parallel()

	manager := auth.NewTokenManager("test-secret", time.Hour)

	token, err := manager.Generate("user-1", "client@example.com", "CLIENT")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "client@example.com", claims.Email)
	assert.Equal(t, "CLIENT", claims.Role)
}

func TestTokenManager_Expired(t *testing.T) {
	t.Parallel()

	manager := auth.NewTokenManager("test-secret", -time.Minute)

	token, err := manager.Generate("user-1", "client@example.com", "CLIENT")
	require.NoError(t, err)

	_, err = manager.Verify(token)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	t.Parallel()

	token, err := auth.NewTokenManager("secret-a", time.Hour).Generate("user-1", "a@b.c", "ADMIN")
	require.NoError(t, err)

	_, err = auth.NewTokenManager("secret-b", time.Hour).Verify(token)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenManager_Garbage(t *testing.T) {
	t.Parallel()

	_, err := auth.NewTokenManager("secret", time.Hour).Verify("not-a-token")
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	t.Parallel()

	hash, err := auth.HashPassword("s3cret-password")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-password", hash)

	assert.True(t, auth.VerifyPassword(hash, "s3cret-password"))
	assert.False(t, auth.VerifyPassword(hash, "wrong-password"))
}
