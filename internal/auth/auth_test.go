package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	keys, err := NewKeys("test-secret", time.Hour)
	require.NoError(t, err)

	token, err := keys.GenerateToken(42, "alice@example.com", RoleAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := keys.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", claims.Email)
	require.Equal(t, RoleAdmin, claims.Role)

	userID, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, int64(42), userID)
}

func TestExpiredTokenRejected(t *testing.T) {
	keys, err := NewKeys("test-secret", time.Millisecond)
	require.NoError(t, err)

	token, err := keys.GenerateToken(1, "bob@example.com", RoleUser)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = keys.ValidateToken(token)
	require.Error(t, err)
}

func TestGarbageTokenRejected(t *testing.T) {
	keys, err := NewKeys("test-secret", time.Hour)
	require.NoError(t, err)

	_, err = keys.ValidateToken("not.a.token")
	require.Error(t, err)
}

func TestWrongSecretRejected(t *testing.T) {
	signer, err := NewKeys("secret-a", time.Hour)
	require.NoError(t, err)
	verifier, err := NewKeys("secret-b", time.Hour)
	require.NoError(t, err)

	token, err := signer.GenerateToken(7, "eve@example.com", RoleUser)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	require.Error(t, err)
}

func TestEmptySecretRejected(t *testing.T) {
	_, err := NewKeys("", time.Hour)
	require.Error(t, err)
}
