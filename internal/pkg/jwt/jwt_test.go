package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamToken_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret")

	token, expiresIn, err := svc.GenerateStreamToken("u1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, 300, expiresIn)

	userID, err := svc.ValidateStreamToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
}

func TestStreamToken_RejectsAccessTokens(t *testing.T) {
	svc := NewJWTService("test-secret")

	// A token without type=stream must not open a stream, even when signed
	// with the right secret.
	_, accessToken, err := svc.JWTAuth().Encode(map[string]interface{}{
		"user_id": "u1",
		"type":    "access",
	})
	require.NoError(t, err)

	_, err = svc.ValidateStreamToken(accessToken)
	assert.Error(t, err)
}

func TestStreamToken_RejectsWrongSecret(t *testing.T) {
	issuer := NewJWTService("secret-a")
	verifier := NewJWTService("secret-b")

	token, _, err := issuer.GenerateStreamToken("u1")
	require.NoError(t, err)

	_, err = verifier.ValidateStreamToken(token)
	assert.Error(t, err)
}

func TestStreamToken_RejectsGarbage(t *testing.T) {
	svc := NewJWTService("test-secret")

	_, err := svc.ValidateStreamToken("not-a-token")
	assert.Error(t, err)
}
