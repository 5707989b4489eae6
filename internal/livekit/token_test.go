// ABOUTME: Tests for LiveKit token minting
// ABOUTME: Verifies claim layout, signing, and configuration errors

package livekit

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresCredentials(t *testing.T) {
	cases := []struct{ key, secret, url string }{
		{"", "secret", "wss://lk.example.com"},
		{"key", "", "wss://lk.example.com"},
		{"key", "secret", ""},
	}
	for _, tc := range cases {
		_, err := New(tc.key, tc.secret, tc.url)
		assert.ErrorIs(t, err, ErrNotConfigured)
	}

	_, err := New("key", "secret", "wss://lk.example.com")
	assert.NoError(t, err)
}

func TestIssueToken(t *testing.T) {
	issuer, err := New("api-key", "api-secret", "wss://lk.example.com")
	require.NoError(t, err)

	tok, err := issuer.IssueToken("demo-room", "alice", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "wss://lk.example.com", tok.URL)
	assert.Equal(t, 3600, tok.ExpiresIn)

	// Verify the signed claims round-trip
	parsed, err := jwt.Parse(tok.Token, func(token *jwt.Token) (any, error) {
		return []byte("api-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "api-key", claims["iss"])
	assert.Equal(t, "alice", claims["sub"])

	video, ok := claims["video"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "demo-room", video["room"])
	assert.Equal(t, true, video["roomJoin"])
}

func TestIssueToken_Validation(t *testing.T) {
	issuer, err := New("api-key", "api-secret", "wss://lk.example.com")
	require.NoError(t, err)

	_, err = issuer.IssueToken("", "alice", time.Hour)
	assert.Error(t, err)

	_, err = issuer.IssueToken("demo-room", "", time.Hour)
	assert.Error(t, err)
}

func TestIssueToken_DefaultTTL(t *testing.T) {
	issuer, err := New("api-key", "api-secret", "wss://lk.example.com")
	require.NoError(t, err)

	tok, err := issuer.IssueToken("demo-room", "alice", 0)
	require.NoError(t, err)
	assert.Equal(t, int(DefaultTTL.Seconds()), tok.ExpiresIn)
}
