// ABOUTME: LiveKit access token minting for audio room joins
// ABOUTME: HS256 JWTs with video grant claims, signed with the API secret

package livekit

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotConfigured is returned when LiveKit credentials are missing.
// Startup validation makes this unreachable in a running server.
var ErrNotConfigured = errors.New("livekit credentials not configured")

// DefaultTTL is the lifetime of issued room tokens.
const DefaultTTL = 6 * time.Hour

// TokenIssuer mints short-lived LiveKit room access tokens.
type TokenIssuer struct {
	apiKey    string
	apiSecret string
	url       string
}

// Token is an issued room credential.
type Token struct {
	Token     string `json:"token"`
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in"` // seconds
}

// New creates a token issuer. All three credentials are required.
func New(apiKey, apiSecret, url string) (*TokenIssuer, error) {
	if apiKey == "" || apiSecret == "" || url == "" {
		return nil, ErrNotConfigured
	}
	return &TokenIssuer{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		url:       url,
	}, nil
}

// IssueToken mints a room join token for the given participant. The claim
// layout follows the LiveKit access-token format: issuer is the API key,
// subject is the participant identity, and the video grant carries the room.
func (i *TokenIssuer) IssueToken(roomName, participantName string, ttl time.Duration) (*Token, error) {
	if roomName == "" || participantName == "" {
		return nil, fmt.Errorf("room name and participant name are required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iss":  i.apiKey,
		"sub":  participantName,
		"name": participantName,
		"nbf":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
		"video": map[string]any{
			"room":         roomName,
			"roomJoin":     true,
			"canPublish":   true,
			"canSubscribe": true,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(i.apiSecret))
	if err != nil {
		return nil, fmt.Errorf("signing token: %w", err)
	}

	return &Token{
		Token:     signed,
		URL:       i.url,
		ExpiresIn: int(ttl.Seconds()),
	}, nil
}
