// ABOUTME: AI backend variants for message analysis and agent replies
// ABOUTME: Configured backend talks to Mastra over HTTP; Unavailable falls back to pattern matching

package ai

import (
	"context"
	"errors"
	"log/slog"

	"github.com/DealExMachina/voice-agent-mastra-demo/internal/extract"
)

// ErrNotConfigured is returned by reply operations when no hosted agent is
// available. Extraction never fails this way: the pattern fallback always runs.
var ErrNotConfigured = errors.New("ai backend not configured")

// Backend analyzes messages and produces agent replies. Exactly two
// implementations exist: the Mastra-backed one (credentials present) and the
// local pattern matcher (credentials absent). Callers branch on Ready rather
// than scattering isConfigured booleans.
type Backend interface {
	// Extract analyzes a message. Never returns an error from the pattern
	// backend; the Mastra backend degrades to pattern matching on upstream
	// failure instead of erroring.
	Extract(ctx context.Context, text string) (*extract.Result, error)

	// Reply asks the agent for a response to a user message. Returns
	// ErrNotConfigured from the pattern backend.
	Reply(ctx context.Context, sessionID, userID, content string) (*Reply, error)

	// Ready reports whether a hosted agent is reachable in principle
	// (credentials configured).
	Ready() bool
}

// Reply is an agent-authored response.
type Reply struct {
	Content    string
	Confidence float64
}

// Options configures backend construction.
type Options struct {
	MastraURL string
	APIKey    string
	Logger    *slog.Logger
}

// NewBackend returns the Mastra backend when credentials are set, otherwise
// the local pattern backend. Missing AI credentials are not an error; the
// service degrades instead of refusing to start.
func NewBackend(opts Options) Backend {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "ai")

	if opts.MastraURL == "" || opts.APIKey == "" {
		logger.Info("mastra credentials absent, using pattern-matching backend")
		return &patternBackend{}
	}
	return newMastraBackend(opts.MastraURL, opts.APIKey, logger)
}

// patternBackend is the always-available local analysis fallback.
type patternBackend struct{}

func (b *patternBackend) Extract(_ context.Context, text string) (*extract.Result, error) {
	return extract.Extract(text), nil
}

func (b *patternBackend) Reply(_ context.Context, _, _, _ string) (*Reply, error) {
	return nil, ErrNotConfigured
}

func (b *patternBackend) Ready() bool {
	return false
}
