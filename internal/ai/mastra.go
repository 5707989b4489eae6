// ABOUTME: Mastra agent HTTP client implementing the Backend interface
// ABOUTME: Degrades to local pattern extraction when the upstream call fails

package ai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/DealExMachina/voice-agent-mastra-demo/internal/extract"
)

// agentName is the Mastra agent route the relay talks to.
const agentName = "voice-agent"

// requestTimeout bounds a single upstream call. A slow agent delays one
// request but must not wedge the connection pool.
const requestTimeout = 30 * time.Second

// mastraBackend talks to a hosted Mastra agent API.
type mastraBackend struct {
	client *resty.Client
	logger *slog.Logger
}

func newMastraBackend(baseURL, apiKey string, logger *slog.Logger) *mastraBackend {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(requestTimeout).
		SetHeader("Authorization", "Bearer "+apiKey).
		SetHeader("Content-Type", "application/json")

	return &mastraBackend{
		client: client,
		logger: logger,
	}
}

// generateRequest is the Mastra agent generate call body.
type generateRequest struct {
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// generateResponse is the subset of the Mastra response the relay reads.
type generateResponse struct {
	Text     string  `json:"text"`
	Finished bool    `json:"finished"`
	Score    float64 `json:"score"`
}

// Extract asks Mastra to analyze the message. Upstream failures degrade to
// the local pattern matcher: enrichment is best-effort by contract and the
// pattern results are always valid.
func (b *mastraBackend) Extract(ctx context.Context, text string) (*extract.Result, error) {
	local := extract.Extract(text)

	resp, err := b.generate(ctx, fmt.Sprintf("Extract entities from: %s", text))
	if err != nil {
		b.logger.Warn("mastra extraction failed, using pattern fallback", "error", err)
		return local, nil
	}

	// The hosted agent returns free text; the structured entity set still
	// comes from pattern matching. Keep the agent's view as the summary when
	// it produced one.
	if resp.Text != "" {
		local.Summary = resp.Text
	}
	return local, nil
}

// Reply asks the agent for a conversational response.
func (b *mastraBackend) Reply(ctx context.Context, sessionID, userID, content string) (*Reply, error) {
	resp, err := b.generate(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("requesting agent reply: %w", err)
	}
	if resp.Text == "" {
		return nil, fmt.Errorf("agent returned empty reply")
	}

	confidence := resp.Score
	if confidence <= 0 || confidence > 1 {
		confidence = 0.75
	}

	b.logger.Debug("agent reply received",
		"session_id", sessionID,
		"user_id", userID,
		"confidence", confidence,
	)
	return &Reply{Content: resp.Text, Confidence: confidence}, nil
}

func (b *mastraBackend) Ready() bool {
	return true
}

func (b *mastraBackend) generate(ctx context.Context, content string) (*generateResponse, error) {
	var result generateResponse

	resp, err := b.client.R().
		SetContext(ctx).
		SetBody(&generateRequest{
			Messages: []chatMessage{{Role: "user", Content: content}},
		}).
		SetResult(&result).
		// Some deployments front the agent with proxies that drop the
		// Content-Type header; decode the body as JSON regardless.
		ForceContentType("application/json").
		Post(fmt.Sprintf("/api/agents/%s/generate", agentName))
	if err != nil {
		return nil, fmt.Errorf("calling mastra: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("mastra returned %s", resp.Status())
	}
	return &result, nil
}
