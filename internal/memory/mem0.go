// ABOUTME: mem0 HTTP client for mirroring memories to the hosted store
// ABOUTME: Thin resty wrapper; failures are reported, never retried

package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/DealExMachina/voice-agent-mastra-demo/internal/store"
)

// mem0Timeout bounds a single mirror call.
const mem0Timeout = 15 * time.Second

// Mem0Client mirrors memory records to the hosted mem0 API.
type Mem0Client struct {
	client *resty.Client
}

// NewMem0Client builds a client for the given endpoint. Returns nil when the
// API key is empty: callers treat a nil client as "mirroring disabled".
func NewMem0Client(baseURL, apiKey string) *Mem0Client {
	if apiKey == "" {
		return nil
	}
	if baseURL == "" {
		baseURL = "https://api.mem0.ai"
	}
	return &Mem0Client{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(mem0Timeout).
			SetHeader("Authorization", "Token "+apiKey).
			SetHeader("Content-Type", "application/json"),
	}
}

// mem0Memory is the wire shape of one mirrored record.
type mem0Memory struct {
	Messages []mem0Message  `json:"messages"`
	UserID   string         `json:"user_id"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type mem0Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Add mirrors one memory record upstream.
func (c *Mem0Client) Add(ctx context.Context, mem *store.Memory) error {
	body := &mem0Memory{
		Messages: []mem0Message{{Role: "user", Content: mem.Content}},
		UserID:   mem.UserID,
		Metadata: map[string]any{
			"type":       mem.Type,
			"importance": mem.Importance,
			"session_id": mem.SessionID,
			"tags":       mem.Tags,
		},
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/v1/memories/")
	if err != nil {
		return fmt.Errorf("calling mem0: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("mem0 returned %s", resp.Status())
	}
	return nil
}
