// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/content-engine/internal/httputil"
	"github.com/pdiddy/content-engine/internal/invoke"
	"github.com/pdiddy/content-engine/pkg/types"
)

// claudeAPIURL is the Claude Messages API endpoint.
const claudeAPIURL = "https://api.anthropic.com/v1/messages"

// Claude calls the Claude Messages API over plain HTTP.
type Claude struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Endpoint    string
	Client      *http.Client
}

// claudeRequest is the request body for the Claude Messages API.
type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	System      string          `json:"system,omitempty"`
	Temperature float64         `json:"temperature"`
	Messages    []claudeMessage `json:"messages"`
}

// claudeMessage is a single message in the conversation.
type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// claudeResponse is the response body from the Messages API.
type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

// claudeContent is a content block in the response.
type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NewClaude returns a Claude backend for cfg.
func NewClaude(cfg types.AIConfig) (*Claude, error) {
	if cfg.APIKey == "" {
		return nil, missingKey(types.ProviderClaude)
	}
	endpoint := cfg.BaseURL
	if endpoint == "" {
		endpoint = claudeAPIURL
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Claude{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		MaxTokens:   maxTokens,
		Temperature: cfg.Temperature,
		Endpoint:    endpoint,
		Client:      &http.Client{},
	}, nil
}

// Call sends one message. Structured requests get an explicit JSON-only
// instruction because the API has no JSON response mode.
func (c *Claude) Call(ctx context.Context, req invoke.Request) (string, error) {
	system := req.System
	if req.Structured {
		system = strings.TrimSpace(system + "\nRespond with a single JSON value and no other text.")
	}

	bodyBytes, err := json.Marshal(claudeRequest{
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		System:      system,
		Temperature: c.Temperature,
		Messages: []claudeMessage{
			{Role: "user", Content: req.User},
		},
	})
	if err != nil {
		return "", invoke.Fatal(fmt.Errorf("marshaling request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", invoke.Fatal(fmt.Errorf("creating request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.APIKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckResponse("Claude API", resp); err != nil {
		return "", err
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", invoke.Transient(fmt.Errorf("decoding Claude response: %w", err))
	}

	var b strings.Builder
	for _, block := range cResp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", invoke.Transient(errors.New("no text content in Claude API response"))
	}
	return b.String(), nil
}

// Close implements Client.
func (c *Claude) Close() error { return nil }
