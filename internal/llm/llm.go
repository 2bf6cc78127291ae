// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm implements the model boundary for each supported provider.
// Every backend satisfies invoke.ModelClient and classifies its failures as
// rate-limited, transient, or fatal; none of them retries on its own.
package llm

import (
	"context"

	"github.com/pdiddy/content-engine/internal/invoke"
	"github.com/pdiddy/content-engine/pkg/types"
)

// Client is a model backend that may hold resources.
type Client interface {
	invoke.ModelClient
	Close() error
}

// New builds the backend selected by cfg.Provider. A missing API key for a
// networked provider is a configuration error.
func New(ctx context.Context, cfg types.AIConfig) (Client, error) {
	switch cfg.Provider {
	case types.ProviderGemini:
		return NewGemini(ctx, cfg)
	case types.ProviderOpenAI:
		return NewOpenAI(cfg)
	case types.ProviderClaude:
		return NewClaude(cfg)
	case types.ProviderOffline:
		return Offline{}, nil
	default:
		return nil, types.Configurationf("unknown provider %q", cfg.Provider)
	}
}

// SecretKey returns the .secrets/ file name holding the API key for p.
func SecretKey(p types.Provider) string {
	switch p {
	case types.ProviderGemini:
		return "gemini-api-key"
	case types.ProviderOpenAI:
		return "openai-api-key"
	case types.ProviderClaude:
		return "anthropic-api-key"
	default:
		return ""
	}
}

// EnvKey returns the conventional environment variable for p's API key.
func EnvKey(p types.Provider) string {
	switch p {
	case types.ProviderGemini:
		return "GEMINI_API_KEY"
	case types.ProviderOpenAI:
		return "OPENAI_API_KEY"
	case types.ProviderClaude:
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

func missingKey(p types.Provider) error {
	return types.Configurationf("%s api key missing: set ai.api_key, %s, or .secrets/%s", p, EnvKey(p), SecretKey(p))
}

// DefaultModel returns the model used for p when none is configured.
func DefaultModel(p types.Provider) string {
	switch p {
	case types.ProviderGemini:
		return "gemini-1.5-flash"
	case types.ProviderOpenAI:
		return "gpt-4o-mini"
	case types.ProviderClaude:
		return "claude-3-5-haiku-latest"
	default:
		return "offline"
	}
}
