// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// Provider identifies the generative model backend.
type Provider string

const (
	ProviderGemini  Provider = "gemini"
	ProviderOpenAI  Provider = "openai"
	ProviderClaude  Provider = "claude"
	ProviderOffline Provider = "offline"
)

// AIConfig holds settings for the model boundary.
type AIConfig struct {
	// Provider selects the backend: gemini, openai, claude, or offline.
	Provider Provider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the model identifier (e.g. "gemini-1.5-flash").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the provider.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL overrides the provider endpoint (OpenAI-compatible gateways, tests).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// Temperature is the sampling temperature (default 0.7).
	Temperature float64 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`

	// MaxTokens bounds the response length where the provider requires it.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`
}

// RetryConfig holds the resilience policy for every model call.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts per call (default and
	// maximum 5).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts" mapstructure:"max_attempts"`

	// BaseDelay is the wait before the second attempt (default 1s).
	BaseDelay time.Duration `json:"base_delay" yaml:"base_delay" mapstructure:"base_delay"`

	// Multiplier scales the delay after each attempt (default 2).
	Multiplier float64 `json:"multiplier" yaml:"multiplier" mapstructure:"multiplier"`

	// MaxDelay caps a single backoff wait (default 1m).
	MaxDelay time.Duration `json:"max_delay" yaml:"max_delay" mapstructure:"max_delay"`

	// Jitter is the fraction of the delay added at random, in [0,1] (default 0.25).
	Jitter float64 `json:"jitter" yaml:"jitter" mapstructure:"jitter"`

	// CallTimeout bounds a single attempt (default 60s).
	CallTimeout time.Duration `json:"call_timeout" yaml:"call_timeout" mapstructure:"call_timeout"`
}

// PublishConfig holds settings for the publisher stage.
type PublishConfig struct {
	// Templates lists the template identifiers to render (default faq, product, comparison).
	Templates []string `json:"templates" yaml:"templates" mapstructure:"templates"`

	// Concurrency is the number of sections rendered at once within a page (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`
}

// OutputConfig holds settings for the file collaborator.
type OutputConfig struct {
	// Dir is the directory pages are written to (default "output").
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// Markdown also writes a Markdown rendering next to each page.
	Markdown bool `json:"markdown" yaml:"markdown" mapstructure:"markdown"`

	// SaveState writes the enriched state as state.json for inspection.
	SaveState bool `json:"save_state" yaml:"save_state" mapstructure:"save_state"`
}

// HistoryConfig holds settings for the run history database.
type HistoryConfig struct {
	// Enabled turns run recording on.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Path is the SQLite database path (default "output/history.db").
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is text or json (default text).
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// PipelineConfig groups all settings for one run.
type PipelineConfig struct {
	AI      AIConfig      `json:"ai" yaml:"ai" mapstructure:"ai"`
	Retry   RetryConfig   `json:"retry" yaml:"retry" mapstructure:"retry"`
	Publish PublishConfig `json:"publish" yaml:"publish" mapstructure:"publish"`
	Output  OutputConfig  `json:"output" yaml:"output" mapstructure:"output"`
	History HistoryConfig `json:"history" yaml:"history" mapstructure:"history"`
	Log     LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
}

// MaxAttemptsLimit is the most attempts any model call may make.
const MaxAttemptsLimit = 5

// DefaultTemplates is the page set rendered when none is configured.
var DefaultTemplates = []string{"faq", "product", "comparison"}

// DefaultPipelineConfig returns the configuration used when nothing is set.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		AI: AIConfig{
			Provider:    ProviderGemini,
			Model:       "gemini-1.5-flash",
			Temperature: 0.7,
			MaxTokens:   4096,
		},
		Retry: DefaultRetryConfig(),
		Publish: PublishConfig{
			Templates:   append([]string(nil), DefaultTemplates...),
			Concurrency: 4,
		},
		Output: OutputConfig{
			Dir: "output",
		},
		History: HistoryConfig{
			Path: "output/history.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultRetryConfig returns the default resilience policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		Multiplier:  2,
		MaxDelay:    time.Minute,
		Jitter:      0.25,
		CallTimeout: 60 * time.Second,
	}
}

// Validate reports the first invalid setting as a configuration error.
func (c PipelineConfig) Validate() error {
	switch c.AI.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderClaude, ProviderOffline:
	default:
		return Configurationf("unknown provider %q: use gemini, openai, claude, or offline", c.AI.Provider)
	}
	if c.AI.Provider != ProviderOffline && c.AI.Model == "" {
		return Configurationf("ai.model is required for provider %s", c.AI.Provider)
	}
	if err := c.Retry.Validate(); err != nil {
		return err
	}
	if len(c.Publish.Templates) == 0 {
		return Configurationf("publish.templates must name at least one template")
	}
	if c.Publish.Concurrency < 1 {
		return Configurationf("publish.concurrency must be positive, got %d", c.Publish.Concurrency)
	}
	if c.Output.Dir == "" {
		return Configurationf("output.dir is required")
	}
	return nil
}

// Validate checks the retry policy bounds.
func (r RetryConfig) Validate() error {
	if r.MaxAttempts < 1 || r.MaxAttempts > MaxAttemptsLimit {
		return Configurationf("retry.max_attempts must be within [1,%d], got %d", MaxAttemptsLimit, r.MaxAttempts)
	}
	if r.BaseDelay < 0 || r.MaxDelay < 0 || r.CallTimeout < 0 {
		return Configurationf("retry durations must be non-negative")
	}
	if r.Multiplier <= 1 {
		return Configurationf("retry.multiplier must be greater than 1, got %g", r.Multiplier)
	}
	if r.Jitter < 0 || r.Jitter > 1 {
		return Configurationf("retry.jitter must be within [0,1], got %g", r.Jitter)
	}
	return nil
}

// String summarizes the model settings without the key.
func (a AIConfig) String() string {
	return fmt.Sprintf("%s/%s", a.Provider, a.Model)
}
