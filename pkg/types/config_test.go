// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPipelineConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *PipelineConfig)
		wantErr bool
	}{
		{"defaults", func(c *PipelineConfig) {}, false},
		{"offline without model", func(c *PipelineConfig) { c.AI.Provider, c.AI.Model = ProviderOffline, "" }, false},
		{"unknown provider", func(c *PipelineConfig) { c.AI.Provider = "bard" }, true},
		{"missing model", func(c *PipelineConfig) { c.AI.Model = "" }, true},
		{"no attempts", func(c *PipelineConfig) { c.Retry.MaxAttempts = 0 }, true},
		{"five attempts", func(c *PipelineConfig) { c.Retry.MaxAttempts = MaxAttemptsLimit }, false},
		{"too many attempts", func(c *PipelineConfig) { c.Retry.MaxAttempts = 12 }, true},
		{"negative delay", func(c *PipelineConfig) { c.Retry.BaseDelay = -1 }, true},
		{"flat multiplier", func(c *PipelineConfig) { c.Retry.Multiplier = 1 }, true},
		{"jitter too large", func(c *PipelineConfig) { c.Retry.Jitter = 2 }, true},
		{"no templates", func(c *PipelineConfig) { c.Publish.Templates = nil }, true},
		{"zero concurrency", func(c *PipelineConfig) { c.Publish.Concurrency = 0 }, true},
		{"no output dir", func(c *PipelineConfig) { c.Output.Dir = "" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultPipelineConfig()
			tt.mutate(&c)
			err := c.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, ErrConfiguration), "got %v", err)
		})
	}
}

func TestAIConfigStringOmitsKey(t *testing.T) {
	a := AIConfig{Provider: ProviderOpenAI, Model: "gpt-4o-mini", APIKey: "sk-secret"}
	assert.Equal(t, "openai/gpt-4o-mini", a.String())
}
