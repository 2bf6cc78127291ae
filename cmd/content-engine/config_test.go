// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/content-engine/internal/secrets"
	"github.com/pdiddy/content-engine/pkg/types"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	setDefaults()
	configureEnv()
	t.Cleanup(viper.Reset)
}

func TestLoadConfigDefaults(t *testing.T) {
	resetViper(t)

	c, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, types.ProviderGemini, c.AI.Provider)
	assert.Equal(t, "gemini-1.5-flash", c.AI.Model)
	assert.Equal(t, types.DefaultRetryConfig(), c.Retry)
	assert.Equal(t, types.DefaultTemplates, c.Publish.Templates)
	assert.Equal(t, 4, c.Publish.Concurrency)
	assert.Equal(t, "output", c.Output.Dir)
}

func TestLoadConfigEnvironment(t *testing.T) {
	resetViper(t)
	t.Setenv("CONTENT_ENGINE_AI_PROVIDER", "OpenAI")
	t.Setenv("CONTENT_ENGINE_RETRY_BASE_DELAY", "250ms")
	t.Setenv("CONTENT_ENGINE_RETRY_MAX_ATTEMPTS", "3")
	t.Setenv("CONTENT_ENGINE_PUBLISH_CONCURRENCY", "2")

	c, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, types.ProviderOpenAI, c.AI.Provider)
	assert.Equal(t, "gpt-4o-mini", c.AI.Model, "model follows the provider")
	assert.Equal(t, 250*time.Millisecond, c.Retry.BaseDelay)
	assert.Equal(t, 3, c.Retry.MaxAttempts)
	assert.Equal(t, 2, c.Publish.Concurrency)
}

func TestLoadConfigExplicitModel(t *testing.T) {
	resetViper(t)
	viper.Set("ai.provider", "claude")
	viper.Set("ai.model", "claude-sonnet-4-20250514")

	c, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4-20250514", c.AI.Model)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"unknown provider", "ai.provider", "bard"},
		{"zero attempts", "retry.max_attempts", 0},
		{"too many attempts", "retry.max_attempts", 12},
		{"zero concurrency", "publish.concurrency", 0},
		{"jitter out of range", "retry.jitter", 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper(t)
			viper.Set(tt.key, tt.val)

			_, err := loadConfig()
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrConfiguration))
		})
	}
}

func TestResolveAPIKey(t *testing.T) {
	saved := loadedSecrets
	t.Cleanup(func() { loadedSecrets = saved })
	loadedSecrets = secrets.Store{"openai-api-key": "sk-from-file"}
	t.Setenv("OPENAI_API_KEY", "")

	ai := resolveAPIKey(types.AIConfig{Provider: types.ProviderOpenAI})
	assert.Equal(t, "sk-from-file", ai.APIKey)

	ai = resolveAPIKey(types.AIConfig{Provider: types.ProviderOpenAI, APIKey: "sk-configured"})
	assert.Equal(t, "sk-configured", ai.APIKey)
}

func TestDescribeError(t *testing.T) {
	err := types.NewError(types.KindModelFatal, types.StageAnalyst, errors.New("gave up"))
	msg := describeError(err)
	assert.Contains(t, msg, "model_fatal")
	assert.Contains(t, msg, "analyst stage")

	msg = describeError(types.Configurationf("missing key sk-abcdefghijklmnopqrstuvwxyz"))
	assert.Contains(t, msg, "configuration")
	assert.NotContains(t, msg, "sk-abcdefghijklmnopqrstuvwxyz")

	assert.Equal(t, "error: plain", describeError(errors.New("plain")))
}
