// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/pdiddy/content-engine/internal/llm"
	"github.com/pdiddy/content-engine/pkg/types"
)

// setDefaults registers every configuration key with its default so that
// environment variables can override any of them.
func setDefaults() {
	d := types.DefaultPipelineConfig()

	viper.SetDefault("secrets_dir", ".secrets")

	viper.SetDefault("ai.provider", string(d.AI.Provider))
	viper.SetDefault("ai.model", "")
	viper.SetDefault("ai.api_key", "")
	viper.SetDefault("ai.base_url", "")
	viper.SetDefault("ai.temperature", d.AI.Temperature)
	viper.SetDefault("ai.max_tokens", d.AI.MaxTokens)

	viper.SetDefault("retry.max_attempts", d.Retry.MaxAttempts)
	viper.SetDefault("retry.base_delay", d.Retry.BaseDelay)
	viper.SetDefault("retry.multiplier", d.Retry.Multiplier)
	viper.SetDefault("retry.max_delay", d.Retry.MaxDelay)
	viper.SetDefault("retry.jitter", d.Retry.Jitter)
	viper.SetDefault("retry.call_timeout", d.Retry.CallTimeout)

	viper.SetDefault("publish.templates", d.Publish.Templates)
	viper.SetDefault("publish.concurrency", d.Publish.Concurrency)

	viper.SetDefault("output.dir", d.Output.Dir)
	viper.SetDefault("output.markdown", d.Output.Markdown)
	viper.SetDefault("output.save_state", d.Output.SaveState)

	viper.SetDefault("history.enabled", d.History.Enabled)
	viper.SetDefault("history.path", d.History.Path)

	viper.SetDefault("log.level", d.Log.Level)
	viper.SetDefault("log.format", d.Log.Format)
}

// configureEnv maps CONTENT_ENGINE_AI_PROVIDER and friends onto keys.
func configureEnv() {
	viper.SetEnvPrefix("CONTENT_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// loadConfig decodes viper's merged view into a validated PipelineConfig.
// An empty model takes the provider's default.
func loadConfig() (types.PipelineConfig, error) {
	var c types.PipelineConfig
	if err := viper.Unmarshal(&c); err != nil {
		return c, types.Configurationf("decoding configuration: %v", err)
	}
	c.AI.Provider = types.Provider(strings.ToLower(strings.TrimSpace(string(c.AI.Provider))))
	if c.AI.Model == "" {
		c.AI.Model = llm.DefaultModel(c.AI.Provider)
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// resolveAPIKey fills the provider key from the environment or the secrets
// directory when the configuration does not carry one.
func resolveAPIKey(ai types.AIConfig) types.AIConfig {
	if ai.APIKey == "" {
		ai.APIKey = loadedSecrets.Lookup(llm.EnvKey(ai.Provider), llm.SecretKey(ai.Provider))
	}
	return ai
}
