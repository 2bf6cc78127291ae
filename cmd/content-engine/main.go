// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the content-engine CLI. The CLI
// loads configuration and credentials, reads the product record, runs the
// analyst and publisher stages, and writes the resulting pages.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/content-engine/internal/logging"
	"github.com/pdiddy/content-engine/internal/secrets"
	"github.com/pdiddy/content-engine/pkg/types"
)

// appName names the config file and the XDG config directory.
const appName = "content-engine"

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfg is the resolved configuration for this invocation.
	cfg types.PipelineConfig

	// loadedSecrets holds API keys loaded from the secrets directory.
	loadedSecrets secrets.Store

	logger = slog.Default()
)

// rootCmd is the base command for the content-engine CLI.
var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Generate FAQ, product, and comparison pages from a product record",
	Long: `content-engine turns one structured product record into machine-readable
pages. The analyst stage enriches the record with 15 categorized shopper
questions and a fabricated competitor; the publisher stage renders each
page template section by section.

Use generate for a full run, or analyze and publish to run the stages
separately with a saved state in between.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		c, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = c

		l, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return types.Configurationf("%v", err)
		}
		logger = l
		slog.SetDefault(l)
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug("using config file", "path", used)
		}

		s, err := secrets.Load(viper.GetString("secrets_dir"), logger)
		if err != nil {
			return types.Configurationf("%v", err)
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", "keys", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)
	setDefaults()

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./content-engine.yaml or $XDG_CONFIG_HOME/content-engine/config.yaml)")
	pf.String("secrets-dir", secrets.DefaultDir, "directory of API key files")
	pf.String("provider", "", "model provider: gemini, openai, claude, or offline")
	pf.String("model", "", "model identifier (default depends on provider)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text or json")
	pf.String("output-dir", "output", "directory for pages and state")
	pf.StringSlice("templates", types.DefaultTemplates, "templates to render")
	pf.Int("concurrency", 4, "sections rendered at once within a page")
	pf.Bool("markdown", false, "also write a Markdown rendering of each page")
	pf.Bool("history", false, "record the run in the history database")

	bindFlag("secrets_dir", "secrets-dir")
	bindFlag("ai.provider", "provider")
	bindFlag("ai.model", "model")
	bindFlag("log.level", "log-level")
	bindFlag("log.format", "log-format")
	bindFlag("output.dir", "output-dir")
	bindFlag("publish.templates", "templates")
	bindFlag("publish.concurrency", "concurrency")
	bindFlag("output.markdown", "markdown")
	bindFlag("history.enabled", "history")
}

func bindFlag(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", flag, err))
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(appName)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath(filepath.Join(xdg.ConfigHome, appName))
	}
	configureEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "warning: reading config: %v\n", err)
		}
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, describeError(err))
		stop()
		os.Exit(1)
	}
}

// describeError renders a failure as one line naming its kind and stage.
func describeError(err error) string {
	kind, stage := types.KindOf(err), types.StageOf(err)
	switch {
	case kind != "" && stage != "":
		return fmt.Sprintf("error (%s, %s stage): %v", kind, stage, logging.Scrub(err.Error()))
	case kind != "":
		return fmt.Sprintf("error (%s): %v", kind, logging.Scrub(err.Error()))
	default:
		return fmt.Sprintf("error: %v", logging.Scrub(err.Error()))
	}
}
